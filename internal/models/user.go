// Package models содержит доменные структуры сервиса лицензирования:
// пользователей, лицензии, версии приложения и события телеметрии,
// а также DTO входящих запросов с правилами валидации.
package models

import "time"

// Роли пользователей.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleSupport    = "support"
	RoleCustomer   = "customer"
)

// User представляет учётную запись пользователя системы.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	SecondLastName *string    `json:"secondLastName,omitempty"`
	Phone          *string    `json:"phone,omitempty"`
	Company        *string    `json:"company,omitempty"`
	PersonalID     *string    `json:"personalId,omitempty"`
	Role           string     `json:"role"`
	Active         bool       `json:"active"`
	LastLogin      *time.Time `json:"lastLogin"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// FullName возвращает имя и фамилию через пробел.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsAdmin сообщает, есть ли у пользователя доступ к административным маршрутам.
func IsAdmin(role string) bool {
	return role == RoleSuperAdmin || role == RoleAdmin
}

// CreateUserRequest описывает тело запроса на создание пользователя.
type CreateUserRequest struct {
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=6"`
	FirstName      string  `json:"first_name" validate:"required"`
	LastName       string  `json:"last_name" validate:"required"`
	SecondLastName *string `json:"second_last_name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Company        *string `json:"company,omitempty"`
	PersonalID     *string `json:"personal_id,omitempty"`
}

// UpdateUserRequest описывает частичное обновление пользователя.
// Поля со значением nil не изменяются.
type UpdateUserRequest struct {
	Email          *string `json:"email,omitempty" validate:"omitempty,email"`
	Password       *string `json:"password,omitempty" validate:"omitempty,min=6"`
	FirstName      *string `json:"first_name,omitempty"`
	LastName       *string `json:"last_name,omitempty"`
	SecondLastName *string `json:"second_last_name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Company        *string `json:"company,omitempty"`
	PersonalID     *string `json:"personal_id,omitempty"`
}

// LoginRequest описывает учётные данные для входа.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthUser проекция пользователя в ответах аутентификации.
type AuthUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// AuthResponse ответ на вход и регистрацию.
type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	User        AuthUser `json:"user"`
}

// MeResponse ответ на запрос текущего пользователя.
type MeResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Role      string     `json:"role"`
	LastLogin *time.Time `json:"lastLogin"`
}

// LogoutResponse подтверждение выхода.
type LogoutResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
