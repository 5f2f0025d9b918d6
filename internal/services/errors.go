// Package services объединяет бизнес-логику сервера лицензирования.
// Подпакеты реализуют отдельные компоненты, а этот пакет задаёт
// общую таксономию ошибок, по которой HTTP-слой выбирает статус ответа.
package services

import "errors"

var (
	// ErrNotFound запрошенная запись не существует.
	ErrNotFound = errors.New("not found")
	// ErrConflict нарушена уникальность поля.
	ErrConflict = errors.New("conflict")
	// ErrBadRequest входные данные некорректны.
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthorized учётные данные отсутствуют или неверны.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden у пользователя недостаточно прав.
	ErrForbidden = errors.New("forbidden")
)

// Error ошибка бизнес-логики с сообщением для клиента.
// Kind определяет категорию и сопоставляется через errors.Is.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap возвращает категорию ошибки.
func (e *Error) Unwrap() error {
	return e.Kind
}

// NotFound создаёт ошибку отсутствия записи.
func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

// Conflict создаёт ошибку нарушения уникальности.
func Conflict(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

// BadRequest создаёт ошибку некорректного запроса.
func BadRequest(msg string) error {
	return &Error{Kind: ErrBadRequest, Message: msg}
}

// Unauthorized создаёт ошибку аутентификации.
func Unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

// Forbidden создаёт ошибку недостатка прав.
func Forbidden(msg string) error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

// Message возвращает сообщение для клиента, если err содержит *Error.
func Message(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Message, true
	}
	return "", false
}
