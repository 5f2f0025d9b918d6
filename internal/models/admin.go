package models

// DeleteResponse подтверждение удаления записи.
type DeleteResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ToggleResponse результат переключения активности записи.
type ToggleResponse struct {
	ID      string `json:"id"`
	Active  bool   `json:"active"`
	Message string `json:"message"`
}
