// Package requestmeta извлекает из HTTP-запроса метаданные клиента
// для журналов проверок лицензий, версий и событий телеметрии.
package requestmeta

import (
	"net"
	"net/http"
	"strings"

	"github.com/magabrotheeeer/license-server/internal/models"
)

// Заголовки геолокации, выставляемые прокси Cloudflare.
const (
	HeaderCountry = "cf-ipcountry"
	HeaderCity    = "cf-ipcity"
)

// FromRequest возвращает IP, User-Agent, страну и город клиента.
// IP берётся из RemoteAddr, который middleware.RealIP заменяет
// значением X-Forwarded-For или X-Real-IP.
func FromRequest(r *http.Request) models.RequestMeta {
	return models.RequestMeta{
		IPAddress: optional(clientIP(r.RemoteAddr)),
		UserAgent: optional(r.UserAgent()),
		Country:   optional(r.Header.Get(HeaderCountry)),
		City:      optional(r.Header.Get(HeaderCity)),
	}
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return strings.TrimSpace(remoteAddr)
	}
	return host
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
