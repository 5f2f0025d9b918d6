// Package unlockcode генерирует коды разблокировки лицензий.
//
// Код состоит из текущего времени в миллисекундах и 32-битного
// хеша отпечатка устройства. Схема не криптографическая: код
// предсказуем и не должен использоваться как секрет.
package unlockcode

import (
	"strconv"
	"strings"
	"time"
)

// Length длина кода разблокировки.
const Length = 17

// Generator создаёт коды разблокировки.
type Generator struct {
	now func() time.Time
}

// New создаёт генератор, использующий системное время.
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock создаёт генератор с заданным источником времени.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Generate возвращает код из Length цифр для отпечатка устройства.
func (g *Generator) Generate(deviceFingerprint string) string {
	timestamp := strconv.FormatInt(g.now().UnixMilli(), 10)
	combined := timestamp + strconv.FormatInt(Hash(deviceFingerprint), 10)

	if len(combined) >= Length {
		return combined[:Length]
	}
	return combined + strings.Repeat("0", Length-len(combined))
}

// Hash возвращает модуль 32-битного полиномиального хеша строки (h = h*31 + c).
func Hash(s string) int64 {
	var h int32
	for _, c := range s {
		h = (h << 5) - h + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// Valid сообщает, что код имеет корректную длину и состоит только из цифр.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
