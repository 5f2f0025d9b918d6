// Package semver сравнивает строки версий приложения вида "1.2.3".
package semver

import (
	"errors"
	"strconv"
	"strings"
)

// Compare сравнивает версии по числовым сегментам, разделённым точкой.
// Недостающие и нечисловые сегменты считаются нулём, из сегмента
// берётся ведущее целое число ("10-beta" равно 10). Слишком большое
// число насыщается до предела int64.
// Возвращает -1, если a < b, 0 при равенстве и 1, если a > b.
func Compare(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	n := max(len(as), len(bs))
	for i := range n {
		x, y := segment(as, i), segment(bs, i)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

// Less сообщает, что версия a старше версии b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

func segment(parts []string, i int) int64 {
	if i >= len(parts) {
		return 0
	}
	return leadingInt(parts[i])
}

func leadingInt(s string) int64 {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	// при переполнении ParseInt возвращает границу диапазона
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return v
}
