// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: форматирование денег в минимальных единицах, плюрализация, работа с временем.
package common

import (
	"fmt"
	"math"
	"time"
)

// MinorPerMajor — сколько минимальных единиц (копеек) в одной основной (рубле).
const MinorPerMajor = 100

// FormatMoney форматирует сумму в копейках в читабельную строку.
//
// Примеры:
//
//	FormatMoney(10000, "₽")  → "100,00 ₽"
//	FormatMoney(123456, "₽") → "1 234,56 ₽"
//	FormatMoney(-5, "₽")     → "-0,05 ₽"
func FormatMoney(minor int64, symbol string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%s,%02d %s", sign, FormatNumber(minor/MinorPerMajor), minor%MinorPerMajor, symbol)
}

// FormatSignedMoney создаёт строку вида "+100,00 ₽" или "-50,00 ₽".
func FormatSignedMoney(minor int64, symbol string) string {
	if minor >= 0 {
		return "+" + FormatMoney(minor, symbol)
	}
	return FormatMoney(minor, symbol)
}

// ParseMoney разбирает сумму в рублях ("150", "150.5", "150,50") в копейки.
// Больше двух знаков после запятой — ошибка.
func ParseMoney(s string) (int64, error) {
	var major, minor int64
	var fracDigits int
	seenSep := false
	if s == "" {
		return 0, fmt.Errorf("пустая сумма")
	}
	for _, r := range s {
		switch {
		case r == '.' || r == ',':
			if seenSep {
				return 0, fmt.Errorf("некорректная сумма %q", s)
			}
			seenSep = true
		case r >= '0' && r <= '9':
			d := int64(r - '0')
			if seenSep {
				fracDigits++
				if fracDigits > 2 {
					return 0, fmt.Errorf("не больше двух знаков после запятой: %q", s)
				}
				minor = minor*10 + d
				continue
			}
			if major > (math.MaxInt64/MinorPerMajor-d)/10 {
				return 0, fmt.Errorf("слишком большая сумма %q", s)
			}
			major = major*10 + d
		default:
			return 0, fmt.Errorf("некорректная сумма %q", s)
		}
	}
	if fracDigits == 1 {
		minor *= 10
	}
	return major*MinorPerMajor + minor, nil
}

// PluralizeHours возвращает правильную форму слова «час» для числа n.
//
// Правила:
//   - 1, 21, 31 → "час"
//   - 2-4, 22-24 → "часа"
//   - 5-20, 25-30 → "часов"
func PluralizeHours(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "час"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "часа"
	}
	return "часов"
}

// FormatRemaining показывает, сколько осталось до конца продвижения: "5ч 12м" или "истекло".
// Минуты округляются вниз, как в карточке активного промо на дашборде.
func FormatRemaining(end, now time.Time) string {
	diff := end.Sub(now)
	if diff <= 0 {
		return "истекло"
	}
	h := int(diff / time.Hour)
	m := int((diff % time.Hour) / time.Minute)
	return fmt.Sprintf("%dч %dм", h, m)
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" (день.месяц.год часы:минуты).
// Используется для отображения дат транзакций и окончания промо.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02.01.2006 15:04")
}
