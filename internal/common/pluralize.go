// Package common — pluralize.go содержит форматирование чисел для сообщений бота.
package common

import "fmt"

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	// Рекурсивно добавляем разделители
	rest := n / 1000
	last := n % 1000

	return fmt.Sprintf("%s %03d", FormatNumber(rest), last)
}

// PluralizeDays возвращает правильную форму слова «день» для числа n.
func PluralizeDays(n int) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "день"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "дня"
	}
	return "дней"
}

// FormatDuration описывает длительность тарифа: "24 часа", "3 дня".
// Целые сутки показываем днями, остальное — часами.
func FormatDuration(hours int) string {
	if hours >= 24 && hours%24 == 0 {
		days := hours / 24
		return fmt.Sprintf("%d %s", days, PluralizeDays(days))
	}
	return fmt.Sprintf("%d %s", hours, PluralizeHours(hours))
}
