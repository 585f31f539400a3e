package common

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		minor int64
		want  string
	}{
		{0, "0,00 ₽"},
		{5, "0,05 ₽"},
		{10000, "100,00 ₽"},
		{123456, "1 234,56 ₽"},
		{100000000, "1 000 000,00 ₽"},
		{-5, "-0,05 ₽"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(tt.minor, "₽"), "FormatMoney(%d)", tt.minor)
	}
	assert.Equal(t, "+1,50 ₽", FormatSignedMoney(150, "₽"))
	assert.Equal(t, "-1,50 ₽", FormatSignedMoney(-150, "₽"))
}

func TestParseMoney(t *testing.T) {
	valid := map[string]int64{
		"150":    15000,
		"150.5":  15050,
		"150,50": 15050,
		"0.01":   1,
		"1,":     100,
	}
	for in, want := range valid {
		got, err := ParseMoney(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "abc", "1.234", "1.2.3", "-5", "1 000", "99999999999999999999"} {
		_, err := ParseMoney(in)
		assert.Error(t, err, in)
	}
}

func TestPluralize(t *testing.T) {
	hours := map[int]string{1: "час", 2: "часа", 4: "часа", 5: "часов", 11: "часов", 12: "часов", 21: "час", 24: "часа", 111: "часов"}
	for n, want := range hours {
		assert.Equal(t, want, PluralizeHours(n), "часы %d", n)
	}
	days := map[int]string{1: "день", 3: "дня", 7: "дней", 14: "дней", 31: "день"}
	for n, want := range days {
		assert.Equal(t, want, PluralizeDays(n), "дни %d", n)
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1 день", FormatDuration(24))
	assert.Equal(t, "7 дней", FormatDuration(168))
	assert.Equal(t, "12 часов", FormatDuration(12))
	assert.Equal(t, "36 часов", FormatDuration(36))
}

func TestFormatRemaining(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "5ч 12м", FormatRemaining(now.Add(5*time.Hour+12*time.Minute+59*time.Second), now))
	assert.Equal(t, "0ч 0м", FormatRemaining(now.Add(time.Second), now))
	assert.Equal(t, "истекло", FormatRemaining(now, now))
	assert.Equal(t, "истекло", FormatRemaining(now.Add(-time.Hour), now))
}

func TestFormatDateTime(t *testing.T) {
	at := time.Date(2025, 3, 10, 21, 30, 0, 0, time.UTC)
	msk := time.FixedZone("MSK", 3*60*60)

	assert.Equal(t, "10.03.2025 21:30", FormatDateTime(at, nil))
	assert.Equal(t, "11.03.2025 00:30", FormatDateTime(at, msk))
}

func TestUserMessage(t *testing.T) {
	wrapped := fmt.Errorf("%w: нужно 100, есть 50", ErrInsufficientFunds)
	assert.Equal(t, ErrInsufficientFunds.Error(), UserMessage(wrapped))
	assert.True(t, IsUserFacing(wrapped))

	internal := fmt.Errorf("%w: dial tcp: connection refused", ErrStorageFailure)
	assert.Equal(t, "", UserMessage(internal))
	assert.False(t, IsUserFacing(internal))
	assert.False(t, IsUserFacing(nil))
}
