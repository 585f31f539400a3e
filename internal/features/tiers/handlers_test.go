package tiers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTiers(t *testing.T) {
	assert.Equal(t, "🚀 Тарифов пока нет", FormatTiers(nil, "₽"))

	text := FormatTiers([]*Tier{
		{ID: "quick", Name: "Quick Boost", Price: 10000, DurationHours: 24},
		{ID: "area", Name: "Area", Price: 25050, DurationHours: 36},
	}, "₽")
	assert.Contains(t, text, "• Quick Boost — 100,00 ₽ за 1 день (quick)")
	assert.Contains(t, text, "• Area — 250,50 ₽ за 36 часов (area)")
	assert.Contains(t, text, "/купить")
}
