// Package tiers — справочник тарифов продвижения (цена, длительность, название).
// Для ядра справочник только читается; наполняется внешней командой импорта.
package tiers

import (
	"fmt"
	"time"
)

// Tier — тариф продвижения АЗС.
type Tier struct {
	ID            string    `db:"id" toml:"id" json:"id"`                                     // Короткий код: "quick", "area", "premium"
	Name          string    `db:"name" toml:"name" json:"name"`                               // Название для витрины
	Price         int64     `db:"price" toml:"price" json:"price"`                            // Цена в копейках, ровно столько и списывается
	DurationHours int       `db:"duration_hours" toml:"duration_hours" json:"duration_hours"` // Длительность, >= 1
	CreatedAt     time.Time `db:"created_at" toml:"-" json:"-"`
}

// Duration — длительность тарифа как time.Duration.
func (t *Tier) Duration() time.Duration {
	return time.Duration(t.DurationHours) * time.Hour
}

// Validate проверяет тариф перед записью в справочник.
func (t *Tier) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("у тарифа пустой id")
	}
	if t.Name == "" {
		return fmt.Errorf("тариф %q: пустое название", t.ID)
	}
	if t.Price <= 0 {
		return fmt.Errorf("тариф %q: цена должна быть > 0", t.ID)
	}
	if t.DurationHours < 1 {
		return fmt.Errorf("тариф %q: длительность должна быть >= 1 часа", t.ID)
	}
	return nil
}
