// Package tiers — repository.go выполняет операции с таблицей promotion_tiers.
package tiers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"serotonyl.ru/fuelboost/internal/common"
	"serotonyl.ru/fuelboost/internal/db/postgres"
)

// Repository работает с таблицей тарифов.
type Repository struct {
	db postgres.Querier
}

// NewRepository создаёт репозиторий тарифов.
func NewRepository(db postgres.Querier) *Repository {
	return &Repository{db: db}
}

// GetTier возвращает тариф по ID или ErrNotFound.
func (r *Repository) GetTier(ctx context.Context, id string) (*Tier, error) {
	var t Tier
	err := r.db.QueryRow(ctx, `
		SELECT id, name, price, duration_hours, created_at
		FROM promotion_tiers
		WHERE id = $1
	`, id).Scan(&t.ID, &t.Name, &t.Price, &t.DurationHours, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("тариф %q: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения тарифа: %w", err)
	}
	return &t, nil
}

// ListTiers возвращает все тарифы от дешёвого к дорогому.
func (r *Repository) ListTiers(ctx context.Context) ([]*Tier, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, price, duration_hours, created_at
		FROM promotion_tiers
		ORDER BY price ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения тарифов: %w", err)
	}
	defer rows.Close()

	var tiers []*Tier
	for rows.Next() {
		var t Tier
		if err := rows.Scan(&t.ID, &t.Name, &t.Price, &t.DurationHours, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования тарифа: %w", err)
		}
		tiers = append(tiers, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения тарифов: %w", err)
	}
	return tiers, nil
}

// Upsert создаёт тариф или обновляет название, цену и длительность существующего.
// Уже купленные промо не меняются: их end_time зафиксирован при покупке.
func (r *Repository) Upsert(ctx context.Context, t *Tier) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO promotion_tiers (id, name, price, duration_hours)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			duration_hours = EXCLUDED.duration_hours
	`, t.ID, t.Name, t.Price, t.DurationHours)
	if err != nil {
		return fmt.Errorf("ошибка сохранения тарифа %q: %w", t.ID, err)
	}
	return nil
}
