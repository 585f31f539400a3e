// Package operators — repository.go отвечает за все операции с таблицей operators в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package operators

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"serotonyl.ru/fuelboost/internal/common"
	"serotonyl.ru/fuelboost/internal/db/postgres"
)

type Repository struct {
	db postgres.Querier
}

func NewRepository(db postgres.Querier) *Repository {
	return &Repository{db: db}
}

// Create добавляет оператора. На конфликте по user_id обновляет только имя/username
// (флаг блокировки не трогает).
func (r *Repository) Create(ctx context.Context, userID int64, p Profile) (*Operator, error) {
	query := `
		INSERT INTO operators (user_id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    updated_at = NOW()
		RETURNING id, user_id, username, first_name, last_name, is_banned, created_at, updated_at
	`
	o, err := scanOperator(r.db.QueryRow(ctx, query, userID, p.Username, p.FirstName, p.LastName))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания/обновления оператора: %w", err)
	}
	return o, nil
}

// GetByUserID возвращает оператора или ErrNotFound.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Operator, error) {
	query := `
		SELECT id, user_id, username, first_name, last_name, is_banned, created_at, updated_at
		FROM operators
		WHERE user_id = $1
	`
	o, err := scanOperator(r.db.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("оператор %d: %w", userID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения оператора (user_id=%d): %w", userID, err)
	}
	return o, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, userID int64, p Profile) error {
	query := `
		UPDATE operators
		SET username = $2, first_name = $3, last_name = $4, updated_at = NOW()
		WHERE user_id = $1
	`
	if _, err := r.db.Exec(ctx, query, userID, p.Username, p.FirstName, p.LastName); err != nil {
		return fmt.Errorf("ошибка обновления данных оператора: %w", err)
	}
	return nil
}

func scanOperator(row pgx.Row) (*Operator, error) {
	var o Operator
	err := row.Scan(
		&o.ID, &o.UserID, &o.Username, &o.FirstName, &o.LastName,
		&o.IsBanned, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
