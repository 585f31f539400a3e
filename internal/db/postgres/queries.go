// Package postgres — вспомогательные функции для работы с БД.
// queries.go содержит выполнение миграций и общий хелпер транзакций с повтором.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fuelboost/internal/common"
)

// ExecMigrationSQL выполняет один SQL-запрос миграции в транзакции.
// Если запрос упадёт — транзакция откатится автоматически.
// Возвращает true, если миграция была применена сейчас.
func ExecMigrationSQL(ctx context.Context, db TxBeginner, version int, sql string) (bool, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	// Откатываем транзакцию, если что-то пошло не так
	defer tx.Rollback(ctx)

	// Проверяем, не была ли эта миграция уже применена
	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки миграции: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := tx.Exec(ctx, sql); err != nil {
		return false, fmt.Errorf("ошибка выполнения миграции %d: %w", version, err)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version) VALUES ($1)", version,
	); err != nil {
		return false, fmt.Errorf("ошибка записи версии миграции: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("ошибка фиксации миграции: %w", err)
	}
	return true, nil
}

// RetryPolicy задаёт, сколько раз повторять транзакцию при конфликте.
type RetryPolicy struct {
	MaxAttempts int           // Всего попыток (минимум 1)
	Backoff     time.Duration // Пауза перед повтором, растёт линейно
	OnRetry     func(attempt int, err error)
}

// InTx выполняет fn в одной транзакции: либо все изменения фиксируются, либо ни одно.
//
// Конфликты (serialization failure, deadlock, lock timeout) повторяются целиком —
// транзакция к этому моменту уже откачена, частичных изменений нет.
// Если попытки закончились — возвращается ErrStorageFailure.
// Ошибки fn, не являющиеся конфликтом, возвращаются как есть без повтора.
func InTx(ctx context.Context, db TxBeginner, policy RetryPolicy, fn func(tx pgx.Tx) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = runTx(ctx, db, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, common.ErrStorageConflict) {
			return err
		}

		log.WithError(err).WithField("attempt", attempt).Debug("Конфликт транзакции, повторяем")
		if attempt == attempts {
			break
		}
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", common.ErrStorageFailure, ctx.Err())
		case <-time.After(policy.Backoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%w: конфликт не разрешился за %d попыток: %v", common.ErrStorageFailure, attempts, err)
}

func runTx(ctx context.Context, db TxBeginner, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return Classify(fmt.Errorf("ошибка начала транзакции: %w", err))
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return Classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Classify(fmt.Errorf("ошибка фиксации транзакции: %w", err))
	}
	return nil
}
