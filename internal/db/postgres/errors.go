package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"serotonyl.ru/fuelboost/internal/common"
)

// SQLSTATE, которые означают «повтори транзакцию».
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"

	// CodeCheckViolation — нарушение CHECK (например, balance >= 0)
	CodeCheckViolation = "23514"
	// CodeUniqueViolation — нарушение UNIQUE
	CodeUniqueViolation = "23505"
	// CodeForeignKeyViolation — ссылка на несуществующую запись
	CodeForeignKeyViolation = "23503"
)

// PgCode возвращает SQLSTATE ошибки PostgreSQL или "" для прочих ошибок.
func PgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsConflict — временная ошибка конкурентной записи.
func IsConflict(err error) bool {
	switch PgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

// Classify помечает конфликтные ошибки как ErrStorageConflict, остальные не трогает.
func Classify(err error) error {
	if err == nil || errors.Is(err, common.ErrStorageConflict) {
		return err
	}
	if IsConflict(err) {
		return fmt.Errorf("%w: %w", common.ErrStorageConflict, err)
	}
	return err
}

// AsFailure превращает неожиданную ошибку БД в ErrStorageFailure.
// Ошибки предметной области (нет средств, нет тарифа и т.п.) возвращаются как есть.
func AsFailure(err error) error {
	if err == nil || common.IsUserFacing(err) || errors.Is(err, common.ErrStorageFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrStorageFailure, err)
}
