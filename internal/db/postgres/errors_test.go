package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"serotonyl.ru/fuelboost/internal/common"
)

func TestClassify(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "55P03"} {
		err := Classify(fmt.Errorf("запрос: %w", &pgconn.PgError{Code: code}))
		assert.ErrorIs(t, err, common.ErrStorageConflict, code)
		assert.Equal(t, code, PgCode(err))
	}

	unique := &pgconn.PgError{Code: CodeUniqueViolation}
	assert.Same(t, unique, Classify(unique))
	assert.NoError(t, Classify(nil))

	// Повторная классификация не оборачивает ещё раз
	once := Classify(&pgconn.PgError{Code: "40001"})
	assert.Equal(t, once, Classify(once))
}

func TestPgCode(t *testing.T) {
	assert.Equal(t, "", PgCode(nil))
	assert.Equal(t, "", PgCode(errors.New("dial tcp")))
	assert.Equal(t, CodeCheckViolation, PgCode(fmt.Errorf("x: %w", &pgconn.PgError{Code: "23514"})))
}

func TestAsFailure(t *testing.T) {
	assert.NoError(t, AsFailure(nil))

	domain := fmt.Errorf("%w: нужно 100", common.ErrInsufficientFunds)
	assert.Equal(t, domain, AsFailure(domain))

	failure := AsFailure(errors.New("connection reset"))
	assert.ErrorIs(t, failure, common.ErrStorageFailure)
	assert.Equal(t, failure, AsFailure(failure))
}
