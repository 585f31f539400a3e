package tiers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/fuelboost/internal/common"
)

var tierCols = []string{"id", "name", "price", "duration_hours", "created_at"}

func setupService(t *testing.T) (*Service, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewService(NewRepository(mock)), mock
}

func TestGetTier(t *testing.T) {
	svc, mock := setupService(t)

	mock.ExpectQuery("FROM promotion_tiers").
		WithArgs("quick").
		WillReturnRows(pgxmock.NewRows(tierCols).AddRow("quick", "Quick Boost", int64(10000), 24, time.Now()))

	tier, err := svc.GetTier(context.Background(), "quick")
	require.NoError(t, err)
	assert.Equal(t, "Quick Boost", tier.Name)
	assert.Equal(t, 24*time.Hour, tier.Duration())
}

func TestGetTier_Unknown(t *testing.T) {
	svc, mock := setupService(t)

	mock.ExpectQuery("FROM promotion_tiers").
		WithArgs("gold").
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.GetTier(context.Background(), "gold")
	require.ErrorIs(t, err, common.ErrUnknownTier)

	_, err = svc.GetTier(context.Background(), "")
	require.ErrorIs(t, err, common.ErrUnknownTier)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTier_StorageError(t *testing.T) {
	svc, mock := setupService(t)

	mock.ExpectQuery("FROM promotion_tiers").
		WithArgs("quick").
		WillReturnError(errors.New("connection refused"))

	_, err := svc.GetTier(context.Background(), "quick")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrUnknownTier)
}

func TestListTiers(t *testing.T) {
	svc, mock := setupService(t)
	now := time.Now()

	mock.ExpectQuery("ORDER BY price ASC").
		WillReturnRows(pgxmock.NewRows(tierCols).
			AddRow("quick", "Quick Boost", int64(10000), 24, now).
			AddRow("premium", "Premium", int64(50000), 168, now))

	list, err := svc.ListTiers(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "premium", list[1].ID)
}

func TestImport(t *testing.T) {
	svc, mock := setupService(t)

	catalog := []*Tier{
		{ID: "quick", Name: "Quick Boost", Price: 10000, DurationHours: 24},
		{ID: "area", Name: "Area", Price: 25000, DurationHours: 72},
	}
	for _, tier := range catalog {
		mock.ExpectExec("INSERT INTO promotion_tiers").
			WithArgs(tier.ID, tier.Name, tier.Price, tier.DurationHours).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	n, err := svc.Import(context.Background(), catalog)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImport_StopsOnInvalidTier(t *testing.T) {
	svc, mock := setupService(t)

	mock.ExpectExec("INSERT INTO promotion_tiers").
		WithArgs("quick", "Quick Boost", int64(10000), 24).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n, err := svc.Import(context.Background(), []*Tier{
		{ID: "quick", Name: "Quick Boost", Price: 10000, DurationHours: 24},
		{ID: "broken", Name: "Broken", Price: -1, DurationHours: 24},
	})
	require.Error(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
