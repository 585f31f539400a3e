package app

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/fuelboost/internal/common"
	"serotonyl.ru/fuelboost/internal/config"
	"serotonyl.ru/fuelboost/internal/db/postgres"
	"serotonyl.ru/fuelboost/internal/features/activation"
	"serotonyl.ru/fuelboost/internal/features/tiers"
)

// setupTestDB подключается к TEST_DSN, применяет миграции и очищает таблицы.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест")
	}
	dsn := os.Getenv("TEST_DSN")
	if dsn == "" {
		t.Skip("TEST_DSN не задан")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.RunMigrations(ctx, pool, Migrations))
	_, err = pool.Exec(ctx, `
		TRUNCATE station_promotions, wallet_transactions, wallets, promotion_tiers,
		         operators, admin_sessions, admin_login_attempts
		RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err)
	return pool
}

func testServices(t *testing.T, pool *pgxpool.Pool, now func() time.Time) *Services {
	t.Helper()
	cfg := &config.Config{
		ActivationMaxRetries:   10,
		ActivationRetryBackoff: 5 * time.Millisecond,
	}
	svc := NewServices(cfg, pool, now)

	_, err := svc.Tiers.Import(context.Background(), []*tiers.Tier{
		{ID: "quick", Name: "Quick Boost", Price: 10000, DurationHours: 24},
		{ID: "area", Name: "Area Boost", Price: 25000, DurationHours: 72},
	})
	require.NoError(t, err)
	return svc
}

func TestActivation_RoundTrip_Integration(t *testing.T) {
	pool := setupTestDB(t)
	svc := testServices(t, pool, nil)
	ctx := context.Background()

	_, err := svc.Activation.TopUp(ctx, 42, 10000)
	require.NoError(t, err)

	res, err := svc.Activation.Activate(ctx, activation.ActivateRequest{OwnerID: 42, StationID: 7, TierID: "quick"})
	require.NoError(t, err)
	assert.WithinDuration(t, res.Promotion.CreatedAt.Add(24*time.Hour), res.Promotion.EndTime, time.Second)

	balance, err := svc.Wallets.GetBalance(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	active, err := svc.Promotions.GetActive(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, res.Promotion.ID, active.ID)
	assert.Equal(t, "Quick Boost", active.TierName)

	rec, err := svc.Wallets.Reconcile(ctx, 42)
	require.NoError(t, err)
	assert.True(t, rec.Balanced())
	assert.Equal(t, int64(2), rec.Transactions)

	// Денег больше нет: баланс и промо не меняются
	_, err = svc.Activation.Activate(ctx, activation.ActivateRequest{OwnerID: 42, StationID: 8, TierID: "quick"})
	require.ErrorIs(t, err, common.ErrInsufficientFunds)
	none, err := svc.Promotions.GetActive(ctx, 8)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestActivation_Replay_Integration(t *testing.T) {
	pool := setupTestDB(t)
	svc := testServices(t, pool, nil)
	ctx := context.Background()

	_, err := svc.Activation.TopUp(ctx, 42, 30000)
	require.NoError(t, err)

	req := activation.ActivateRequest{OwnerID: 42, StationID: 7, TierID: "quick", RequestID: uuid.New()}
	first, err := svc.Activation.Activate(ctx, req)
	require.NoError(t, err)
	second, err := svc.Activation.Activate(ctx, req)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Promotion.ID, second.Promotion.ID)

	balance, err := svc.Wallets.GetBalance(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), balance)

	// Повтор продления тоже не списывает второй раз
	ext := activation.ActivateRequest{OwnerID: 42, StationID: 7, TierID: "quick", RequestID: uuid.New()}
	extended, err := svc.Activation.Activate(ctx, ext)
	require.NoError(t, err)
	require.True(t, extended.Extended)
	again, err := svc.Activation.Activate(ctx, ext)
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Promotion.ID, again.Promotion.ID)

	balance, err = svc.Wallets.GetBalance(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance)
}

func TestActivation_ConcurrentStation_Integration(t *testing.T) {
	pool := setupTestDB(t)
	svc := testServices(t, pool, nil)
	ctx := context.Background()

	const owners = 8
	for i := int64(1); i <= owners; i++ {
		_, err := svc.Activation.TopUp(ctx, i, 10000)
		require.NoError(t, err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := int64(1); i <= owners; i++ {
		wg.Add(1)
		go func(ownerID int64) {
			defer wg.Done()
			_, err := svc.Activation.Activate(ctx, activation.ActivateRequest{
				OwnerID: ownerID, StationID: 7, TierID: "quick",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, common.ErrPromotionActive):
				rejected++
			default:
				t.Errorf("неожиданная ошибка: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, owners-1, rejected)

	// Списано ровно у одного владельца
	var spent int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM wallet_transactions WHERE kind = 'spend'`).Scan(&spent))
	assert.Equal(t, 1, spent)

	mismatches, err := svc.Wallets.Audit(ctx)
	require.NoError(t, err)
	assert.Zero(t, mismatches)
}

func TestActivation_ConcurrentWallet_Integration(t *testing.T) {
	pool := setupTestDB(t)
	svc := testServices(t, pool, nil)
	ctx := context.Background()

	_, err := svc.Activation.TopUp(ctx, 42, 10000)
	require.NoError(t, err)

	const stations = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		poor      int
	)
	for s := int64(1); s <= stations; s++ {
		wg.Add(1)
		go func(stationID int64) {
			defer wg.Done()
			_, err := svc.Activation.Activate(ctx, activation.ActivateRequest{
				OwnerID: 42, StationID: stationID, TierID: "quick",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, common.ErrInsufficientFunds):
				poor++
			default:
				t.Errorf("неожиданная ошибка: %v", err)
			}
		}(s)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, stations-1, poor)

	rec, err := svc.Wallets.Reconcile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Balance)
	assert.True(t, rec.Balanced())
}

func TestPromotion_ExpiryBoundary_Integration(t *testing.T) {
	pool := setupTestDB(t)

	var (
		mu  sync.Mutex
		now = time.Now().UTC().Truncate(time.Second)
	)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	svc := testServices(t, pool, clock)
	ctx := context.Background()

	_, err := svc.Activation.TopUp(ctx, 42, 10000)
	require.NoError(t, err)
	_, err = svc.Activation.TopUp(ctx, 43, 25000)
	require.NoError(t, err)

	res, err := svc.Activation.Activate(ctx, activation.ActivateRequest{OwnerID: 42, StationID: 7, TierID: "quick"})
	require.NoError(t, err)

	advance(24*time.Hour - time.Second)
	active, err := svc.Promotions.GetActive(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, active)

	// Ровно на end_time промо уже неактивно, даже до очистки
	advance(time.Second)
	active, err = svc.Promotions.GetActive(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, active)

	// Другой владелец может сразу купить другой тариф
	_, err = svc.Activation.Activate(ctx, activation.ActivateRequest{OwnerID: 43, StationID: 7, TierID: "area"})
	require.NoError(t, err)

	n, err := svc.Promotions.ExpireDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	history, err := svc.Promotions.ListHistory(ctx, 7)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, res.Promotion.ID, history[1].ID)
	assert.Equal(t, "expired", string(history[1].Status))
}
