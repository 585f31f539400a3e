package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/fuelboost/internal/config"
	"serotonyl.ru/fuelboost/internal/db/postgres"
	"serotonyl.ru/fuelboost/internal/features/promotions"
	"serotonyl.ru/fuelboost/internal/features/wallet"
	"serotonyl.ru/fuelboost/internal/metrics"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func setupScheduler(t *testing.T, cfg *config.Config) (*Scheduler, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	promotionService := promotions.NewService(promotions.NewRepository(mock), func() time.Time { return testNow })
	walletService := wallet.NewService(wallet.NewRepository(mock), mock, postgres.RetryPolicy{MaxAttempts: 1})
	send := func(context.Context, int64, string) error { return nil }
	return NewScheduler(cfg, promotionService, walletService, send), mock
}

func testConfig() *config.Config {
	return &config.Config{
		AppTimezone:             "UTC",
		PromotionSweepSchedule:  "*/5 * * * *",
		LedgerAuditSchedule:     "30 3 * * *",
		PromotionReminderHours:  2,
		FeatureSweepEnabled:     true,
		FeatureRemindersEnabled: true,
	}
}

func TestSweep(t *testing.T) {
	s, mock := setupScheduler(t, testConfig())
	before := testutil.ToFloat64(metrics.PromotionsExpiredTotal)

	mock.ExpectExec("SET status = 'expired'").
		WithArgs(testNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	s.Sweep(context.Background())
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.PromotionsExpiredTotal))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAudit(t *testing.T) {
	s, mock := setupScheduler(t, testConfig())

	mock.ExpectQuery("HAVING w.balance <> ").
		WillReturnRows(pgxmock.NewRows([]string{"owner_id", "balance", "sum", "count"}).
			AddRow(int64(42), int64(900), int64(1000), int64(2)))

	s.Audit(context.Background())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.LedgerMismatches))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStartStop(t *testing.T) {
	s, _ := setupScheduler(t, testConfig())
	require.NoError(t, s.Start(context.Background()))
	// Очистка, напоминания и сверка
	assert.Len(t, s.cron.Entries(), 3)
	s.Stop()
}

func TestStart_FeaturesDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.FeatureSweepEnabled = false
	cfg.FeatureRemindersEnabled = false

	s, _ := setupScheduler(t, cfg)
	require.NoError(t, s.Start(context.Background()))
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}

func TestStart_BadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.LedgerAuditSchedule = "никогда"

	s, _ := setupScheduler(t, cfg)
	assert.Error(t, s.Start(context.Background()))
}

func TestKVFields(t *testing.T) {
	f := kvFields([]any{"entry", 3, "now", "12:00", "odd"})
	assert.Equal(t, 3, f["entry"])
	assert.Equal(t, "12:00", f["now"])
	assert.Len(t, f, 2)
}
