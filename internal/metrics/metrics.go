// Package metrics — счётчики Prometheus для покупок, пополнений и фоновых задач.
// Метрики регистрируются в глобальном реестре и отдаются на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты покупки для метки result.
const (
	ResultOK                = "ok"
	ResultExtended          = "extended"
	ResultReplayed          = "replayed"
	ResultInsufficientFunds = "insufficient_funds"
	ResultUnknownTier       = "unknown_tier"
	ResultPromotionActive   = "promotion_active"
	ResultUnauthorized      = "unauthorized"
	ResultInvalidStation    = "invalid_station"
	ResultStorageFailure    = "storage_failure"
)

var (
	ActivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelboost_activations_total",
			Help: "Total number of promotion activations by result",
		},
		[]string{"result", "tier"},
	)

	ActivationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fuelboost_activation_duration_seconds",
			Help:    "Promotion activation duration in seconds, including retries",
			Buckets: prometheus.DefBuckets,
		},
	)

	ActivationRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fuelboost_activation_retries_total",
			Help: "Total number of activation transaction retries after a storage conflict",
		},
	)

	WalletTopUpsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fuelboost_wallet_topups_total",
			Help: "Total number of wallet top-ups",
		},
	)

	WalletTopUpAmount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fuelboost_wallet_topup_minor_units_total",
			Help: "Total amount credited by top-ups in minor units",
		},
	)

	PromotionsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fuelboost_promotions_expired_total",
			Help: "Total number of promotions marked expired by the sweep",
		},
	)

	RemindersSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fuelboost_promotion_reminders_total",
			Help: "Total number of expiring-soon reminders sent",
		},
	)

	LedgerMismatches = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fuelboost_ledger_mismatches",
			Help: "Wallets whose balance differs from the ledger sum at the last audit",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelboost_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fuelboost_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BotCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelboost_bot_commands_total",
			Help: "Total number of bot commands routed",
		},
		[]string{"command"},
	)

	BotPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fuelboost_bot_panics_total",
			Help: "Total number of recovered panics in update handlers",
		},
	)
)

func RecordActivation(result, tier string, seconds float64) {
	ActivationsTotal.WithLabelValues(result, tier).Inc()
	ActivationDuration.Observe(seconds)
}

func RecordActivationRetry() {
	ActivationRetriesTotal.Inc()
}

func RecordTopUp(amount int64) {
	WalletTopUpsTotal.Inc()
	WalletTopUpAmount.Add(float64(amount))
}

func RecordExpired(n int64) {
	PromotionsExpiredTotal.Add(float64(n))
}

func RecordReminders(n int) {
	RemindersSentTotal.Add(float64(n))
}

func RecordLedgerAudit(mismatches int) {
	LedgerMismatches.Set(float64(mismatches))
}

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordCommand(cmd string) {
	BotCommandsTotal.WithLabelValues(cmd).Inc()
}

func RecordPanic() {
	BotPanicsTotal.Inc()
}
