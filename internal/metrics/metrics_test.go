package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordActivation(t *testing.T) {
	ActivationsTotal.Reset()

	RecordActivation(ResultOK, "quick", 0.02)
	RecordActivation(ResultOK, "quick", 0.03)
	RecordActivation(ResultInsufficientFunds, "quick", 0.01)

	assert.Equal(t, float64(2), testutil.ToFloat64(ActivationsTotal.WithLabelValues(ResultOK, "quick")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ActivationsTotal.WithLabelValues(ResultInsufficientFunds, "quick")))
}

func TestRecordTopUp(t *testing.T) {
	before := testutil.ToFloat64(WalletTopUpAmount)
	count := testutil.ToFloat64(WalletTopUpsTotal)

	RecordTopUp(10000)
	RecordTopUp(550)

	assert.Equal(t, before+10550, testutil.ToFloat64(WalletTopUpAmount))
	assert.Equal(t, count+2, testutil.ToFloat64(WalletTopUpsTotal))
}

func TestRecordLedgerAudit(t *testing.T) {
	RecordLedgerAudit(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(LedgerMismatches))

	// Гейдж показывает последний аудит, а не сумму
	RecordLedgerAudit(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(LedgerMismatches))
}

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("GET", "/api/tiers", "200", 0.1)
	RecordHTTPRequest("GET", "/api/tiers", "200", 0.2)
	RecordHTTPRequest("GET", "/api/stations/{id}/promotion", "404", 0.05)

	assert.Equal(t, float64(2), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/tiers", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/stations/{id}/promotion", "404")))
}
