package middleware

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"serotonyl.ru/fuelboost/internal/metrics"
)

func TestRecoverFromPanic(t *testing.T) {
	before := testutil.ToFloat64(metrics.BotPanicsTotal)

	assert.NotPanics(t, func() {
		defer RecoverFromPanic(7)
		panic("nil map")
	})
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.BotPanicsTotal))

	// Без паники счётчик не меняется
	func() {
		defer RecoverFromPanic(8)
	}()
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.BotPanicsTotal))
}
