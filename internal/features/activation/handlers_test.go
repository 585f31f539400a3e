package activation

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
	"serotonyl.ru/fuelboost/internal/features/promotions"
	"serotonyl.ru/fuelboost/internal/features/wallet"
)

type recorder struct {
	messages []string
}

func (r *recorder) Send(_ context.Context, _ int64, text string) {
	r.messages = append(r.messages, text)
}

func TestRequestIDForMessage(t *testing.T) {
	a := RequestIDForMessage(100, 5)
	assert.Equal(t, a, RequestIDForMessage(100, 5))
	assert.NotEqual(t, a, RequestIDForMessage(100, 6))
	assert.NotEqual(t, a, RequestIDForMessage(101, 5))
	assert.Equal(t, 5, int(a.Version()))
}

func TestHandleBuy_BadArgs(t *testing.T) {
	svc, mock := setupService(t)
	out := &recorder{}
	h := NewHandler(svc, out, "₽", time.UTC)

	h.HandleBuy(context.Background(), 1, 42, 10, []string{"7"})
	h.HandleBuy(context.Background(), 1, 42, 11, []string{"АЗС", "quick"})
	h.HandleBuy(context.Background(), 1, 42, 12, []string{"7", "GOLD"})

	require.Len(t, out.messages, 3)
	assert.Contains(t, out.messages[0], "Формат")
	assert.Equal(t, "❌ "+common.ErrInvalidStation.Error(), out.messages[1])
	assert.Contains(t, out.messages[2], common.ErrUnknownTier.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFormatResult(t *testing.T) {
	end := time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC)
	p := &promotions.Promotion{ID: 11, StationID: 7, TierName: "Quick Boost", EndTime: end}

	text := FormatResult(&Result{
		Promotion:   p,
		Transaction: &wallet.Transaction{Amount: -10000, BalanceAfter: 0},
	}, "₽", time.UTC)
	assert.Contains(t, text, "Промо «Quick Boost» для АЗС 7 запущено")
	assert.Contains(t, text, "До 11.03.2025 12:00")
	assert.Contains(t, text, "Списано: 100,00 ₽, остаток: 0,00 ₽")

	text = FormatResult(&Result{Promotion: p, Transaction: &wallet.Transaction{Amount: -10000}, Extended: true}, "₽", time.UTC)
	assert.Contains(t, text, "продлено")

	text = FormatResult(&Result{Promotion: p, Replayed: true}, "₽", time.UTC)
	assert.Contains(t, text, "уже оформлена: промо #11")
	assert.NotContains(t, text, "Списано")
}

func TestFailureText(t *testing.T) {
	h := &Handler{}
	assert.Contains(t, h.failureText(common.ErrInsufficientFunds, 42, 7), "/баланс")
	assert.Contains(t, h.failureText(common.ErrPromotionActive, 42, 7), common.ErrPromotionActive.Error())
	assert.Contains(t, h.failureText(common.ErrStorageFailure, 42, 7), "деньги не списаны")
	assert.Contains(t, h.failureText(errPurchaseUnconfirmed, 42, 7), "/промо 7")
	assert.NotContains(t, h.failureText(errPurchaseUnconfirmed, 42, 7), "не списаны")
}

func TestHandleBuy_CommitFailedButPurchaseRecorded(t *testing.T) {
	svc, mock := setupService(t)
	out := &recorder{}
	h := NewHandler(svc, out, "₽", time.UTC)
	requestID := RequestIDForMessage(1, 20)

	expectPrelude(mock, 7)
	mock.ExpectQuery("p.end_time > ").
		WithArgs(int64(7), testNow).
		WillReturnError(pgx.ErrNoRows)
	expectDebit(mock, 42, 10000, 10000)
	mock.ExpectQuery("INSERT INTO station_promotions").
		WithArgs(int64(7), "quick", int64(42), pgxmock.AnyArg(), testNow, testNow.Add(24*time.Hour)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "updated_at"}).AddRow(int64(11), testNow))
	mock.ExpectCommit().WillReturnError(errors.New("unexpected EOF"))
	// Соединение оборвалось на COMMIT, а запись на самом деле прошла
	mock.ExpectQuery("WHERE p.request_id = ").
		WithArgs(requestID).
		WillReturnRows(pgxmock.NewRows(promotionColumns).AddRow(
			int64(11), int64(7), "quick", "Quick Boost", int64(42), &requestID,
			testNow, testNow.Add(24*time.Hour), "active", (*time.Time)(nil), testNow))

	h.HandleBuy(context.Background(), 1, 42, 20, []string{"7", "quick"})

	require.Len(t, out.messages, 1)
	assert.Contains(t, out.messages[0], "уже оформлена: промо #11")
	assert.NotContains(t, out.messages[0], "не списаны")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleBuy_StorageFailureReadBack(t *testing.T) {
	t.Run("покупки нет", func(t *testing.T) {
		svc, mock := setupService(t)
		out := &recorder{}
		h := NewHandler(svc, out, "₽", time.UTC)

		mock.ExpectBegin().WillReturnError(errors.New("pool closed"))
		mock.ExpectQuery("WHERE p.request_id = ").
			WithArgs(RequestIDForMessage(1, 21)).
			WillReturnError(pgx.ErrNoRows)

		h.HandleBuy(context.Background(), 1, 42, 21, []string{"7", "quick"})

		require.Len(t, out.messages, 1)
		assert.Contains(t, out.messages[0], "деньги не списаны")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("проверить не удалось", func(t *testing.T) {
		svc, mock := setupService(t)
		out := &recorder{}
		h := NewHandler(svc, out, "₽", time.UTC)

		mock.ExpectBegin().WillReturnError(errors.New("pool closed"))
		mock.ExpectQuery("WHERE p.request_id = ").
			WithArgs(RequestIDForMessage(1, 22)).
			WillReturnError(errors.New("pool closed"))

		h.HandleBuy(context.Background(), 1, 42, 22, []string{"7", "quick"})

		require.Len(t, out.messages, 1)
		assert.Contains(t, out.messages[0], "Не удалось подтвердить покупку")
		assert.NotContains(t, out.messages[0], "не списаны")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
