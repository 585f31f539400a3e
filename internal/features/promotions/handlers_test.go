package promotions

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	messages []string
}

func (r *recorder) Send(_ context.Context, _ int64, text string) {
	r.messages = append(r.messages, text)
}

func TestHandleCancel(t *testing.T) {
	svc, mock := setupService(t)
	out := &recorder{}
	h := NewHandler(svc, out, time.UTC)

	mock.ExpectQuery("WHERE p.id = ").
		WithArgs(int64(3)).
		WillReturnRows(promotionRow(3, 7, 99, testNow.Add(time.Hour), "active"))

	h.HandleCancel(context.Background(), 1, 42, []string{"#3"})
	h.HandleCancel(context.Background(), 1, 42, []string{"abc"})

	require.Len(t, out.messages, 2)
	assert.Equal(t, "❌ это продвижение принадлежит другому пользователю", out.messages[0])
	assert.Contains(t, out.messages[1], "Формат")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleActive_NoPromotion(t *testing.T) {
	svc, mock := setupService(t)
	out := &recorder{}
	h := NewHandler(svc, out, time.UTC)

	mock.ExpectQuery("p.status = 'active'").
		WithArgs(int64(7), testNow).
		WillReturnError(pgx.ErrNoRows)

	h.HandleActive(context.Background(), 1, []string{"7"})
	require.Len(t, out.messages, 1)
	assert.Contains(t, out.messages[0], "нет активного продвижения")
}

func TestFormatActive(t *testing.T) {
	p := &Promotion{ID: 3, StationID: 7, TierName: "Quick Boost", EndTime: testNow.Add(5*time.Hour + 12*time.Minute)}
	text := FormatActive(p, testNow, time.UTC)

	assert.Contains(t, text, "АЗС 7: «Quick Boost»")
	assert.Contains(t, text, "До 10.03.2025 17:12")
	assert.Contains(t, text, "осталось 5ч 12м")
	assert.Contains(t, text, "Промо #3")
}

func TestFormatHistory(t *testing.T) {
	assert.Contains(t, FormatHistory(7, nil, testNow, time.UTC), "ещё не было кампаний")

	list := []*Promotion{
		{ID: 5, TierName: "Quick Boost", Status: StatusActive, CreatedAt: testNow, EndTime: testNow.Add(time.Hour)},
		{ID: 4, TierName: "Area", Status: StatusActive, CreatedAt: testNow.Add(-48 * time.Hour), EndTime: testNow.Add(-time.Hour)},
		{ID: 2, TierName: "Area", Status: StatusCancelled, CreatedAt: testNow.Add(-96 * time.Hour), EndTime: testNow.Add(-24 * time.Hour)},
	}
	text := FormatHistory(7, list, testNow, time.UTC)
	assert.Contains(t, text, "#5 Quick Boost")
	assert.Contains(t, text, "🟢 идёт")
	// Истёкшее, но ещё не очищенное показываем завершённым
	assert.Contains(t, text, "⚪ завершена")
	assert.Contains(t, text, "🔴 отменена")
	assert.NotContains(t, text, "более ранних")
}

func TestFormatHistory_LongHistory(t *testing.T) {
	var list []*Promotion
	for i := 30; i >= 1; i-- {
		created := testNow.Add(-time.Duration(31-i) * 24 * time.Hour)
		list = append(list, &Promotion{ID: int64(i), TierName: "Quick Boost", Status: StatusExpired,
			CreatedAt: created, EndTime: created.Add(24 * time.Hour)})
	}

	text := FormatHistory(7, list, testNow, time.UTC)
	assert.Contains(t, text, "всего 30")
	assert.Contains(t, text, "#30 Quick Boost")
	assert.Contains(t, text, "#11 Quick Boost")
	assert.NotContains(t, text, "#10 Quick Boost")
	assert.Contains(t, text, "…и ещё 10 более ранних")
}

func TestParseID(t *testing.T) {
	id, ok := parseID([]string{"#12"})
	assert.True(t, ok)
	assert.Equal(t, int64(12), id)

	for _, bad := range [][]string{nil, {"0"}, {"-3"}, {"x"}} {
		_, ok := parseID(bad)
		assert.False(t, ok, "%v", bad)
	}
}
