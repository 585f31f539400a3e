// Package promotions — handlers.go обрабатывает команды:
// /промо <АЗС>, /кампании <АЗС>, /отменить <id промо>.
package promotions

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fuelboost/internal/common"
)

// Handler обрабатывает команды реестра продвижений.
type Handler struct {
	service *Service
	out     common.Messenger
	loc     *time.Location
}

// NewHandler создаёт обработчик команд продвижений.
func NewHandler(service *Service, out common.Messenger, loc *time.Location) *Handler {
	return &Handler{service: service, out: out, loc: loc}
}

// HandleActive обрабатывает команду /промо <АЗС>.
func (h *Handler) HandleActive(ctx context.Context, chatID int64, args []string) {
	stationID, ok := parseID(args)
	if !ok {
		h.out.Send(ctx, chatID, "❌ Формат: /промо <номер АЗС>")
		return
	}

	p, err := h.service.GetActive(ctx, stationID)
	if err != nil {
		log.WithError(err).WithField("station_id", stationID).Error("Ошибка получения промо")
		h.out.Send(ctx, chatID, "❌ Ошибка получения промо")
		return
	}
	if p == nil {
		h.out.Send(ctx, chatID, fmt.Sprintf("📭 У АЗС %d нет активного продвижения", stationID))
		return
	}
	h.out.Send(ctx, chatID, FormatActive(p, h.service.Now(), h.loc))
}

// HandleHistory обрабатывает команду /кампании <АЗС>.
func (h *Handler) HandleHistory(ctx context.Context, chatID int64, args []string) {
	stationID, ok := parseID(args)
	if !ok {
		h.out.Send(ctx, chatID, "❌ Формат: /кампании <номер АЗС>")
		return
	}

	list, err := h.service.ListHistory(ctx, stationID)
	if err != nil {
		log.WithError(err).WithField("station_id", stationID).Error("Ошибка получения кампаний")
		h.out.Send(ctx, chatID, "❌ Ошибка получения кампаний")
		return
	}
	h.out.Send(ctx, chatID, FormatHistory(stationID, list, h.service.Now(), h.loc))
}

// HandleCancel обрабатывает команду /отменить <id промо>.
func (h *Handler) HandleCancel(ctx context.Context, chatID, ownerID int64, args []string) {
	id, ok := parseID(args)
	if !ok {
		h.out.Send(ctx, chatID, "❌ Формат: /отменить <номер промо>")
		return
	}

	p, err := h.service.Cancel(ctx, ownerID, id)
	if err != nil {
		if msg := common.UserMessage(err); msg != "" {
			h.out.Send(ctx, chatID, "❌ "+msg)
			return
		}
		log.WithError(err).WithField("promotion_id", id).Error("Ошибка отмены промо")
		h.out.Send(ctx, chatID, "❌ Не удалось отменить промо")
		return
	}
	h.out.Send(ctx, chatID, fmt.Sprintf("🛑 Промо #%d для АЗС %d отменено", p.ID, p.StationID))
}

// FormatActive — карточка действующего промо.
func FormatActive(p *Promotion, now time.Time, loc *time.Location) string {
	return fmt.Sprintf("🚀 АЗС %d: «%s»\nДо %s, осталось %s\nПромо #%d",
		p.StationID, p.TierName,
		common.FormatDateTime(p.EndTime, loc),
		common.FormatRemaining(p.EndTime, now),
		p.ID,
	)
}

// HistoryDisplayLimit — сколько последних кампаний помещаем в одно сообщение.
const HistoryDisplayLimit = 20

// FormatHistory — список кампаний АЗС. В сообщение попадают только
// последние HistoryDisplayLimit, об остальных пишем одной строкой.
func FormatHistory(stationID int64, list []*Promotion, now time.Time, loc *time.Location) string {
	if len(list) == 0 {
		return fmt.Sprintf("📋 У АЗС %d ещё не было кампаний", stationID)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 Кампании АЗС %d (всего %d):\n\n", stationID, len(list))
	shown := list
	if len(shown) > HistoryDisplayLimit {
		shown = shown[:HistoryDisplayLimit]
	}
	for _, p := range shown {
		fmt.Fprintf(&sb, "#%d %s | %s — %s | %s\n",
			p.ID, p.TierName,
			common.FormatDateTime(p.CreatedAt, loc),
			common.FormatDateTime(p.EndTime, loc),
			statusLabel(p.EffectiveStatus(now)),
		)
	}
	if hidden := len(list) - len(shown); hidden > 0 {
		fmt.Fprintf(&sb, "\n…и ещё %d более ранних", hidden)
	}
	return sb.String()
}

func statusLabel(s Status) string {
	switch s {
	case StatusActive:
		return "🟢 идёт"
	case StatusExpired:
		return "⚪ завершена"
	case StatusCancelled:
		return "🔴 отменена"
	}
	return string(s)
}

func parseID(args []string) (int64, bool) {
	if len(args) < 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
