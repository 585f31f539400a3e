// Package tiers — handlers.go обрабатывает команду /тарифы.
package tiers

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fuelboost/internal/common"
)

// Handler обрабатывает команды справочника.
type Handler struct {
	service  *Service
	out      common.Messenger
	currency string
}

// NewHandler создаёт обработчик команд справочника.
func NewHandler(service *Service, out common.Messenger, currency string) *Handler {
	return &Handler{service: service, out: out, currency: currency}
}

// HandleList обрабатывает команду /тарифы.
func (h *Handler) HandleList(ctx context.Context, chatID int64) {
	list, err := h.service.ListTiers(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения тарифов")
		h.out.Send(ctx, chatID, "❌ Ошибка получения тарифов")
		return
	}
	h.out.Send(ctx, chatID, FormatTiers(list, h.currency))
}

// FormatTiers собирает витрину тарифов.
//
//	🚀 Тарифы продвижения:
//
//	• Quick Boost — 100,00 ₽ за 1 день (quick)
func FormatTiers(list []*Tier, currency string) string {
	if len(list) == 0 {
		return "🚀 Тарифов пока нет"
	}
	var sb strings.Builder
	sb.WriteString("🚀 Тарифы продвижения:\n\n")
	for _, t := range list {
		fmt.Fprintf(&sb, "• %s — %s за %s (%s)\n",
			t.Name, common.FormatMoney(t.Price, currency), common.FormatDuration(t.DurationHours), t.ID)
	}
	sb.WriteString("\nКупить: /купить <номер АЗС> <код тарифа>")
	return sb.String()
}
