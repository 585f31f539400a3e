// Package wallet — handlers.go обрабатывает команды:
// /баланс (баланс и последние операции), /история [страница].
package wallet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fuelboost/internal/common"
)

// HistoryPageSize — операций на одной странице /история.
const HistoryPageSize = 15

// Handler обрабатывает команды кошелька.
type Handler struct {
	service  *Service
	out      common.Messenger
	currency string
	loc      *time.Location
}

// NewHandler создаёт новый обработчик команд кошелька.
func NewHandler(service *Service, out common.Messenger, currency string, loc *time.Location) *Handler {
	return &Handler{service: service, out: out, currency: currency, loc: loc}
}

// HandleBalance обрабатывает команду /баланс.
//
// Формат ответа:
//
//	💰 Баланс: 1 000,00 ₽
//
//	Последние операции:
//	1. 01.02.2026 10:00 | -100,00 ₽ | Продвижение «Quick Boost», АЗС 42
func (h *Handler) HandleBalance(ctx context.Context, chatID, ownerID int64) {
	summary, err := h.service.Summary(ctx, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			h.out.Send(ctx, chatID, "💰 Кошелёк ещё не создан. Отправьте /start")
			return
		}
		log.WithError(err).WithField("owner_id", ownerID).Error("Ошибка получения кошелька")
		h.out.Send(ctx, chatID, "❌ Ошибка получения баланса")
		return
	}
	h.out.Send(ctx, chatID, FormatSummary(summary, h.currency, h.loc))
}

// HandleHistory обрабатывает команду /история [страница].
func (h *Handler) HandleHistory(ctx context.Context, chatID, ownerID int64, args []string) {
	page := 1
	if len(args) > 0 {
		p, err := strconv.Atoi(args[0])
		if err != nil || p < 1 {
			h.out.Send(ctx, chatID, "❌ Формат: /история [номер страницы]")
			return
		}
		page = p
	}

	txs, err := h.service.ListTransactions(ctx, ownerID, HistoryPageSize, (page-1)*HistoryPageSize)
	if err != nil {
		log.WithError(err).WithField("owner_id", ownerID).Error("Ошибка получения истории")
		h.out.Send(ctx, chatID, "❌ Ошибка получения истории операций")
		return
	}
	if len(txs) == 0 {
		h.out.Send(ctx, chatID, "📋 Операций на этой странице нет")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 История, страница %d:\n\n", page)
	for i, t := range txs {
		sb.WriteString(FormatTransactionLine((page-1)*HistoryPageSize+i+1, t, h.currency, h.loc))
		sb.WriteString("\n")
	}
	h.out.Send(ctx, chatID, sb.String())
}

// FormatSummary собирает текст экрана кошелька.
func FormatSummary(s *Summary, currency string, loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 Баланс: %s\n", common.FormatMoney(s.Wallet.Balance, currency))
	if len(s.Recent) == 0 {
		sb.WriteString("\n📋 Операций пока нет")
		return sb.String()
	}
	sb.WriteString("\nПоследние операции:\n")
	for i, t := range s.Recent {
		sb.WriteString(FormatTransactionLine(i+1, t, currency, loc))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatTransactionLine — одна строка истории.
func FormatTransactionLine(n int, t *Transaction, currency string, loc *time.Location) string {
	return fmt.Sprintf("%d. %s | %s | %s",
		n,
		common.FormatDateTime(t.CreatedAt, loc),
		common.FormatSignedMoney(t.Amount, currency),
		t.Description(),
	)
}
