// Package activation — handlers.go обрабатывает команду /купить <АЗС> <тариф>.
package activation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fuelboost/internal/common"
)

// requestNamespace — пространство имён для ключей идемпотентности из сообщений Telegram.
var requestNamespace = uuid.MustParse("6f1c2f7e-3b0a-4c55-9a57-2d0f8a1e9b40")

// RequestIDForMessage — ключ идемпотентности покупки по сообщению.
// Telegram может доставить одно сообщение повторно; повтор даст тот же ключ.
func RequestIDForMessage(chatID int64, messageID int) uuid.UUID {
	return uuid.NewSHA1(requestNamespace, []byte(fmt.Sprintf("%d:%d", chatID, messageID)))
}

// Handler обрабатывает команды покупки.
type Handler struct {
	service  *Service
	out      common.Messenger
	currency string
	loc      *time.Location
}

// NewHandler создаёт обработчик покупок.
func NewHandler(service *Service, out common.Messenger, currency string, loc *time.Location) *Handler {
	return &Handler{service: service, out: out, currency: currency, loc: loc}
}

// HandleBuy обрабатывает команду /купить <АЗС> <тариф>.
func (h *Handler) HandleBuy(ctx context.Context, chatID, ownerID int64, messageID int, args []string) {
	if len(args) < 2 {
		h.out.Send(ctx, chatID, "❌ Формат: /купить <номер АЗС> <код тарифа>\nТарифы: /тарифы")
		return
	}
	stationID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || stationID <= 0 {
		h.out.Send(ctx, chatID, "❌ "+common.ErrInvalidStation.Error())
		return
	}

	requestID := RequestIDForMessage(chatID, messageID)
	res, err := h.service.Activate(ctx, ActivateRequest{
		OwnerID:   ownerID,
		StationID: stationID,
		TierID:    strings.ToLower(args[1]),
		RequestID: requestID,
	})
	if err != nil && !common.IsUserFacing(err) {
		// Ошибка на COMMIT не означает, что покупки нет: сверяемся с БД
		res, err = h.readBack(ctx, requestID, err, ownerID, stationID)
	}
	if err != nil {
		h.out.Send(ctx, chatID, h.failureText(err, ownerID, stationID))
		return
	}
	h.out.Send(ctx, chatID, FormatResult(res, h.currency, h.loc))
}

// errPurchaseUnconfirmed — сбой, после которого неизвестно, прошла ли покупка.
var errPurchaseUnconfirmed = errors.New("покупка не подтверждена")

// readBack ищет покупку по ключу запроса после сбоя хранилища.
func (h *Handler) readBack(ctx context.Context, requestID uuid.UUID, cause error, ownerID, stationID int64) (*Result, error) {
	fields := log.Fields{
		"owner_id":   ownerID,
		"station_id": stationID,
		"request_id": requestID,
	}
	p, err := h.service.LookupRequest(ctx, requestID)
	if err != nil {
		log.WithError(cause).WithFields(fields).WithField("read_back_error", err.Error()).
			Error("Ошибка покупки промо, результат неизвестен")
		return nil, errPurchaseUnconfirmed
	}
	if p != nil {
		log.WithError(cause).WithFields(fields).WithField("promotion_id", p.ID).
			Warn("Ошибка на завершении покупки, но промо записано")
		return &Result{Promotion: p, Replayed: true}, nil
	}
	return nil, cause
}

func (h *Handler) failureText(err error, ownerID, stationID int64) string {
	switch {
	case errors.Is(err, common.ErrInsufficientFunds):
		return "💸 " + common.ErrInsufficientFunds.Error() + ". Баланс: /баланс"
	case errors.Is(err, common.ErrUnknownTier):
		return "❌ " + common.ErrUnknownTier.Error() + ". Список: /тарифы"
	}
	if msg := common.UserMessage(err); msg != "" {
		return "❌ " + msg
	}
	if errors.Is(err, errPurchaseUnconfirmed) {
		return fmt.Sprintf("⚠️ Не удалось подтвердить покупку. Проверьте /промо %d и /баланс, прежде чем покупать снова", stationID)
	}
	log.WithError(err).WithFields(log.Fields{
		"owner_id":   ownerID,
		"station_id": stationID,
	}).Error("Ошибка покупки промо")
	return "❌ Покупка не оформлена, деньги не списаны. Попробуйте ещё раз"
}

// FormatResult — ответ на успешную покупку.
func FormatResult(res *Result, currency string, loc *time.Location) string {
	p := res.Promotion
	var sb strings.Builder
	switch {
	case res.Replayed:
		fmt.Fprintf(&sb, "ℹ️ Эта покупка уже оформлена: промо #%d", p.ID)
	case res.Extended:
		fmt.Fprintf(&sb, "🔁 Промо «%s» для АЗС %d продлено", p.TierName, p.StationID)
	default:
		fmt.Fprintf(&sb, "🚀 Промо «%s» для АЗС %d запущено", p.TierName, p.StationID)
	}
	fmt.Fprintf(&sb, "\nДо %s", common.FormatDateTime(p.EndTime, loc))
	if res.Transaction != nil {
		fmt.Fprintf(&sb, "\nСписано: %s, остаток: %s",
			common.FormatMoney(-res.Transaction.Amount, currency),
			common.FormatMoney(res.Transaction.BalanceAfter, currency),
		)
	}
	return sb.String()
}
