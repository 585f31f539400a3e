// Package admin — handlers.go обрабатывает админ-команды в личных сообщениях:
// /login <пароль>, /logout, /пополнить <owner_id> <сумма> (с подтверждением), /сверка <owner_id>.
package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fuelboost/internal/common"
	"serotonyl.ru/fuelboost/internal/features/wallet"
)

// TopUpper зачисляет деньги на кошелёк от имени администратора.
type TopUpper interface {
	TopUpBy(ctx context.Context, adminID, ownerID, amount int64) (*wallet.Transaction, error)
}

// Reconciler сверяет баланс кошелька с журналом.
type Reconciler interface {
	Reconcile(ctx context.Context, ownerID int64) (*wallet.Reconciliation, error)
}

// Handler обрабатывает админ-команды.
type Handler struct {
	service    *Service
	topUps     TopUpper
	reconciler Reconciler
	out        common.Messenger
	currency   string
}

// NewHandler создаёт обработчик админ-команд.
func NewHandler(service *Service, topUps TopUpper, reconciler Reconciler, out common.Messenger, currency string) *Handler {
	return &Handler{
		service:    service,
		topUps:     topUps,
		reconciler: reconciler,
		out:        out,
		currency:   currency,
	}
}

// HandleStateMessage обрабатывает ответ админа в пошаговом диалоге (пароль, подтверждение).
// Возвращает true, если сообщение поглощено диалогом.
func (h *Handler) HandleStateMessage(ctx context.Context, chatID, userID int64, text string) bool {
	if !h.service.IsAdmin(userID) {
		return false
	}
	state := h.service.GetState(userID)
	if state == nil {
		return false
	}

	switch state.State {
	case StateAwaitingPassword:
		h.service.ClearState(userID)
		h.login(ctx, chatID, userID, strings.TrimSpace(text))
		return true
	case StateConfirmTopUp:
		h.service.ClearState(userID)
		h.confirmTopUp(ctx, chatID, userID, state.TopUp, text)
		return true
	}
	return false
}

// HandleLogin обрабатывает /login [пароль]. Без пароля — спрашивает его следующим сообщением.
func (h *Handler) HandleLogin(ctx context.Context, chatID, userID int64, args []string) {
	if !h.service.IsAdmin(userID) {
		h.out.Send(ctx, chatID, "❌ "+common.ErrNotAdmin.Error())
		return
	}
	if len(args) == 0 {
		h.service.SetState(userID, StateAwaitingPassword, nil)
		h.out.Send(ctx, chatID, "🔐 Введите пароль администратора:")
		return
	}
	h.login(ctx, chatID, userID, strings.Join(args, " "))
}

func (h *Handler) login(ctx context.Context, chatID, userID int64, password string) {
	if err := h.service.VerifyPassword(ctx, userID, password); err != nil {
		h.replyError(ctx, chatID, userID, err, "Ошибка входа")
		return
	}
	h.out.Send(ctx, chatID, "✅ Аутентификация успешна! Доступно: /пополнить, /сверка, /logout")
}

// HandleLogout обрабатывает /logout.
func (h *Handler) HandleLogout(ctx context.Context, chatID, userID int64) {
	if !h.service.IsAdmin(userID) {
		return
	}
	if err := h.service.Logout(ctx, userID); err != nil {
		h.replyError(ctx, chatID, userID, err, "Ошибка выхода")
		return
	}
	h.out.Send(ctx, chatID, "👋 Сессия закрыта")
}

// HandleTopUp обрабатывает /пополнить <owner_id> <сумма в рублях>.
// Деньги зачисляются только после подтверждения «да».
func (h *Handler) HandleTopUp(ctx context.Context, chatID, adminID int64, args []string) {
	if err := h.service.RequireSession(ctx, adminID); err != nil {
		h.replyError(ctx, chatID, adminID, err, "Ошибка проверки сессии")
		return
	}
	if len(args) < 2 {
		h.out.Send(ctx, chatID, "❌ Формат: /пополнить <id пользователя> <сумма, ₽>")
		return
	}
	ownerID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || ownerID <= 0 {
		h.out.Send(ctx, chatID, "❌ Некорректный id пользователя")
		return
	}
	amount, err := common.ParseMoney(args[1])
	if err != nil {
		h.out.Send(ctx, chatID, "❌ "+err.Error())
		return
	}
	if amount <= 0 {
		h.out.Send(ctx, chatID, "❌ "+common.ErrInvalidAmount.Error())
		return
	}

	h.service.SetState(adminID, StateConfirmTopUp, &PendingTopUp{OwnerID: ownerID, Amount: amount})
	h.out.Send(ctx, chatID, fmt.Sprintf("Зачислить %s пользователю %d? Ответьте «да» или «нет»",
		common.FormatMoney(amount, h.currency), ownerID))
}

func (h *Handler) confirmTopUp(ctx context.Context, chatID, adminID int64, p *PendingTopUp, answer string) {
	if p == nil {
		return
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "да", "yes", "+":
	default:
		h.out.Send(ctx, chatID, "Пополнение отменено")
		return
	}
	// Сессия могла истечь, пока ждали ответа
	if err := h.service.RequireSession(ctx, adminID); err != nil {
		h.replyError(ctx, chatID, adminID, err, "Ошибка проверки сессии")
		return
	}

	txn, err := h.topUps.TopUpBy(ctx, adminID, p.OwnerID, p.Amount)
	if err != nil {
		h.replyError(ctx, chatID, adminID, err, "Ошибка пополнения")
		return
	}
	h.out.Send(ctx, chatID, fmt.Sprintf("✅ Зачислено %s пользователю %d. Баланс: %s",
		common.FormatMoney(p.Amount, h.currency), p.OwnerID,
		common.FormatMoney(txn.BalanceAfter, h.currency)))
}

// HandleReconcile обрабатывает /сверка <owner_id>.
func (h *Handler) HandleReconcile(ctx context.Context, chatID, adminID int64, args []string) {
	if err := h.service.RequireSession(ctx, adminID); err != nil {
		h.replyError(ctx, chatID, adminID, err, "Ошибка проверки сессии")
		return
	}
	if len(args) < 1 {
		h.out.Send(ctx, chatID, "❌ Формат: /сверка <id пользователя>")
		return
	}
	ownerID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || ownerID <= 0 {
		h.out.Send(ctx, chatID, "❌ Некорректный id пользователя")
		return
	}

	rec, err := h.reconciler.Reconcile(ctx, ownerID)
	if err != nil {
		h.replyError(ctx, chatID, adminID, err, "Ошибка сверки")
		return
	}
	h.out.Send(ctx, chatID, FormatReconciliation(rec, h.currency))
}

// FormatReconciliation — результат сверки кошелька.
func FormatReconciliation(rec *wallet.Reconciliation, currency string) string {
	mark := "✅ Сходится"
	if !rec.Balanced() {
		mark = "⚠️ Расхождение " + common.FormatSignedMoney(rec.Balance-rec.LedgerSum, currency)
	}
	return fmt.Sprintf("🧾 Кошелёк %d\nБаланс: %s\nПо журналу: %s (%d операций)\n%s",
		rec.OwnerID,
		common.FormatMoney(rec.Balance, currency),
		common.FormatMoney(rec.LedgerSum, currency),
		rec.Transactions,
		mark,
	)
}

func (h *Handler) replyError(ctx context.Context, chatID, userID int64, err error, logMsg string) {
	if msg := common.UserMessage(err); msg != "" {
		h.out.Send(ctx, chatID, "❌ "+msg)
		return
	}
	log.WithError(err).WithField("user_id", userID).Error(logMsg)
	h.out.Send(ctx, chatID, "❌ Внутренняя ошибка, подробности в логах")
}
