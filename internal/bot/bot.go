// Package bot содержит главный модуль бота — запуск polling, маршрутизацию команд и отправку.
package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fuelboost/internal/bot/filters"
	"serotonyl.ru/fuelboost/internal/bot/middleware"
	"serotonyl.ru/fuelboost/internal/common"
	"serotonyl.ru/fuelboost/internal/config"
	"serotonyl.ru/fuelboost/internal/features/activation"
	"serotonyl.ru/fuelboost/internal/features/admin"
	"serotonyl.ru/fuelboost/internal/features/operators"
	"serotonyl.ru/fuelboost/internal/features/promotions"
	"serotonyl.ru/fuelboost/internal/features/tiers"
	"serotonyl.ru/fuelboost/internal/features/wallet"
	"serotonyl.ru/fuelboost/internal/metrics"
)

const helpText = `⛽ Продвижение АЗС

/баланс — баланс и последние операции
/история [страница] — все операции
/тарифы — тарифы продвижения
/купить <АЗС> <тариф> — запустить продвижение
/промо <АЗС> — текущее продвижение
/кампании <АЗС> — история кампаний
/отменить <id промо> — остановить продвижение (без возврата)

Пополнение — через администратора.`

// Handlers — обработчики команд по фичам.
type Handlers struct {
	Wallet     *wallet.Handler
	Tiers      *tiers.Handler
	Promotions *promotions.Handler
	Activation *activation.Handler
	Admin      *admin.Handler
}

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *telego.Bot
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	operatorService *operators.Service
	handlers        Handlers

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт бота. Обработчики подключаются позже через SetHandlers:
// им самим нужен бот для отправки сообщений.
func New(api *telego.Bot, cfg *config.Config, operatorService *operators.Service) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:             api,
		cfg:             cfg,
		chatFilter:      filters.NewChatFilter(),
		rateLimiter:     middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		operatorService: operatorService,
		parser:          NewCommandParser(),
		inflight:        make(chan struct{}, maxInFlight),
	}
}

// SetHandlers подключает обработчики команд.
func (b *Bot) SetHandlers(h Handlers) {
	b.handlers = h
}

// Start запускает long polling и блокируется до отмены ctx.
func (b *Bot) Start(ctx context.Context) error {
	defer b.rateLimiter.Close()

	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        b.cfg.BotUpdateTimeoutSeconds,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return fmt.Errorf("ошибка запуска polling: %w", err)
	}

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.drain()
			return nil

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				b.drain()
				return nil
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd telego.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// drain ждёт завершения обработчиков, которые уже выполняются.
func (b *Bot) drain() {
	for i := 0; i < cap(b.inflight); i++ {
		b.inflight <- struct{}{}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic(update.UpdateID)

	message := update.Message
	if message == nil || message.Text == "" {
		return
	}

	middleware.LogMessage(message)

	if !b.chatFilter.CheckAccess(message) {
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	// Регистрация и кошелёк — до любой команды
	_, err := b.operatorService.EnsureOperator(ctx, userID, operators.Profile{
		Username:  message.From.Username,
		FirstName: message.From.FirstName,
		LastName:  message.From.LastName,
	})
	if errors.Is(err, common.ErrUnauthorized) {
		log.WithField("user_id", userID).Debug("blocked operator")
		return
	}
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("EnsureOperator failed")
		b.Send(ctx, chatID, "❌ Сервис временно недоступен, попробуйте позже")
		return
	}

	// Ответ в пошаговом админ-диалоге (пароль, подтверждение пополнения)
	if b.handlers.Admin.HandleStateMessage(ctx, chatID, userID, message.Text) {
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		return
	}
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("parsed command")

	b.routeCommand(ctx, chatID, userID, message.MessageID, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, messageID int, cmd string, args []string) {
	h := b.handlers
	switch cmd {
	case "start", "help", "помощь":
		b.Send(ctx, chatID, helpText)

	case "баланс", "balance":
		h.Wallet.HandleBalance(ctx, chatID, userID)

	case "история", "history":
		h.Wallet.HandleHistory(ctx, chatID, userID, args)

	case "тарифы", "tiers":
		h.Tiers.HandleList(ctx, chatID)

	case "купить", "buy":
		h.Activation.HandleBuy(ctx, chatID, userID, messageID, args)

	case "промо", "promo":
		h.Promotions.HandleActive(ctx, chatID, args)

	case "кампании", "campaigns":
		h.Promotions.HandleHistory(ctx, chatID, args)

	case "отменить", "cancel":
		h.Promotions.HandleCancel(ctx, chatID, userID, args)

	case "login":
		h.Admin.HandleLogin(ctx, chatID, userID, args)

	case "logout":
		h.Admin.HandleLogout(ctx, chatID, userID)

	case "пополнить", "topup":
		h.Admin.HandleTopUp(ctx, chatID, userID, args)

	case "сверка", "reconcile":
		h.Admin.HandleReconcile(ctx, chatID, userID, args)

	default:
		b.Send(ctx, chatID, "🤔 Неизвестная команда. Список: /help")
		return
	}
	metrics.RecordCommand(cmd)
}

// Send отправляет сообщение в чат; ошибка отправки только логируется.
func (b *Bot) Send(ctx context.Context, chatID int64, text string) {
	if _, err := b.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessageToUser отправляет сообщение пользователю (для напоминаний).
// Пользователь мог заблокировать бота — тогда вернётся ошибка.
func (b *Bot) SendMessageToUser(ctx context.Context, userID int64, text string) error {
	if _, err := b.api.SendMessage(ctx, tu.Message(tu.ID(userID), text)); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить сообщение")
		return err
	}
	log.WithField("user_id", userID).Debug("message sent")
	return nil
}
