// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: очистка истёкших промо, напоминания
// об окончании и ночная сверка кошельков с журналом.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fuelboost/internal/config"
	"serotonyl.ru/fuelboost/internal/features/promotions"
	"serotonyl.ru/fuelboost/internal/features/wallet"
	"serotonyl.ru/fuelboost/internal/metrics"
)

// SendFunc отправляет сообщение пользователю.
type SendFunc func(ctx context.Context, userID int64, text string) error

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron             *cron.Cron
	cfg              *config.Config
	loc              *time.Location
	promotionService *promotions.Service
	walletService    *wallet.Service
	sendFunc         SendFunc
}

// NewScheduler создаёт планировщик задач в часовом поясе приложения.
func NewScheduler(cfg *config.Config, promotionService *promotions.Service, walletService *wallet.Service, sendFunc SendFunc) *Scheduler {
	loc := cfg.Location()
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)

	return &Scheduler{
		cron:             c,
		cfg:              cfg,
		loc:              loc,
		promotionService: promotionService,
		walletService:    walletService,
		sendFunc:         sendFunc,
	}
}

// Start регистрирует задачи и запускает планировщик.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.FeatureSweepEnabled {
		if _, err := s.cron.AddFunc(s.cfg.PromotionSweepSchedule, func() { s.Sweep(ctx) }); err != nil {
			return fmt.Errorf("PROMOTION_SWEEP_SCHEDULE: %w", err)
		}
	}

	if s.cfg.FeatureRemindersEnabled && s.cfg.PromotionReminderHours > 0 && s.sendFunc != nil {
		// Напоминания проверяем каждые 10 минут
		if _, err := s.cron.AddFunc("*/10 * * * *", func() { s.Remind(ctx) }); err != nil {
			return fmt.Errorf("reminders: %w", err)
		}
	}

	if _, err := s.cron.AddFunc(s.cfg.LedgerAuditSchedule, func() { s.Audit(ctx) }); err != nil {
		return fmt.Errorf("LEDGER_AUDIT_SCHEDULE: %w", err)
	}

	s.cron.Start()
	log.WithField("location", s.loc.String()).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт завершения выполняющихся задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// Sweep помечает истёкшие промо.
func (s *Scheduler) Sweep(ctx context.Context) {
	log.Debug("[CRON] Очистка истёкших промо")
	n, err := s.promotionService.ExpireDue(ctx)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка очистки промо")
		return
	}
	metrics.RecordExpired(n)
}

// Remind рассылает напоминания об окончании промо.
func (s *Scheduler) Remind(ctx context.Context) {
	log.Debug("[CRON] Проверка напоминаний")
	within := time.Duration(s.cfg.PromotionReminderHours) * time.Hour
	sent, err := s.promotionService.SendReminders(ctx, within, s.loc, s.sendFunc)
	metrics.RecordReminders(sent)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка напоминаний")
	}
}

// Audit сверяет все кошельки с журналом.
func (s *Scheduler) Audit(ctx context.Context) {
	log.Info("[CRON] Сверка кошельков с журналом")
	n, err := s.walletService.Audit(ctx)
	metrics.RecordLedgerAudit(n)
	if err != nil {
		log.WithError(err).Error("[CRON] Сверка выявила проблемы")
	}
}

// cronLogger направляет логи cron в logrus.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	log.WithFields(kvFields(keysAndValues)).Debug("[CRON] " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	log.WithError(err).WithFields(kvFields(keysAndValues)).Error("[CRON] " + msg)
}

func kvFields(kv []any) log.Fields {
	f := log.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
