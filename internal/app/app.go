// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики
// и запускает бота, HTTP-сервер и планировщик в одной errgroup.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"serotonyl.ru/fuelboost/internal/bot"
	"serotonyl.ru/fuelboost/internal/config"
	"serotonyl.ru/fuelboost/internal/db/postgres"
	"serotonyl.ru/fuelboost/internal/features/activation"
	"serotonyl.ru/fuelboost/internal/features/admin"
	"serotonyl.ru/fuelboost/internal/features/operators"
	"serotonyl.ru/fuelboost/internal/features/promotions"
	"serotonyl.ru/fuelboost/internal/features/tiers"
	"serotonyl.ru/fuelboost/internal/features/wallet"
	"serotonyl.ru/fuelboost/internal/httpapi"
	"serotonyl.ru/fuelboost/internal/jobs"
)

// Services — сервисы предметной области поверх одного пула.
type Services struct {
	Wallets    *wallet.Service
	Tiers      *tiers.Service
	Promotions *promotions.Service
	Activation *activation.Service
	Operators  *operators.Service
	Admin      *admin.Service
}

// NewServices собирает репозитории и сервисы. now — источник времени (nil — time.Now).
func NewServices(cfg *config.Config, db postgres.TxBeginner, now func() time.Time) *Services {
	retry := postgres.RetryPolicy{
		MaxAttempts: cfg.ActivationMaxRetries,
		Backoff:     cfg.ActivationRetryBackoff,
	}

	walletRepo := wallet.NewRepository(db)
	tierRepo := tiers.NewRepository(db)
	promotionRepo := promotions.NewRepository(db)
	operatorRepo := operators.NewRepository(db)
	adminRepo := admin.NewRepository(db)

	walletService := wallet.NewService(walletRepo, db, retry)
	tierService := tiers.NewService(tierRepo)

	return &Services{
		Wallets:    walletService,
		Tiers:      tierService,
		Promotions: promotions.NewService(promotionRepo, now),
		Activation: activation.NewService(db, tierService, walletRepo, promotionRepo, retry, now),
		Operators:  operators.NewService(operatorRepo, walletService),
		Admin:      admin.NewService(adminRepo, cfg, cfg.AdminPasswordHash, now),
	}
}

// App содержит все компоненты приложения.
type App struct {
	cfg       *config.Config
	DB        *pgxpool.Pool
	Services  *Services
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	HTTP      *httpapi.Server
}

// Open подключается к БД и применяет миграции. Используется всеми командами CLI.
func Open(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.RunMigrations(ctx, pool, Migrations); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}
	return pool, nil
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.ValidateBot(); err != nil {
		return nil, err
	}

	// === 1. База данных ===
	pool, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === 2. Telegram Bot API ===
	var opts []telego.BotOption
	if cfg.AppEnv == "development" {
		opts = append(opts, telego.WithDefaultDebugLogger())
	}
	botAPI, err := telego.NewBot(cfg.TelegramBotToken, opts...)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := botAPI.GetMe(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка авторизации в Telegram: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)

	// === 3. Сервисы ===
	svc := NewServices(cfg, pool, nil)

	// === 4. Бот и обработчики ===
	currency := cfg.EconomyCurrencySymbol
	loc := cfg.Location()

	b := bot.New(botAPI, cfg, svc.Operators)
	b.SetHandlers(bot.Handlers{
		Wallet:     wallet.NewHandler(svc.Wallets, b, currency, loc),
		Tiers:      tiers.NewHandler(svc.Tiers, b, currency),
		Promotions: promotions.NewHandler(svc.Promotions, b, loc),
		Activation: activation.NewHandler(svc.Activation, b, currency, loc),
		Admin:      admin.NewHandler(svc.Admin, svc.Activation, svc.Wallets, b, currency),
	})

	// === 5. Планировщик и HTTP ===
	scheduler := jobs.NewScheduler(cfg, svc.Promotions, svc.Wallets, b.SendMessageToUser)
	server := httpapi.NewServer(pool, svc.Tiers, svc.Promotions)

	return &App{
		cfg:       cfg,
		DB:        pool,
		Services:  svc,
		Bot:       b,
		Scheduler: scheduler,
		HTTP:      server,
	}, nil
}

// Run запускает бота, HTTP-сервер и планировщик и ждёт отмены ctx.
// Падение любого компонента останавливает остальные.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if err := a.Scheduler.Start(ctx); err != nil {
		return err
	}
	defer a.Scheduler.Stop()

	g.Go(func() error {
		return a.Bot.Start(ctx)
	})

	if a.cfg.FeatureHTTPEnabled {
		g.Go(func() error {
			return a.HTTP.Run(ctx, a.cfg.HTTPAddr)
		})
	}

	return g.Wait()
}

// Close освобождает ресурсы.
func (a *App) Close() {
	a.DB.Close()
}
