// Package cli — команды fuelboost: serve, migrate, tiers import, hash-password.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"serotonyl.ru/fuelboost/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "fuelboost",
	Short: "Кошелёк оператора АЗС и продвижение станций",
	Long: `fuelboost — Telegram-бот операторов АЗС: предоплаченный кошелёк,
покупка продвижения станции по тарифу и журнал операций, который
всегда сходится с балансом.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute запускает CLI. Возвращает код выхода.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("Команда завершилась с ошибкой")
		return 1
	}
	return 0
}

// setupLogging настраивает формат логов.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}

// loadConfig загружает конфигурацию и выставляет уровень логов из APP_LOG_LEVEL.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}
	return cfg, nil
}

// signalContext отменяется по SIGINT/SIGTERM (Ctrl+C, docker stop).
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
