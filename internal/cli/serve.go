package cli

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"serotonyl.ru/fuelboost/internal/app"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить бота, HTTP-сервер и фоновые задачи",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info("=== Бот запускается ===")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		application, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer application.Close()

		log.Info("=== Бот готов к работе ===")
		if err := application.Run(ctx); err != nil {
			return err
		}

		log.Info("=== Бот остановлен ===")
		return nil
	},
}
