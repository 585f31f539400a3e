package cli

import (
	"github.com/spf13/cobra"

	"serotonyl.ru/fuelboost/internal/app"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Применить миграции схемы БД",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		pool, err := app.Open(ctx, cfg)
		if err != nil {
			return err
		}
		pool.Close()
		return nil
	},
}
