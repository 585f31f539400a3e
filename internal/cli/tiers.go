package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"serotonyl.ru/fuelboost/internal/app"
	"serotonyl.ru/fuelboost/internal/common"
	"serotonyl.ru/fuelboost/internal/features/tiers"
)

func init() {
	rootCmd.AddCommand(tiersCmd)
	tiersCmd.AddCommand(tiersImportCmd)
	tiersCmd.AddCommand(tiersCheckCmd)

	tiersImportCmd.Flags().StringP("file", "f", "", "TOML-файл каталога (по умолчанию TIERS_FILE)")
	tiersCheckCmd.Flags().StringP("file", "f", "tiers.toml", "TOML-файл каталога")
}

var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "Справочник тарифов продвижения",
}

var tiersImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Загрузить тарифы из TOML-файла в БД",
	Long: `Создаёт новые тарифы и обновляет цену, название и длительность существующих.
Тарифы, которых нет в файле, не удаляются: на них ссылаются купленные промо.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			path = cfg.TiersFile
		}

		catalog, err := tiers.LoadCatalogFile(path)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		pool, err := app.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		svc := tiers.NewService(tiers.NewRepository(pool))
		n, err := svc.Import(ctx, catalog)
		if err != nil {
			return fmt.Errorf("импортировано %d из %d: %w", n, len(catalog), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Импортировано тарифов: %d\n", n)
		return nil
	},
}

var tiersCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Проверить TOML-файл каталога без записи в БД",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		catalog, err := tiers.LoadCatalogFile(path)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tiers.FormatTiers(catalog, "₽"))
		fmt.Fprintf(cmd.OutOrStdout(), "\nТарифов: %d, самый дешёвый: %s\n",
			len(catalog), common.FormatMoney(catalog[0].Price, "₽"))
		return nil
	},
}
