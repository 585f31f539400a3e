package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"serotonyl.ru/fuelboost/internal/features/admin"
)

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password PASSWORD",
	Short: "Сгенерировать Argon2id-хеш пароля для ADMIN_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := admin.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Хеш пароля (вставьте в .env как ADMIN_PASSWORD_HASH):")
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
