// Package main — точка входа fuelboost.
// Команды: serve (бот + HTTP + cron), migrate, tiers import/check, hash-password.
// serve поддерживает graceful shutdown по SIGINT/SIGTERM.
package main

import (
	"os"

	"serotonyl.ru/fuelboost/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
