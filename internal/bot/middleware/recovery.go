package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fuelboost/internal/metrics"
)

// RecoverFromPanic вызывается через defer в обработчике апдейта.
// Паника в одном апдейте не должна останавливать опрос Telegram.
func RecoverFromPanic(updateID int) {
	r := recover()
	if r == nil {
		return
	}
	metrics.RecordPanic()
	log.WithFields(log.Fields{
		"component": "panic_recovery",
		"update_id": updateID,
		"panic":     fmt.Sprintf("%v", r),
		"stack":     string(debug.Stack()),
	}).Error("Паника в обработчике апдейта, восстановлено")
}
