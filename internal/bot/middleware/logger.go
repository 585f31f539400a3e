// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// LogMessage логирует входящее сообщение.
// Записывает: user_id, chat_id, username, текст (первые 50 символов).
func LogMessage(message *telego.Message) {
	if message == nil || message.From == nil {
		return
	}

	text := []rune(message.Text)
	if len(text) > 50 {
		text = append(text[:50], []rune("...")...)
	}

	log.WithFields(log.Fields{
		"user_id":    message.From.ID,
		"chat_id":    message.Chat.ID,
		"message_id": message.MessageID,
		"username":   message.From.Username,
		"text":       string(text),
	}).Debug("Входящее сообщение")
}
