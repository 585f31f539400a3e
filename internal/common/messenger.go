package common

import "context"

// Messenger отправляет текстовые ответы в чат. Реализуется ботом,
// обработчики фич зависят только от этого интерфейса.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string)
}
