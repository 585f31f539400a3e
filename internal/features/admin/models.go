// Package admin — вход администратора по паролю и ручные операции с кошельками.
// models.go описывает структуры сессий и попыток входа.
package admin

import "time"

// AdminSession — активная сессия администратора.
type AdminSession struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// AdminState — состояние диалога с админом.
// Пополнение идёт в два шага: команда → подтверждение «да».
type AdminState struct {
	State     string        // Текущее состояние
	TopUp     *PendingTopUp // Пополнение, ждущее подтверждения
	ExpiresAt time.Time     // Когда состояние истекает (5 минут)
}

// PendingTopUp — пополнение, которое админ ещё не подтвердил.
type PendingTopUp struct {
	OwnerID int64
	Amount  int64
}

// Возможные состояния админ-диалога
const (
	StateNone             = ""                  // Нет активного состояния
	StateAwaitingPassword = "awaiting_password" // Ждём пароль
	StateConfirmTopUp     = "confirm_topup"     // Ждём «да»/«нет» на пополнение
)

// Лимиты входа
const (
	MaxFailedAttempts = 3              // Неудачных попыток до блокировки
	AttemptsWindow    = 1 * time.Hour  // За какой период считаем попытки
	SessionTTL        = 24 * time.Hour // Время жизни сессии
	StateTTL          = 5 * time.Minute
)
