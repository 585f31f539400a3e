// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях сервиса.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки кошелька и покупки
var (
	// ErrNotFound — запись (кошелёк, тариф, промо) не найдена
	ErrNotFound = errors.New("запись не найдена")
	// ErrInsufficientFunds — на кошельке меньше, чем стоит тариф
	ErrInsufficientFunds = errors.New("недостаточно средств на кошельке")
	// ErrUnknownTier — тариф с таким ID не существует
	ErrUnknownTier = errors.New("неизвестный тариф")
	// ErrUnauthorized — нет действующего пользователя
	ErrUnauthorized = errors.New("требуется авторизация")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
)

// Ошибки продвижения
var (
	// ErrPromotionActive — у АЗС уже идёт продвижение другого тарифа
	ErrPromotionActive = errors.New("у АЗС уже есть активное продвижение другого тарифа")
	// ErrNotOwner — промо куплено другим пользователем
	ErrNotOwner = errors.New("это продвижение принадлежит другому пользователю")
	// ErrPromotionNotActive — промо уже истекло или отменено
	ErrPromotionNotActive = errors.New("продвижение уже неактивно")
	// ErrInvalidStation — некорректный номер АЗС
	ErrInvalidStation = errors.New("некорректный номер АЗС")
)

// Ошибки хранилища
var (
	// ErrStorageConflict — конфликт параллельной записи, можно повторить
	ErrStorageConflict = errors.New("конфликт параллельной записи")
	// ErrStorageFailure — постоянная ошибка хранилища
	ErrStorageFailure = errors.New("ошибка хранилища")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired — сессия истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
)

var userFacing = []error{
	ErrInsufficientFunds, ErrUnknownTier, ErrUnauthorized, ErrInvalidAmount,
	ErrPromotionActive, ErrNotOwner, ErrPromotionNotActive, ErrInvalidStation,
	ErrNotAdmin, ErrWrongPassword, ErrTooManyAttempts, ErrSessionExpired,
	ErrNotFound,
}

// IsUserFacing сообщает, можно ли показать ошибку пользователю как есть.
func IsUserFacing(err error) bool {
	return UserMessage(err) != ""
}

// UserMessage возвращает текст пользовательской ошибки без технических подробностей.
// Для внутренних ошибок — пустая строка.
func UserMessage(err error) string {
	for _, target := range userFacing {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return ""
}
