// Package operators управляет операторами АЗС — пользователями бота.
// models.go описывает структуры данных для работы с таблицей operators.
package operators

import "time"

// Operator — оператор АЗС, владелец кошелька.
// Запись создаётся при первом сообщении боту, вместе с пустым кошельком.
type Operator struct {
	ID        int64     `db:"id"`         // Автоинкрементный ID записи в БД
	UserID    int64     `db:"user_id"`    // Telegram user ID (уникальный), он же owner_id кошелька
	Username  string    `db:"username"`   // @username (может быть пустым)
	FirstName string    `db:"first_name"` // Имя пользователя
	LastName  string    `db:"last_name"`  // Фамилия (может быть пустой)
	IsBanned  bool      `db:"is_banned"`  // Заблокированному бот не отвечает
	CreatedAt time.Time `db:"created_at"` // Когда запись создана в БД
	UpdatedAt time.Time `db:"updated_at"` // Последнее обновление записи
}

// Profile — данные пользователя из Telegram, которые могут меняться.
type Profile struct {
	Username  string
	FirstName string
	LastName  string
}

// DisplayName возвращает отображаемое имя пользователя.
// Если есть @username — возвращает его, иначе — имя + фамилию.
func (o *Operator) DisplayName() string {
	if o.Username != "" {
		return "@" + o.Username
	}
	name := o.FirstName
	if o.LastName != "" {
		name += " " + o.LastName
	}
	return name
}

// changed — отличается ли профиль от сохранённого.
func (o *Operator) changed(p Profile) bool {
	return o.Username != p.Username || o.FirstName != p.FirstName || o.LastName != p.LastName
}
