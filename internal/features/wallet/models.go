// Package wallet — предоплаченный кошелёк оператора АЗС и журнал его операций.
// models.go описывает структуры для кошельков и транзакций.
package wallet

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Wallet — кошелёк пользователя. Ровно один на пользователя, никогда не удаляется.
type Wallet struct {
	OwnerID   int64     `db:"owner_id"`   // Telegram user ID владельца
	Balance   int64     `db:"balance"`    // Баланс в копейках, всегда >= 0 (CHECK в БД)
	CreatedAt time.Time `db:"created_at"` // Когда кошелёк создан
	UpdatedAt time.Time `db:"updated_at"` // Последнее изменение баланса
}

// Kind — тип операции в журнале.
type Kind string

const (
	KindDeposit Kind = "deposit" // Пополнение (сумма положительная)
	KindSpend   Kind = "spend"   // Списание (сумма отрицательная)
)

// Metadata — произвольная JSON-аннотация операции (тариф, АЗС, способ пополнения).
type Metadata map[string]any

// Transaction — неизменяемая запись журнала.
// Сумма всех Amount по кошельку всегда равна его балансу.
type Transaction struct {
	ID           int64      `db:"id"`            // Монотонно растущий ID
	WalletID     int64      `db:"wallet_id"`     // owner_id кошелька
	Amount       int64      `db:"amount"`        // Со знаком: минус — списание, плюс — пополнение
	Kind         Kind       `db:"kind"`          // deposit | spend
	Metadata     Metadata   `db:"metadata"`      // Аннотация операции
	RequestID    *uuid.UUID `db:"request_id"`    // Ключ идемпотентности покупки (nil для пополнений)
	BalanceAfter int64      `db:"balance_after"` // Баланс сразу после операции
	CreatedAt    time.Time  `db:"created_at"`
}

// Description возвращает короткое описание операции для истории.
func (t *Transaction) Description() string {
	switch t.Kind {
	case KindSpend:
		if name, ok := t.Metadata["tier_name"].(string); ok && name != "" {
			if station, ok := t.Metadata["station_id"]; ok {
				return "Продвижение «" + name + "», АЗС " + stringify(station)
			}
			return "Продвижение «" + name + "»"
		}
		return "Списание"
	case KindDeposit:
		return "Пополнение"
	}
	return string(t.Kind)
}

// Entry — то, что пишется в журнал вместе с суммой.
type Entry struct {
	Metadata  Metadata
	RequestID *uuid.UUID
}

// Reconciliation — сверка баланса с журналом на одном снимке БД.
type Reconciliation struct {
	OwnerID      int64
	Balance      int64 // Баланс в таблице wallets
	LedgerSum    int64 // Сумма amount по журналу
	Transactions int64 // Сколько записей в журнале
}

// Balanced — баланс сходится с журналом.
func (r *Reconciliation) Balanced() bool {
	return r.Balance == r.LedgerSum
}

// Summary — баланс и последние операции (экран кошелька).
type Summary struct {
	Wallet *Wallet
	Recent []*Transaction
}

// stringify печатает значение из JSON: числа из БД приходят как float64.
func stringify(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
