// Package activation — покупка продвижения АЗС и пополнение кошелька.
//
// Покупка — одна транзакция БД: блокировка АЗС, проверка повтора запроса,
// блокировка кошелька и проверка баланса, списание с записью в журнал,
// создание или продление промо. Любая ошибка откатывает всё целиком.
package activation

import (
	"github.com/google/uuid"

	"serotonyl.ru/fuelboost/internal/features/promotions"
	"serotonyl.ru/fuelboost/internal/features/wallet"
)

// ActivateRequest — запрос на покупку тарифа для АЗС.
type ActivateRequest struct {
	OwnerID   int64     // Кто платит; 0 — нет пользователя
	StationID int64     // Какую АЗС продвигаем
	TierID    string    // Код тарифа
	RequestID uuid.UUID // Ключ идемпотентности; uuid.Nil — сгенерировать новый
}

// Result — итог покупки.
type Result struct {
	Promotion   *promotions.Promotion
	Transaction *wallet.Transaction // nil, если запрос уже был выполнен раньше
	Extended    bool                // Продлено уже идущее промо того же тарифа
	Replayed    bool                // Повтор уже выполненного запроса, денег не списано
}
