// Package promotions — реестр продвижений АЗС: какие промо куплены, какие сейчас идут.
// models.go описывает структуры продвижения.
package promotions

import (
	"time"

	"github.com/google/uuid"
)

// Status — статус продвижения в БД.
type Status string

const (
	StatusActive    Status = "active"    // Оплачено, действует до EndTime
	StatusExpired   Status = "expired"   // Проставляется фоновой очисткой после EndTime
	StatusCancelled Status = "cancelled" // Отменено владельцем, деньги не возвращаются
)

// Promotion — одно купленное продвижение АЗС.
//
// Активным считается промо со статусом active и EndTime строго в будущем.
// Статус expired проставляется задачей по расписанию, но на чтение он не влияет:
// промо с истёкшим EndTime неактивно и до очистки.
type Promotion struct {
	ID         int64      `db:"id" json:"id"`
	StationID  int64      `db:"station_id" json:"station_id"`
	TierID     string     `db:"tier_id" json:"tier_id"`
	TierName   string     `db:"tier_name" json:"tier_name"` // Из справочника, для показа
	OwnerID    int64      `db:"owner_id" json:"owner_id"`
	RequestID  *uuid.UUID `db:"request_id" json:"request_id,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	EndTime    time.Time  `db:"end_time" json:"end_time"`
	Status     Status     `db:"status" json:"status"`
	RemindedAt *time.Time `db:"reminded_at" json:"-"` // Когда отправили напоминание об окончании
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// IsActive — промо действует в момент now.
func (p *Promotion) IsActive(now time.Time) bool {
	return p.Status == StatusActive && p.EndTime.After(now)
}

// EffectiveStatus — статус с учётом ленивого истечения.
func (p *Promotion) EffectiveStatus(now time.Time) Status {
	if p.Status == StatusActive && !p.EndTime.After(now) {
		return StatusExpired
	}
	return p.Status
}

// NewPromotion — данные для вставки нового продвижения.
type NewPromotion struct {
	StationID int64
	TierID    string
	OwnerID   int64
	RequestID *uuid.UUID
	CreatedAt time.Time
	EndTime   time.Time
}
