// Package promotions — service.go: чтение реестра, отмена и обслуживание по расписанию.
// Создание и продление промо выполняет только сервис покупки внутри своей транзакции.
package promotions

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fuelboost/internal/common"
)

// Service управляет реестром продвижений.
type Service struct {
	repo *Repository
	now  func() time.Time
}

// NewService создаёт сервис продвижений. now — источник времени (nil — time.Now).
func NewService(repo *Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

// Repository отдаёт репозиторий для работы внутри транзакции покупки.
func (s *Service) Repository() *Repository {
	return s.repo
}

// Now — текущее время по часам сервиса.
func (s *Service) Now() time.Time {
	return s.now()
}

// GetActive возвращает действующее промо АЗС или nil, nil.
func (s *Service) GetActive(ctx context.Context, stationID int64) (*Promotion, error) {
	return s.repo.GetActive(ctx, nil, stationID, s.now())
}

// ListHistory возвращает все кампании АЗС любого статуса, новые первыми.
func (s *Service) ListHistory(ctx context.Context, stationID int64) ([]*Promotion, error) {
	return s.repo.ListHistory(ctx, stationID)
}

// Cancel отменяет действующее промо владельца. Деньги не возвращаются.
func (s *Service) Cancel(ctx context.Context, ownerID, promotionID int64) (*Promotion, error) {
	if ownerID <= 0 {
		return nil, common.ErrUnauthorized
	}
	p, err := s.repo.GetByID(ctx, promotionID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != ownerID {
		return nil, common.ErrNotOwner
	}
	now := s.now()
	if !p.IsActive(now) {
		return nil, common.ErrPromotionNotActive
	}
	if err := s.repo.Cancel(ctx, promotionID, now); err != nil {
		return nil, err
	}
	p.Status = StatusCancelled

	log.WithFields(log.Fields{
		"promotion_id": p.ID,
		"station_id":   p.StationID,
		"owner_id":     ownerID,
	}).Info("Промо отменено")
	return p, nil
}

// ExpireDue помечает истёкшие промо. Запускается кроном.
func (s *Service) ExpireDue(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireDue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.WithField("count", n).Info("Истёкшие промо помечены")
	}
	return n, nil
}

// ListExpiring возвращает промо, заканчивающиеся в ближайшие within, без напоминания.
func (s *Service) ListExpiring(ctx context.Context, within time.Duration) ([]*Promotion, error) {
	return s.repo.ListExpiring(ctx, s.now(), within)
}

// MarkReminded отмечает отправленное напоминание.
func (s *Service) MarkReminded(ctx context.Context, id int64) error {
	return s.repo.MarkReminded(ctx, id, s.now())
}

// SendReminders напоминает владельцам о промо, которые закончатся в ближайшие within.
// Каждому промо — одно напоминание; после продления напомним снова.
// Возвращает число отправленных напоминаний.
func (s *Service) SendReminders(ctx context.Context, within time.Duration, loc *time.Location,
	send func(ctx context.Context, userID int64, text string) error,
) (int, error) {
	list, err := s.ListExpiring(ctx, within)
	if err != nil {
		return 0, err
	}

	sent := 0
	now := s.now()
	for _, p := range list {
		text := fmt.Sprintf("⏳ Продвижение «%s» для АЗС %d заканчивается через %s (%s).\nПродлить: /купить %d %s",
			p.TierName, p.StationID,
			common.FormatRemaining(p.EndTime, now),
			common.FormatDateTime(p.EndTime, loc),
			p.StationID, p.TierID,
		)
		if err := send(ctx, p.OwnerID, text); err != nil {
			// Пользователь мог заблокировать бота; не повторяем, чтобы не спамить попытками
			log.WithError(err).WithField("owner_id", p.OwnerID).Warn("Напоминание не доставлено")
		} else {
			sent++
		}
		if err := s.MarkReminded(ctx, p.ID); err != nil {
			return sent, err
		}
	}
	return sent, nil
}
