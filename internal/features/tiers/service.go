package tiers

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fuelboost/internal/common"
)

// Service — чтение справочника тарифов и импорт каталога.
type Service struct {
	repo *Repository
}

// NewService создаёт сервис тарифов.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// GetTier возвращает тариф; неизвестный код — ErrUnknownTier.
func (s *Service) GetTier(ctx context.Context, id string) (*Tier, error) {
	if id == "" {
		return nil, common.ErrUnknownTier
	}
	t, err := s.repo.GetTier(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownTier, id)
	}
	return t, err
}

// ListTiers возвращает витрину тарифов.
func (s *Service) ListTiers(ctx context.Context) ([]*Tier, error) {
	return s.repo.ListTiers(ctx)
}

// Import записывает каталог в справочник. Тарифы, которых нет в каталоге, не удаляются:
// на них ссылаются уже купленные промо.
func (s *Service) Import(ctx context.Context, catalog []*Tier) (int, error) {
	for i, t := range catalog {
		if err := t.Validate(); err != nil {
			return i, err
		}
		if err := s.repo.Upsert(ctx, t); err != nil {
			return i, err
		}
		log.WithFields(log.Fields{
			"tier_id":  t.ID,
			"price":    t.Price,
			"duration": t.DurationHours,
		}).Info("Тариф импортирован")
	}
	return len(catalog), nil
}
