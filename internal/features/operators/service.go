// Package operators — service.go содержит регистрацию операторов.
package operators

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fuelboost/internal/common"
)

// WalletCreator создаёт пустой кошелёк при регистрации.
type WalletCreator interface {
	EnsureWallet(ctx context.Context, ownerID int64) error
}

// Service управляет операторами.
type Service struct {
	repo    *Repository
	wallets WalletCreator
}

// NewService создаёт новый сервис операторов.
func NewService(repo *Repository, wallets WalletCreator) *Service {
	return &Service{repo: repo, wallets: wallets}
}

// EnsureOperator гарантирует, что пользователь зарегистрирован и у него есть кошелёк.
// Вызывается на каждое сообщение; заблокированным возвращает ErrUnauthorized.
func (s *Service) EnsureOperator(ctx context.Context, userID int64, p Profile) (*Operator, error) {
	if userID <= 0 {
		return nil, common.ErrUnauthorized
	}

	op, err := s.repo.GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		op, err = s.register(ctx, userID, p)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case op.changed(p):
		// Пользователь сменил имя или username
		if err := s.repo.UpdateProfile(ctx, userID, p); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("UpdateProfile failed")
		}
	}

	if op.IsBanned {
		return nil, common.ErrUnauthorized
	}
	return op, nil
}

func (s *Service) register(ctx context.Context, userID int64, p Profile) (*Operator, error) {
	op, err := s.repo.Create(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("ошибка регистрации оператора: %w", err)
	}
	if err := s.wallets.EnsureWallet(ctx, userID); err != nil {
		return nil, fmt.Errorf("ошибка создания кошелька оператора: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"username": p.Username,
	}).Info("Новый оператор зарегистрирован")
	return op, nil
}

// GetByUserID возвращает оператора по его Telegram user ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Operator, error) {
	return s.repo.GetByUserID(ctx, userID)
}
