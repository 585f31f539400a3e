// Package admin — service.go содержит аутентификацию, управление сессиями
// и состояние пошаговых админ-действий.
package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fuelboost/internal/common"
)

// Access — кто является администратором и каким паролем он входит.
type Access interface {
	IsAdmin(userID int64) bool
}

// Service управляет входом администраторов.
type Service struct {
	repo         *Repository
	access       Access
	passwordHash string
	now          func() time.Time

	states   map[int64]*AdminState // Состояния диалогов (in-memory)
	statesMu sync.RWMutex
}

// NewService создаёт сервис админки. now — источник времени (nil — time.Now).
func NewService(repo *Repository, access Access, passwordHash string, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:         repo,
		access:       access,
		passwordHash: passwordHash,
		now:          now,
		states:       make(map[int64]*AdminState),
	}
}

// IsAdmin — пользователь указан в ADMIN_IDS.
func (s *Service) IsAdmin(userID int64) bool {
	return s.access.IsAdmin(userID)
}

// VerifyPassword проверяет пароль администратора (Argon2id) и открывает сессию.
// Защита от перебора: MaxFailedAttempts неудачных попыток = блокировка на AttemptsWindow.
func (s *Service) VerifyPassword(ctx context.Context, userID int64, password string) error {
	if !s.IsAdmin(userID) {
		return common.ErrNotAdmin
	}

	now := s.now()
	attempts, err := s.repo.CountFailedAttempts(ctx, userID, now.Add(-AttemptsWindow))
	if err != nil {
		return err
	}
	if attempts >= MaxFailedAttempts {
		return common.ErrTooManyAttempts
	}

	match := s.passwordHash != "" && verifyArgon2id(password, s.passwordHash)
	if err := s.repo.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось записать попытку входа")
	}
	if !match {
		log.WithField("user_id", userID).Warn("Неверный пароль администратора")
		return common.ErrWrongPassword
	}

	token, err := generateSecureToken()
	if err != nil {
		return err
	}
	err = s.repo.CreateSession(ctx, &AdminSession{
		UserID:       userID,
		SessionToken: token,
		ExpiresAt:    now.Add(SessionTTL),
	})
	if err != nil {
		return err
	}

	log.WithField("user_id", userID).Info("Администратор вошёл")
	return nil
}

// RequireSession проверяет, что пользователь — админ с действующей сессией.
func (s *Service) RequireSession(ctx context.Context, userID int64) error {
	if !s.IsAdmin(userID) {
		return common.ErrNotAdmin
	}
	_, err := s.repo.GetActiveSession(ctx, userID, s.now())
	if errors.Is(err, common.ErrNotFound) {
		return common.ErrSessionExpired
	}
	if err != nil {
		return err
	}
	if err := s.repo.UpdateActivity(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("UpdateActivity failed")
	}
	return nil
}

// Logout закрывает сессию.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	s.ClearState(userID)
	if err := s.repo.DeactivateSession(ctx, userID); err != nil {
		return fmt.Errorf("ошибка выхода: %w", err)
	}
	return nil
}

// GetState возвращает текущее состояние диалога.
func (s *Service) GetState(userID int64) *AdminState {
	s.statesMu.RLock()
	defer s.statesMu.RUnlock()

	state, ok := s.states[userID]
	if !ok || s.now().After(state.ExpiresAt) {
		return nil
	}
	return state
}

// SetState устанавливает состояние диалога с таймаутом StateTTL.
func (s *Service) SetState(userID int64, state string, topUp *PendingTopUp) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()

	s.states[userID] = &AdminState{
		State:     state,
		TopUp:     topUp,
		ExpiresAt: s.now().Add(StateTTL),
	}
}

// ClearState сбрасывает состояние диалога.
func (s *Service) ClearState(userID int64) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	delete(s.states, userID)
}
