// Package wallet — service.go содержит бизнес-логику кошелька:
// самостоятельные пополнения/списания, историю и сверку с журналом.
package wallet

import (
	"context"
	"fmt"
	"iter"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fuelboost/internal/common"
	"serotonyl.ru/fuelboost/internal/db/postgres"
)

// RecentLimit — сколько последних операций показываем на экране кошелька.
const RecentLimit = 10

// Service управляет кошельками.
type Service struct {
	repo  *Repository         // Репозиторий кошельков
	db    postgres.TxBeginner // Пул для собственных транзакций
	retry postgres.RetryPolicy
}

// NewService создаёт новый сервис кошельков.
func NewService(repo *Repository, db postgres.TxBeginner, retry postgres.RetryPolicy) *Service {
	return &Service{repo: repo, db: db, retry: retry}
}

// Repository отдаёт репозиторий для работы внутри чужой транзакции (покупка промо).
func (s *Service) Repository() *Repository {
	return s.repo
}

// EnsureWallet создаёт пустой кошелёк, если его ещё нет.
func (s *Service) EnsureWallet(ctx context.Context, ownerID int64) error {
	if ownerID <= 0 {
		return common.ErrUnauthorized
	}
	return s.repo.EnsureWallet(ctx, ownerID)
}

// GetBalance возвращает текущий баланс пользователя (ErrNotFound, если кошелька нет).
func (s *Service) GetBalance(ctx context.Context, ownerID int64) (int64, error) {
	return s.repo.GetBalance(ctx, ownerID)
}

// Credit пополняет кошелёк отдельной транзакцией.
func (s *Service) Credit(ctx context.Context, ownerID, amount int64, metadata Metadata) (*Transaction, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	var created *Transaction
	err := postgres.InTx(ctx, s.db, s.retry, func(tx pgx.Tx) error {
		var err error
		created, err = s.repo.Credit(ctx, tx, ownerID, amount, Entry{Metadata: metadata})
		return err
	})
	if err != nil {
		return nil, postgres.AsFailure(err)
	}

	log.WithFields(log.Fields{
		"owner_id": ownerID,
		"amount":   amount,
		"balance":  created.BalanceAfter,
	}).Info("Кошелёк пополнен")
	return created, nil
}

// Debit списывает с кошелька отдельной транзакцией.
// Покупка промо сюда не ходит — она списывает внутри своей транзакции через Repository.
func (s *Service) Debit(ctx context.Context, ownerID, amount int64, metadata Metadata) (*Transaction, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	var created *Transaction
	err := postgres.InTx(ctx, s.db, s.retry, func(tx pgx.Tx) error {
		var err error
		created, err = s.repo.Debit(ctx, tx, ownerID, amount, Entry{Metadata: metadata})
		return err
	})
	if err != nil {
		return nil, postgres.AsFailure(err)
	}

	log.WithFields(log.Fields{
		"owner_id": ownerID,
		"amount":   amount,
		"balance":  created.BalanceAfter,
	}).Info("Списание с кошелька")
	return created, nil
}

// Summary возвращает баланс и последние RecentLimit операций.
func (s *Service) Summary(ctx context.Context, ownerID int64) (*Summary, error) {
	w, err := s.repo.GetWallet(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.ListTransactions(ctx, ownerID, RecentLimit, 0)
	if err != nil {
		return nil, err
	}
	return &Summary{Wallet: w, Recent: recent}, nil
}

// ListTransactions возвращает страницу истории (новые первыми).
func (s *Service) ListTransactions(ctx context.Context, ownerID int64, limit, offset int) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, ownerID, limit, offset)
}

// Transactions — ленивый обход всей истории.
func (s *Service) Transactions(ctx context.Context, ownerID int64, pageSize int) iter.Seq2[*Transaction, error] {
	return s.repo.Transactions(ctx, ownerID, pageSize)
}

// Reconcile сверяет баланс кошелька с журналом.
func (s *Service) Reconcile(ctx context.Context, ownerID int64) (*Reconciliation, error) {
	return s.repo.Reconcile(ctx, ownerID)
}

// Audit проверяет все кошельки и логирует расхождения. Запускается кроном.
func (s *Service) Audit(ctx context.Context) (int, error) {
	mismatches, err := s.repo.FindMismatches(ctx)
	if err != nil {
		return 0, err
	}
	for _, m := range mismatches {
		log.WithFields(log.Fields{
			"owner_id":   m.OwnerID,
			"balance":    m.Balance,
			"ledger_sum": m.LedgerSum,
			"entries":    m.Transactions,
		}).Error("Баланс не сходится с журналом")
	}
	if len(mismatches) > 0 {
		return len(mismatches), fmt.Errorf("расхождений в журнале: %d", len(mismatches))
	}
	return 0, nil
}
