// Package wallet — repository.go выполняет все операции с таблицами wallets и wallet_transactions.
// Изменение баланса и запись в журнал всегда идут в одной транзакции БД:
// методы Credit/Debit принимают pgx.Tx и сами транзакцию не открывают.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/jackc/pgx/v5"

	"serotonyl.ru/fuelboost/internal/common"
	"serotonyl.ru/fuelboost/internal/db/postgres"
)

// Repository предоставляет методы для работы с кошельками и журналом.
type Repository struct {
	db postgres.Querier
}

// NewRepository создаёт новый репозиторий кошельков.
func NewRepository(db postgres.Querier) *Repository {
	return &Repository{db: db}
}

const transactionColumns = `id, wallet_id, amount, kind, metadata, request_id, balance_after, created_at`

// EnsureWallet гарантирует, что у пользователя есть кошелёк.
// Если нет — создаёт с нулевым балансом. Вызывается при регистрации оператора.
func (r *Repository) EnsureWallet(ctx context.Context, ownerID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO wallets (owner_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (owner_id) DO NOTHING
	`, ownerID)
	if err != nil {
		return fmt.Errorf("ошибка создания кошелька: %w", err)
	}
	return nil
}

// GetWallet возвращает кошелёк пользователя или ErrNotFound.
func (r *Repository) GetWallet(ctx context.Context, ownerID int64) (*Wallet, error) {
	var w Wallet
	err := r.db.QueryRow(ctx, `
		SELECT owner_id, balance, created_at, updated_at
		FROM wallets
		WHERE owner_id = $1
	`, ownerID).Scan(&w.OwnerID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("кошелёк %d: %w", ownerID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения кошелька: %w", err)
	}
	return &w, nil
}

// GetBalance возвращает текущий баланс пользователя.
func (r *Repository) GetBalance(ctx context.Context, ownerID int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `SELECT balance FROM wallets WHERE owner_id = $1`, ownerID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("кошелёк %d: %w", ownerID, common.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// LockBalance читает баланс с блокировкой строки (FOR UPDATE) до конца транзакции tx.
// Параллельные списания и пополнения того же кошелька ждут, пока tx не завершится.
func (r *Repository) LockBalance(ctx context.Context, tx pgx.Tx, ownerID int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `
		SELECT balance FROM wallets WHERE owner_id = $1 FOR UPDATE
	`, ownerID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("кошелёк %d: %w", ownerID, common.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка блокировки кошелька: %w", err)
	}
	return balance, nil
}

// Credit начисляет amount на кошелёк внутри tx и пишет операцию deposit.
// Кошелёк создаётся, если его ещё нет.
func (r *Repository) Credit(ctx context.Context, tx pgx.Tx, ownerID, amount int64, entry Entry) (*Transaction, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO wallets (owner_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (owner_id) DO NOTHING
	`, ownerID); err != nil {
		return nil, fmt.Errorf("ошибка создания кошелька: %w", err)
	}

	// UPDATE берёт блокировку строки сам, отдельный SELECT FOR UPDATE не нужен
	var balanceAfter int64
	err := tx.QueryRow(ctx, `
		UPDATE wallets
		SET balance = balance + $2, updated_at = NOW()
		WHERE owner_id = $1
		RETURNING balance
	`, ownerID, amount).Scan(&balanceAfter)
	if err != nil {
		return nil, fmt.Errorf("ошибка начисления: %w", err)
	}

	return r.appendEntry(ctx, tx, ownerID, amount, KindDeposit, entry, balanceAfter)
}

// Debit списывает amount с кошелька внутри tx и пишет операцию spend (с минусом).
//
// Проверка баланса и списание выполняются под одной блокировкой строки,
// поэтому два параллельных списания не могут вместе увести баланс в минус.
// CHECK (balance >= 0) в БД — последний рубеж на случай ошибки в коде.
func (r *Repository) Debit(ctx context.Context, tx pgx.Tx, ownerID, amount int64, entry Entry) (*Transaction, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	balance, err := r.LockBalance(ctx, tx, ownerID)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, fmt.Errorf("%w: нужно %d, есть %d", common.ErrInsufficientFunds, amount, balance)
	}

	var balanceAfter int64
	err = tx.QueryRow(ctx, `
		UPDATE wallets
		SET balance = balance - $2, updated_at = NOW()
		WHERE owner_id = $1
		RETURNING balance
	`, ownerID, amount).Scan(&balanceAfter)
	if postgres.PgCode(err) == postgres.CodeCheckViolation {
		return nil, fmt.Errorf("%w: %w", common.ErrInsufficientFunds, err)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка списания: %w", err)
	}

	return r.appendEntry(ctx, tx, ownerID, -amount, KindSpend, entry, balanceAfter)
}

// appendEntry добавляет запись в журнал. Записи никогда не меняются и не удаляются.
func (r *Repository) appendEntry(ctx context.Context, tx pgx.Tx, ownerID, amount int64, kind Kind, entry Entry, balanceAfter int64) (*Transaction, error) {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = Metadata{}
	}

	t := Transaction{
		WalletID:     ownerID,
		Amount:       amount,
		Kind:         kind,
		Metadata:     metadata,
		RequestID:    entry.RequestID,
		BalanceAfter: balanceAfter,
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO wallet_transactions (wallet_id, amount, kind, metadata, request_id, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, ownerID, amount, string(kind), metadata, entry.RequestID, balanceAfter).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи транзакции: %w", err)
	}
	return &t, nil
}

// ListTransactions возвращает страницу журнала, новые записи первыми.
func (r *Repository) ListTransactions(ctx context.Context, ownerID int64, limit, offset int) ([]*Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	return scanTransactions(rows)
}

// Transactions возвращает ленивую последовательность всего журнала кошелька (новые первыми).
// Страницы по pageSize читаются по мере обхода (keyset по id), поэтому размер истории не ограничен.
// Каждый новый range начинает обход заново.
func (r *Repository) Transactions(ctx context.Context, ownerID int64, pageSize int) iter.Seq2[*Transaction, error] {
	if pageSize <= 0 {
		pageSize = 100
	}
	return func(yield func(*Transaction, error) bool) {
		var before int64 // 0 — с самого нового
		for {
			rows, err := r.db.Query(ctx, `
				SELECT `+transactionColumns+`
				FROM wallet_transactions
				WHERE wallet_id = $1 AND ($2::BIGINT = 0 OR id < $2)
				ORDER BY id DESC
				LIMIT $3
			`, ownerID, before, pageSize)
			if err != nil {
				yield(nil, fmt.Errorf("ошибка получения транзакций: %w", err))
				return
			}
			page, err := scanTransactions(rows)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, t := range page {
				if !yield(t, nil) {
					return
				}
			}
			if len(page) < pageSize {
				return
			}
			before = page[len(page)-1].ID
		}
	}
}

// Reconcile сверяет баланс с суммой журнала одним запросом (один снимок БД).
func (r *Repository) Reconcile(ctx context.Context, ownerID int64) (*Reconciliation, error) {
	rec := Reconciliation{OwnerID: ownerID}
	err := r.db.QueryRow(ctx, `
		SELECT w.balance, COALESCE(SUM(t.amount), 0), COUNT(t.id)
		FROM wallets w
		LEFT JOIN wallet_transactions t ON t.wallet_id = w.owner_id
		WHERE w.owner_id = $1
		GROUP BY w.balance
	`, ownerID).Scan(&rec.Balance, &rec.LedgerSum, &rec.Transactions)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("кошелёк %d: %w", ownerID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сверки: %w", err)
	}
	return &rec, nil
}

// FindMismatches возвращает все кошельки, у которых баланс не сходится с журналом.
// Используется ночным аудитом.
func (r *Repository) FindMismatches(ctx context.Context) ([]*Reconciliation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT w.owner_id, w.balance, COALESCE(SUM(t.amount), 0), COUNT(t.id)
		FROM wallets w
		LEFT JOIN wallet_transactions t ON t.wallet_id = w.owner_id
		GROUP BY w.owner_id, w.balance
		HAVING w.balance <> COALESCE(SUM(t.amount), 0)
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка аудита журнала: %w", err)
	}
	defer rows.Close()

	var out []*Reconciliation
	for rows.Next() {
		var rec Reconciliation
		if err := rows.Scan(&rec.OwnerID, &rec.Balance, &rec.LedgerSum, &rec.Transactions); err != nil {
			return nil, fmt.Errorf("ошибка сканирования сверки: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func scanTransactions(rows pgx.Rows) ([]*Transaction, error) {
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		var (
			t    Transaction
			kind string
		)
		err := rows.Scan(
			&t.ID, &t.WalletID, &t.Amount, &kind,
			&t.Metadata, &t.RequestID, &t.BalanceAfter, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		t.Kind = Kind(kind)
		transactions = append(transactions, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения транзакций: %w", err)
	}
	return transactions, nil
}
