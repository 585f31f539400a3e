// Package promotions — repository.go выполняет операции с таблицей station_promotions.
package promotions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"serotonyl.ru/fuelboost/internal/common"
	"serotonyl.ru/fuelboost/internal/db/postgres"
)

// Repository предоставляет методы для работы с продвижениями.
//
// Методы чтения, которые нужны внутри транзакции покупки, принимают Querier явно:
// снаружи передаётся пул, внутри покупки — pgx.Tx.
type Repository struct {
	db postgres.Querier
}

// NewRepository создаёт репозиторий продвижений.
func NewRepository(db postgres.Querier) *Repository {
	return &Repository{db: db}
}

const promotionSelect = `
	SELECT p.id, p.station_id, p.tier_id, t.name, p.owner_id, p.request_id,
	       p.created_at, p.end_time, p.status, p.reminded_at, p.updated_at
	FROM station_promotions p
	JOIN promotion_tiers t ON t.id = p.tier_id
`

// LockStation берёт транзакционную advisory-блокировку АЗС.
// Все покупки по одной АЗС выполняются строго по очереди; блокировка снимается
// при COMMIT/ROLLBACK. Берётся раньше блокировки кошелька — порядок всегда один.
func (r *Repository) LockStation(ctx context.Context, tx pgx.Tx, stationID int64) error {
	_, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended('station_promotion:' || $1::TEXT, 0))`,
		stationID,
	)
	if err != nil {
		return fmt.Errorf("ошибка блокировки АЗС %d: %w", stationID, err)
	}
	return nil
}

// GetActive возвращает действующее промо АЗС на момент now или nil, nil.
func (r *Repository) GetActive(ctx context.Context, q postgres.Querier, stationID int64, now time.Time) (*Promotion, error) {
	if q == nil {
		q = r.db
	}
	p, err := scanPromotion(q.QueryRow(ctx, promotionSelect+`
		WHERE p.station_id = $1 AND p.status = 'active' AND p.end_time > $2
		ORDER BY p.end_time DESC
		LIMIT 1
	`, stationID, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения активного промо: %w", err)
	}
	return p, nil
}

// GetByRequestID находит промо, оплаченное запросом requestID: созданное им
// или продлённое им (id продлённого промо записан в журнале кошелька).
// Возвращает nil, nil, если такого запроса ещё не было.
func (r *Repository) GetByRequestID(ctx context.Context, q postgres.Querier, requestID uuid.UUID) (*Promotion, error) {
	if q == nil {
		q = r.db
	}
	p, err := scanPromotion(q.QueryRow(ctx, promotionSelect+`
		WHERE p.request_id = $1
		   OR p.id = (
		       SELECT (wt.metadata->>'promotion_id')::BIGINT
		       FROM wallet_transactions wt
		       WHERE wt.request_id = $1
		   )
		LIMIT 1
	`, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска промо по запросу: %w", err)
	}
	return p, nil
}

// GetByID возвращает промо по ID или ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Promotion, error) {
	p, err := scanPromotion(r.db.QueryRow(ctx, promotionSelect+`WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("промо %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения промо: %w", err)
	}
	return p, nil
}

// ListHistory возвращает все промо АЗС (любой статус), новые первыми.
// История не обрезается: это журнал всех покупок АЗС.
func (r *Repository) ListHistory(ctx context.Context, stationID int64) ([]*Promotion, error) {
	rows, err := r.db.Query(ctx, promotionSelect+`
		WHERE p.station_id = $1
		ORDER BY p.created_at DESC, p.id DESC
	`, stationID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории промо: %w", err)
	}
	return scanPromotions(rows)
}

// Create вставляет новое активное промо внутри tx.
// Проверки эксклюзивности здесь нет — её обеспечивает вызывающая сторона.
func (r *Repository) Create(ctx context.Context, tx pgx.Tx, np NewPromotion) (*Promotion, error) {
	p := Promotion{
		StationID: np.StationID,
		TierID:    np.TierID,
		OwnerID:   np.OwnerID,
		RequestID: np.RequestID,
		CreatedAt: np.CreatedAt,
		EndTime:   np.EndTime,
		Status:    StatusActive,
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO station_promotions (station_id, tier_id, owner_id, request_id, created_at, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'active')
		RETURNING id, updated_at
	`, np.StationID, np.TierID, np.OwnerID, np.RequestID, np.CreatedAt, np.EndTime).Scan(&p.ID, &p.UpdatedAt)
	if postgres.PgCode(err) == postgres.CodeForeignKeyViolation {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownTier, np.TierID)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка создания промо: %w", err)
	}
	return &p, nil
}

// Extend переносит окончание активного промо на endTime внутри tx.
// Напоминание сбрасывается: о новом окончании напомним ещё раз.
func (r *Repository) Extend(ctx context.Context, tx pgx.Tx, id int64, endTime time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE station_promotions
		SET end_time = $2, reminded_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`, id, endTime)
	if err != nil {
		return fmt.Errorf("ошибка продления промо: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("промо %d: %w", id, common.ErrPromotionNotActive)
	}
	return nil
}

// Cancel отменяет промо, если оно ещё действует на момент now.
func (r *Repository) Cancel(ctx context.Context, id int64, now time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE station_promotions
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND end_time > $2
	`, id, now)
	if err != nil {
		return fmt.Errorf("ошибка отмены промо: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("промо %d: %w", id, common.ErrPromotionNotActive)
	}
	return nil
}

// ExpireDue помечает истёкшие промо статусом expired. Возвращает число обновлённых строк.
func (r *Repository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE station_promotions
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'active' AND end_time <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки истёкших промо: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListExpiring возвращает действующие промо, которые закончатся в ближайшие within,
// и о которых ещё не напоминали.
func (r *Repository) ListExpiring(ctx context.Context, now time.Time, within time.Duration) ([]*Promotion, error) {
	rows, err := r.db.Query(ctx, promotionSelect+`
		WHERE p.status = 'active'
		  AND p.end_time > $1
		  AND p.end_time <= $2
		  AND p.reminded_at IS NULL
		ORDER BY p.end_time ASC
	`, now, now.Add(within))
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заканчивающихся промо: %w", err)
	}
	return scanPromotions(rows)
}

// MarkReminded отмечает, что напоминание по промо отправлено.
func (r *Repository) MarkReminded(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE station_promotions SET reminded_at = $2 WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("ошибка отметки напоминания: %w", err)
	}
	return nil
}

func scanPromotion(row pgx.Row) (*Promotion, error) {
	var (
		p      Promotion
		status string
	)
	err := row.Scan(
		&p.ID, &p.StationID, &p.TierID, &p.TierName, &p.OwnerID, &p.RequestID,
		&p.CreatedAt, &p.EndTime, &status, &p.RemindedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = Status(status)
	return &p, nil
}

func scanPromotions(rows pgx.Rows) ([]*Promotion, error) {
	defer rows.Close()

	var out []*Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования промо: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения промо: %w", err)
	}
	return out, nil
}
