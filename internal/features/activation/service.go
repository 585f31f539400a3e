package activation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fuelboost/internal/common"
	"serotonyl.ru/fuelboost/internal/db/postgres"
	"serotonyl.ru/fuelboost/internal/features/promotions"
	"serotonyl.ru/fuelboost/internal/features/tiers"
	"serotonyl.ru/fuelboost/internal/features/wallet"
	"serotonyl.ru/fuelboost/internal/metrics"
)

// TopUpMethodManual — пополнение администратором вручную.
const TopUpMethodManual = "manual"

// TierSource — откуда берутся тарифы.
type TierSource interface {
	GetTier(ctx context.Context, id string) (*tiers.Tier, error)
}

// Service выполняет покупки и пополнения.
type Service struct {
	db      postgres.TxBeginner
	tiers   TierSource
	wallets *wallet.Repository
	promos  *promotions.Repository
	retry   postgres.RetryPolicy
	now     func() time.Time
}

// NewService создаёт сервис покупок. now — источник времени (nil — time.Now).
func NewService(
	db postgres.TxBeginner,
	tierSource TierSource,
	wallets *wallet.Repository,
	promos *promotions.Repository,
	retry postgres.RetryPolicy,
	now func() time.Time,
) *Service {
	if now == nil {
		now = time.Now
	}
	if retry.OnRetry == nil {
		retry.OnRetry = func(int, error) { metrics.RecordActivationRetry() }
	}
	return &Service{
		db:      db,
		tiers:   tierSource,
		wallets: wallets,
		promos:  promos,
		retry:   retry,
		now:     now,
	}
}

// Activate покупает тариф для АЗС.
//
// Если у АЗС уже идёт промо того же тарифа и того же владельца — оно продлевается
// на длительность тарифа от текущего окончания. Промо другого тарифа или другого
// владельца — ErrPromotionActive. Повтор запроса с тем же RequestID возвращает
// уже созданное промо без повторного списания.
func (s *Service) Activate(ctx context.Context, req ActivateRequest) (*Result, error) {
	start := time.Now()
	res, tier, err := s.activate(ctx, req)
	metrics.RecordActivation(resultLabel(res, err), tierLabel(tier), time.Since(start).Seconds())
	return res, err
}

// tierLabel — метка тарифа для метрик. Пока тариф не найден в справочнике,
// ввод пользователя в метку не попадает.
func tierLabel(tier *tiers.Tier) string {
	if tier == nil {
		return "unknown"
	}
	return tier.ID
}

func (s *Service) activate(ctx context.Context, req ActivateRequest) (*Result, *tiers.Tier, error) {
	if req.OwnerID <= 0 {
		return nil, nil, common.ErrUnauthorized
	}
	if req.StationID <= 0 {
		return nil, nil, common.ErrInvalidStation
	}

	tier, err := s.tiers.GetTier(ctx, req.TierID)
	if err != nil {
		return nil, nil, postgres.AsFailure(err)
	}
	if req.RequestID == uuid.Nil {
		req.RequestID = uuid.New()
	}

	var res *Result
	err = postgres.InTx(ctx, s.db, s.retry, func(tx pgx.Tx) error {
		var err error
		res, err = s.activateTx(ctx, tx, req, tier)
		return err
	})
	if err != nil {
		return nil, tier, postgres.AsFailure(err)
	}

	fields := log.Fields{
		"owner_id":     req.OwnerID,
		"station_id":   req.StationID,
		"tier_id":      tier.ID,
		"promotion_id": res.Promotion.ID,
		"request_id":   req.RequestID,
	}
	switch {
	case res.Replayed:
		log.WithFields(fields).Info("Повтор покупки, возвращаем уже созданное промо")
	case res.Extended:
		log.WithFields(fields).WithField("end_time", res.Promotion.EndTime).Info("Промо продлено")
	default:
		log.WithFields(fields).WithField("end_time", res.Promotion.EndTime).Info("Промо куплено")
	}
	return res, tier, nil
}

// activateTx — тело транзакции покупки. Повторяется целиком при конфликте.
func (s *Service) activateTx(ctx context.Context, tx pgx.Tx, req ActivateRequest, tier *tiers.Tier) (*Result, error) {
	// 1. Покупки по одной АЗС идут строго по очереди
	if err := s.promos.LockStation(ctx, tx, req.StationID); err != nil {
		return nil, err
	}

	// 2. Этот запрос уже выполнялся — отдаём результат без списания
	prev, err := s.promos.GetByRequestID(ctx, tx, req.RequestID)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		return &Result{Promotion: prev, Replayed: true}, nil
	}

	// 3. Эксклюзивность: одно действующее промо на АЗС
	now := s.now()
	active, err := s.promos.GetActive(ctx, tx, req.StationID, now)
	if err != nil {
		return nil, err
	}
	if active != nil && (active.TierID != tier.ID || active.OwnerID != req.OwnerID) {
		return nil, fmt.Errorf("%w: промо #%d до %s", common.ErrPromotionActive, active.ID, active.EndTime.Format(time.RFC3339))
	}

	// 4. Списание под блокировкой кошелька
	metadata := wallet.Metadata{
		"tier_id":    tier.ID,
		"tier_name":  tier.Name,
		"station_id": req.StationID,
		"request_id": req.RequestID.String(),
	}
	if active != nil {
		metadata["promotion_id"] = strconv.FormatInt(active.ID, 10)
		metadata["extended"] = true
	}
	requestID := req.RequestID
	txn, err := s.wallets.Debit(ctx, tx, req.OwnerID, tier.Price, wallet.Entry{Metadata: metadata, RequestID: &requestID})
	if err != nil {
		if postgres.PgCode(err) == postgres.CodeUniqueViolation {
			// Тот же запрос параллельно выполнился по другой АЗС; повтор найдёт его на шаге 2
			return nil, fmt.Errorf("%w: %w", common.ErrStorageConflict, err)
		}
		return nil, err
	}

	// 5. Продление или новое промо
	if active != nil {
		end := active.EndTime.Add(tier.Duration())
		if err := s.promos.Extend(ctx, tx, active.ID, end); err != nil {
			return nil, err
		}
		active.EndTime = end
		return &Result{Promotion: active, Transaction: txn, Extended: true}, nil
	}

	p, err := s.promos.Create(ctx, tx, promotions.NewPromotion{
		StationID: req.StationID,
		TierID:    tier.ID,
		OwnerID:   req.OwnerID,
		RequestID: &requestID,
		CreatedAt: now,
		EndTime:   now.Add(tier.Duration()),
	})
	if err != nil {
		return nil, err
	}
	p.TierName = tier.Name
	return &Result{Promotion: p, Transaction: txn}, nil
}

// TopUp пополняет кошелёк вручную.
func (s *Service) TopUp(ctx context.Context, ownerID, amount int64) (*wallet.Transaction, error) {
	return s.topUp(ctx, ownerID, amount, wallet.Metadata{"method": TopUpMethodManual})
}

// TopUpBy пополняет кошелёк от имени администратора adminID.
func (s *Service) TopUpBy(ctx context.Context, adminID, ownerID, amount int64) (*wallet.Transaction, error) {
	return s.topUp(ctx, ownerID, amount, wallet.Metadata{
		"method":   TopUpMethodManual,
		"admin_id": adminID,
	})
}

func (s *Service) topUp(ctx context.Context, ownerID, amount int64, metadata wallet.Metadata) (*wallet.Transaction, error) {
	if ownerID <= 0 {
		return nil, common.ErrUnauthorized
	}
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	var txn *wallet.Transaction
	err := postgres.InTx(ctx, s.db, s.retry, func(tx pgx.Tx) error {
		var err error
		txn, err = s.wallets.Credit(ctx, tx, ownerID, amount, wallet.Entry{Metadata: metadata})
		return err
	})
	if err != nil {
		return nil, postgres.AsFailure(err)
	}

	metrics.RecordTopUp(amount)
	log.WithFields(log.Fields{
		"owner_id": ownerID,
		"amount":   amount,
		"balance":  txn.BalanceAfter,
	}).Info("Кошелёк пополнен")
	return txn, nil
}

// LookupRequest возвращает промо, оплаченное запросом requestID, или nil, nil.
func (s *Service) LookupRequest(ctx context.Context, requestID uuid.UUID) (*promotions.Promotion, error) {
	return s.promos.GetByRequestID(ctx, s.db, requestID)
}

func resultLabel(res *Result, err error) string {
	switch {
	case err == nil && res.Replayed:
		return metrics.ResultReplayed
	case err == nil && res.Extended:
		return metrics.ResultExtended
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, common.ErrInsufficientFunds):
		return metrics.ResultInsufficientFunds
	case errors.Is(err, common.ErrUnknownTier):
		return metrics.ResultUnknownTier
	case errors.Is(err, common.ErrPromotionActive):
		return metrics.ResultPromotionActive
	case errors.Is(err, common.ErrUnauthorized):
		return metrics.ResultUnauthorized
	case errors.Is(err, common.ErrInvalidStation):
		return metrics.ResultInvalidStation
	}
	return metrics.ResultStorageFailure
}
