package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/MintShards/pawn-repo-sub002/internal/apperr"
	"github.com/MintShards/pawn-repo-sub002/internal/model"
	"github.com/MintShards/pawn-repo-sub002/internal/repository"
)

// BalanceService вычисляет текущие остатки по залоговому билету
type BalanceService struct {
	transactionRepo *repository.TransactionRepository
	paymentRepo     *repository.PaymentRepository
	cache           *BalanceCache
	logger          *logrus.Logger
}

func NewBalanceService(
	transactionRepo *repository.TransactionRepository,
	paymentRepo *repository.PaymentRepository,
	cache *BalanceCache,
	logger *logrus.Logger,
) *BalanceService {
	return &BalanceService{
		transactionRepo: transactionRepo,
		paymentRepo:     paymentRepo,
		cache:           cache,
		logger:          logger,
	}
}

// ComputeBalances - чистая функция расчета остатков. Корзины стартуют
// с начисленных сумм, затем в хронологическом порядке вычитаются доли
// неотмененных платежей. Каждая корзина прижимается к нулю.
func ComputeBalances(tx *model.Transaction, payments []model.Payment, now time.Time, logger *logrus.Logger) model.Balances {
	b := model.Balances{
		Principal:     tx.Principal,
		Interest:      tx.MonthlyInterest * int64(MonthsElapsed(tx.PawnDate, now)),
		ExtensionFees: tx.ExtensionFees,
		OverdueFee:    tx.OverdueFee,
	}

	for i := range payments {
		p := &payments[i]
		// Единственный предикат исключения отмененных платежей
		if !p.Counted() {
			continue
		}

		b.Principal -= sanitizePortion(p, "principal", p.PrincipalPortion, logger)
		b.Interest -= sanitizePortion(p, "interest", p.InterestPortion, logger)
		b.ExtensionFees -= sanitizePortion(p, "extension", p.ExtensionPortion, logger)
		b.OverdueFee -= sanitizePortion(p, "overdue", p.OverduePortion, logger)
	}

	if b.Principal < 0 {
		b.Principal = 0
	}
	if b.Interest < 0 {
		b.Interest = 0
	}
	if b.ExtensionFees < 0 {
		b.ExtensionFees = 0
	}
	if b.OverdueFee < 0 {
		b.OverdueFee = 0
	}

	return b
}

// sanitizePortion приводит поврежденную (отрицательную) долю к нулю.
// Аномалия логируется, но расчет не прерывается.
func sanitizePortion(p *model.Payment, bucket string, portion int64, logger *logrus.Logger) int64 {
	if portion < 0 {
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"payment_id":     p.ID,
				"transaction_id": p.TransactionID,
				"bucket":         bucket,
				"portion":        portion,
			}).Warn("Обнаружена отрицательная доля платежа, учитывается как ноль")
		}
		return 0
	}
	return portion
}

// AllocateWaterfall распределяет сумму по корзинам в фиксированном
// порядке: штраф -> сборы за продления -> проценты -> основной долг.
// Возвращает разбивку и остатки после платежа.
func AllocateWaterfall(amount int64, b model.Balances) (model.Allocation, model.Balances) {
	var alloc model.Allocation
	remaining := amount

	alloc.OverduePortion = minInt64(remaining, b.OverdueFee)
	remaining -= alloc.OverduePortion
	b.OverdueFee -= alloc.OverduePortion

	alloc.ExtensionPortion = minInt64(remaining, b.ExtensionFees)
	remaining -= alloc.ExtensionPortion
	b.ExtensionFees -= alloc.ExtensionPortion

	alloc.InterestPortion = minInt64(remaining, b.Interest)
	remaining -= alloc.InterestPortion
	b.Interest -= alloc.InterestPortion

	alloc.PrincipalPortion = minInt64(remaining, b.Principal)
	b.Principal -= alloc.PrincipalPortion

	return alloc, b
}

// ComputeDiscount - единый расчет скидки для проверки (dry-run) и
// применения. Скидка допускается только при полном выкупе и
// распределяется сначала на проценты, остаток на основной долг.
func ComputeDiscount(cash, discount int64, b model.Balances) model.DiscountBreakdown {
	breakdown := model.DiscountBreakdown{
		CashAmount:     cash,
		DiscountAmount: discount,
	}

	total := b.Total()

	if discount <= 0 {
		breakdown.Reason = "сумма скидки должна быть положительной"
		return breakdown
	}
	if discount > total {
		breakdown.Reason = fmt.Sprintf("скидка %d превышает текущий остаток %d", discount, total)
		return breakdown
	}
	if cash+discount < total {
		breakdown.Reason = fmt.Sprintf("платеж %d со скидкой %d не закрывает остаток %d: скидка допускается только при полном выкупе", cash, discount, total)
		return breakdown
	}

	breakdown.IsValid = true
	breakdown.IsFinalPayment = true
	breakdown.DiscountOnInterest = minInt64(discount, b.Interest)
	breakdown.DiscountOnPrincipal = minInt64(discount-breakdown.DiscountOnInterest, b.Principal)
	// Зачесть больше остатка нельзя: излишек наличных возвращается
	// клиенту сдачей и в платеж не попадает
	breakdown.EffectivePayment = minInt64(cash+discount, total)
	breakdown.NewBalance = total - breakdown.EffectivePayment

	return breakdown
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// CalculateCurrentBalance возвращает текущие остатки билета.
// При включенном Redis ответ берется из кэша, промах пересчитывается.
func (s *BalanceService) CalculateCurrentBalance(ctx context.Context, transactionID uuid.UUID) (*model.BalanceResponse, error) {
	if cached, ok := s.cache.Get(ctx, transactionID); ok {
		s.logger.WithField("transaction_id", transactionID).Debug("Баланс получен из кэша")
		return cached, nil
	}

	resp, err := s.recalculate(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, resp)
	return resp, nil
}

func (s *BalanceService) recalculate(ctx context.Context, transactionID uuid.UUID) (*model.BalanceResponse, error) {
	tx, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("залоговый билет %s не найден", transactionID).Wrap(err)
		}
		s.logger.WithError(err).Errorf("Ошибка получения билета %s", transactionID)
		return nil, fmt.Errorf("ошибка получения билета: %w", err)
	}

	payments, err := s.paymentRepo.GetCountedByTransaction(ctx, transactionID)
	if err != nil {
		s.logger.WithError(err).Errorf("Ошибка получения платежей по билету %s", transactionID)
		return nil, fmt.Errorf("ошибка получения платежей: %w", err)
	}

	now := time.Now().UTC()
	balances := ComputeBalances(tx, payments, now, s.logger)

	s.logger.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"principal":      balances.Principal,
		"interest":       balances.Interest,
		"extension_fees": balances.ExtensionFees,
		"overdue_fee":    balances.OverdueFee,
		"total":          balances.Total(),
	}).Debug("Баланс рассчитан")

	return &model.BalanceResponse{
		TransactionID:  transactionID,
		CurrentBalance: balances.Total(),
		Balances:       balances,
		AsOf:           now,
	}, nil
}

// Invalidate сбрасывает кэш баланса билета после любой денежной операции
func (s *BalanceService) Invalidate(ctx context.Context, transactionID uuid.UUID) {
	s.cache.Invalidate(ctx, transactionID)
}
