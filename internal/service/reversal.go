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

const (
	// Окно, в течение которого платеж или продление можно отменить
	ReversalWindow = 24 * time.Hour
	// Суточный лимит отмен на один залоговый билет
	MaxReversalsPerDay = 3
)

// EvaluateReversalEligibility - чистая проверка права на отмену.
// Право теряется при первом из событий: возраст действия превысил окно
// или исчерпан суточный лимит отмен по билету.
func EvaluateReversalEligibility(actionAt, now time.Time, sameDayCount int) model.ReversalEligibility {
	elapsed := now.Sub(actionAt)
	result := model.ReversalEligibility{
		HoursElapsed:  elapsed.Hours(),
		ReversalsUsed: sameDayCount,
	}

	if elapsed >= ReversalWindow {
		result.Reason = fmt.Sprintf("окно отмены %.0f ч истекло (прошло %.1f ч)", ReversalWindow.Hours(), elapsed.Hours())
		return result
	}

	if sameDayCount >= MaxReversalsPerDay {
		result.Reason = fmt.Sprintf("достигнут суточный лимит отмен по билету (%d)", MaxReversalsPerDay)
		return result
	}

	result.IsEligible = true
	return result
}

// ReversalGate проверяет право на отмену платежа или продления.
// Проверка консультативная: сервисы отмены повторяют ее в момент фиксации.
type ReversalGate struct {
	paymentRepo   *repository.PaymentRepository
	extensionRepo *repository.ExtensionRepository
	auditRepo     *repository.AuditRepository
	logger        *logrus.Logger
}

func NewReversalGate(
	paymentRepo *repository.PaymentRepository,
	extensionRepo *repository.ExtensionRepository,
	auditRepo *repository.AuditRepository,
	logger *logrus.Logger,
) *ReversalGate {
	return &ReversalGate{
		paymentRepo:   paymentRepo,
		extensionRepo: extensionRepo,
		auditRepo:     auditRepo,
		logger:        logger,
	}
}

// CheckPayment проверяет, можно ли отменить платеж
func (g *ReversalGate) CheckPayment(ctx context.Context, paymentID uuid.UUID) (*model.ReversalEligibility, error) {
	payment, err := g.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("платеж %s не найден", paymentID).Wrap(err)
		}
		return nil, fmt.Errorf("ошибка получения платежа: %w", err)
	}

	if payment.IsVoided {
		return &model.ReversalEligibility{
			Reason: "платеж уже отменен",
		}, nil
	}

	return g.evaluate(ctx, payment.TransactionID, payment.CreatedAt)
}

// CheckExtension проверяет, можно ли отменить продление
func (g *ReversalGate) CheckExtension(ctx context.Context, extensionID uuid.UUID) (*model.ReversalEligibility, error) {
	ext, err := g.extensionRepo.GetByID(ctx, extensionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("продление %s не найдено", extensionID).Wrap(err)
		}
		return nil, fmt.Errorf("ошибка получения продления: %w", err)
	}

	if ext.IsCancelled {
		return &model.ReversalEligibility{
			Reason: "продление уже отменено",
		}, nil
	}

	return g.evaluate(ctx, ext.TransactionID, ext.CreatedAt)
}

func (g *ReversalGate) evaluate(ctx context.Context, transactionID uuid.UUID, actionAt time.Time) (*model.ReversalEligibility, error) {
	now := time.Now().UTC()

	count, err := g.auditRepo.CountReversalsSince(ctx, transactionID, startOfDayUTC(now))
	if err != nil {
		g.logger.WithError(err).Error("Ошибка подсчета суточных отмен")
		return nil, fmt.Errorf("ошибка подсчета отмен: %w", err)
	}

	result := EvaluateReversalEligibility(actionAt.UTC(), now, count)

	g.logger.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"is_eligible":    result.IsEligible,
		"hours_elapsed":  result.HoursElapsed,
		"reversals_used": result.ReversalsUsed,
	}).Debug("Проверка права на отмену")

	return &result, nil
}

// startOfDayUTC возвращает начало текущих суток UTC -
// суточный лимит отмен считается по календарным суткам, не по окну 24ч
func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
