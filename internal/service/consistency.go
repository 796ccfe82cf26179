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

// Срезы репозиториев, которыми пользуется сверка счетчиков
type counterCustomerStore interface {
	GetByPhone(ctx context.Context, phone string) (*model.Customer, error)
	ListPhones(ctx context.Context, limit int) ([]string, error)
	UpdateCounters(ctx context.Context, phone string, activeLoans int, totalActiveLoanValue int64, totalTransactions int, totalPaid int64, fixedBy *uuid.UUID, fixedAt *time.Time) error
}

type counterTransactionStore interface {
	GetByCustomerPhone(ctx context.Context, phone string) ([]model.Transaction, error)
}

type counterPaymentStore interface {
	GetCountedByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.Payment, error)
}

type auditWriter interface {
	Create(ctx context.Context, entry *model.AuditEntry) error
}

// ConsistencyService сверяет денормализованные счетчики клиента
// с фактическими данными по билетам и платежам
type ConsistencyService struct {
	customerRepo    counterCustomerStore
	transactionRepo counterTransactionStore
	paymentRepo     counterPaymentStore
	auditRepo       auditWriter
	logger          *logrus.Logger
}

func NewConsistencyService(
	customerRepo counterCustomerStore,
	transactionRepo counterTransactionStore,
	paymentRepo counterPaymentStore,
	auditRepo auditWriter,
	logger *logrus.Logger,
) *ConsistencyService {
	return &ConsistencyService{
		customerRepo:    customerRepo,
		transactionRepo: transactionRepo,
		paymentRepo:     paymentRepo,
		auditRepo:       auditRepo,
		logger:          logger,
	}
}

// activeStatuses - статусы, при которых билет учитывается в счетчиках
// активных залогов клиента
func isActiveStatus(status model.TransactionStatus) bool {
	return status == model.StatusActive || status == model.StatusOverdue || status == model.StatusExtended
}

// computeActual пересчитывает счетчики клиента с нуля по билетам и платежам
func (s *ConsistencyService) computeActual(ctx context.Context, phone string) (*model.Customer, error) {
	transactions, err := s.transactionRepo.GetByCustomerPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения билетов клиента: %w", err)
	}

	actual := &model.Customer{Phone: phone}
	actual.TotalTransactions = len(transactions)

	for i := range transactions {
		tx := &transactions[i]
		if isActiveStatus(tx.Status) {
			actual.ActiveLoans++
			actual.TotalActiveLoanValue += tx.Principal
		}

		payments, err := s.paymentRepo.GetCountedByTransaction(ctx, tx.ID)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения платежей билета %s: %w", tx.ID, err)
		}
		for j := range payments {
			actual.TotalPaid += payments[j].Amount
		}
	}

	return actual, nil
}

// compareCounters сравнивает сохраненные счетчики клиента с пересчитанными
// и возвращает список расхождений по полям
func compareCounters(stored, actual *model.Customer) []model.FieldMismatch {
	var mismatches []model.FieldMismatch
	compare := func(field string, cached, computed int64) {
		if cached != computed {
			mismatches = append(mismatches, model.FieldMismatch{
				Field:    field,
				Cached:   cached,
				Computed: computed,
			})
		}
	}
	compare("active_loans", int64(stored.ActiveLoans), int64(actual.ActiveLoans))
	compare("total_active_loan_value", stored.TotalActiveLoanValue, actual.TotalActiveLoanValue)
	compare("total_transactions", int64(stored.TotalTransactions), int64(actual.TotalTransactions))
	compare("total_paid", stored.TotalPaid, actual.TotalPaid)
	return mismatches
}

// Validate сверяет счетчики одного клиента. При fix=true расхождения
// исправляются пересчитанными значениями
func (s *ConsistencyService) Validate(ctx context.Context, phone string, fix bool, userID uuid.UUID) (*model.ConsistencyReport, error) {
	customer, err := s.customerRepo.GetByPhone(ctx, phone)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("клиент %s не найден", phone).Wrap(err)
		}
		return nil, fmt.Errorf("ошибка получения клиента: %w", err)
	}

	actual, err := s.computeActual(ctx, phone)
	if err != nil {
		return nil, err
	}

	report := &model.ConsistencyReport{
		Phone:      phone,
		CheckedAt:  time.Now().UTC(),
		Mismatches: compareCounters(customer, actual),
	}
	report.IsConsistent = len(report.Mismatches) == 0

	if report.IsConsistent || !fix {
		return report, nil
	}

	s.logger.WithFields(logrus.Fields{
		"phone":      phone,
		"mismatches": len(report.Mismatches),
	}).Warn("Обнаружено расхождение счетчиков клиента, исправляем")

	now := time.Now().UTC()
	if err := s.customerRepo.UpdateCounters(ctx, phone, actual.ActiveLoans, actual.TotalActiveLoanValue, actual.TotalTransactions, actual.TotalPaid, &userID, &now); err != nil {
		return nil, fmt.Errorf("ошибка исправления счетчиков: %w", err)
	}

	entry := &model.AuditEntry{
		ID:         uuid.New(),
		UserID:     userID,
		Action:     model.AuditCountersFixed,
		EntityType: "customer",
		EntityID:   customer.ID,
		Details:    fmt.Sprintf("phone=%s mismatches=%d", phone, len(report.Mismatches)),
		CreatedAt:  now,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.WithError(err).Error("Ошибка записи аудита исправления счетчиков")
	}

	report.Fixed = true
	return report, nil
}

// ValidateAll сверяет счетчики клиентов пачкой. limit > 0 ограничивает
// размер пачки, 0 - без ограничения. Ошибка по одному клиенту не
// прерывает проход
func (s *ConsistencyService) ValidateAll(ctx context.Context, limit int, fix bool, userID uuid.UUID) (*model.BatchConsistencyReport, error) {
	phones, err := s.customerRepo.ListPhones(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка клиентов: %w", err)
	}

	batch := &model.BatchConsistencyReport{
		StartedAt: time.Now().UTC(),
	}

	for _, phone := range phones {
		report, err := s.Validate(ctx, phone, fix, userID)
		if err != nil {
			s.logger.WithError(err).WithField("phone", phone).Error("Ошибка сверки счетчиков клиента")
			batch.Failed++
			continue
		}
		batch.TotalChecked++
		switch {
		case report.IsConsistent:
			batch.Consistent++
		case report.Fixed:
			batch.Fixed++
		default:
			batch.StillInconsistent++
		}
	}

	batch.FinishedAt = time.Now().UTC()
	s.logger.WithFields(logrus.Fields{
		"checked":      batch.TotalChecked,
		"consistent":   batch.Consistent,
		"fixed":        batch.Fixed,
		"inconsistent": batch.StillInconsistent,
		"failed":       batch.Failed,
	}).Info("Сверка счетчиков клиентов завершена")

	return batch, nil
}
