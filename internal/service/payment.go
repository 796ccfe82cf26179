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

type PaymentService struct {
	transactionRepo *repository.TransactionRepository
	paymentRepo     *repository.PaymentRepository
	customerRepo    *repository.CustomerRepository
	auditRepo       *repository.AuditRepository
	balanceService  *BalanceService
	authorizer      *Authorizer
	gate            *ReversalGate
	emailSender     *EmailSender
	logger          *logrus.Logger
}

func NewPaymentService(
	transactionRepo *repository.TransactionRepository,
	paymentRepo *repository.PaymentRepository,
	customerRepo *repository.CustomerRepository,
	auditRepo *repository.AuditRepository,
	balanceService *BalanceService,
	authorizer *Authorizer,
	gate *ReversalGate,
	emailSender *EmailSender,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		transactionRepo: transactionRepo,
		paymentRepo:     paymentRepo,
		customerRepo:    customerRepo,
		auditRepo:       auditRepo,
		balanceService:  balanceService,
		authorizer:      authorizer,
		gate:            gate,
		emailSender:     emailSender,
		logger:          logger,
	}
}

// PreviewPayment рассчитывает разбивку платежа без сохранения
func (s *PaymentService) PreviewPayment(ctx context.Context, req model.PaymentRequest) (*model.AllocationResult, error) {
	_, result, err := s.allocate(ctx, req.TransactionID, req.Amount)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// allocate проверяет сумму и строит разбивку по текущему балансу
func (s *PaymentService) allocate(ctx context.Context, transactionID uuid.UUID, amount int64) (*model.Transaction, *model.AllocationResult, error) {
	if amount <= 0 {
		return nil, nil, apperr.Validation("сумма платежа должна быть положительной")
	}

	tx, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, apperr.NotFound("залоговый билет %s не найден", transactionID).Wrap(err)
		}
		return nil, nil, fmt.Errorf("ошибка получения билета: %w", err)
	}

	if tx.Status.IsTerminal() {
		return nil, nil, apperr.BusinessRule("билет в статусе %s не принимает платежи", tx.Status)
	}

	balance, err := s.balanceService.CalculateCurrentBalance(ctx, transactionID)
	if err != nil {
		return nil, nil, err
	}

	if amount > balance.CurrentBalance {
		// Переплата отклоняется целиком: отрицательный долг недопустим
		return nil, nil, apperr.Validation("сумма %d превышает остаток %d", amount, balance.CurrentBalance)
	}

	alloc, after := AllocateWaterfall(amount, balance.Balances)

	return tx, &model.AllocationResult{
		TransactionID: transactionID,
		Amount:        amount,
		Allocation:    alloc,
		NewBalance:    after.Total(),
		WillBePaidOff: after.Total() == 0,
	}, nil
}

// AllocatePayment принимает платеж: распределяет сумму по корзинам,
// сохраняет запись и при полном погашении переводит билет в redeemed
func (s *PaymentService) AllocatePayment(ctx context.Context, req model.PaymentRequest, userID uuid.UUID) (*model.AllocationResult, error) {
	s.logger.WithFields(logrus.Fields{
		"transaction_id": req.TransactionID,
		"amount":         req.Amount,
		"user_id":        userID,
	}).Info("Прием платежа по залоговому билету")

	tx, result, err := s.allocate(ctx, req.TransactionID, req.Amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payment := &model.Payment{
		ID:               uuid.New(),
		TransactionID:    req.TransactionID,
		Amount:           req.Amount,
		CashAmount:       req.Amount,
		PaymentDate:      now,
		PrincipalPortion: result.Allocation.PrincipalPortion,
		InterestPortion:  result.Allocation.InterestPortion,
		ExtensionPortion: result.Allocation.ExtensionPortion,
		OverduePortion:   result.Allocation.OverduePortion,
		CreatedBy:        userID,
		CreatedAt:        now,
	}

	if err := s.persistPayment(ctx, tx, payment, result.WillBePaidOff); err != nil {
		return nil, err
	}

	s.afterPayment(ctx, tx, payment, result.WillBePaidOff)
	return result, nil
}

// persistPayment сохраняет платеж и сопутствующие изменения одной SQL-транзакцией
func (s *PaymentService) persistPayment(ctx context.Context, tx *model.Transaction, payment *model.Payment, paidOff bool) error {
	db := s.paymentRepo.GetDB()
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка начала транзакции")
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer sqlTx.Rollback()

	if err := s.paymentRepo.CreateTx(ctx, sqlTx, payment); err != nil {
		return fmt.Errorf("ошибка сохранения платежа: %w", err)
	}

	// Обновляем денормализованные счетчики клиента
	if err := s.customerRepo.ApplyPaymentDelta(ctx, sqlTx, tx.CustomerPhone, payment.Amount); err != nil {
		return fmt.Errorf("ошибка обновления счетчиков клиента: %w", err)
	}

	if paidOff {
		if err := s.customerRepo.ApplyLoanDelta(ctx, sqlTx, tx.CustomerPhone, -1, -tx.Principal, 0); err != nil {
			return fmt.Errorf("ошибка обновления счетчиков клиента: %w", err)
		}
	}

	entry := &model.AuditEntry{
		ID:            uuid.New(),
		UserID:        payment.CreatedBy,
		Action:        model.AuditPaymentCreated,
		EntityType:    "payment",
		EntityID:      payment.ID,
		TransactionID: &payment.TransactionID,
		Details:       fmt.Sprintf("amount=%d discount=%d", payment.Amount, payment.DiscountAmount),
		CreatedAt:     payment.CreatedAt,
	}
	if payment.DiscountAmount > 0 {
		entry.Action = model.AuditDiscountApplied
		entry.Reason = payment.DiscountReason
	}
	if err := s.auditRepo.CreateTx(ctx, sqlTx, entry); err != nil {
		return fmt.Errorf("ошибка записи аудита: %w", err)
	}

	if err := sqlTx.Commit(); err != nil {
		s.logger.WithError(err).Error("Ошибка подтверждения транзакции")
		return fmt.Errorf("ошибка подтверждения операции: %w", err)
	}

	// Статус меняется после фиксации платежа: полностью погашенный билет выкуплен
	if paidOff {
		if err := s.transactionRepo.UpdateStatus(ctx, tx.ID, model.StatusRedeemed); err != nil {
			s.logger.WithError(err).Errorf("Не удалось перевести билет %s в redeemed", tx.ID)
		} else {
			s.logger.Infof("Залоговый билет %s полностью выкуплен", tx.ID)
		}
	}

	return nil
}

// afterPayment выполняет побочные действия после платежа: сброс кэша и уведомление
func (s *PaymentService) afterPayment(ctx context.Context, tx *model.Transaction, payment *model.Payment, paidOff bool) {
	s.balanceService.Invalidate(ctx, tx.ID)

	customer, err := s.customerRepo.GetByPhone(ctx, tx.CustomerPhone)
	if err != nil || customer.Email == "" {
		return
	}

	go func() {
		if err := s.emailSender.SendPaymentReceipt(customer.Email, payment.Amount, tx.TicketNumber, paidOff); err != nil {
			s.logger.WithError(err).Warn("Не удалось отправить квитанцию о платеже")
		}
	}()
}

// ValidateDiscount проверяет скидку без применения (dry-run).
// Использует тот же расчет, что и ApplyDiscount.
func (s *PaymentService) ValidateDiscount(ctx context.Context, req model.DiscountRequest, adminID uuid.UUID) (*model.DiscountBreakdown, error) {
	if _, err := s.authorizer.VerifyAdmin(ctx, adminID, req.AdminPIN, req.Reason); err != nil {
		return nil, err
	}

	_, breakdown, err := s.computeDiscount(ctx, req)
	if err != nil {
		return nil, err
	}
	return breakdown, nil
}

func (s *PaymentService) computeDiscount(ctx context.Context, req model.DiscountRequest) (*model.Transaction, *model.DiscountBreakdown, error) {
	tx, err := s.transactionRepo.GetByID(ctx, req.TransactionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, apperr.NotFound("залоговый билет %s не найден", req.TransactionID).Wrap(err)
		}
		return nil, nil, fmt.Errorf("ошибка получения билета: %w", err)
	}

	// Скидка возможна только по непогашенному билету
	if tx.Status.IsTerminal() {
		return nil, nil, apperr.BusinessRule("скидка недоступна для билета в статусе %s", tx.Status)
	}

	balance, err := s.balanceService.CalculateCurrentBalance(ctx, req.TransactionID)
	if err != nil {
		return nil, nil, err
	}

	breakdown := ComputeDiscount(req.CashAmount, req.DiscountAmount, balance.Balances)
	return tx, &breakdown, nil
}

// ApplyDiscount применяет скидку: записывает финальный платеж
// (наличные + скидка) и закрывает билет
func (s *PaymentService) ApplyDiscount(ctx context.Context, req model.DiscountRequest, adminID uuid.UUID) (*model.DiscountBreakdown, error) {
	admin, err := s.authorizer.VerifyAdmin(ctx, adminID, req.AdminPIN, req.Reason)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"transaction_id": req.TransactionID,
		"cash_amount":    req.CashAmount,
		"discount":       req.DiscountAmount,
		"admin_id":       admin.ID,
	}).Info("Применение скидки при выкупе")

	tx, breakdown, err := s.computeDiscount(ctx, req)
	if err != nil {
		return nil, err
	}

	if !breakdown.IsValid {
		return nil, apperr.BusinessRule("%s", breakdown.Reason)
	}

	balance, err := s.balanceService.CalculateCurrentBalance(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}

	// Эффективный платеж распределяется тем же waterfall. Записывается
	// только зачтенная часть наличных, излишек - сдача клиенту
	alloc, after := AllocateWaterfall(breakdown.EffectivePayment, balance.Balances)

	now := time.Now().UTC()
	payment := &model.Payment{
		ID:                  uuid.New(),
		TransactionID:       req.TransactionID,
		Amount:              breakdown.EffectivePayment,
		CashAmount:          breakdown.EffectivePayment - req.DiscountAmount,
		PaymentDate:         now,
		PrincipalPortion:    alloc.PrincipalPortion,
		InterestPortion:     alloc.InterestPortion,
		ExtensionPortion:    alloc.ExtensionPortion,
		OverduePortion:      alloc.OverduePortion,
		DiscountAmount:      req.DiscountAmount,
		DiscountOnInterest:  breakdown.DiscountOnInterest,
		DiscountOnPrincipal: breakdown.DiscountOnPrincipal,
		DiscountReason:      req.Reason,
		DiscountApprovedBy:  &admin.ID,
		CreatedBy:           admin.ID,
		CreatedAt:           now,
	}

	paidOff := after.Total() == 0
	if err := s.persistPayment(ctx, tx, payment, paidOff); err != nil {
		return nil, err
	}

	s.afterPayment(ctx, tx, payment, paidOff)
	return breakdown, nil
}

// VoidPayment отменяет платеж: запись помечается, баланс восстанавливается
// пересчетом. Право на отмену перепроверяется в момент фиксации.
func (s *PaymentService) VoidPayment(ctx context.Context, paymentID uuid.UUID, req model.VoidPaymentRequest, adminID uuid.UUID) error {
	admin, err := s.authorizer.VerifyAdmin(ctx, adminID, req.AdminPIN, req.Reason)
	if err != nil {
		return err
	}

	// Повторная проверка права на отмену при фиксации
	eligibility, err := s.gate.CheckPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if !eligibility.IsEligible {
		return apperr.BusinessRule("отмена платежа недоступна: %s", eligibility.Reason)
	}

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperr.NotFound("платеж %s не найден", paymentID).Wrap(err)
		}
		return fmt.Errorf("ошибка получения платежа: %w", err)
	}

	tx, err := s.transactionRepo.GetByID(ctx, payment.TransactionID)
	if err != nil {
		return fmt.Errorf("ошибка получения билета: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id":     paymentID,
		"transaction_id": payment.TransactionID,
		"amount":         payment.Amount,
		"admin_id":       admin.ID,
	}).Info("Отмена платежа")

	now := time.Now().UTC()
	db := s.paymentRepo.GetDB()
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer sqlTx.Rollback()

	if err := s.paymentRepo.Void(ctx, sqlTx, paymentID, admin.ID, req.Reason, now); err != nil {
		return fmt.Errorf("ошибка отмены платежа: %w", err)
	}

	if err := s.customerRepo.ApplyPaymentDelta(ctx, sqlTx, tx.CustomerPhone, -payment.Amount); err != nil {
		return fmt.Errorf("ошибка обновления счетчиков клиента: %w", err)
	}

	// Запись аудита в той же транзакции: она же учитывается в суточном лимите
	entry := &model.AuditEntry{
		ID:            uuid.New(),
		UserID:        admin.ID,
		Action:        model.AuditPaymentVoided,
		EntityType:    "payment",
		EntityID:      paymentID,
		TransactionID: &payment.TransactionID,
		Reason:        req.Reason,
		Details:       fmt.Sprintf("amount=%d", payment.Amount),
		CreatedAt:     now,
	}
	if err := s.auditRepo.CreateTx(ctx, sqlTx, entry); err != nil {
		return fmt.Errorf("ошибка записи аудита: %w", err)
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("ошибка подтверждения операции: %w", err)
	}

	s.balanceService.Invalidate(ctx, tx.ID)

	// Если отменен закрывающий платеж, выкупленный билет открывается заново
	if tx.Status == model.StatusRedeemed {
		if err := s.reopenTransaction(ctx, tx, now); err != nil {
			s.logger.WithError(err).Errorf("Не удалось заново открыть билет %s после отмены платежа", tx.ID)
		}
	}

	return nil
}

// reopenTransaction возвращает выкупленный билет в рабочий статус по датам
func (s *PaymentService) reopenTransaction(ctx context.Context, tx *model.Transaction, now time.Time) error {
	balance, err := s.balanceService.CalculateCurrentBalance(ctx, tx.ID)
	if err != nil {
		return err
	}
	if balance.CurrentBalance == 0 {
		return nil
	}

	status := model.StatusActive
	if now.After(tx.GracePeriodEnd) {
		status = model.StatusOverdue
	}

	if err := s.transactionRepo.UpdateStatus(ctx, tx.ID, status); err != nil {
		return err
	}

	// Билет снова активен - возвращаем его в счетчики клиента
	db := s.paymentRepo.GetDB()
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	if err := s.customerRepo.ApplyLoanDelta(ctx, sqlTx, tx.CustomerPhone, 1, tx.Principal, 0); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// GetPaymentHistory возвращает всю историю платежей билета, включая отмененные
func (s *PaymentService) GetPaymentHistory(ctx context.Context, transactionID uuid.UUID) ([]model.Payment, error) {
	if _, err := s.transactionRepo.GetByID(ctx, transactionID); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("залоговый билет %s не найден", transactionID).Wrap(err)
		}
		return nil, fmt.Errorf("ошибка получения билета: %w", err)
	}

	payments, err := s.paymentRepo.GetAllByTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения платежей: %w", err)
	}

	return payments, nil
}
