package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/MintShards/pawn-repo-sub002/internal/apperr"
	"github.com/MintShards/pawn-repo-sub002/internal/model"
	"github.com/MintShards/pawn-repo-sub002/internal/repository"
)

type TransactionService struct {
	transactionRepo *repository.TransactionRepository
	customerRepo    *repository.CustomerRepository
	auditRepo       *repository.AuditRepository
	balanceService  *BalanceService
	authorizer      *Authorizer
	emailSender     *EmailSender
	logger          *logrus.Logger
	gracePeriodDays int
}

func NewTransactionService(
	transactionRepo *repository.TransactionRepository,
	customerRepo *repository.CustomerRepository,
	auditRepo *repository.AuditRepository,
	balanceService *BalanceService,
	authorizer *Authorizer,
	emailSender *EmailSender,
	logger *logrus.Logger,
	gracePeriodDays int,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		customerRepo:    customerRepo,
		auditRepo:       auditRepo,
		balanceService:  balanceService,
		authorizer:      authorizer,
		emailSender:     emailSender,
		logger:          logger,
		gracePeriodDays: gracePeriodDays,
	}
}

// generateTicketNumber создает номер залогового билета вида PX-20260829-4821
func generateTicketNumber(pawnDate time.Time) string {
	return fmt.Sprintf("PX-%s-%04d", pawnDate.Format("20060102"), rand.Intn(10000))
}

// CreateTransaction выдает ссуду под залог. Месячное начисление процентов
// фиксируется в момент выдачи и не меняется при смене ставки
func (s *TransactionService) CreateTransaction(ctx context.Context, req model.CreateTransactionRequest, userID uuid.UUID) (*model.Transaction, error) {
	if req.Principal <= 0 {
		return nil, apperr.Validation("сумма ссуды должна быть положительной")
	}
	if req.InterestRate <= 0 || req.InterestRate > 30 {
		return nil, apperr.Validation("процентная ставка должна быть в диапазоне (0, 30]")
	}
	if req.TermMonths < 1 {
		req.TermMonths = 1
	}
	if req.TermMonths > 6 {
		return nil, apperr.Validation("срок ссуды не может превышать 6 месяцев")
	}
	if req.ItemDescription == "" {
		return nil, apperr.Validation("описание залога обязательно")
	}

	customer, err := s.customerRepo.GetByPhone(ctx, req.CustomerPhone)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("клиент %s не найден", req.CustomerPhone).Wrap(err)
		}
		return nil, fmt.Errorf("ошибка получения клиента: %w", err)
	}
	if customer.Status != model.CustomerStatusActive {
		return nil, apperr.BusinessRule("клиент %s заблокирован, выдача ссуды невозможна", req.CustomerPhone)
	}

	now := time.Now().UTC()
	maturity := AddMonthsClamp(now, req.TermMonths)
	graceEnd := maturity.AddDate(0, 0, s.gracePeriodDays)

	// Округление вверх: начисление кратно целым долларам
	monthlyInterest := int64(math.Ceil(float64(req.Principal) * req.InterestRate / 100))

	tx := &model.Transaction{
		ID:              uuid.New(),
		TicketNumber:    generateTicketNumber(now),
		CustomerPhone:   req.CustomerPhone,
		Principal:       req.Principal,
		InterestRate:    req.InterestRate,
		MonthlyInterest: monthlyInterest,
		PawnDate:        now,
		MaturityDate:    maturity,
		GracePeriodEnd:  graceEnd,
		Status:          model.StatusActive,
		ItemDescription: req.ItemDescription,
		AppraisedValue:  req.AppraisedValue,
		CreatedBy:       userID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	s.logger.WithFields(logrus.Fields{
		"ticket_number":  tx.TicketNumber,
		"customer_phone": tx.CustomerPhone,
		"principal":      tx.Principal,
		"user_id":        userID,
	}).Info("Выдача ссуды под залог")

	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		return nil, err
	}

	db := s.transactionRepo.GetDB()
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer sqlTx.Rollback()

	if err := s.customerRepo.ApplyLoanDelta(ctx, sqlTx, tx.CustomerPhone, 1, tx.Principal, 1); err != nil {
		return nil, fmt.Errorf("ошибка обновления счетчиков клиента: %w", err)
	}
	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("ошибка подтверждения операции: %w", err)
	}

	return tx, nil
}

// GetTransaction возвращает билет по идентификатору
func (s *TransactionService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	tx, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("залоговый билет %s не найден", id).Wrap(err)
		}
		return nil, fmt.Errorf("ошибка получения билета: %w", err)
	}
	return tx, nil
}

// GetCustomerTransactions возвращает все билеты клиента
func (s *TransactionService) GetCustomerTransactions(ctx context.Context, phone string) ([]model.Transaction, error) {
	if _, err := s.customerRepo.GetByPhone(ctx, phone); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("клиент %s не найден", phone).Wrap(err)
		}
		return nil, fmt.Errorf("ошибка получения клиента: %w", err)
	}
	return s.transactionRepo.GetByCustomerPhone(ctx, phone)
}

// SetOverdueFee назначает штраф за просрочку. Размер на усмотрение
// администратора, требуется PIN и причина
func (s *TransactionService) SetOverdueFee(ctx context.Context, id uuid.UUID, req model.SetOverdueFeeRequest, adminID uuid.UUID, adminPIN string) error {
	admin, err := s.authorizer.VerifyAdmin(ctx, adminID, adminPIN, req.Reason)
	if err != nil {
		return err
	}
	if req.Amount < 0 {
		return apperr.Validation("сумма штрафа не может быть отрицательной")
	}

	tx, err := s.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if tx.Status.IsTerminal() {
		return apperr.BusinessRule("билет в статусе %s изменить нельзя", tx.Status)
	}

	if err := s.transactionRepo.SetOverdueFee(ctx, id, req.Amount); err != nil {
		return fmt.Errorf("ошибка назначения штрафа: %w", err)
	}

	if err := s.authorizer.Record(ctx, admin.ID, model.AuditOverdueFeeSet, "transaction", id, &id, req.Reason, fmt.Sprintf("amount=%d", req.Amount)); err != nil {
		s.logger.WithError(err).Error("Ошибка записи аудита назначения штрафа")
	}

	s.balanceService.Invalidate(ctx, id)
	return nil
}

// Forfeit обращает залог в собственность ломбарда после истечения
// льготного периода
func (s *TransactionService) Forfeit(ctx context.Context, id uuid.UUID, adminID uuid.UUID, adminPIN, reason string) error {
	admin, err := s.authorizer.VerifyAdmin(ctx, adminID, adminPIN, reason)
	if err != nil {
		return err
	}

	tx, err := s.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if tx.Status.IsTerminal() {
		return apperr.BusinessRule("билет в статусе %s изменить нельзя", tx.Status)
	}
	if time.Now().UTC().Before(tx.GracePeriodEnd) {
		return apperr.BusinessRule("льготный период билета %s еще не истек", tx.TicketNumber)
	}

	return s.closeTransaction(ctx, tx, model.StatusForfeited, model.AuditTransactionForfeit, admin.ID, reason)
}

// MarkSold отмечает реализацию ранее изъятого залога
func (s *TransactionService) MarkSold(ctx context.Context, id uuid.UUID, adminID uuid.UUID, adminPIN, reason string) error {
	admin, err := s.authorizer.VerifyAdmin(ctx, adminID, adminPIN, reason)
	if err != nil {
		return err
	}

	tx, err := s.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if tx.Status != model.StatusForfeited {
		return apperr.BusinessRule("реализовать можно только изъятый залог, текущий статус %s", tx.Status)
	}

	if err := s.transactionRepo.UpdateStatus(ctx, id, model.StatusSold); err != nil {
		return fmt.Errorf("ошибка обновления статуса: %w", err)
	}

	if err := s.authorizer.Record(ctx, admin.ID, model.AuditTransactionSold, "transaction", id, &id, reason, ""); err != nil {
		s.logger.WithError(err).Error("Ошибка записи аудита реализации залога")
	}
	return nil
}

// closeTransaction переводит билет в терминальный статус и снимает его
// со счетчиков активных залогов клиента
func (s *TransactionService) closeTransaction(ctx context.Context, tx *model.Transaction, status model.TransactionStatus, action model.AuditAction, userID uuid.UUID, reason string) error {
	if err := s.transactionRepo.UpdateStatus(ctx, tx.ID, status); err != nil {
		return fmt.Errorf("ошибка обновления статуса: %w", err)
	}

	db := s.transactionRepo.GetDB()
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer sqlTx.Rollback()

	if err := s.customerRepo.ApplyLoanDelta(ctx, sqlTx, tx.CustomerPhone, -1, -tx.Principal, 0); err != nil {
		return fmt.Errorf("ошибка обновления счетчиков клиента: %w", err)
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("ошибка подтверждения операции: %w", err)
	}

	if err := s.authorizer.Record(ctx, userID, action, "transaction", tx.ID, &tx.ID, reason, ""); err != nil {
		s.logger.WithError(err).Error("Ошибка записи аудита")
	}

	s.balanceService.Invalidate(ctx, tx.ID)
	return nil
}

// SweepOverdue переводит билеты с истекшим льготным периодом в overdue.
// Запускается по расписанию
func (s *TransactionService) SweepOverdue(ctx context.Context) {
	now := time.Now().UTC()
	expired, err := s.transactionRepo.GetExpired(ctx, now)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка выборки просроченных билетов")
		return
	}

	for i := range expired {
		tx := &expired[i]
		if err := s.transactionRepo.UpdateStatus(ctx, tx.ID, model.StatusOverdue); err != nil {
			s.logger.WithError(err).Errorf("Не удалось пометить билет %s просроченным", tx.ID)
			continue
		}
		s.balanceService.Invalidate(ctx, tx.ID)
		s.notifyOverdue(ctx, tx)
	}

	if len(expired) > 0 {
		s.logger.Infof("Помечено просроченными билетов: %d", len(expired))
	}
}

func (s *TransactionService) notifyOverdue(ctx context.Context, tx *model.Transaction) {
	customer, err := s.customerRepo.GetByPhone(ctx, tx.CustomerPhone)
	if err != nil || customer.Email == "" {
		return
	}
	go func() {
		if err := s.emailSender.SendOverdueNotice(customer.Email, tx.TicketNumber, tx.GracePeriodEnd); err != nil {
			s.logger.WithError(err).Warn("Не удалось отправить уведомление о просрочке")
		}
	}()
}
