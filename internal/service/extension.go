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

type ExtensionService struct {
	transactionRepo *repository.TransactionRepository
	extensionRepo   *repository.ExtensionRepository
	customerRepo    *repository.CustomerRepository
	auditRepo       *repository.AuditRepository
	balanceService  *BalanceService
	authorizer      *Authorizer
	gate            *ReversalGate
	emailSender     *EmailSender
	logger          *logrus.Logger
	gracePeriodDays int
}

func NewExtensionService(
	transactionRepo *repository.TransactionRepository,
	extensionRepo *repository.ExtensionRepository,
	customerRepo *repository.CustomerRepository,
	auditRepo *repository.AuditRepository,
	balanceService *BalanceService,
	authorizer *Authorizer,
	gate *ReversalGate,
	emailSender *EmailSender,
	logger *logrus.Logger,
	gracePeriodDays int,
) *ExtensionService {
	return &ExtensionService{
		transactionRepo: transactionRepo,
		extensionRepo:   extensionRepo,
		customerRepo:    customerRepo,
		auditRepo:       auditRepo,
		balanceService:  balanceService,
		authorizer:      authorizer,
		gate:            gate,
		emailSender:     emailSender,
		logger:          logger,
		gracePeriodDays: gracePeriodDays,
	}
}

// ProcessExtension продлевает срок залога: сдвигает дату погашения на
// months календарных месяцев и начисляет фиксированную плату за продление
func (s *ExtensionService) ProcessExtension(ctx context.Context, req model.ExtensionRequest, userID uuid.UUID) (*model.ExtensionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation("%s", err)
	}

	tx, err := s.transactionRepo.GetByID(ctx, req.TransactionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("залоговый билет %s не найден", req.TransactionID).Wrap(err)
		}
		return nil, fmt.Errorf("ошибка получения билета: %w", err)
	}

	// Продление доступно активным и просроченным билетам
	if tx.Status != model.StatusActive && tx.Status != model.StatusOverdue && tx.Status != model.StatusExtended {
		return nil, apperr.BusinessRule("билет в статусе %s нельзя продлить", tx.Status)
	}

	s.logger.WithFields(logrus.Fields{
		"transaction_id": req.TransactionID,
		"months":         req.Months,
		"fee_per_month":  req.FeePerMonth,
		"user_id":        userID,
	}).Info("Продление залогового билета")

	now := time.Now().UTC()
	totalFee := req.FeePerMonth * int64(req.Months)

	// Срок сдвигается от текущей даты погашения, не от сегодняшней
	newMaturity := AddMonthsClamp(tx.MaturityDate, req.Months)
	newGraceEnd := newMaturity.AddDate(0, 0, s.gracePeriodDays)

	ext := &model.Extension{
		ID:                uuid.New(),
		TransactionID:     tx.ID,
		Months:            req.Months,
		FeePerMonth:       req.FeePerMonth,
		TotalFee:          totalFee,
		PriorMaturityDate: tx.MaturityDate,
		PriorGraceEnd:     tx.GracePeriodEnd,
		NewMaturityDate:   newMaturity,
		NewGraceEnd:       newGraceEnd,
		Reason:            req.Reason,
		CreatedBy:         userID,
		CreatedAt:         now,
	}

	db := s.extensionRepo.GetDB()
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка начала транзакции")
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer sqlTx.Rollback()

	if err := s.extensionRepo.CreateTx(ctx, sqlTx, ext); err != nil {
		return nil, fmt.Errorf("ошибка сохранения продления: %w", err)
	}

	entry := &model.AuditEntry{
		ID:            uuid.New(),
		UserID:        userID,
		Action:        model.AuditExtensionCreated,
		EntityType:    "extension",
		EntityID:      ext.ID,
		TransactionID: &tx.ID,
		Details:       fmt.Sprintf("months=%d fee=%d", req.Months, totalFee),
		CreatedAt:     now,
	}
	if err := s.auditRepo.CreateTx(ctx, sqlTx, entry); err != nil {
		return nil, fmt.Errorf("ошибка записи аудита: %w", err)
	}

	if err := sqlTx.Commit(); err != nil {
		s.logger.WithError(err).Error("Ошибка подтверждения транзакции")
		return nil, fmt.Errorf("ошибка подтверждения операции: %w", err)
	}

	// Продленный просроченный билет снова становится extended
	if err := s.transactionRepo.UpdateDates(ctx, tx.ID, newMaturity, newGraceEnd, tx.ExtensionFees+totalFee, model.StatusExtended); err != nil {
		s.logger.WithError(err).Errorf("Не удалось обновить даты билета %s после продления", tx.ID)
		return nil, fmt.Errorf("ошибка обновления билета: %w", err)
	}

	s.balanceService.Invalidate(ctx, tx.ID)
	s.notifyExtension(ctx, tx, req.Months, newMaturity)

	return &model.ExtensionResult{
		ExtensionID:     ext.ID,
		NewMaturityDate: newMaturity,
		NewGraceEnd:     newGraceEnd,
		TotalFee:        totalFee,
	}, nil
}

func (s *ExtensionService) notifyExtension(ctx context.Context, tx *model.Transaction, months int, newMaturity time.Time) {
	customer, err := s.customerRepo.GetByPhone(ctx, tx.CustomerPhone)
	if err != nil || customer.Email == "" {
		return
	}
	go func() {
		if err := s.emailSender.SendExtensionNotification(customer.Email, tx.TicketNumber, months, newMaturity); err != nil {
			s.logger.WithError(err).Warn("Не удалось отправить уведомление о продлении")
		}
	}()
}

// CancelExtension отменяет продление: даты билета откатываются к прежним,
// плата за продление снимается. Право на отмену перепроверяется при фиксации.
func (s *ExtensionService) CancelExtension(ctx context.Context, extensionID uuid.UUID, req model.CancelExtensionRequest, adminID uuid.UUID) error {
	admin, err := s.authorizer.VerifyAdmin(ctx, adminID, req.AdminPIN, req.Reason)
	if err != nil {
		return err
	}

	eligibility, err := s.gate.CheckExtension(ctx, extensionID)
	if err != nil {
		return err
	}
	if !eligibility.IsEligible {
		return apperr.BusinessRule("отмена продления недоступна: %s", eligibility.Reason)
	}

	ext, err := s.extensionRepo.GetByID(ctx, extensionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperr.NotFound("продление %s не найдено", extensionID).Wrap(err)
		}
		return fmt.Errorf("ошибка получения продления: %w", err)
	}

	tx, err := s.transactionRepo.GetByID(ctx, ext.TransactionID)
	if err != nil {
		return fmt.Errorf("ошибка получения билета: %w", err)
	}

	latest, err := s.latestActiveExtension(ctx, ext.TransactionID)
	if err != nil {
		return err
	}
	if err := checkCancellable(tx, ext, latest); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"extension_id":   extensionID,
		"transaction_id": ext.TransactionID,
		"admin_id":       admin.ID,
	}).Info("Отмена продления")

	now := time.Now().UTC()
	db := s.extensionRepo.GetDB()
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer sqlTx.Rollback()

	if err := s.extensionRepo.Cancel(ctx, sqlTx, extensionID, admin.ID, req.Reason, now); err != nil {
		return fmt.Errorf("ошибка отмены продления: %w", err)
	}

	entry := &model.AuditEntry{
		ID:            uuid.New(),
		UserID:        admin.ID,
		Action:        model.AuditExtensionCancelled,
		EntityType:    "extension",
		EntityID:      extensionID,
		TransactionID: &ext.TransactionID,
		Reason:        req.Reason,
		Details:       fmt.Sprintf("fee=%d", ext.TotalFee),
		CreatedAt:     now,
	}
	if err := s.auditRepo.CreateTx(ctx, sqlTx, entry); err != nil {
		return fmt.Errorf("ошибка записи аудита: %w", err)
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("ошибка подтверждения операции: %w", err)
	}

	// Возврат прежних дат. Статус определяется датами: истекший прежний
	// льготный период означает просрочку, оставшиеся продления - extended
	status := model.StatusActive
	if remaining, rerr := s.latestActiveExtension(ctx, ext.TransactionID); rerr == nil && remaining != nil {
		status = model.StatusExtended
	}
	if now.After(ext.PriorGraceEnd) {
		status = model.StatusOverdue
	}

	newFees := tx.ExtensionFees - ext.TotalFee
	if newFees < 0 {
		newFees = 0
	}
	if err := s.transactionRepo.UpdateDates(ctx, tx.ID, ext.PriorMaturityDate, ext.PriorGraceEnd, newFees, status); err != nil {
		s.logger.WithError(err).Errorf("Не удалось откатить даты билета %s", tx.ID)
		return fmt.Errorf("ошибка обновления билета: %w", err)
	}

	s.balanceService.Invalidate(ctx, tx.ID)
	return nil
}

// checkCancellable проверяет, что продление можно откатить. Закрытый билет
// (выкуплен, конфискован или продан) не возвращается в работу отменой
// продления. Откат возможен только для последнего продления: иначе даты
// промежуточных продлений станут несогласованными
func checkCancellable(tx *model.Transaction, ext, latest *model.Extension) error {
	if tx.Status.IsTerminal() {
		return apperr.BusinessRule("билет %s закрыт (%s), отмена продления невозможна", tx.TicketNumber, tx.Status)
	}
	if latest == nil || latest.ID != ext.ID {
		return apperr.BusinessRule("отменить можно только последнее продление билета")
	}
	return nil
}

// latestActiveExtension возвращает последнее неотмененное продление билета
func (s *ExtensionService) latestActiveExtension(ctx context.Context, transactionID uuid.UUID) (*model.Extension, error) {
	extensions, err := s.extensionRepo.GetByTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения продлений: %w", err)
	}
	var latest *model.Extension
	for i := range extensions {
		if extensions[i].IsCancelled {
			continue
		}
		if latest == nil || extensions[i].CreatedAt.After(latest.CreatedAt) {
			latest = &extensions[i]
		}
	}
	return latest, nil
}

// GetExtensionHistory возвращает все продления билета, включая отмененные
func (s *ExtensionService) GetExtensionHistory(ctx context.Context, transactionID uuid.UUID) ([]model.Extension, error) {
	if _, err := s.transactionRepo.GetByID(ctx, transactionID); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("залоговый билет %s не найден", transactionID).Wrap(err)
		}
		return nil, fmt.Errorf("ошибка получения билета: %w", err)
	}
	return s.extensionRepo.GetByTransaction(ctx, transactionID)
}
