package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/MintShards/pawn-repo-sub002/internal/apperr"
	"github.com/MintShards/pawn-repo-sub002/internal/model"
	"github.com/MintShards/pawn-repo-sub002/internal/repository"
)

// Authorizer - единая точка авторизации привилегированных действий:
// роль администратора + PIN + обязательная причина + запись в аудит.
// Скидки, отмены платежей и продлений, сверка счетчиков идут через него.
type Authorizer struct {
	userRepo  *repository.UserRepository
	auditRepo *repository.AuditRepository
	logger    *logrus.Logger
}

func NewAuthorizer(userRepo *repository.UserRepository, auditRepo *repository.AuditRepository, logger *logrus.Logger) *Authorizer {
	return &Authorizer{userRepo: userRepo, auditRepo: auditRepo, logger: logger}
}

// VerifyAdmin проверяет, что пользователь - активный администратор
// с верным PIN и что указана причина действия. Возвращает пользователя.
func (a *Authorizer) VerifyAdmin(ctx context.Context, userID uuid.UUID, pin, reason string) (*model.User, error) {
	if reason == "" {
		return nil, apperr.Validation("причина действия обязательна")
	}

	user, err := a.userRepo.GetByID(ctx, userID)
	if err != nil {
		a.logger.WithError(err).Errorf("Не удалось получить пользователя %s", userID)
		return nil, apperr.Authentication("пользователь не найден").Wrap(err)
	}

	if !user.IsActive {
		a.logger.Warnf("Попытка привилегированного действия заблокированным пользователем %s", userID)
		return nil, apperr.Forbidden("учетная запись заблокирована")
	}

	if user.Role != model.RoleAdmin {
		a.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"role":    user.Role,
		}).Warn("Попытка привилегированного действия без роли администратора")
		return nil, apperr.Forbidden("требуется роль администратора")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(pin)); err != nil {
		a.logger.WithField("user_id", userID).Warn("Неверный PIN администратора")
		return nil, apperr.Authentication("неверный PIN")
	}

	return user, nil
}

// Record пишет запись о выполненном действии в журнал аудита
func (a *Authorizer) Record(ctx context.Context, userID uuid.UUID, action model.AuditAction, entityType string, entityID uuid.UUID, transactionID *uuid.UUID, reason, details string) error {
	entry := &model.AuditEntry{
		ID:            uuid.New(),
		UserID:        userID,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		TransactionID: transactionID,
		Reason:        reason,
		Details:       details,
		CreatedAt:     time.Now().UTC(),
	}

	if err := a.auditRepo.Create(ctx, entry); err != nil {
		a.logger.WithError(err).Error("Не удалось записать действие в журнал аудита")
		return err
	}

	return nil
}
