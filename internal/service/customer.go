package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/MintShards/pawn-repo-sub002/internal/apperr"
	"github.com/MintShards/pawn-repo-sub002/internal/crypto"
	"github.com/MintShards/pawn-repo-sub002/internal/model"
	"github.com/MintShards/pawn-repo-sub002/internal/repository"
)

type CustomerService struct {
	customerRepo *repository.CustomerRepository
	pgpManager   *crypto.PGPManager
	hmacKey      []byte
	logger       *logrus.Logger
}

func NewCustomerService(customerRepo *repository.CustomerRepository, pgpManager *crypto.PGPManager, hmacKey string, logger *logrus.Logger) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		pgpManager:   pgpManager,
		hmacKey:      []byte(hmacKey),
		logger:       logger,
	}
}

// documentHMAC вычисляет детерминированный отпечаток номера документа
// для поиска по точному совпадению без расшифровки
func (s *CustomerService) documentHMAC(documentNumber string) string {
	mac := hmac.New(sha256.New, s.hmacKey)
	mac.Write([]byte(documentNumber))
	return hex.EncodeToString(mac.Sum(nil))
}

// CreateCustomer регистрирует клиента. Номер документа шифруется PGP,
// в открытом виде не хранится
func (s *CustomerService) CreateCustomer(ctx context.Context, req model.CreateCustomerRequest) (*model.Customer, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation("%s", err)
	}

	encrypted, err := s.pgpManager.Encrypt(req.DocumentNumber)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка шифрования документа клиента")
		return nil, fmt.Errorf("ошибка шифрования документа: %w", err)
	}

	now := time.Now().UTC()
	customer := &model.Customer{
		ID:                uuid.New(),
		Phone:             req.Phone,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		EncryptedDocument: encrypted,
		DocumentHMAC:      s.documentHMAC(req.DocumentNumber),
		Status:            model.CustomerStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	s.logger.WithFields(logrus.Fields{
		"phone": customer.Phone,
	}).Info("Регистрация нового клиента")

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}

	return customer, nil
}

// GetCustomer возвращает клиента по номеру телефона
func (s *CustomerService) GetCustomer(ctx context.Context, phone string) (*model.Customer, error) {
	customer, err := s.customerRepo.GetByPhone(ctx, phone)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("клиент %s не найден", phone).Wrap(err)
		}
		return nil, fmt.Errorf("ошибка получения клиента: %w", err)
	}
	return customer, nil
}

// GetCustomerDocument расшифровывает номер документа клиента.
// Операция административная и оставляет след в логе
func (s *CustomerService) GetCustomerDocument(ctx context.Context, phone string, adminID uuid.UUID) (string, error) {
	customer, err := s.GetCustomer(ctx, phone)
	if err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"phone":    phone,
		"admin_id": adminID,
	}).Info("Расшифровка документа клиента")

	document, err := s.pgpManager.Decrypt(customer.EncryptedDocument)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка расшифровки документа клиента")
		return "", fmt.Errorf("ошибка расшифровки документа: %w", err)
	}
	return document, nil
}

// UpdateCustomer обновляет контактные данные и статус клиента
func (s *CustomerService) UpdateCustomer(ctx context.Context, phone string, req model.UpdateCustomerRequest) (*model.Customer, error) {
	customer, err := s.GetCustomer(ctx, phone)
	if err != nil {
		return nil, err
	}

	if req.FirstName != "" {
		customer.FirstName = req.FirstName
	}
	if req.LastName != "" {
		customer.LastName = req.LastName
	}
	if req.Email != "" {
		customer.Email = req.Email
	}
	if req.Status != "" {
		switch req.Status {
		case model.CustomerStatusActive, model.CustomerStatusSuspended, model.CustomerStatusBanned:
			customer.Status = req.Status
		default:
			return nil, apperr.Validation("недопустимый статус клиента: %s", req.Status)
		}
	}
	customer.UpdatedAt = time.Now().UTC()

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("ошибка обновления клиента: %w", err)
	}

	return customer, nil
}
