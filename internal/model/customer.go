package model

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

const (
	CustomerStatusActive    = "active"
	CustomerStatusSuspended = "suspended"
	CustomerStatusBanned    = "banned"
)

type Customer struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Phone     string    `json:"phone" db:"phone"` // бизнес-ключ клиента
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Email     string    `json:"email" db:"email"` // необязательный, для уведомлений
	// Номер документа хранится только в зашифрованном виде (PGP),
	// HMAC нужен для поиска по точному совпадению без расшифровки
	EncryptedDocument string `json:"-" db:"encrypted_document"`
	DocumentHMAC      string `json:"-" db:"document_hmac"`
	Status            string `json:"status" db:"status"` // active, suspended, banned

	// Денормализованные счетчики (кэш-проекция, сверяется валидатором)
	ActiveLoans          int   `json:"active_loans" db:"active_loans"`
	TotalActiveLoanValue int64 `json:"total_active_loan_value" db:"total_active_loan_value"`
	TotalTransactions    int   `json:"total_transactions" db:"total_transactions"`
	TotalPaid            int64 `json:"total_paid" db:"total_paid"`

	CountersFixedBy *uuid.UUID `json:"counters_fixed_by" db:"counters_fixed_by"`
	CountersFixedAt *time.Time `json:"counters_fixed_at" db:"counters_fixed_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CreateCustomerRequest struct {
	Phone          string `json:"phone" validate:"required"`
	FirstName      string `json:"first_name" validate:"required"`
	LastName       string `json:"last_name" validate:"required"`
	Email          string `json:"email" validate:"omitempty,email"`
	DocumentNumber string `json:"document_number" validate:"required"`
}

type UpdateCustomerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Status    string `json:"status"`
}

var phoneRegex = regexp.MustCompile(`^\+?\d{10,15}$`)

func (r *CreateCustomerRequest) Validate() error {
	if !phoneRegex.MatchString(r.Phone) {
		return fmt.Errorf("invalid phone format")
	}
	if r.FirstName == "" || r.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	if r.Email != "" && !isValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.DocumentNumber == "" {
		return fmt.Errorf("document_number is required")
	}
	return nil
}
