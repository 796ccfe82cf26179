package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Extension - продление срока залога. Запись не удаляется:
// отмена помечает ее is_cancelled и возвращает прежние даты.
type Extension struct {
	ID            uuid.UUID `json:"id" db:"id"`
	TransactionID uuid.UUID `json:"transaction_id" db:"transaction_id"`
	Months        int       `json:"months" db:"months"`
	FeePerMonth   int64     `json:"fee_per_month" db:"fee_per_month"`
	TotalFee      int64     `json:"total_fee" db:"total_fee"`

	// Даты до и после продления - нужны для точного отката при отмене
	PriorMaturityDate time.Time `json:"prior_maturity_date" db:"prior_maturity_date"`
	PriorGraceEnd     time.Time `json:"prior_grace_end" db:"prior_grace_end"`
	NewMaturityDate   time.Time `json:"new_maturity_date" db:"new_maturity_date"`
	NewGraceEnd       time.Time `json:"new_grace_end" db:"new_grace_end"`

	Reason    string    `json:"reason" db:"reason"`
	CreatedBy uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	IsCancelled  bool       `json:"is_cancelled" db:"is_cancelled"`
	CancelledBy  *uuid.UUID `json:"cancelled_by" db:"cancelled_by"`
	CancelReason string     `json:"cancel_reason" db:"cancel_reason"`
	CancelledAt  *time.Time `json:"cancelled_at" db:"cancelled_at"`
}

type ExtensionRequest struct {
	TransactionID uuid.UUID `json:"transaction_id" validate:"required"`
	Months        int       `json:"months" validate:"required,gte=1,lte=3"`
	FeePerMonth   int64     `json:"fee_per_month" validate:"gte=0,lte=500"`
	Reason        string    `json:"reason"`
}

func (r *ExtensionRequest) Validate() error {
	if r.Months < 1 || r.Months > 3 {
		return fmt.Errorf("months must be between 1 and 3")
	}
	if r.FeePerMonth < 0 || r.FeePerMonth > 500 {
		return fmt.Errorf("fee_per_month must be between 0 and 500")
	}
	return nil
}

type CancelExtensionRequest struct {
	Reason   string `json:"reason" validate:"required"`
	AdminPIN string `json:"admin_pin" validate:"required"`
}

type ExtensionResult struct {
	ExtensionID     uuid.UUID `json:"extension_id"`
	NewMaturityDate time.Time `json:"new_maturity_date"`
	NewGraceEnd     time.Time `json:"new_grace_period_end"`
	TotalFee        int64     `json:"total_fee"`
}
