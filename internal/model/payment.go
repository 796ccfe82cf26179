package model

import (
	"time"

	"github.com/google/uuid"
)

// Payment - платеж по залоговому билету. Запись неизменяемая:
// отмененный платеж помечается is_voided и навсегда исключается
// из расчета баланса, но физически не удаляется.
type Payment struct {
	ID            uuid.UUID `json:"id" db:"id"`
	TransactionID uuid.UUID `json:"transaction_id" db:"transaction_id"`
	Amount        int64     `json:"amount" db:"amount"` // наличные + скидка
	CashAmount    int64     `json:"cash_amount" db:"cash_amount"`
	PaymentDate   time.Time `json:"payment_date" db:"payment_date"`

	// Разбивка платежа по корзинам (waterfall)
	PrincipalPortion int64 `json:"principal_portion" db:"principal_portion"`
	InterestPortion  int64 `json:"interest_portion" db:"interest_portion"`
	ExtensionPortion int64 `json:"extension_portion" db:"extension_portion"`
	OverduePortion   int64 `json:"overdue_portion" db:"overdue_portion"`

	// Скидка (только при полном выкупе, сначала на проценты)
	DiscountAmount      int64      `json:"discount_amount" db:"discount_amount"`
	DiscountOnInterest  int64      `json:"discount_on_interest" db:"discount_on_interest"`
	DiscountOnPrincipal int64      `json:"discount_on_principal" db:"discount_on_principal"`
	DiscountReason      string     `json:"discount_reason" db:"discount_reason"`
	DiscountApprovedBy  *uuid.UUID `json:"discount_approved_by" db:"discount_approved_by"`

	// Отмена платежа (void)
	IsVoided   bool       `json:"is_voided" db:"is_voided"`
	VoidedBy   *uuid.UUID `json:"voided_by" db:"voided_by"`
	VoidReason string     `json:"void_reason" db:"void_reason"`
	VoidedAt   *time.Time `json:"voided_at" db:"voided_at"`

	CreatedBy uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Counted - единственный предикат учета платежа в балансе.
// Любая фильтрация отмененных платежей в памяти обязана идти через него.
func (p *Payment) Counted() bool {
	return !p.IsVoided
}

type PaymentRequest struct {
	TransactionID uuid.UUID `json:"transaction_id" validate:"required"`
	Amount        int64     `json:"amount" validate:"required,gt=0"`
}

type DiscountRequest struct {
	TransactionID  uuid.UUID `json:"transaction_id" validate:"required"`
	CashAmount     int64     `json:"cash_amount" validate:"gte=0"`
	DiscountAmount int64     `json:"discount_amount" validate:"required,gt=0"`
	Reason         string    `json:"reason" validate:"required"`
	AdminPIN       string    `json:"admin_pin" validate:"required"`
}

type VoidPaymentRequest struct {
	Reason   string `json:"reason" validate:"required"`
	AdminPIN string `json:"admin_pin" validate:"required"`
}
