package model

import (
	"time"

	"github.com/google/uuid"
)

type TransactionStatus string

const (
	StatusActive    TransactionStatus = "active"    // залог действует
	StatusOverdue   TransactionStatus = "overdue"   // просрочен (истек льготный период)
	StatusExtended  TransactionStatus = "extended"  // срок продлен
	StatusRedeemed  TransactionStatus = "redeemed"  // выкуплен, залог закрыт
	StatusForfeited TransactionStatus = "forfeited" // имущество обращено в собственность ломбарда
	StatusSold      TransactionStatus = "sold"      // имущество реализовано
)

// IsTerminal - терминальные статусы не допускают платежей, скидок и продлений
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusRedeemed || s == StatusForfeited || s == StatusSold
}

// Transaction - залоговый билет (ссуда под залог).
// Все денежные поля хранятся в целых долларах, без плавающей точки.
type Transaction struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	TicketNumber    string            `json:"ticket_number" db:"ticket_number"`
	CustomerPhone   string            `json:"customer_phone" db:"customer_phone"`
	Principal       int64             `json:"principal" db:"principal"`               // сумма ссуды
	InterestRate    float64           `json:"interest_rate" db:"interest_rate"`       // процент в месяц
	MonthlyInterest int64             `json:"monthly_interest" db:"monthly_interest"` // начисление за месяц, фиксируется при выдаче
	PawnDate        time.Time         `json:"pawn_date" db:"pawn_date"`
	MaturityDate    time.Time         `json:"maturity_date" db:"maturity_date"`
	GracePeriodEnd  time.Time         `json:"grace_period_end" db:"grace_period_end"`
	ExtensionFees   int64             `json:"extension_fees" db:"extension_fees"` // накопленные сборы за продления
	OverdueFee      int64             `json:"overdue_fee" db:"overdue_fee"`       // штраф, назначается вручную
	Status          TransactionStatus `json:"status" db:"status"`
	ItemDescription string            `json:"item_description" db:"item_description"`
	AppraisedValue  int64             `json:"appraised_value" db:"appraised_value"`
	CreatedBy       uuid.UUID         `json:"created_by" db:"created_by"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

type CreateTransactionRequest struct {
	CustomerPhone   string  `json:"customer_phone" validate:"required"`
	Principal       int64   `json:"principal" validate:"required,gt=0"`
	InterestRate    float64 `json:"interest_rate" validate:"required,gt=0,lte=30"`
	ItemDescription string  `json:"item_description" validate:"required"`
	AppraisedValue  int64   `json:"appraised_value" validate:"gte=0"`
	TermMonths      int     `json:"term_months" validate:"gte=1,lte=6"`
}

type SetOverdueFeeRequest struct {
	Amount   int64  `json:"amount" validate:"gte=0"`
	Reason   string `json:"reason" validate:"required"`
	AdminPIN string `json:"admin_pin" validate:"required"`
}

// AdminActionRequest - подтверждение административного действия PIN-кодом
type AdminActionRequest struct {
	Reason   string `json:"reason" validate:"required"`
	AdminPIN string `json:"admin_pin" validate:"required"`
}
