package model

import (
	"time"

	"github.com/google/uuid"
)

// Balances - текущие остатки по корзинам залогового билета.
// Вычисляются из условий билета и истории неотмененных платежей,
// никогда не бывают отрицательными.
type Balances struct {
	Principal     int64 `json:"principal_balance"`
	Interest      int64 `json:"interest_balance"`
	ExtensionFees int64 `json:"extension_fees_balance"`
	OverdueFee    int64 `json:"overdue_fee_balance"`
}

// Total - суммарный остаток к погашению
func (b Balances) Total() int64 {
	return b.Principal + b.Interest + b.ExtensionFees + b.OverdueFee
}

type BalanceResponse struct {
	TransactionID  uuid.UUID `json:"transaction_id"`
	CurrentBalance int64     `json:"current_balance"`
	Balances
	AsOf time.Time `json:"as_of"`
}

// Allocation - разбивка суммы платежа по корзинам.
// Инвариант: сумма долей равна сумме платежа.
type Allocation struct {
	PrincipalPortion int64 `json:"principal_portion"`
	InterestPortion  int64 `json:"interest_portion"`
	ExtensionPortion int64 `json:"extension_portion"`
	OverduePortion   int64 `json:"overdue_portion"`
}

func (a Allocation) Total() int64 {
	return a.PrincipalPortion + a.InterestPortion + a.ExtensionPortion + a.OverduePortion
}

type AllocationResult struct {
	TransactionID uuid.UUID  `json:"transaction_id"`
	Amount        int64      `json:"amount"`
	Allocation    Allocation `json:"allocation"`
	NewBalance    int64      `json:"new_balance"`
	WillBePaidOff bool       `json:"will_be_paid_off"`
}

// DiscountBreakdown - результат проверки/применения скидки.
// Проверка (dry-run) и применение используют один и тот же расчет.
type DiscountBreakdown struct {
	IsValid             bool   `json:"is_valid"`
	Reason              string `json:"reason,omitempty"`
	CashAmount          int64  `json:"cash_amount"`
	DiscountAmount      int64  `json:"discount_amount"`
	DiscountOnInterest  int64  `json:"discount_on_interest"`
	DiscountOnPrincipal int64  `json:"discount_on_principal"`
	EffectivePayment    int64  `json:"effective_payment"`
	NewBalance          int64  `json:"new_balance"`
	IsFinalPayment      bool   `json:"is_final_payment"`
}
