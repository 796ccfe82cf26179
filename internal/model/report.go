package model

import (
	"time"

	"github.com/google/uuid"
)

// ReversalEligibility - результат проверки права на отмену.
// Проверка консультативная: перед фиксацией отмены она выполняется повторно.
type ReversalEligibility struct {
	IsEligible    bool    `json:"is_eligible"`
	Reason        string  `json:"reason,omitempty"`
	HoursElapsed  float64 `json:"hours_elapsed"`
	ReversalsUsed int     `json:"reversals_used_today"`
}

// FieldMismatch - расхождение одного счетчика клиента
type FieldMismatch struct {
	Field    string `json:"field"`
	Cached   int64  `json:"cached"`
	Computed int64  `json:"computed"`
}

// ConsistencyReport - отчет сверки счетчиков одного клиента
type ConsistencyReport struct {
	Phone        string          `json:"phone"`
	IsConsistent bool            `json:"is_consistent"`
	Mismatches   []FieldMismatch `json:"mismatches,omitempty"`
	Fixed        bool            `json:"fixed"`
	CheckedAt    time.Time       `json:"checked_at"`
}

// BatchConsistencyReport - итог пакетной сверки всех клиентов
type BatchConsistencyReport struct {
	TotalChecked       int       `json:"total_checked"`
	Consistent         int       `json:"consistent"`
	Fixed              int       `json:"fixed"`
	StillInconsistent  int       `json:"still_inconsistent"`
	Failed             int       `json:"failed"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
}

// DailyCashStats - кассовый отчет за день
type DailyCashStats struct {
	Date           string `json:"date"`
	PaymentsCount  int    `json:"payments_count"`
	CashCollected  int64  `json:"cash_collected"`
	DiscountsGiven int64  `json:"discounts_given"`
	VoidedCount    int    `json:"voided_count"`
	VoidedAmount   int64  `json:"voided_amount"`
}

// LoanBookStats - состояние кредитного портфеля по статусам
type LoanBookStats struct {
	ByStatus       map[string]LoanStatusStats `json:"by_status"`
	TotalLoans     int                        `json:"total_loans"`
	TotalPrincipal int64                      `json:"total_principal"`
}

type LoanStatusStats struct {
	Count     int   `json:"count"`
	Principal int64 `json:"principal"`
}

// MetalRate - котировка драгметалла для оценки залога
type MetalRate struct {
	Code  string  `json:"code"` // Au, Ag, Pt, Pd
	Name  string  `json:"name"`
	Date  string  `json:"date"`
	Price float64 `json:"price"` // за грамм
}

// AppraisalSuggestion - рекомендованная сумма ссуды по оценке металла
type AppraisalSuggestion struct {
	Metal          string  `json:"metal"`
	WeightGrams    float64 `json:"weight_grams"`
	RatePerGram    float64 `json:"rate_per_gram"`
	MarketValue    int64   `json:"market_value"`
	SuggestedLoan  int64   `json:"suggested_loan"` // доля от рыночной стоимости
	TransactionRef *uuid.UUID `json:"transaction_ref,omitempty"`
}
