package model

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditPaymentCreated     AuditAction = "payment_created"
	AuditPaymentVoided      AuditAction = "payment_voided"
	AuditDiscountApplied    AuditAction = "discount_applied"
	AuditExtensionCreated   AuditAction = "extension_created"
	AuditExtensionCancelled AuditAction = "extension_cancelled"
	AuditOverdueFeeSet      AuditAction = "overdue_fee_set"
	AuditTransactionForfeit AuditAction = "transaction_forfeited"
	AuditTransactionSold    AuditAction = "transaction_sold"
	AuditCountersFixed      AuditAction = "counters_fixed"
	AuditUserCreated        AuditAction = "user_created"
)

// AuditEntry - запись журнала действий. Журнал только дополняется,
// по нему же считается суточный лимит отмен на билет.
type AuditEntry struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	UserID        uuid.UUID   `json:"user_id" db:"user_id"`
	Action        AuditAction `json:"action" db:"action"`
	EntityType    string      `json:"entity_type" db:"entity_type"`
	EntityID      uuid.UUID   `json:"entity_id" db:"entity_id"`
	TransactionID *uuid.UUID  `json:"transaction_id" db:"transaction_id"`
	Reason        string      `json:"reason" db:"reason"`
	Details       string      `json:"details" db:"details"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

// ReversalActions - действия, учитываемые в суточном лимите отмен
var ReversalActions = []AuditAction{AuditPaymentVoided, AuditExtensionCancelled}
