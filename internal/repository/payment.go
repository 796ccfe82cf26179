package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/MintShards/pawn-repo-sub002/internal/model"
)

type PaymentRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewPaymentRepository(db *sql.DB, logger *logrus.Logger) *PaymentRepository {
	return &PaymentRepository{db: db, logger: logger}
}

const paymentColumns = `id, transaction_id, amount, cash_amount, payment_date,
	principal_portion, interest_portion, extension_portion, overdue_portion,
	discount_amount, discount_on_interest, discount_on_principal, discount_reason, discount_approved_by,
	is_voided, voided_by, void_reason, voided_at, created_by, created_at`

func (r *PaymentRepository) CreateTx(ctx context.Context, tx *sql.Tx, payment *model.Payment) error {
	r.logger.WithFields(logrus.Fields{
		"payment_id":     payment.ID,
		"transaction_id": payment.TransactionID,
		"amount":         payment.Amount,
		"discount":       payment.DiscountAmount,
	}).Info("Создание записи о платеже")

	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		payment.ID,
		payment.TransactionID,
		payment.Amount,
		payment.CashAmount,
		payment.PaymentDate,
		payment.PrincipalPortion,
		payment.InterestPortion,
		payment.ExtensionPortion,
		payment.OverduePortion,
		payment.DiscountAmount,
		payment.DiscountOnInterest,
		payment.DiscountOnPrincipal,
		payment.DiscountReason,
		payment.DiscountApprovedBy,
		payment.IsVoided,
		payment.VoidedBy,
		payment.VoidReason,
		payment.VoidedAt,
		payment.CreatedBy,
		payment.CreatedAt,
	)

	if err != nil {
		r.logger.WithError(err).Error("Ошибка при создании платежа")
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

func (r *PaymentRepository) scanPayment(row interface {
	Scan(dest ...interface{}) error
}) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(
		&p.ID,
		&p.TransactionID,
		&p.Amount,
		&p.CashAmount,
		&p.PaymentDate,
		&p.PrincipalPortion,
		&p.InterestPortion,
		&p.ExtensionPortion,
		&p.OverduePortion,
		&p.DiscountAmount,
		&p.DiscountOnInterest,
		&p.DiscountOnPrincipal,
		&p.DiscountReason,
		&p.DiscountApprovedBy,
		&p.IsVoided,
		&p.VoidedBy,
		&p.VoidReason,
		&p.VoidedAt,
		&p.CreatedBy,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetCountedByTransaction возвращает неотмененные платежи билета
// в хронологическом порядке. Это ЕДИНСТВЕННЫЙ запрос, исключающий
// отмененные платежи - все расчеты баланса обязаны идти через него.
func (r *PaymentRepository) GetCountedByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE transaction_id = $1 AND is_voided = FALSE
		ORDER BY payment_date, created_at`

	return r.queryPayments(ctx, query, transactionID)
}

// GetAllByTransaction возвращает всю историю платежей, включая отмененные (для аудита и отчетов)
func (r *PaymentRepository) GetAllByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE transaction_id = $1
		ORDER BY payment_date, created_at`

	return r.queryPayments(ctx, query, transactionID)
}

func (r *PaymentRepository) queryPayments(ctx context.Context, query string, args ...interface{}) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := r.scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p, err := r.scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return p, nil
}

// Void помечает платеж отмененным. Запись не удаляется.
func (r *PaymentRepository) Void(ctx context.Context, tx *sql.Tx, id uuid.UUID, voidedBy uuid.UUID, reason string, voidedAt time.Time) error {
	query := `
		UPDATE payments
		SET is_voided = TRUE,
		    voided_by = $1,
		    void_reason = $2,
		    voided_at = $3
		WHERE id = $4 AND is_voided = FALSE
	`

	result, err := tx.ExecContext(ctx, query, voidedBy, reason, voidedAt, id)
	if err != nil {
		return fmt.Errorf("failed to void payment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("payment not found or already voided")
	}

	return nil
}

// GetByPeriod возвращает платежи за период [startDate, endDate) для кассового отчета.
// Верхняя граница не включается, вызывающий передает начало следующего дня.
func (r *PaymentRepository) GetByPeriod(ctx context.Context, startDate, endDate time.Time) ([]model.Payment, error) {
	r.logger.WithFields(logrus.Fields{
		"start_date": startDate.Format("2006-01-02"),
		"end_date":   endDate.Format("2006-01-02"),
	}).Debug("Запрос платежей за период")

	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE payment_date >= $1 AND payment_date < $2
		ORDER BY payment_date`

	return r.queryPayments(ctx, query, startDate, endDate)
}

func (r *PaymentRepository) GetDB() *sql.DB {
	return r.db
}
