package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/MintShards/pawn-repo-sub002/internal/model"
)

type TransactionRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewTransactionRepository(db *sql.DB, logger *logrus.Logger) *TransactionRepository {
	return &TransactionRepository{db: db, logger: logger}
}

const transactionColumns = `id, ticket_number, customer_phone, principal, interest_rate, monthly_interest,
	pawn_date, maturity_date, grace_period_end, extension_fees, overdue_fee, status,
	item_description, appraised_value, created_by, created_at, updated_at`

func (r *TransactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	r.logger.WithFields(logrus.Fields{
		"transaction_id": tx.ID,
		"ticket_number":  tx.TicketNumber,
		"customer_phone": tx.CustomerPhone,
		"principal":      tx.Principal,
	}).Info("Создание залогового билета")

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		tx.ID,
		tx.TicketNumber,
		tx.CustomerPhone,
		tx.Principal,
		tx.InterestRate,
		tx.MonthlyInterest,
		tx.PawnDate,
		tx.MaturityDate,
		tx.GracePeriodEnd,
		tx.ExtensionFees,
		tx.OverdueFee,
		tx.Status,
		tx.ItemDescription,
		tx.AppraisedValue,
		tx.CreatedBy,
		tx.CreatedAt,
		tx.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return fmt.Errorf("ticket number already exists")
			case "foreign_key_violation":
				return ErrCustomerNotFound
			}
		}
		r.logger.WithError(err).Error("Ошибка при создании залогового билета")
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *TransactionRepository) scanTransaction(row interface {
	Scan(dest ...interface{}) error
}) (*model.Transaction, error) {
	var tx model.Transaction
	err := row.Scan(
		&tx.ID,
		&tx.TicketNumber,
		&tx.CustomerPhone,
		&tx.Principal,
		&tx.InterestRate,
		&tx.MonthlyInterest,
		&tx.PawnDate,
		&tx.MaturityDate,
		&tx.GracePeriodEnd,
		&tx.ExtensionFees,
		&tx.OverdueFee,
		&tx.Status,
		&tx.ItemDescription,
		&tx.AppraisedValue,
		&tx.CreatedBy,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := r.scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return tx, nil
}

func (r *TransactionRepository) GetByCustomerPhone(ctx context.Context, phone string) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE customer_phone = $1 ORDER BY pawn_date DESC`

	rows, err := r.db.QueryContext(ctx, query, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		tx, err := r.scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

// UpdateStatus переводит билет в новый статус
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TransactionStatus) error {
	query := `
		UPDATE transactions
		SET status = $1,
		    updated_at = NOW()
		WHERE id = $2
	`

	_, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	return nil
}

// UpdateDates обновляет срок выкупа и конец льготного периода (продление/отмена продления)
func (r *TransactionRepository) UpdateDates(ctx context.Context, id uuid.UUID, maturity, graceEnd time.Time, extensionFees int64, status model.TransactionStatus) error {
	query := `
		UPDATE transactions
		SET maturity_date = $1,
		    grace_period_end = $2,
		    extension_fees = $3,
		    status = $4,
		    updated_at = NOW()
		WHERE id = $5
	`

	result, err := r.db.ExecContext(ctx, query, maturity, graceEnd, extensionFees, status, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction dates: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

// SetOverdueFee назначает штраф за просрочку (устанавливается вручную администратором)
func (r *TransactionRepository) SetOverdueFee(ctx context.Context, id uuid.UUID, amount int64) error {
	query := `
		UPDATE transactions
		SET overdue_fee = $1,
		    updated_at = NOW()
		WHERE id = $2
	`

	_, err := r.db.ExecContext(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to set overdue fee: %w", err)
	}

	return nil
}

// GetExpired возвращает билеты, у которых льготный период истек до указанной даты
func (r *TransactionRepository) GetExpired(ctx context.Context, before time.Time) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE status IN ('active', 'extended') AND grace_period_end < $1
		ORDER BY grace_period_end`

	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		tx, err := r.scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

// GetAll возвращает все билеты (для отчета по портфелю)
func (r *TransactionRepository) GetAll(ctx context.Context) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY pawn_date DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		tx, err := r.scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

func (r *TransactionRepository) GetDB() *sql.DB {
	return r.db
}
