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

type CustomerRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewCustomerRepository(db *sql.DB, logger *logrus.Logger) *CustomerRepository {
	return &CustomerRepository{db: db, logger: logger}
}

const customerColumns = `id, phone, first_name, last_name, email, encrypted_document, document_hmac, status,
	active_loans, total_active_loan_value, total_transactions, total_paid,
	counters_fixed_by, counters_fixed_at, created_at, updated_at`

func (r *CustomerRepository) Create(ctx context.Context, customer *model.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		customer.ID,
		customer.Phone,
		customer.FirstName,
		customer.LastName,
		customer.Email,
		customer.EncryptedDocument,
		customer.DocumentHMAC,
		customer.Status,
		customer.ActiveLoans,
		customer.TotalActiveLoanValue,
		customer.TotalTransactions,
		customer.TotalPaid,
		customer.CountersFixedBy,
		customer.CountersFixedAt,
		customer.CreatedAt,
		customer.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" {
				return fmt.Errorf("customer with this phone already exists")
			}
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

func (r *CustomerRepository) scanCustomer(row interface {
	Scan(dest ...interface{}) error
}) (*model.Customer, error) {
	var customer model.Customer
	err := row.Scan(
		&customer.ID,
		&customer.Phone,
		&customer.FirstName,
		&customer.LastName,
		&customer.Email,
		&customer.EncryptedDocument,
		&customer.DocumentHMAC,
		&customer.Status,
		&customer.ActiveLoans,
		&customer.TotalActiveLoanValue,
		&customer.TotalTransactions,
		&customer.TotalPaid,
		&customer.CountersFixedBy,
		&customer.CountersFixedAt,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) GetByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE phone = $1`

	customer, err := r.scanCustomer(r.db.QueryRowContext(ctx, query, phone))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return customer, nil
}

func (r *CustomerRepository) Update(ctx context.Context, customer *model.Customer) error {
	query := `
		UPDATE customers
		SET first_name = $1,
		    last_name = $2,
		    email = $3,
		    status = $4,
		    updated_at = NOW()
		WHERE phone = $5
	`

	result, err := r.db.ExecContext(ctx, query, customer.FirstName, customer.LastName, customer.Email, customer.Status, customer.Phone)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCustomerNotFound
	}

	return nil
}

// UpdateCounters перезаписывает денормализованные счетчики клиента
// пересчитанными значениями и фиксирует, кто и когда выполнил сверку
func (r *CustomerRepository) UpdateCounters(
	ctx context.Context,
	phone string,
	activeLoans int,
	totalActiveLoanValue int64,
	totalTransactions int,
	totalPaid int64,
	fixedBy *uuid.UUID,
	fixedAt *time.Time,
) error {
	query := `
		UPDATE customers
		SET active_loans = $1,
		    total_active_loan_value = $2,
		    total_transactions = $3,
		    total_paid = $4,
		    counters_fixed_by = $5,
		    counters_fixed_at = $6,
		    updated_at = NOW()
		WHERE phone = $7
	`

	result, err := r.db.ExecContext(ctx, query,
		activeLoans, totalActiveLoanValue, totalTransactions, totalPaid, fixedBy, fixedAt, phone)
	if err != nil {
		return fmt.Errorf("failed to update customer counters: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCustomerNotFound
	}

	return nil
}

// ApplyPaymentDelta корректирует счетчик выплат клиента внутри SQL-транзакции.
// Обновление инкрементное и выполняется по принципу "последняя запись побеждает" -
// точность восстанавливает валидатор согласованности.
func (r *CustomerRepository) ApplyPaymentDelta(ctx context.Context, tx *sql.Tx, phone string, paidDelta int64) error {
	query := `
		UPDATE customers
		SET total_paid = total_paid + $1,
		    updated_at = NOW()
		WHERE phone = $2
	`

	_, err := tx.ExecContext(ctx, query, paidDelta, phone)
	if err != nil {
		return fmt.Errorf("failed to apply payment delta: %w", err)
	}

	return nil
}

// ApplyLoanDelta корректирует счетчики активных залогов клиента внутри SQL-транзакции
func (r *CustomerRepository) ApplyLoanDelta(ctx context.Context, tx *sql.Tx, phone string, activeDelta int, valueDelta int64, transactionsDelta int) error {
	query := `
		UPDATE customers
		SET active_loans = active_loans + $1,
		    total_active_loan_value = total_active_loan_value + $2,
		    total_transactions = total_transactions + $3,
		    updated_at = NOW()
		WHERE phone = $4
	`

	_, err := tx.ExecContext(ctx, query, activeDelta, valueDelta, transactionsDelta, phone)
	if err != nil {
		return fmt.Errorf("failed to apply loan delta: %w", err)
	}

	return nil
}

// ListPhones возвращает телефоны всех клиентов для пакетной сверки.
// limit <= 0 означает без ограничения.
func (r *CustomerRepository) ListPhones(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT phone FROM customers ORDER BY created_at`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+` LIMIT $1`, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query customer phones: %w", err)
	}
	defer rows.Close()

	var phones []string
	for rows.Next() {
		var phone string
		if err := rows.Scan(&phone); err != nil {
			return nil, fmt.Errorf("failed to scan phone: %w", err)
		}
		phones = append(phones, phone)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate phones: %w", err)
	}

	return phones, nil
}
