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

type ExtensionRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewExtensionRepository(db *sql.DB, logger *logrus.Logger) *ExtensionRepository {
	return &ExtensionRepository{db: db, logger: logger}
}

const extensionColumns = `id, transaction_id, months, fee_per_month, total_fee,
	prior_maturity_date, prior_grace_end, new_maturity_date, new_grace_end,
	reason, created_by, created_at, is_cancelled, cancelled_by, cancel_reason, cancelled_at`

func (r *ExtensionRepository) CreateTx(ctx context.Context, tx *sql.Tx, ext *model.Extension) error {
	r.logger.WithFields(logrus.Fields{
		"extension_id":   ext.ID,
		"transaction_id": ext.TransactionID,
		"months":         ext.Months,
		"total_fee":      ext.TotalFee,
	}).Info("Создание записи о продлении")

	query := `
		INSERT INTO extensions (` + extensionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		ext.ID,
		ext.TransactionID,
		ext.Months,
		ext.FeePerMonth,
		ext.TotalFee,
		ext.PriorMaturityDate,
		ext.PriorGraceEnd,
		ext.NewMaturityDate,
		ext.NewGraceEnd,
		ext.Reason,
		ext.CreatedBy,
		ext.CreatedAt,
		ext.IsCancelled,
		ext.CancelledBy,
		ext.CancelReason,
		ext.CancelledAt,
	)

	if err != nil {
		r.logger.WithError(err).Error("Ошибка при создании продления")
		return fmt.Errorf("failed to create extension: %w", err)
	}

	return nil
}

func (r *ExtensionRepository) scanExtension(row interface {
	Scan(dest ...interface{}) error
}) (*model.Extension, error) {
	var e model.Extension
	err := row.Scan(
		&e.ID,
		&e.TransactionID,
		&e.Months,
		&e.FeePerMonth,
		&e.TotalFee,
		&e.PriorMaturityDate,
		&e.PriorGraceEnd,
		&e.NewMaturityDate,
		&e.NewGraceEnd,
		&e.Reason,
		&e.CreatedBy,
		&e.CreatedAt,
		&e.IsCancelled,
		&e.CancelledBy,
		&e.CancelReason,
		&e.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExtensionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Extension, error) {
	query := `SELECT ` + extensionColumns + ` FROM extensions WHERE id = $1`

	ext, err := r.scanExtension(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrExtensionNotFound
		}
		return nil, fmt.Errorf("failed to get extension: %w", err)
	}

	return ext, nil
}

func (r *ExtensionRepository) GetByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.Extension, error) {
	query := `SELECT ` + extensionColumns + ` FROM extensions
		WHERE transaction_id = $1
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query extensions: %w", err)
	}
	defer rows.Close()

	var extensions []model.Extension
	for rows.Next() {
		e, err := r.scanExtension(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan extension: %w", err)
		}
		extensions = append(extensions, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate extensions: %w", err)
	}

	return extensions, nil
}

// Cancel помечает продление отмененным. Запись не удаляется.
func (r *ExtensionRepository) Cancel(ctx context.Context, tx *sql.Tx, id uuid.UUID, cancelledBy uuid.UUID, reason string, cancelledAt time.Time) error {
	query := `
		UPDATE extensions
		SET is_cancelled = TRUE,
		    cancelled_by = $1,
		    cancel_reason = $2,
		    cancelled_at = $3
		WHERE id = $4 AND is_cancelled = FALSE
	`

	result, err := tx.ExecContext(ctx, query, cancelledBy, reason, cancelledAt, id)
	if err != nil {
		return fmt.Errorf("failed to cancel extension: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("extension not found or already cancelled")
	}

	return nil
}

func (r *ExtensionRepository) GetDB() *sql.DB {
	return r.db
}
