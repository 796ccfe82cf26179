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

type AuditRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewAuditRepository(db *sql.DB, logger *logrus.Logger) *AuditRepository {
	return &AuditRepository{db: db, logger: logger}
}

const auditColumns = `id, user_id, action, entity_type, entity_id, transaction_id, reason, details, created_at`

func (r *AuditRepository) Create(ctx context.Context, entry *model.AuditEntry) error {
	query := `
		INSERT INTO audit_log (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.TransactionID,
		entry.Reason,
		entry.Details,
		entry.CreatedAt,
	)

	if err != nil {
		r.logger.WithError(err).Error("Ошибка записи в журнал аудита")
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

// CreateTx пишет запись аудита внутри уже открытой SQL-транзакции
func (r *AuditRepository) CreateTx(ctx context.Context, tx *sql.Tx, entry *model.AuditEntry) error {
	query := `
		INSERT INTO audit_log (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.TransactionID,
		entry.Reason,
		entry.Details,
		entry.CreatedAt,
	)

	if err != nil {
		r.logger.WithError(err).Error("Ошибка записи в журнал аудита")
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

// CountReversalsSince считает отмены по билету начиная с указанного момента
// (обычно с начала текущих суток UTC) - для суточного лимита отмен
func (r *AuditRepository) CountReversalsSince(ctx context.Context, transactionID uuid.UUID, since time.Time) (int, error) {
	actions := make([]string, 0, len(model.ReversalActions))
	for _, a := range model.ReversalActions {
		actions = append(actions, string(a))
	}

	query := `
		SELECT COUNT(*)
		FROM audit_log
		WHERE transaction_id = $1 AND action = ANY($2) AND created_at >= $3
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, transactionID, pq.Array(actions), since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reversals: %w", err)
	}

	return count, nil
}

// List возвращает последние записи журнала (для администратора)
func (r *AuditRepository) List(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `SELECT ` + auditColumns + ` FROM audit_log ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Action,
			&e.EntityType,
			&e.EntityID,
			&e.TransactionID,
			&e.Reason,
			&e.Details,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}

	return entries, nil
}
