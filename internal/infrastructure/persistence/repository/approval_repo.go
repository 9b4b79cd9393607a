package repository

import (
	"context"
	"fmt"

	"github.com/praxisdesk/praxisdesk/internal/application/port"
	"github.com/praxisdesk/praxisdesk/internal/domain/entity"
	"github.com/praxisdesk/praxisdesk/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ApprovalRepository implements port.ApprovalRepository
type ApprovalRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval record repository
func NewApprovalRepository(db *sqlite.DB, logger *zap.Logger) port.ApprovalRepository {
	return &ApprovalRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts the approver's decision or replaces their previous one.
// The UNIQUE(document_id, approver_id) index makes the replace atomic.
func (r *ApprovalRepository) Upsert(ctx context.Context, record *entity.ApprovalRecord) error {
	query := `
		INSERT INTO approval_records (document_id, approver_id, decision, comments, decided_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (document_id, approver_id) DO UPDATE SET
			decision = excluded.decision,
			comments = excluded.comments,
			decided_at = excluded.decided_at,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		record.DocumentID,
		record.ApproverID,
		record.Decision,
		record.Comments,
		record.DecidedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert approval record",
			zap.Int64("document_id", record.DocumentID),
			zap.Int64("approver_id", record.ApproverID),
			zap.Error(err))
		return fmt.Errorf("failed to upsert approval record: %w", err)
	}
	return nil
}

// GetByDocumentID lists all recorded decisions for a document
func (r *ApprovalRepository) GetByDocumentID(ctx context.Context, documentID int64) ([]*entity.ApprovalRecord, error) {
	query := `
		SELECT id, document_id, approver_id, decision, comments, decided_at, created_at, updated_at
		FROM approval_records
		WHERE document_id = ?
		ORDER BY id
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, documentID)
	if err != nil {
		r.logger.Error("Failed to list approval records", zap.Int64("document_id", documentID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approval records: %w", err)
	}
	defer rows.Close()

	var records []*entity.ApprovalRecord
	for rows.Next() {
		var rec entity.ApprovalRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.DocumentID,
			&rec.ApproverID,
			&rec.Decision,
			&rec.Comments,
			&rec.DecidedAt,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan approval record: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// DeleteByDocumentID removes every recorded decision for a document. Called
// when a reverted document is resubmitted, so a stale decision from the
// previous round cannot count against the new one.
func (r *ApprovalRepository) DeleteByDocumentID(ctx context.Context, documentID int64) error {
	query := `DELETE FROM approval_records WHERE document_id = ?`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, documentID)
	if err != nil {
		r.logger.Error("Failed to delete approval records",
			zap.Int64("document_id", documentID),
			zap.Error(err))
		return fmt.Errorf("failed to delete approval records: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.ApprovalRepository = (*ApprovalRepository)(nil)
