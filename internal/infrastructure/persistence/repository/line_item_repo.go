package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/praxisdesk/praxisdesk/internal/application/port"
	"github.com/praxisdesk/praxisdesk/internal/domain/entity"
	"github.com/praxisdesk/praxisdesk/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// LineItemRepository implements port.LineItemRepository
type LineItemRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewLineItemRepository creates a new line item repository
func NewLineItemRepository(db *sqlite.DB, logger *zap.Logger) port.LineItemRepository {
	return &LineItemRepository{
		db:     db,
		logger: logger,
	}
}

const lineItemColumns = `
	id, document_id, kind, description, quantity, rate, discount, amount, credit,
	source_timesheet_id, source_charge_id, is_manually_edited, created_at, updated_at
`

// Create inserts a new line item
func (r *LineItemRepository) Create(ctx context.Context, item *entity.LineItem) error {
	query := `
		INSERT INTO line_items (
			document_id, kind, description, quantity, rate, discount, amount, credit,
			source_timesheet_id, source_charge_id, is_manually_edited
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		item.DocumentID,
		string(item.Kind),
		item.Description,
		item.Quantity,
		item.Rate,
		item.Discount,
		item.Amount,
		item.Credit,
		item.SourceTimesheetID,
		item.SourceChargeID,
		item.IsManuallyEdited,
	)
	if err != nil {
		r.logger.Error("Failed to create line item", zap.Int64("document_id", item.DocumentID), zap.Error(err))
		return fmt.Errorf("failed to create line item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	return nil
}

// GetByID retrieves a line item by ID
func (r *LineItemRepository) GetByID(ctx context.Context, id int64) (*entity.LineItem, error) {
	query := `SELECT ` + lineItemColumns + ` FROM line_items WHERE id = ?`

	item, err := r.scanItem(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get line item by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get line item: %w", err)
	}
	return item, nil
}

// GetByDocumentID lists a document's line items in insertion order
func (r *LineItemRepository) GetByDocumentID(ctx context.Context, documentID int64) ([]*entity.LineItem, error) {
	query := `SELECT ` + lineItemColumns + ` FROM line_items WHERE document_id = ? ORDER BY id`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, documentID)
	if err != nil {
		r.logger.Error("Failed to list line items", zap.Int64("document_id", documentID), zap.Error(err))
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}
	defer rows.Close()

	var items []*entity.LineItem
	for rows.Next() {
		item, err := r.scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetBySourceTimesheetID finds the line item derived from a timesheet entry,
// if any.
func (r *LineItemRepository) GetBySourceTimesheetID(ctx context.Context, timesheetID int64) (*entity.LineItem, error) {
	query := `SELECT ` + lineItemColumns + ` FROM line_items WHERE source_timesheet_id = ?`

	item, err := r.scanItem(r.db.Executor(ctx).QueryRowContext(ctx, query, timesheetID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get line item by timesheet", zap.Int64("timesheet_id", timesheetID), zap.Error(err))
		return nil, fmt.Errorf("failed to get line item: %w", err)
	}
	return item, nil
}

// Update persists the item's editable fields
func (r *LineItemRepository) Update(ctx context.Context, item *entity.LineItem) error {
	query := `
		UPDATE line_items
		SET description = ?, quantity = ?, rate = ?, discount = ?, amount = ?,
		    credit = ?, is_manually_edited = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		item.Description,
		item.Quantity,
		item.Rate,
		item.Discount,
		item.Amount,
		item.Credit,
		item.IsManuallyEdited,
		item.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update line item", zap.Int64("id", item.ID), zap.Error(err))
		return fmt.Errorf("failed to update line item: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update line item: not found")
	}
	return nil
}

// Delete removes a line item
func (r *LineItemRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx, `DELETE FROM line_items WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete line item", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete line item: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to delete line item: not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *LineItemRepository) scanItem(row rowScanner) (*entity.LineItem, error) {
	var (
		item entity.LineItem
		kind string
	)
	err := row.Scan(
		&item.ID,
		&item.DocumentID,
		&kind,
		&item.Description,
		&item.Quantity,
		&item.Rate,
		&item.Discount,
		&item.Amount,
		&item.Credit,
		&item.SourceTimesheetID,
		&item.SourceChargeID,
		&item.IsManuallyEdited,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Kind = entity.ItemKind(kind)
	return &item, nil
}

// Verify interface compliance
var _ port.LineItemRepository = (*LineItemRepository)(nil)
