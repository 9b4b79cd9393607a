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

// TimesheetRepository implements port.TimesheetRepository
type TimesheetRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewTimesheetRepository creates a new timesheet entry repository
func NewTimesheetRepository(db *sqlite.DB, logger *zap.Logger) port.TimesheetRepository {
	return &TimesheetRepository{
		db:     db,
		logger: logger,
	}
}

const timesheetColumns = `id, client_id, assignee_id, work_date, hours, rate, notes, billed, created_at`

// Create inserts a new timesheet entry
func (r *TimesheetRepository) Create(ctx context.Context, e *entity.TimesheetEntry) error {
	query := `
		INSERT INTO timesheet_entries (client_id, assignee_id, work_date, hours, rate, notes, billed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		e.ClientID, e.AssigneeID, e.WorkDate, e.Hours, e.Rate, e.Notes, e.Billed)
	if err != nil {
		r.logger.Error("Failed to create timesheet entry", zap.Error(err))
		return fmt.Errorf("failed to create timesheet entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// GetByID retrieves a timesheet entry by ID
func (r *TimesheetRepository) GetByID(ctx context.Context, id int64) (*entity.TimesheetEntry, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheet_entries WHERE id = ?`

	var e entity.TimesheetEntry
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.ClientID, &e.AssigneeID, &e.WorkDate, &e.Hours, &e.Rate, &e.Notes, &e.Billed, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get timesheet entry", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get timesheet entry: %w", err)
	}
	return &e, nil
}

// GetUnbilledByClientID lists the client's entries not yet backing a line item
func (r *TimesheetRepository) GetUnbilledByClientID(ctx context.Context, clientID int64) ([]*entity.TimesheetEntry, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheet_entries WHERE client_id = ? AND billed = 0 ORDER BY work_date, id`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, clientID)
	if err != nil {
		r.logger.Error("Failed to list unbilled timesheet entries", zap.Int64("client_id", clientID), zap.Error(err))
		return nil, fmt.Errorf("failed to list unbilled timesheet entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.TimesheetEntry
	for rows.Next() {
		var e entity.TimesheetEntry
		if err := rows.Scan(&e.ID, &e.ClientID, &e.AssigneeID, &e.WorkDate, &e.Hours, &e.Rate, &e.Notes, &e.Billed, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan timesheet entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// SetBilled flips the entry's billed flag
func (r *TimesheetRepository) SetBilled(ctx context.Context, id int64, billed bool) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		`UPDATE timesheet_entries SET billed = ? WHERE id = ?`, billed, id)
	if err != nil {
		r.logger.Error("Failed to set timesheet billed flag", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set timesheet billed flag: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to set timesheet billed flag: not found")
	}
	return nil
}

// Verify interface compliance
var _ port.TimesheetRepository = (*TimesheetRepository)(nil)
