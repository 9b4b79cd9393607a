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

// ChargeRepository implements port.ChargeRepository
type ChargeRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewChargeRepository creates a new charge repository
func NewChargeRepository(db *sqlite.DB, logger *zap.Logger) port.ChargeRepository {
	return &ChargeRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new charge
func (r *ChargeRepository) Create(ctx context.Context, c *entity.Charge) error {
	query := `INSERT INTO charges (client_id, description, amount, billed) VALUES (?, ?, ?, ?)`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, c.ClientID, c.Description, c.Amount, c.Billed)
	if err != nil {
		r.logger.Error("Failed to create charge", zap.Error(err))
		return fmt.Errorf("failed to create charge: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	c.ID = id
	return nil
}

// GetByID retrieves a charge by ID
func (r *ChargeRepository) GetByID(ctx context.Context, id int64) (*entity.Charge, error) {
	query := `SELECT id, client_id, description, amount, billed, created_at FROM charges WHERE id = ?`

	var c entity.Charge
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.ClientID, &c.Description, &c.Amount, &c.Billed, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get charge", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get charge: %w", err)
	}
	return &c, nil
}

// SetBilled flips the charge's billed flag
func (r *ChargeRepository) SetBilled(ctx context.Context, id int64, billed bool) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		`UPDATE charges SET billed = ? WHERE id = ?`, billed, id)
	if err != nil {
		r.logger.Error("Failed to set charge billed flag", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set charge billed flag: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to set charge billed flag: not found")
	}
	return nil
}

// Verify interface compliance
var _ port.ChargeRepository = (*ChargeRepository)(nil)
