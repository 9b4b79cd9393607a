package repository

import (
	"context"
	"fmt"

	"github.com/praxisdesk/praxisdesk/internal/application/port"
	"github.com/praxisdesk/praxisdesk/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// SequenceRepository implements port.SequenceRepository over a single-row
// counter table. Next must run inside the caller's transaction so the
// allocated number and the document insert commit or roll back together.
type SequenceRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewSequenceRepository creates a new sequence repository
func NewSequenceRepository(db *sqlite.DB, logger *zap.Logger) port.SequenceRepository {
	return &SequenceRepository{db: db, logger: logger}
}

// Next increments the named counter and returns its new value
func (r *SequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	query := `
		INSERT INTO document_sequences (name, value) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET value = value + 1
		RETURNING value
	`

	var value int64
	if err := r.db.Executor(ctx).QueryRowContext(ctx, query, name).Scan(&value); err != nil {
		r.logger.Error("Failed to allocate sequence number", zap.String("name", name), zap.Error(err))
		return 0, fmt.Errorf("failed to allocate sequence number: %w", err)
	}
	return value, nil
}

// Verify interface compliance
var _ port.SequenceRepository = (*SequenceRepository)(nil)
