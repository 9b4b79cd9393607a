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

// ClientRepository implements port.ClientRepository
type ClientRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *sqlite.DB, logger *zap.Logger) port.ClientRepository {
	return &ClientRepository{db: db, logger: logger}
}

// Create inserts a new client
func (r *ClientRepository) Create(ctx context.Context, c *entity.Client) error {
	query := `INSERT INTO clients (name, email, currency) VALUES (?, ?, ?)`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, c.Name, c.Email, c.Currency)
	if err != nil {
		r.logger.Error("Failed to create client", zap.Error(err))
		return fmt.Errorf("failed to create client: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	c.ID = id
	return nil
}

// GetByID retrieves a client by ID
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*entity.Client, error) {
	query := `SELECT id, name, email, currency, created_at, updated_at FROM clients WHERE id = ?`

	var c entity.Client
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.Currency, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get client", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &c, nil
}

// LeadRepository implements port.LeadRepository
type LeadRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *sqlite.DB, logger *zap.Logger) port.LeadRepository {
	return &LeadRepository{db: db, logger: logger}
}

// Create inserts a new lead
func (r *LeadRepository) Create(ctx context.Context, l *entity.Lead) error {
	query := `INSERT INTO leads (name, email) VALUES (?, ?)`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, l.Name, l.Email)
	if err != nil {
		r.logger.Error("Failed to create lead", zap.Error(err))
		return fmt.Errorf("failed to create lead: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	l.ID = id
	return nil
}

// GetByID retrieves a lead by ID
func (r *LeadRepository) GetByID(ctx context.Context, id int64) (*entity.Lead, error) {
	query := `SELECT id, name, email, created_at FROM leads WHERE id = ?`

	var l entity.Lead
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(&l.ID, &l.Name, &l.Email, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get lead", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return &l, nil
}

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlite.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	query := `INSERT INTO users (name, email, can_approve_all) VALUES (?, ?, ?)`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, u.Name, u.Email, u.CanApproveAll)
	if err != nil {
		r.logger.Error("Failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	u.ID = id
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT id, name, email, can_approve_all, created_at FROM users WHERE id = ?`

	var u entity.User
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.CanApproveAll, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// Verify interface compliance
var (
	_ port.ClientRepository = (*ClientRepository)(nil)
	_ port.LeadRepository   = (*LeadRepository)(nil)
	_ port.UserRepository   = (*UserRepository)(nil)
)
