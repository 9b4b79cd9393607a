package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/praxisdesk/praxisdesk/internal/application/port"
	"github.com/praxisdesk/praxisdesk/internal/domain/entity"
	"github.com/praxisdesk/praxisdesk/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// DocumentRepository implements port.DocumentRepository
type DocumentRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new financial document repository
func NewDocumentRepository(db *sqlite.DB, logger *zap.Logger) port.DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

const documentColumns = `
	id, kind, number, client_id, lead_id, currency,
	subtotal, discount_percent, discount_amount, tax_rate, tax_inclusive, amount,
	status, internal_approval_required, required_approver_ids, internal_approval_type,
	internal_approvals_complete, approved_at,
	client_decision, client_decision_reason, approval_token, approval_token_expiry,
	created_at, updated_at
`

// Create inserts a new financial document
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.FinancialDocument) error {
	approvers, err := marshalApprovers(doc.RequiredApproverIDs)
	if err != nil {
		return err
	}
	approvalType := doc.InternalApprovalType
	if approvalType == "" {
		approvalType = entity.ApprovalAll
	}

	query := `
		INSERT INTO financial_documents (
			kind, number, client_id, lead_id, currency,
			subtotal, discount_percent, discount_amount, tax_rate, tax_inclusive, amount,
			status, internal_approval_required, required_approver_ids, internal_approval_type,
			client_decision
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		string(doc.Kind),
		doc.Number,
		doc.ClientID,
		doc.LeadID,
		doc.Currency,
		doc.Subtotal,
		doc.DiscountPercent,
		doc.DiscountAmount,
		doc.TaxRate,
		doc.TaxInclusive,
		doc.Amount,
		doc.Status,
		doc.InternalApprovalRequired,
		approvers,
		string(approvalType),
		entity.ClientDecisionPending,
	)
	if err != nil {
		r.logger.Error("Failed to create document", zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	doc.ID = id
	return nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*entity.FinancialDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM financial_documents WHERE id = ?`

	var (
		doc         entity.FinancialDocument
		kind        string
		approvers   string
		approvalTyp string
		approvedAt  sql.NullTime
		tokenExpiry sql.NullTime
	)

	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&kind,
		&doc.Number,
		&doc.ClientID,
		&doc.LeadID,
		&doc.Currency,
		&doc.Subtotal,
		&doc.DiscountPercent,
		&doc.DiscountAmount,
		&doc.TaxRate,
		&doc.TaxInclusive,
		&doc.Amount,
		&doc.Status,
		&doc.InternalApprovalRequired,
		&approvers,
		&approvalTyp,
		&doc.InternalApprovalsComplete,
		&approvedAt,
		&doc.ClientDecision,
		&doc.ClientDecisionReason,
		&doc.ApprovalToken,
		&tokenExpiry,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get document by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	doc.Kind = entity.DocumentKind(kind)
	doc.InternalApprovalType = entity.ApprovalType(approvalTyp)
	if err := json.Unmarshal([]byte(approvers), &doc.RequiredApproverIDs); err != nil {
		return nil, fmt.Errorf("failed to decode approver set: %w", err)
	}
	if approvedAt.Valid {
		doc.ApprovedAt = &approvedAt.Time
	}
	if tokenExpiry.Valid {
		doc.ApprovalTokenExpiry = &tokenExpiry.Time
	}

	return &doc, nil
}

// UpdateTotals persists the recomputed subtotal and derived total
func (r *DocumentRepository) UpdateTotals(ctx context.Context, id int64, subtotal, amount float64) error {
	return r.exec(ctx, "update totals",
		`UPDATE financial_documents SET subtotal = ?, amount = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		subtotal, amount, id)
}

// UpdateStatus persists a lifecycle state decided by the workflow machine
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.exec(ctx, "update status",
		`UPDATE financial_documents SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id)
}

// SetApprovalPolicy pins the approver set and consensus policy
func (r *DocumentRepository) SetApprovalPolicy(ctx context.Context, id int64, approverIDs []int64, approvalType entity.ApprovalType, required bool) error {
	approvers, err := marshalApprovers(approverIDs)
	if err != nil {
		return err
	}
	if approvalType == "" {
		approvalType = entity.ApprovalAll
	}
	return r.exec(ctx, "set approval policy",
		`UPDATE financial_documents
		 SET required_approver_ids = ?, internal_approval_type = ?, internal_approval_required = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		approvers, string(approvalType), required, id)
}

// SetApprovalsComplete flips the engine-owned consensus flag
func (r *DocumentRepository) SetApprovalsComplete(ctx context.Context, id int64, complete bool) error {
	return r.exec(ctx, "set approvals complete",
		`UPDATE financial_documents SET internal_approvals_complete = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		complete, id)
}

// SetApprovedAt records when the document reached APPROVED
func (r *DocumentRepository) SetApprovedAt(ctx context.Context, id int64, t time.Time) error {
	return r.exec(ctx, "set approved time",
		`UPDATE financial_documents SET approved_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		t, id)
}

// SetApprovalToken stores the client approval capability and its expiry
func (r *DocumentRepository) SetApprovalToken(ctx context.Context, id int64, token string, expiry time.Time) error {
	return r.exec(ctx, "set approval token",
		`UPDATE financial_documents SET approval_token = ?, approval_token_expiry = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		token, expiry, id)
}

// SetClientDecision records the external party's decision
func (r *DocumentRepository) SetClientDecision(ctx context.Context, id int64, decision, reason string) error {
	return r.exec(ctx, "set client decision",
		`UPDATE financial_documents SET client_decision = ?, client_decision_reason = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		decision, reason, id)
}

func (r *DocumentRepository) exec(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Document update failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to %s: document not found", op)
	}
	return nil
}

func marshalApprovers(ids []int64) (string, error) {
	if ids == nil {
		ids = []int64{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode approver set: %w", err)
	}
	return string(raw), nil
}

// Verify interface compliance
var _ port.DocumentRepository = (*DocumentRepository)(nil)
