package port

import (
	"context"
	"time"

	"github.com/praxisdesk/praxisdesk/internal/domain/entity"
)

// TransactionManager scopes a read-modify-write section to one atomic unit
// of work. Nested calls join the surrounding transaction. Every totals
// recompute and every consensus evaluation runs inside WithTransaction so a
// concurrent writer cannot interleave with the read-compute-write cycle.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// DocumentRepository defines persistence operations for FinancialDocument
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.FinancialDocument) error
	GetByID(ctx context.Context, id int64) (*entity.FinancialDocument, error)
	UpdateTotals(ctx context.Context, id int64, subtotal, amount float64) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	SetApprovalPolicy(ctx context.Context, id int64, approverIDs []int64, approvalType entity.ApprovalType, required bool) error
	SetApprovalsComplete(ctx context.Context, id int64, complete bool) error
	SetApprovedAt(ctx context.Context, id int64, t time.Time) error
	SetApprovalToken(ctx context.Context, id int64, token string, expiry time.Time) error
	SetClientDecision(ctx context.Context, id int64, decision, reason string) error
}

// LineItemRepository defines persistence operations for LineItem
type LineItemRepository interface {
	Create(ctx context.Context, item *entity.LineItem) error
	GetByID(ctx context.Context, id int64) (*entity.LineItem, error)
	GetByDocumentID(ctx context.Context, documentID int64) ([]*entity.LineItem, error)
	GetBySourceTimesheetID(ctx context.Context, timesheetID int64) (*entity.LineItem, error)
	Update(ctx context.Context, item *entity.LineItem) error
	Delete(ctx context.Context, id int64) error
}

// ApprovalRepository defines persistence operations for ApprovalRecord.
// Upsert keeps at most one record per (document, approver) pair.
// DeleteByDocumentID resets an approval round; only resubmission of a
// reverted document uses it, never the consensus engine.
type ApprovalRepository interface {
	Upsert(ctx context.Context, record *entity.ApprovalRecord) error
	GetByDocumentID(ctx context.Context, documentID int64) ([]*entity.ApprovalRecord, error)
	DeleteByDocumentID(ctx context.Context, documentID int64) error
}

// TimesheetRepository defines persistence operations for TimesheetEntry
type TimesheetRepository interface {
	Create(ctx context.Context, e *entity.TimesheetEntry) error
	GetByID(ctx context.Context, id int64) (*entity.TimesheetEntry, error)
	GetUnbilledByClientID(ctx context.Context, clientID int64) ([]*entity.TimesheetEntry, error)
	SetBilled(ctx context.Context, id int64, billed bool) error
}

// ChargeRepository defines persistence operations for Charge
type ChargeRepository interface {
	Create(ctx context.Context, c *entity.Charge) error
	GetByID(ctx context.Context, id int64) (*entity.Charge, error)
	SetBilled(ctx context.Context, id int64, billed bool) error
}

// ClientRepository defines persistence operations for Client
type ClientRepository interface {
	Create(ctx context.Context, c *entity.Client) error
	GetByID(ctx context.Context, id int64) (*entity.Client, error)
}

// LeadRepository defines persistence operations for Lead
type LeadRepository interface {
	Create(ctx context.Context, l *entity.Lead) error
	GetByID(ctx context.Context, id int64) (*entity.Lead, error)
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}

// SequenceRepository allocates gapless per-name counters for document
// numbering. Next must run inside the caller's transaction.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}
