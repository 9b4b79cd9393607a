package service

import (
	"context"
	"fmt"
	"time"

	"github.com/praxisdesk/praxisdesk/internal/application/port"
	"github.com/praxisdesk/praxisdesk/internal/domain/entity"
	"github.com/praxisdesk/praxisdesk/internal/domain/fault"
	"github.com/praxisdesk/praxisdesk/internal/domain/workflow"
)

// Advancer is the document lifecycle surface the consensus engine signals
// into. It is implemented by DocumentService; the consensus engine itself
// never touches document status directly.
type Advancer interface {
	// OnConsensusSatisfied advances the document past internal approval.
	// Runs inside the caller's transaction.
	OnConsensusSatisfied(ctx context.Context, doc *entity.FinancialDocument) error

	// OnConsensusVetoed reverts the document to draft. Runs inside the
	// caller's transaction.
	OnConsensusVetoed(ctx context.Context, doc *entity.FinancialDocument) error

	// AnnounceOutcome dispatches any notifications owed for the document's
	// current state. Called after commit; failures are logged, not returned.
	AnnounceOutcome(ctx context.Context, documentID int64)
}

// ConsensusService records internal approval decisions and evaluates the
// document's consensus policy after every upsert.
//
// Veto rule: a rejection vetoes only under the ALL policy. Under ANY and
// MAJORITY a rejection is recorded but never blocks later satisfaction;
// consensus under those policies only counts approvals.
type ConsensusService interface {
	Submit(ctx context.Context, documentID, approverID int64, decision, comments string) (*entity.ApprovalRecord, error)
	Status(ctx context.Context, documentID int64) (*entity.ConsensusStatus, error)
}

type consensusServiceImpl struct {
	docRepo      port.DocumentRepository
	approvalRepo port.ApprovalRepository
	userRepo     port.UserRepository
	txManager    port.TransactionManager
	advancer     Advancer
	logger       Logger
	now          func() time.Time
}

// NewConsensusService creates a new ConsensusService
func NewConsensusService(
	docRepo port.DocumentRepository,
	approvalRepo port.ApprovalRepository,
	userRepo port.UserRepository,
	txManager port.TransactionManager,
	advancer Advancer,
	logger Logger,
) ConsensusService {
	return &consensusServiceImpl{
		docRepo:      docRepo,
		approvalRepo: approvalRepo,
		userRepo:     userRepo,
		txManager:    txManager,
		advancer:     advancer,
		logger:       logger,
		now:          time.Now,
	}
}

// Submit upserts the approver's decision and re-evaluates the policy. A
// resubmission updates the existing record; only the latest decision
// counts.
func (s *consensusServiceImpl) Submit(ctx context.Context, documentID, approverID int64, decision, comments string) (*entity.ApprovalRecord, error) {
	if decision != entity.DecisionApproved && decision != entity.DecisionRejected {
		return nil, fault.Validation("decision", "must be APPROVED or REJECTED")
	}

	var record *entity.ApprovalRecord

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		doc, err := s.docRepo.GetByID(txCtx, documentID)
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}
		if doc == nil {
			return fault.NotFound("document", documentID)
		}
		if doc.Status != workflow.StateSubmitted.String() {
			return fault.Policy("document is not awaiting internal approval")
		}
		if !doc.InternalApprovalRequired {
			return fault.Policy("document does not require internal approval")
		}

		if err := s.authorize(txCtx, doc, approverID); err != nil {
			return err
		}

		record = &entity.ApprovalRecord{
			DocumentID: documentID,
			ApproverID: approverID,
			Decision:   decision,
			Comments:   comments,
			DecidedAt:  s.now(),
		}
		if err := s.approvalRepo.Upsert(txCtx, record); err != nil {
			return fmt.Errorf("upsert approval record: %w", err)
		}

		records, err := s.approvalRepo.GetByDocumentID(txCtx, documentID)
		if err != nil {
			return fmt.Errorf("load approval records: %w", err)
		}

		status := evaluate(doc, records)
		switch {
		case status.Vetoed:
			return s.advancer.OnConsensusVetoed(txCtx, doc)
		case status.Satisfied:
			return s.advancer.OnConsensusSatisfied(txCtx, doc)
		}
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to submit approval decision", "error", err,
			"document_id", documentID, "approver_id", approverID)
		return nil, err
	}

	s.logger.Info("Approval decision recorded",
		"document_id", documentID, "approver_id", approverID, "decision", decision)

	// The consensus outcome is already committed; notification failures
	// must not undo it.
	s.advancer.AnnounceOutcome(ctx, documentID)

	return record, nil
}

// Status evaluates the current consensus position without mutating anything.
func (s *consensusServiceImpl) Status(ctx context.Context, documentID int64) (*entity.ConsensusStatus, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, fault.NotFound("document", documentID)
	}

	records, err := s.approvalRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load approval records: %w", err)
	}

	status := evaluate(doc, records)
	return &status, nil
}

// authorize rejects approvers outside the required set unless they hold
// the standing override permission.
func (s *consensusServiceImpl) authorize(ctx context.Context, doc *entity.FinancialDocument, approverID int64) error {
	if doc.IsRequiredApprover(approverID) {
		return nil
	}

	user, err := s.userRepo.GetByID(ctx, approverID)
	if err != nil {
		return fmt.Errorf("get approver: %w", err)
	}
	if user == nil {
		return fault.NotFound("user", approverID)
	}
	if !user.CanApproveAll {
		return fmt.Errorf("%w: user %d is not a required approver for document %d",
			fault.ErrAuthorization, approverID, doc.ID)
	}
	return nil
}

// evaluate counts decisions of required approvers and applies the policy.
// Decisions from override approvers outside the required set are recorded
// for audit but do not count toward the policy.
func evaluate(doc *entity.FinancialDocument, records []*entity.ApprovalRecord) entity.ConsensusStatus {
	status := entity.ConsensusStatus{Required: len(doc.RequiredApproverIDs)}

	for _, r := range records {
		if !doc.IsRequiredApprover(r.ApproverID) {
			continue
		}
		switch r.Decision {
		case entity.DecisionApproved:
			status.Approved++
		case entity.DecisionRejected:
			status.Rejected++
		}
	}

	switch doc.InternalApprovalType {
	case entity.ApprovalAll:
		status.Vetoed = status.Rejected > 0
		status.Satisfied = !status.Vetoed && status.Required > 0 && status.Approved == status.Required
	case entity.ApprovalAny:
		status.Satisfied = status.Approved >= 1
	case entity.ApprovalMajority:
		status.Satisfied = status.Approved*2 > status.Required
	}

	return status
}
