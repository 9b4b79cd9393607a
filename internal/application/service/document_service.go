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

// Sequence names and number formats for document numbering. Numbers are
// allocated from the database inside the creating transaction, never from
// an in-process counter.
const (
	proposalSequence = "proposal"
	billSequence     = "bill"
)

// CreateDocumentInput is the payload for creating a financial document.
type CreateDocumentInput struct {
	Kind            entity.DocumentKind `json:"kind"`
	ClientID        *int64              `json:"client_id,omitempty"`
	LeadID          *int64              `json:"lead_id,omitempty"`
	Currency        string              `json:"currency"`
	DiscountPercent float64             `json:"discount_percent"`
	DiscountAmount  float64             `json:"discount_amount"`
	TaxRate         float64             `json:"tax_rate"`
	TaxInclusive    bool                `json:"tax_inclusive"`
}

// SubmitInput configures the internal approval stage at submission time.
// An empty approver set means no internal approval is required and
// consensus is auto-satisfied.
type SubmitInput struct {
	ApproverIDs  []int64             `json:"approver_ids,omitempty"`
	ApprovalType entity.ApprovalType `json:"approval_type,omitempty"`
}

// DocumentService orchestrates the document lifecycle. Status changes go
// through the workflow machine's entry points only: explicit submission,
// the consensus engine's signals, the client token decision, and payment
// bookkeeping for bills.
type DocumentService interface {
	Create(ctx context.Context, input CreateDocumentInput) (*entity.FinancialDocument, error)
	Get(ctx context.Context, id int64) (*entity.FinancialDocument, error)
	Submit(ctx context.Context, documentID int64, input SubmitInput) (*entity.FinancialDocument, error)
	MarkPaid(ctx context.Context, documentID int64) error

	Advancer
}

type documentServiceImpl struct {
	docRepo         port.DocumentRepository
	clientRepo      port.ClientRepository
	leadRepo        port.LeadRepository
	userRepo        port.UserRepository
	seqRepo         port.SequenceRepository
	approvalRepo    port.ApprovalRepository
	tokens          TokenService
	notifier        port.Notifier
	txManager       port.TransactionManager
	defaultCurrency string
	logger          Logger
	now             func() time.Time
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	docRepo port.DocumentRepository,
	clientRepo port.ClientRepository,
	leadRepo port.LeadRepository,
	userRepo port.UserRepository,
	seqRepo port.SequenceRepository,
	approvalRepo port.ApprovalRepository,
	tokens TokenService,
	notifier port.Notifier,
	txManager port.TransactionManager,
	defaultCurrency string,
	logger Logger,
) DocumentService {
	return &documentServiceImpl{
		docRepo:         docRepo,
		clientRepo:      clientRepo,
		leadRepo:        leadRepo,
		userRepo:        userRepo,
		seqRepo:         seqRepo,
		approvalRepo:    approvalRepo,
		tokens:          tokens,
		notifier:        notifier,
		txManager:       txManager,
		defaultCurrency: defaultCurrency,
		logger:          logger,
		now:             time.Now,
	}
}

// Create validates ownership and numbering rules and stores a new draft.
func (s *documentServiceImpl) Create(ctx context.Context, input CreateDocumentInput) (*entity.FinancialDocument, error) {
	if input.Kind != entity.KindProposal && input.Kind != entity.KindBill {
		return nil, fault.Validation("kind", "must be PROPOSAL or BILL")
	}
	if input.DiscountPercent < 0 || input.DiscountPercent > 100 {
		return nil, fault.Validation("discount_percent", "must be between 0 and 100")
	}
	if input.DiscountAmount < 0 || input.TaxRate < 0 {
		return nil, fault.Validation("discount_amount/tax_rate", "must not be negative")
	}

	doc := &entity.FinancialDocument{
		Kind:            input.Kind,
		ClientID:        input.ClientID,
		LeadID:          input.LeadID,
		Currency:        input.Currency,
		DiscountPercent: input.DiscountPercent,
		DiscountAmount:  input.DiscountAmount,
		TaxRate:         input.TaxRate,
		TaxInclusive:    input.TaxInclusive,
		Status:          workflow.StateDraft.String(),
		ClientDecision:  entity.ClientDecisionPending,
	}
	if !doc.HasOwner() {
		if doc.Kind == entity.KindBill {
			return nil, fault.Validation("client_id", "bills require a client")
		}
		return nil, fault.Validation("client_id/lead_id", "exactly one of client or lead is required")
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.resolveOwner(txCtx, doc); err != nil {
			return err
		}

		seq, format := billSequence, "INV-%04d"
		if doc.Kind == entity.KindProposal {
			seq, format = proposalSequence, "PRO-%04d"
		}
		n, err := s.seqRepo.Next(txCtx, seq)
		if err != nil {
			return fmt.Errorf("allocate document number: %w", err)
		}
		doc.Number = fmt.Sprintf(format, n)

		return s.docRepo.Create(txCtx, doc)
	})

	if err != nil {
		s.logger.Error("Failed to create document", "error", err, "kind", string(input.Kind))
		return nil, err
	}

	s.logger.Info("Document created", "id", doc.ID, "kind", string(doc.Kind), "number", doc.Number)
	return doc, nil
}

// Get retrieves a document by ID
func (s *documentServiceImpl) Get(ctx context.Context, id int64) (*entity.FinancialDocument, error) {
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get document", "error", err, "id", id)
		return nil, err
	}
	if doc == nil {
		return nil, fault.NotFound("document", id)
	}
	return doc, nil
}

// Submit moves a draft into the approval stage. With approvers given, the
// approval policy is pinned on the document and each approver is notified;
// with none, internal approval is skipped and consensus auto-satisfies.
func (s *documentServiceImpl) Submit(ctx context.Context, documentID int64, input SubmitInput) (*entity.FinancialDocument, error) {
	var doc *entity.FinancialDocument

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = s.docRepo.GetByID(txCtx, documentID)
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}
		if doc == nil {
			return fault.NotFound("document", documentID)
		}

		required := len(input.ApproverIDs) > 0
		approvalType := input.ApprovalType
		if required {
			if approvalType == "" {
				approvalType = entity.ApprovalAll
			}
			switch approvalType {
			case entity.ApprovalAll, entity.ApprovalAny, entity.ApprovalMajority:
			default:
				return fault.Validation("approval_type", "must be ALL, ANY or MAJORITY")
			}
			for _, id := range input.ApproverIDs {
				user, err := s.userRepo.GetByID(txCtx, id)
				if err != nil {
					return fmt.Errorf("get approver: %w", err)
				}
				if user == nil {
					return fault.NotFound("user", id)
				}
			}
		}

		machine := s.machineFor(doc)
		if err := machine.Fire(txCtx, workflow.TriggerSubmit); err != nil {
			return err
		}

		// A resubmission starts a fresh approval round; decisions recorded
		// against the previous revision must not count in this one.
		if err := s.approvalRepo.DeleteByDocumentID(txCtx, doc.ID); err != nil {
			return fmt.Errorf("reset approval round: %w", err)
		}

		if err := s.docRepo.SetApprovalPolicy(txCtx, doc.ID, input.ApproverIDs, approvalType, required); err != nil {
			return fmt.Errorf("set approval policy: %w", err)
		}
		if err := s.docRepo.UpdateStatus(txCtx, doc.ID, machine.State().String()); err != nil {
			return fmt.Errorf("persist status: %w", err)
		}

		doc.Status = machine.State().String()
		doc.InternalApprovalRequired = required
		doc.RequiredApproverIDs = input.ApproverIDs
		doc.InternalApprovalType = approvalType

		if !required {
			// No internal stage: consensus is satisfied by submission.
			return s.OnConsensusSatisfied(txCtx, doc)
		}
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to submit document", "error", err, "document_id", documentID)
		return nil, err
	}

	s.logger.Info("Document submitted", "document_id", documentID, "status", doc.Status)
	s.AnnounceOutcome(ctx, documentID)
	return doc, nil
}

// MarkPaid records payment bookkeeping on an approved bill.
func (s *documentServiceImpl) MarkPaid(ctx context.Context, documentID int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		doc, err := s.docRepo.GetByID(txCtx, documentID)
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}
		if doc == nil {
			return fault.NotFound("document", documentID)
		}
		if doc.Kind != entity.KindBill {
			return fault.Policy("only bills can be marked paid")
		}

		machine := s.machineFor(doc)
		if err := machine.Fire(txCtx, workflow.TriggerMarkPaid); err != nil {
			return err
		}
		return s.docRepo.UpdateStatus(txCtx, doc.ID, machine.State().String())
	})

	if err != nil {
		s.logger.Error("Failed to mark document paid", "error", err, "document_id", documentID)
		return err
	}

	s.logger.Info("Document marked paid", "document_id", documentID)
	return nil
}

// OnConsensusSatisfied advances the document past internal approval.
// Proposals move to the client-decision stage and get a token; the
// shortcut path and bills land directly on APPROVED.
func (s *documentServiceImpl) OnConsensusSatisfied(ctx context.Context, doc *entity.FinancialDocument) error {
	if err := s.docRepo.SetApprovalsComplete(ctx, doc.ID, true); err != nil {
		return fmt.Errorf("mark approvals complete: %w", err)
	}

	machine := s.machineFor(doc)
	if err := machine.Fire(ctx, workflow.TriggerConsensusSatisfied); err != nil {
		return err
	}
	if err := s.docRepo.UpdateStatus(ctx, doc.ID, machine.State().String()); err != nil {
		return fmt.Errorf("persist status: %w", err)
	}
	doc.Status = machine.State().String()
	doc.InternalApprovalsComplete = true

	switch machine.State() {
	case workflow.StateApproved:
		if err := s.docRepo.SetApprovedAt(ctx, doc.ID, s.now()); err != nil {
			return fmt.Errorf("set approved time: %w", err)
		}
	case workflow.StatePendingClient:
		if _, _, err := s.tokens.Issue(ctx, doc.ID); err != nil {
			return err
		}
	}
	return nil
}

// OnConsensusVetoed reverts the document to draft. The approval records
// stay in place until the document is resubmitted.
func (s *documentServiceImpl) OnConsensusVetoed(ctx context.Context, doc *entity.FinancialDocument) error {
	machine := s.machineFor(doc)
	if err := machine.Fire(ctx, workflow.TriggerConsensusVetoed); err != nil {
		return err
	}
	if err := s.docRepo.UpdateStatus(ctx, doc.ID, machine.State().String()); err != nil {
		return fmt.Errorf("persist status: %w", err)
	}
	if err := s.docRepo.SetApprovalsComplete(ctx, doc.ID, false); err != nil {
		return fmt.Errorf("clear approvals complete: %w", err)
	}
	doc.Status = machine.State().String()
	doc.InternalApprovalsComplete = false
	return nil
}

// AnnounceOutcome dispatches the notifications owed for the document's
// committed state. Send failures are logged and dropped; they never undo
// the state change that triggered them.
func (s *documentServiceImpl) AnnounceOutcome(ctx context.Context, documentID int64) {
	// Bounded, detached from the request's cancellation.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil || doc == nil {
		s.logger.Error("Failed to load document for notification", "error", err, "document_id", documentID)
		return
	}

	switch workflow.State(doc.Status) {
	case workflow.StateSubmitted:
		for _, approverID := range doc.RequiredApproverIDs {
			user, err := s.userRepo.GetByID(ctx, approverID)
			if err != nil || user == nil {
				continue
			}
			if err := s.notifier.SendApprovalRequest(ctx, user.Email, doc, ""); err != nil {
				s.logger.Error("Failed to send approval request", "error", err,
					"document_id", doc.ID, "recipient", user.Email)
			}
		}

	case workflow.StatePendingClient:
		recipient, err := s.ownerEmail(ctx, doc)
		if err != nil {
			s.logger.Error("Failed to resolve client recipient", "error", err, "document_id", doc.ID)
			return
		}
		if err := s.notifier.SendApprovalRequest(ctx, recipient, doc, doc.ApprovalToken); err != nil {
			s.logger.Error("Failed to send client approval request", "error", err,
				"document_id", doc.ID, "recipient", recipient)
		}

	case workflow.StateApproved, workflow.StateDraft:
		decision := entity.DecisionApproved
		if workflow.State(doc.Status) == workflow.StateDraft {
			if !doc.InternalApprovalRequired || len(doc.RequiredApproverIDs) == 0 {
				return // plain draft, nothing to announce
			}
			decision = entity.DecisionRejected
		}
		for _, approverID := range doc.RequiredApproverIDs {
			user, err := s.userRepo.GetByID(ctx, approverID)
			if err != nil || user == nil {
				continue
			}
			if err := s.notifier.SendDecisionNotice(ctx, user.Email, doc, decision, doc.ClientDecisionReason); err != nil {
				s.logger.Error("Failed to send decision notice", "error", err,
					"document_id", doc.ID, "recipient", user.Email)
			}
		}
	}
}

func (s *documentServiceImpl) machineFor(doc *entity.FinancialDocument) workflow.Machine {
	if doc.Kind == entity.KindBill {
		return workflow.BillMachine(workflow.State(doc.Status))
	}
	return workflow.ProposalMachine(workflow.State(doc.Status), doc.InternalApprovalRequired)
}

func (s *documentServiceImpl) resolveOwner(ctx context.Context, doc *entity.FinancialDocument) error {
	if doc.ClientID != nil {
		client, err := s.clientRepo.GetByID(ctx, *doc.ClientID)
		if err != nil {
			return fmt.Errorf("get client: %w", err)
		}
		if client == nil {
			return fault.NotFound("client", *doc.ClientID)
		}
		if doc.Currency == "" {
			doc.Currency = client.Currency
		}
	}
	if doc.LeadID != nil {
		lead, err := s.leadRepo.GetByID(ctx, *doc.LeadID)
		if err != nil {
			return fmt.Errorf("get lead: %w", err)
		}
		if lead == nil {
			return fault.NotFound("lead", *doc.LeadID)
		}
	}
	if doc.Currency == "" {
		doc.Currency = s.defaultCurrency
	}
	return nil
}

func (s *documentServiceImpl) ownerEmail(ctx context.Context, doc *entity.FinancialDocument) (string, error) {
	if doc.ClientID != nil {
		client, err := s.clientRepo.GetByID(ctx, *doc.ClientID)
		if err != nil {
			return "", err
		}
		if client == nil {
			return "", fault.NotFound("client", *doc.ClientID)
		}
		return client.Email, nil
	}
	if doc.LeadID != nil {
		lead, err := s.leadRepo.GetByID(ctx, *doc.LeadID)
		if err != nil {
			return "", err
		}
		if lead == nil {
			return "", fault.NotFound("lead", *doc.LeadID)
		}
		return lead.Email, nil
	}
	return "", fault.Policy("document has no owner to notify")
}
