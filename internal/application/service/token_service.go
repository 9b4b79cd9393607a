package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/praxisdesk/praxisdesk/internal/application/port"
	"github.com/praxisdesk/praxisdesk/internal/domain/entity"
	"github.com/praxisdesk/praxisdesk/internal/domain/fault"
	"github.com/praxisdesk/praxisdesk/internal/domain/workflow"
)

// TokenTTL is the fixed validity horizon of a client approval token.
const TokenTTL = 30 * 24 * time.Hour

const tokenBytes = 32

// TokenService mints and checks the single-use, time-boxed capability that
// lets an external client record one decision on a proposal without
// authenticating as a system user. The token is logically single-use: it is
// consumed by moving the document out of the pending client-decision state,
// not by deleting it.
type TokenService interface {
	Issue(ctx context.Context, documentID int64) (token string, expiry time.Time, err error)
	Validate(ctx context.Context, documentID int64, presented string) error
	RecordDecision(ctx context.Context, documentID int64, decision, reason string) error
}

type tokenServiceImpl struct {
	docRepo   port.DocumentRepository
	userRepo  port.UserRepository
	txManager port.TransactionManager
	notifier  port.Notifier
	logger    Logger
	now       func() time.Time
}

// NewTokenService creates a new TokenService
func NewTokenService(
	docRepo port.DocumentRepository,
	userRepo port.UserRepository,
	txManager port.TransactionManager,
	notifier port.Notifier,
	logger Logger,
) TokenService {
	return &tokenServiceImpl{
		docRepo:   docRepo,
		userRepo:  userRepo,
		txManager: txManager,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Issue generates a fresh token for the document and stores it with a
// 30-day expiry. Joins the caller's transaction when one is open.
func (s *tokenServiceImpl) Issue(ctx context.Context, documentID int64) (string, time.Time, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(buf)
	expiry := s.now().Add(TokenTTL)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		doc, err := s.docRepo.GetByID(txCtx, documentID)
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}
		if doc == nil {
			return fault.NotFound("document", documentID)
		}
		if doc.Kind != entity.KindProposal {
			return fault.Policy("client approval tokens are issued for proposals only")
		}
		return s.docRepo.SetApprovalToken(txCtx, documentID, token, expiry)
	})
	if err != nil {
		s.logger.Error("Failed to issue approval token", "error", err, "document_id", documentID)
		return "", time.Time{}, err
	}

	s.logger.Info("Approval token issued", "document_id", documentID, "expiry", expiry)
	return token, expiry, nil
}

// Validate checks the presented token against the stored one. The
// comparison is exact and case-sensitive after a whitespace trim, and runs
// in constant time.
func (s *tokenServiceImpl) Validate(ctx context.Context, documentID int64, presented string) error {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return fault.NotFound("document", documentID)
	}
	return s.check(doc, presented)
}

func (s *tokenServiceImpl) check(doc *entity.FinancialDocument, presented string) error {
	presented = strings.TrimSpace(presented)
	if doc.ApprovalToken == "" || presented == "" {
		return fault.ErrTokenInvalid
	}
	if subtle.ConstantTimeCompare([]byte(doc.ApprovalToken), []byte(presented)) != 1 {
		return fault.ErrTokenInvalid
	}
	if doc.ApprovalTokenExpiry == nil || s.now().After(*doc.ApprovalTokenExpiry) {
		return fault.ErrTokenExpired
	}
	if doc.ClientDecision != entity.ClientDecisionPending {
		return fault.ErrTokenAlreadyDecided
	}
	return nil
}

// RecordDecision records the client's decision and drives the proposal to
// its terminal state. A second call after a successful decision fails with
// AlreadyDecided. Rejection requires a non-empty reason.
func (s *tokenServiceImpl) RecordDecision(ctx context.Context, documentID int64, decision, reason string) error {
	if decision != entity.DecisionApproved && decision != entity.DecisionRejected {
		return fault.Validation("decision", "must be APPROVED or REJECTED")
	}
	reason = strings.TrimSpace(reason)
	if decision == entity.DecisionRejected && reason == "" {
		return fault.Validation("reason", "a rejection requires a reason")
	}

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
		// The caller validated the presented token already; re-check the
		// consumption state inside the transaction so two concurrent
		// decisions cannot both pass the pending check.
		if doc.ApprovalToken == "" {
			return fault.ErrTokenInvalid
		}
		if doc.ApprovalTokenExpiry == nil || s.now().After(*doc.ApprovalTokenExpiry) {
			return fault.ErrTokenExpired
		}
		if doc.ClientDecision != entity.ClientDecisionPending || doc.Status != workflow.StatePendingClient.String() {
			return fault.ErrTokenAlreadyDecided
		}

		machine := workflow.ProposalMachine(workflow.State(doc.Status), doc.InternalApprovalRequired)
		trigger := workflow.TriggerClientApprove
		clientDecision := entity.ClientDecisionApproved
		if decision == entity.DecisionRejected {
			trigger = workflow.TriggerClientReject
			clientDecision = entity.ClientDecisionRejected
		}
		if err := machine.Fire(txCtx, trigger); err != nil {
			return err
		}

		if err := s.docRepo.SetClientDecision(txCtx, documentID, clientDecision, reason); err != nil {
			return fmt.Errorf("record client decision: %w", err)
		}
		if err := s.docRepo.UpdateStatus(txCtx, documentID, machine.State().String()); err != nil {
			return fmt.Errorf("persist status: %w", err)
		}
		if machine.State() == workflow.StateApproved {
			if err := s.docRepo.SetApprovedAt(txCtx, documentID, s.now()); err != nil {
				return fmt.Errorf("set approved time: %w", err)
			}
		}

		doc.Status = machine.State().String()
		doc.ClientDecision = clientDecision
		doc.ClientDecisionReason = reason
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to record client decision", "error", err, "document_id", documentID)
		return err
	}

	s.logger.Info("Client decision recorded",
		"document_id", documentID, "decision", decision)

	// Decision is committed; a notice failure is logged and dropped.
	s.notifyStaff(ctx, doc, decision, reason)
	return nil
}

func (s *tokenServiceImpl) notifyStaff(ctx context.Context, doc *entity.FinancialDocument, decision, reason string) {
	for _, approverID := range doc.RequiredApproverIDs {
		user, err := s.userRepo.GetByID(ctx, approverID)
		if err != nil || user == nil {
			continue
		}
		if err := s.notifier.SendDecisionNotice(ctx, user.Email, doc, decision, reason); err != nil {
			s.logger.Error("Failed to send decision notice", "error", err,
				"document_id", doc.ID, "recipient", user.Email)
		}
	}
}
