package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/praxisdesk/praxisdesk/internal/domain/entity"
	"github.com/praxisdesk/praxisdesk/internal/domain/fault"
	"github.com/praxisdesk/praxisdesk/internal/domain/workflow"
)

func newTokenFixture(doc *entity.FinancialDocument, now time.Time) (*tokenServiceImpl, *mockDocRepo, *mockNotifier) {
	docRepo := newMockDocRepo(doc)
	notifier := &mockNotifier{}
	svc := &tokenServiceImpl{
		docRepo:   docRepo,
		userRepo:  newMockUserRepo(&entity.User{ID: 10, Email: "staff@praxis.test"}),
		txManager: &mockTxManager{},
		notifier:  notifier,
		logger:    mockLogger{},
		now:       func() time.Time { return now },
	}
	return svc, docRepo, notifier
}

func pendingClientDoc() *entity.FinancialDocument {
	return &entity.FinancialDocument{
		ID:                  1,
		Kind:                entity.KindProposal,
		Number:              "PRO-0001",
		Status:              workflow.StatePendingClient.String(),
		RequiredApproverIDs: []int64{10},
		ClientDecision:      entity.ClientDecisionPending,
	}
}

func TestTokenService_Issue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := pendingClientDoc()
	svc, docRepo, _ := newTokenFixture(doc, now)

	token, expiry, err := svc.Issue(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("token length = %d, want 64 hex chars (256 bits)", len(token))
	}
	if want := now.Add(TokenTTL); !expiry.Equal(want) {
		t.Fatalf("expiry = %v, want %v (30 days)", expiry, want)
	}
	stored := docRepo.docs[doc.ID]
	if stored.ApprovalToken != token {
		t.Fatalf("stored token does not match returned token")
	}
}

func TestTokenService_IssueRefusesBills(t *testing.T) {
	now := time.Now()
	doc := pendingClientDoc()
	doc.Kind = entity.KindBill
	svc, _, _ := newTokenFixture(doc, now)

	_, _, err := svc.Issue(context.Background(), doc.ID)
	if !errors.Is(err, fault.ErrPolicyViolation) {
		t.Fatalf("Issue() for bill error = %v, want ErrPolicyViolation", err)
	}
}

func TestTokenService_Validate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(TokenTTL)
	doc := pendingClientDoc()
	doc.ApprovalToken = "a1b2c3"
	doc.ApprovalTokenExpiry = &expiry

	tests := []struct {
		name      string
		presented string
		at        time.Time
		decided   string
		wantErr   error
	}{
		{name: "valid", presented: "a1b2c3", at: now, wantErr: nil},
		{name: "surrounding whitespace trimmed", presented: "  a1b2c3\n", at: now, wantErr: nil},
		{name: "empty", presented: "", at: now, wantErr: fault.ErrTokenInvalid},
		{name: "wrong token", presented: "a1b2c4", at: now, wantErr: fault.ErrTokenInvalid},
		{name: "case sensitive", presented: "A1B2C3", at: now, wantErr: fault.ErrTokenInvalid},
		{name: "expired", presented: "a1b2c3", at: expiry.Add(time.Second), wantErr: fault.ErrTokenExpired},
		{name: "already decided", presented: "a1b2c3", at: now, decided: entity.ClientDecisionApproved, wantErr: fault.ErrTokenAlreadyDecided},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := *doc
			if tt.decided != "" {
				d.ClientDecision = tt.decided
			}
			svc, _, _ := newTokenFixture(&d, tt.at)

			err := svc.Validate(context.Background(), d.ID, tt.presented)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTokenService_RecordDecisionApprove(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(TokenTTL)
	doc := pendingClientDoc()
	doc.ApprovalToken = "tok"
	doc.ApprovalTokenExpiry = &expiry
	svc, docRepo, notifier := newTokenFixture(doc, now)
	ctx := context.Background()

	if err := svc.RecordDecision(ctx, doc.ID, entity.DecisionApproved, ""); err != nil {
		t.Fatalf("RecordDecision() error = %v", err)
	}

	stored := docRepo.docs[doc.ID]
	if stored.Status != workflow.StateApproved.String() {
		t.Fatalf("status = %s, want APPROVED", stored.Status)
	}
	if stored.ClientDecision != entity.ClientDecisionApproved {
		t.Fatalf("client decision = %s, want APPROVED", stored.ClientDecision)
	}
	if stored.ApprovedAt == nil {
		t.Fatalf("approved_at not set")
	}
	if len(notifier.decisionNotices) != 1 {
		t.Fatalf("sent %d decision notices, want 1", len(notifier.decisionNotices))
	}

	// The token is consumed: a second decision must fail.
	err := svc.RecordDecision(ctx, doc.ID, entity.DecisionRejected, "changed my mind")
	if !errors.Is(err, fault.ErrTokenAlreadyDecided) {
		t.Fatalf("second RecordDecision() error = %v, want ErrTokenAlreadyDecided", err)
	}
}

func TestTokenService_RecordDecisionReject(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(TokenTTL)
	doc := pendingClientDoc()
	doc.ApprovalToken = "tok"
	doc.ApprovalTokenExpiry = &expiry
	svc, docRepo, notifier := newTokenFixture(doc, now)
	ctx := context.Background()

	err := svc.RecordDecision(ctx, doc.ID, entity.DecisionRejected, "  ")
	if !errors.Is(err, fault.ErrValidation) {
		t.Fatalf("RecordDecision() without reason error = %v, want ErrValidation", err)
	}

	if err := svc.RecordDecision(ctx, doc.ID, entity.DecisionRejected, "  scope too small\n"); err != nil {
		t.Fatalf("RecordDecision() error = %v", err)
	}

	stored := docRepo.docs[doc.ID]
	if stored.Status != workflow.StateRejected.String() {
		t.Fatalf("status = %s, want REJECTED", stored.Status)
	}
	if stored.ClientDecisionReason != "scope too small" {
		t.Fatalf("reason = %q, want recorded reason trimmed", stored.ClientDecisionReason)
	}
	if stored.ApprovedAt != nil {
		t.Fatalf("approved_at set on rejection")
	}

	// The staff notice carries the same trimmed reason as the stored one.
	if len(notifier.decisionNotices) != 1 {
		t.Fatalf("sent %d decision notices, want 1", len(notifier.decisionNotices))
	}
	if got := notifier.decisionNotices[0].reason; got != "scope too small" {
		t.Fatalf("notice reason = %q, want the trimmed reason", got)
	}
}

func TestTokenService_RecordDecisionExpired(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expiry := issued.Add(TokenTTL)
	doc := pendingClientDoc()
	doc.ApprovalToken = "tok"
	doc.ApprovalTokenExpiry = &expiry
	svc, _, _ := newTokenFixture(doc, expiry.Add(time.Hour))

	err := svc.RecordDecision(context.Background(), doc.ID, entity.DecisionApproved, "")
	if !errors.Is(err, fault.ErrTokenExpired) {
		t.Fatalf("RecordDecision() after expiry error = %v, want ErrTokenExpired", err)
	}
}
