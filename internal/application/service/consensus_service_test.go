package service

import (
	"context"
	"errors"
	"testing"

	"github.com/praxisdesk/praxisdesk/internal/domain/entity"
	"github.com/praxisdesk/praxisdesk/internal/domain/fault"
	"github.com/praxisdesk/praxisdesk/internal/domain/workflow"
)

func submittedDoc(approverIDs []int64, approvalType entity.ApprovalType) *entity.FinancialDocument {
	return &entity.FinancialDocument{
		ID:                       1,
		Kind:                     entity.KindProposal,
		Number:                   "PRO-0001",
		Status:                   workflow.StateSubmitted.String(),
		InternalApprovalRequired: true,
		RequiredApproverIDs:      approverIDs,
		InternalApprovalType:     approvalType,
		ClientDecision:           entity.ClientDecisionPending,
	}
}

func newConsensusFixture(doc *entity.FinancialDocument, users ...*entity.User) (ConsensusService, *mockApprovalRepo, *mockAdvancer) {
	approvalRepo := newMockApprovalRepo()
	advancer := &mockAdvancer{}
	svc := NewConsensusService(
		newMockDocRepo(doc),
		approvalRepo,
		newMockUserRepo(users...),
		&mockTxManager{},
		advancer,
		mockLogger{},
	)
	return svc, approvalRepo, advancer
}

func TestConsensusService_AllPolicy(t *testing.T) {
	doc := submittedDoc([]int64{10, 11}, entity.ApprovalAll)
	svc, _, advancer := newConsensusFixture(doc)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, doc.ID, 10, entity.DecisionApproved, ""); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(advancer.satisfied) != 0 {
		t.Fatalf("consensus satisfied after 1 of 2 approvals")
	}

	status, err := svc.Status(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Approved != 1 || status.Required != 2 || status.Satisfied {
		t.Fatalf("Status() = %+v, want 1/2 unsatisfied", status)
	}

	if _, err := svc.Submit(ctx, doc.ID, 11, entity.DecisionApproved, "lgtm"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(advancer.satisfied) != 1 {
		t.Fatalf("consensus not satisfied after all approvals")
	}
	if len(advancer.announced) != 2 {
		t.Fatalf("AnnounceOutcome called %d times, want 2", len(advancer.announced))
	}
}

func TestConsensusService_AllPolicyVeto(t *testing.T) {
	doc := submittedDoc([]int64{10, 11, 12}, entity.ApprovalAll)
	svc, _, advancer := newConsensusFixture(doc)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, doc.ID, 10, entity.DecisionApproved, ""); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := svc.Submit(ctx, doc.ID, 11, entity.DecisionRejected, "too expensive"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if len(advancer.vetoed) != 1 {
		t.Fatalf("single rejection under ALL must veto")
	}
	if len(advancer.satisfied) != 0 {
		t.Fatalf("vetoed document must not be satisfied")
	}
}

func TestConsensusService_AnyPolicy(t *testing.T) {
	doc := submittedDoc([]int64{10, 11}, entity.ApprovalAny)
	svc, _, advancer := newConsensusFixture(doc)
	ctx := context.Background()

	// A rejection never vetoes under ANY.
	if _, err := svc.Submit(ctx, doc.ID, 10, entity.DecisionRejected, "no"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(advancer.vetoed) != 0 {
		t.Fatalf("rejection under ANY must not veto")
	}

	if _, err := svc.Submit(ctx, doc.ID, 11, entity.DecisionApproved, ""); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(advancer.satisfied) != 1 {
		t.Fatalf("one approval must satisfy ANY")
	}
}

func TestConsensusService_MajorityPolicy(t *testing.T) {
	doc := submittedDoc([]int64{10, 11, 12}, entity.ApprovalMajority)
	svc, _, advancer := newConsensusFixture(doc)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, doc.ID, 12, entity.DecisionRejected, "no"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(advancer.vetoed) != 0 {
		t.Fatalf("rejection under MAJORITY must not veto")
	}

	if _, err := svc.Submit(ctx, doc.ID, 10, entity.DecisionApproved, ""); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(advancer.satisfied) != 0 {
		t.Fatalf("1 of 3 approvals must not satisfy MAJORITY")
	}

	if _, err := svc.Submit(ctx, doc.ID, 11, entity.DecisionApproved, ""); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(advancer.satisfied) != 1 {
		t.Fatalf("2 of 3 approvals must satisfy MAJORITY")
	}
}

func TestConsensusService_IdempotentResubmission(t *testing.T) {
	doc := submittedDoc([]int64{10, 11}, entity.ApprovalAll)
	svc, approvalRepo, _ := newConsensusFixture(doc)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, doc.ID, 10, entity.DecisionRejected, "first pass"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := svc.Submit(ctx, doc.ID, 10, entity.DecisionApproved, "changed my mind"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	records, _ := approvalRepo.GetByDocumentID(ctx, doc.ID)
	if len(records) != 1 {
		t.Fatalf("got %d records for one approver, want 1", len(records))
	}
	if records[0].Decision != entity.DecisionApproved {
		t.Fatalf("record decision = %s, want latest (APPROVED)", records[0].Decision)
	}

	status, _ := svc.Status(ctx, doc.ID)
	if status.Approved != 1 || status.Rejected != 0 {
		t.Fatalf("Status() = %+v, only the latest decision may count", status)
	}
}

func TestConsensusService_Authorization(t *testing.T) {
	doc := submittedDoc([]int64{10}, entity.ApprovalAll)
	svc, _, advancer := newConsensusFixture(doc,
		&entity.User{ID: 20, Email: "staff@praxis.test"},
		&entity.User{ID: 21, Email: "partner@praxis.test", CanApproveAll: true},
	)
	ctx := context.Background()

	_, err := svc.Submit(ctx, doc.ID, 20, entity.DecisionApproved, "")
	if !errors.Is(err, fault.ErrAuthorization) {
		t.Fatalf("Submit() by outsider error = %v, want ErrAuthorization", err)
	}

	// The override permission admits the decision but it does not count
	// toward the required set.
	if _, err := svc.Submit(ctx, doc.ID, 21, entity.DecisionApproved, "override"); err != nil {
		t.Fatalf("Submit() by override approver error = %v", err)
	}
	if len(advancer.satisfied) != 0 {
		t.Fatalf("override approval must not satisfy the policy")
	}

	status, _ := svc.Status(ctx, doc.ID)
	if status.Approved != 0 {
		t.Fatalf("override approval counted toward policy: %+v", status)
	}
}

func TestConsensusService_RejectsWrongState(t *testing.T) {
	doc := submittedDoc([]int64{10}, entity.ApprovalAll)
	doc.Status = workflow.StateDraft.String()
	svc, _, _ := newConsensusFixture(doc)

	_, err := svc.Submit(context.Background(), doc.ID, 10, entity.DecisionApproved, "")
	if !errors.Is(err, fault.ErrPolicyViolation) {
		t.Fatalf("Submit() on draft error = %v, want ErrPolicyViolation", err)
	}
}

func TestConsensusService_RejectsBadDecision(t *testing.T) {
	doc := submittedDoc([]int64{10}, entity.ApprovalAll)
	svc, _, _ := newConsensusFixture(doc)

	_, err := svc.Submit(context.Background(), doc.ID, 10, "MAYBE", "")
	if !errors.Is(err, fault.ErrValidation) {
		t.Fatalf("Submit() with bad decision error = %v, want ErrValidation", err)
	}
}
