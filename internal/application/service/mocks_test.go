package service

import (
	"context"
	"sort"
	"time"

	"github.com/praxisdesk/praxisdesk/internal/domain/entity"
)

// In-memory fakes shared by the service tests. They keep just enough state
// for multi-step scenarios (submit, approve, decide) to compose.

type mockDocRepo struct {
	docs   map[int64]*entity.FinancialDocument
	nextID int64

	getByIDFunc func(ctx context.Context, id int64) (*entity.FinancialDocument, error)
}

func newMockDocRepo(docs ...*entity.FinancialDocument) *mockDocRepo {
	r := &mockDocRepo{docs: make(map[int64]*entity.FinancialDocument), nextID: 1}
	for _, d := range docs {
		if d.ID == 0 {
			d.ID = r.nextID
		}
		if d.ID >= r.nextID {
			r.nextID = d.ID + 1
		}
		r.docs[d.ID] = d
	}
	return r
}

func (r *mockDocRepo) Create(ctx context.Context, doc *entity.FinancialDocument) error {
	doc.ID = r.nextID
	r.nextID++
	r.docs[doc.ID] = doc
	return nil
}

func (r *mockDocRepo) GetByID(ctx context.Context, id int64) (*entity.FinancialDocument, error) {
	if r.getByIDFunc != nil {
		return r.getByIDFunc(ctx, id)
	}
	return r.docs[id], nil
}

func (r *mockDocRepo) UpdateTotals(ctx context.Context, id int64, subtotal, amount float64) error {
	d := r.docs[id]
	d.Subtotal = subtotal
	d.Amount = amount
	return nil
}

func (r *mockDocRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	r.docs[id].Status = status
	return nil
}

func (r *mockDocRepo) SetApprovalPolicy(ctx context.Context, id int64, approverIDs []int64, approvalType entity.ApprovalType, required bool) error {
	d := r.docs[id]
	d.RequiredApproverIDs = approverIDs
	d.InternalApprovalType = approvalType
	d.InternalApprovalRequired = required
	return nil
}

func (r *mockDocRepo) SetApprovalsComplete(ctx context.Context, id int64, complete bool) error {
	r.docs[id].InternalApprovalsComplete = complete
	return nil
}

func (r *mockDocRepo) SetApprovedAt(ctx context.Context, id int64, t time.Time) error {
	r.docs[id].ApprovedAt = &t
	return nil
}

func (r *mockDocRepo) SetApprovalToken(ctx context.Context, id int64, token string, expiry time.Time) error {
	d := r.docs[id]
	d.ApprovalToken = token
	d.ApprovalTokenExpiry = &expiry
	return nil
}

func (r *mockDocRepo) SetClientDecision(ctx context.Context, id int64, decision, reason string) error {
	d := r.docs[id]
	d.ClientDecision = decision
	d.ClientDecisionReason = reason
	return nil
}

type mockItemRepo struct {
	items  map[int64]*entity.LineItem
	nextID int64
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{items: make(map[int64]*entity.LineItem), nextID: 1}
}

func (r *mockItemRepo) Create(ctx context.Context, item *entity.LineItem) error {
	item.ID = r.nextID
	r.nextID++
	r.items[item.ID] = item
	return nil
}

func (r *mockItemRepo) GetByID(ctx context.Context, id int64) (*entity.LineItem, error) {
	return r.items[id], nil
}

func (r *mockItemRepo) GetByDocumentID(ctx context.Context, documentID int64) ([]*entity.LineItem, error) {
	var out []*entity.LineItem
	for id := int64(1); id < r.nextID; id++ {
		if item, ok := r.items[id]; ok && item.DocumentID == documentID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *mockItemRepo) GetBySourceTimesheetID(ctx context.Context, timesheetID int64) (*entity.LineItem, error) {
	for _, item := range r.items {
		if item.SourceTimesheetID != nil && *item.SourceTimesheetID == timesheetID {
			return item, nil
		}
	}
	return nil, nil
}

func (r *mockItemRepo) Update(ctx context.Context, item *entity.LineItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *mockItemRepo) Delete(ctx context.Context, id int64) error {
	delete(r.items, id)
	return nil
}

type mockApprovalRepo struct {
	records map[int64]map[int64]*entity.ApprovalRecord // documentID -> approverID
	order   map[int64][]int64                          // insertion order per document
}

func newMockApprovalRepo() *mockApprovalRepo {
	return &mockApprovalRepo{
		records: make(map[int64]map[int64]*entity.ApprovalRecord),
		order:   make(map[int64][]int64),
	}
}

func (r *mockApprovalRepo) Upsert(ctx context.Context, record *entity.ApprovalRecord) error {
	byApprover, ok := r.records[record.DocumentID]
	if !ok {
		byApprover = make(map[int64]*entity.ApprovalRecord)
		r.records[record.DocumentID] = byApprover
	}
	if _, seen := byApprover[record.ApproverID]; !seen {
		r.order[record.DocumentID] = append(r.order[record.DocumentID], record.ApproverID)
	}
	byApprover[record.ApproverID] = record
	return nil
}

func (r *mockApprovalRepo) DeleteByDocumentID(ctx context.Context, documentID int64) error {
	delete(r.records, documentID)
	delete(r.order, documentID)
	return nil
}

func (r *mockApprovalRepo) GetByDocumentID(ctx context.Context, documentID int64) ([]*entity.ApprovalRecord, error) {
	byApprover := r.records[documentID]
	var out []*entity.ApprovalRecord
	for _, approverID := range r.order[documentID] {
		if rec, ok := byApprover[approverID]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

type mockTimesheetRepo struct {
	entries map[int64]*entity.TimesheetEntry
}

func newMockTimesheetRepo(entries ...*entity.TimesheetEntry) *mockTimesheetRepo {
	r := &mockTimesheetRepo{entries: make(map[int64]*entity.TimesheetEntry)}
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return r
}

func (r *mockTimesheetRepo) Create(ctx context.Context, e *entity.TimesheetEntry) error {
	r.entries[e.ID] = e
	return nil
}

func (r *mockTimesheetRepo) GetByID(ctx context.Context, id int64) (*entity.TimesheetEntry, error) {
	return r.entries[id], nil
}

func (r *mockTimesheetRepo) GetUnbilledByClientID(ctx context.Context, clientID int64) ([]*entity.TimesheetEntry, error) {
	ids := make([]int64, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*entity.TimesheetEntry
	for _, id := range ids {
		if e := r.entries[id]; e.ClientID == clientID && !e.Billed {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *mockTimesheetRepo) SetBilled(ctx context.Context, id int64, billed bool) error {
	r.entries[id].Billed = billed
	return nil
}

type mockChargeRepo struct {
	charges map[int64]*entity.Charge
}

func newMockChargeRepo(charges ...*entity.Charge) *mockChargeRepo {
	r := &mockChargeRepo{charges: make(map[int64]*entity.Charge)}
	for _, c := range charges {
		r.charges[c.ID] = c
	}
	return r
}

func (r *mockChargeRepo) Create(ctx context.Context, c *entity.Charge) error {
	r.charges[c.ID] = c
	return nil
}

func (r *mockChargeRepo) GetByID(ctx context.Context, id int64) (*entity.Charge, error) {
	return r.charges[id], nil
}

func (r *mockChargeRepo) SetBilled(ctx context.Context, id int64, billed bool) error {
	r.charges[id].Billed = billed
	return nil
}

type mockClientRepo struct {
	clients map[int64]*entity.Client
}

func newMockClientRepo(clients ...*entity.Client) *mockClientRepo {
	r := &mockClientRepo{clients: make(map[int64]*entity.Client)}
	for _, c := range clients {
		r.clients[c.ID] = c
	}
	return r
}

func (r *mockClientRepo) Create(ctx context.Context, c *entity.Client) error {
	r.clients[c.ID] = c
	return nil
}

func (r *mockClientRepo) GetByID(ctx context.Context, id int64) (*entity.Client, error) {
	return r.clients[id], nil
}

type mockLeadRepo struct {
	leads map[int64]*entity.Lead
}

func newMockLeadRepo(leads ...*entity.Lead) *mockLeadRepo {
	r := &mockLeadRepo{leads: make(map[int64]*entity.Lead)}
	for _, l := range leads {
		r.leads[l.ID] = l
	}
	return r
}

func (r *mockLeadRepo) Create(ctx context.Context, l *entity.Lead) error {
	r.leads[l.ID] = l
	return nil
}

func (r *mockLeadRepo) GetByID(ctx context.Context, id int64) (*entity.Lead, error) {
	return r.leads[id], nil
}

type mockUserRepo struct {
	users map[int64]*entity.User
}

func newMockUserRepo(users ...*entity.User) *mockUserRepo {
	r := &mockUserRepo{users: make(map[int64]*entity.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *mockUserRepo) Create(ctx context.Context, u *entity.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *mockUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.users[id], nil
}

type mockSeqRepo struct {
	counters map[string]int64
}

func newMockSeqRepo() *mockSeqRepo {
	return &mockSeqRepo{counters: make(map[string]int64)}
}

func (r *mockSeqRepo) Next(ctx context.Context, name string) (int64, error) {
	r.counters[name]++
	return r.counters[name], nil
}

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type sentNotice struct {
	recipient string
	token     string
	decision  string
	reason    string
}

type mockNotifier struct {
	approvalRequests []sentNotice
	decisionNotices  []sentNotice
}

func (m *mockNotifier) SendApprovalRequest(ctx context.Context, recipient string, doc *entity.FinancialDocument, token string) error {
	m.approvalRequests = append(m.approvalRequests, sentNotice{recipient: recipient, token: token})
	return nil
}

func (m *mockNotifier) SendDecisionNotice(ctx context.Context, recipient string, doc *entity.FinancialDocument, decision, reason string) error {
	m.decisionNotices = append(m.decisionNotices, sentNotice{recipient: recipient, decision: decision, reason: reason})
	return nil
}

type mockAdvancer struct {
	satisfied []int64
	vetoed    []int64
	announced []int64

	onSatisfiedFunc func(ctx context.Context, doc *entity.FinancialDocument) error
}

func (m *mockAdvancer) OnConsensusSatisfied(ctx context.Context, doc *entity.FinancialDocument) error {
	m.satisfied = append(m.satisfied, doc.ID)
	if m.onSatisfiedFunc != nil {
		return m.onSatisfiedFunc(ctx, doc)
	}
	return nil
}

func (m *mockAdvancer) OnConsensusVetoed(ctx context.Context, doc *entity.FinancialDocument) error {
	m.vetoed = append(m.vetoed, doc.ID)
	return nil
}

func (m *mockAdvancer) AnnounceOutcome(ctx context.Context, documentID int64) {
	m.announced = append(m.announced, documentID)
}

type mockLogger struct{}

func (mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (mockLogger) Error(msg string, keysAndValues ...interface{}) {}
