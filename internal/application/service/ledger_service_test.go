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

type ledgerFixture struct {
	svc        LedgerService
	docRepo    *mockDocRepo
	itemRepo   *mockItemRepo
	timesheets *mockTimesheetRepo
	charges    *mockChargeRepo
}

func newLedgerFixture(doc *entity.FinancialDocument, timesheets *mockTimesheetRepo, charges *mockChargeRepo) *ledgerFixture {
	if timesheets == nil {
		timesheets = newMockTimesheetRepo()
	}
	if charges == nil {
		charges = newMockChargeRepo()
	}
	docRepo := newMockDocRepo(doc)
	itemRepo := newMockItemRepo()
	svc := NewLedgerService(docRepo, itemRepo, timesheets, charges, &mockTxManager{}, mockLogger{})
	return &ledgerFixture{svc: svc, docRepo: docRepo, itemRepo: itemRepo, timesheets: timesheets, charges: charges}
}

func draftDoc() *entity.FinancialDocument {
	return &entity.FinancialDocument{
		ID:       1,
		Kind:     entity.KindProposal,
		ClientID: clientID(1),
		Currency: "EUR",
		Status:   workflow.StateDraft.String(),
	}
}

func TestLedgerService_AddManualItem(t *testing.T) {
	f := newLedgerFixture(draftDoc(), nil, nil)
	ctx := context.Background()

	item, err := f.svc.AddItem(ctx, 1, ItemInput{Description: "Consulting", Quantity: 4, Rate: 150, Discount: 50})
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if item.Amount != 550 {
		t.Fatalf("amount = %v, want 4*150-50 = 550", item.Amount)
	}
	if item.Kind != entity.ItemManual {
		t.Fatalf("kind = %s, want MANUAL", item.Kind)
	}

	stored := f.docRepo.docs[1]
	if stored.Subtotal != 550 || stored.Amount != 550 {
		t.Fatalf("totals not recomputed: subtotal=%v amount=%v", stored.Subtotal, stored.Amount)
	}
}

func TestLedgerService_AddCreditItem(t *testing.T) {
	f := newLedgerFixture(draftDoc(), nil, nil)
	ctx := context.Background()

	if _, err := f.svc.AddItem(ctx, 1, ItemInput{Description: "Retainer", Amount: 1000}); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	credit, err := f.svc.AddItem(ctx, 1, ItemInput{Description: "Goodwill credit", Amount: 200, Credit: true})
	if err != nil {
		t.Fatalf("AddItem() credit error = %v", err)
	}
	if credit.Amount != -200 {
		t.Fatalf("credit amount = %v, want -200", credit.Amount)
	}
	if got := f.docRepo.docs[1].Subtotal; got != 800 {
		t.Fatalf("subtotal = %v, want 800", got)
	}
}

func TestLedgerService_AddItemValidation(t *testing.T) {
	f := newLedgerFixture(draftDoc(), nil, nil)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, 1, ItemInput{Description: "empty"})
	if !errors.Is(err, fault.ErrValidation) {
		t.Fatalf("no quantity and no amount: error = %v, want ErrValidation", err)
	}

	_, err = f.svc.AddItem(ctx, 1, ItemInput{Quantity: -1, Rate: 10})
	if !errors.Is(err, fault.ErrValidation) {
		t.Fatalf("negative quantity: error = %v, want ErrValidation", err)
	}
}

func TestLedgerService_MutationsRequireDraft(t *testing.T) {
	doc := draftDoc()
	doc.Status = workflow.StateSubmitted.String()
	f := newLedgerFixture(doc, nil, nil)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, 1, ItemInput{Amount: 100})
	if !errors.Is(err, fault.ErrPolicyViolation) {
		t.Fatalf("AddItem() on submitted doc error = %v, want ErrPolicyViolation", err)
	}
	_, err = f.svc.EditItem(ctx, 1, 1, ItemInput{Amount: 100})
	if !errors.Is(err, fault.ErrPolicyViolation) {
		t.Fatalf("EditItem() on submitted doc error = %v, want ErrPolicyViolation", err)
	}
	if err := f.svc.RemoveItem(ctx, 1, 1); !errors.Is(err, fault.ErrPolicyViolation) {
		t.Fatalf("RemoveItem() on submitted doc error = %v, want ErrPolicyViolation", err)
	}
}

func TestLedgerService_EditItemRecomputes(t *testing.T) {
	f := newLedgerFixture(draftDoc(), nil, nil)
	ctx := context.Background()

	item, _ := f.svc.AddItem(ctx, 1, ItemInput{Description: "Drafting", Quantity: 2, Rate: 100})

	edited, err := f.svc.EditItem(ctx, 1, item.ID, ItemInput{Description: "Drafting", Quantity: 3, Rate: 120})
	if err != nil {
		t.Fatalf("EditItem() error = %v", err)
	}
	if edited.Amount != 360 {
		t.Fatalf("amount = %v, want 360", edited.Amount)
	}
	if got := f.docRepo.docs[1].Amount; got != 360 {
		t.Fatalf("document amount = %v, want 360", got)
	}
	if edited.IsManuallyEdited {
		t.Fatalf("manual items never carry the manually-edited flag")
	}
}

func TestLedgerService_EditTimesheetItemSetsManualFlag(t *testing.T) {
	entry := &entity.TimesheetEntry{ID: 7, ClientID: 1, WorkDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Hours: 2, Rate: 90}
	f := newLedgerFixture(draftDoc(), newMockTimesheetRepo(entry), nil)
	ctx := context.Background()

	items, err := f.svc.PullTimesheetEntries(ctx, 1)
	if err != nil {
		t.Fatalf("PullTimesheetEntries() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("pulled %d items, want 1", len(items))
	}

	edited, err := f.svc.EditItem(ctx, 1, items[0].ID, ItemInput{Description: items[0].Description, Quantity: 1.5, Rate: 90})
	if err != nil {
		t.Fatalf("EditItem() error = %v", err)
	}
	if !edited.IsManuallyEdited {
		t.Fatalf("quantity change on a timesheet item must set the manually-edited flag")
	}
	if edited.SourceTimesheetID == nil || *edited.SourceTimesheetID != 7 {
		t.Fatalf("source reference lost on edit")
	}
}

func TestLedgerService_RemoveItemRefusesTimesheetItems(t *testing.T) {
	entry := &entity.TimesheetEntry{ID: 7, ClientID: 1, WorkDate: time.Now(), Hours: 2, Rate: 90}
	f := newLedgerFixture(draftDoc(), newMockTimesheetRepo(entry), nil)
	ctx := context.Background()

	items, _ := f.svc.PullTimesheetEntries(ctx, 1)

	err := f.svc.RemoveItem(ctx, 1, items[0].ID)
	if !errors.Is(err, fault.ErrPolicyViolation) {
		t.Fatalf("RemoveItem() on timesheet item error = %v, want ErrPolicyViolation", err)
	}
}

func TestLedgerService_RemoveChargeItemReleasesCharge(t *testing.T) {
	charge := &entity.Charge{ID: 3, ClientID: 1, Description: "Court filing fee", Amount: 85}
	f := newLedgerFixture(draftDoc(), nil, newMockChargeRepo(charge))
	ctx := context.Background()

	srcID := int64(3)
	item, err := f.svc.AddItem(ctx, 1, ItemInput{SourceChargeID: &srcID})
	if err != nil {
		t.Fatalf("AddItem() from charge error = %v", err)
	}
	if item.Amount != 85 || item.Description != "Court filing fee" {
		t.Fatalf("charge details not inherited: %+v", item)
	}
	if !f.charges.charges[3].Billed {
		t.Fatalf("source charge not marked billed")
	}

	if _, err := f.svc.AddItem(ctx, 1, ItemInput{SourceChargeID: &srcID}); !errors.Is(err, fault.ErrPolicyViolation) {
		t.Fatalf("billing a billed charge error = %v, want ErrPolicyViolation", err)
	}

	if err := f.svc.RemoveItem(ctx, 1, item.ID); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if f.charges.charges[3].Billed {
		t.Fatalf("removing the item must release the charge for rebilling")
	}
	if got := f.docRepo.docs[1].Amount; got != 0 {
		t.Fatalf("document amount = %v, want 0 after removal", got)
	}
}

func TestLedgerService_PullTimesheetEntries(t *testing.T) {
	entries := []*entity.TimesheetEntry{
		{ID: 1, ClientID: 1, WorkDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Hours: 2, Rate: 90, Notes: "Contract review"},
		{ID: 2, ClientID: 1, WorkDate: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), Hours: 1.5, Rate: 90},
		{ID: 3, ClientID: 2, WorkDate: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), Hours: 8, Rate: 90},
		{ID: 4, ClientID: 1, WorkDate: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), Hours: 1, Rate: 90, Billed: true},
	}
	f := newLedgerFixture(draftDoc(), newMockTimesheetRepo(entries...), nil)
	ctx := context.Background()

	items, err := f.svc.PullTimesheetEntries(ctx, 1)
	if err != nil {
		t.Fatalf("PullTimesheetEntries() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("pulled %d items, want the client's 2 unbilled entries", len(items))
	}
	if items[0].Description != "Contract review" {
		t.Fatalf("description = %q, want the entry's notes", items[0].Description)
	}
	if items[1].Description != "Logged work on 2026-03-03" {
		t.Fatalf("description = %q, want the work-date fallback", items[1].Description)
	}
	if got := f.docRepo.docs[1].Subtotal; got != 2*90+1.5*90 {
		t.Fatalf("subtotal = %v, want 315", got)
	}
	if !f.timesheets.entries[1].Billed || !f.timesheets.entries[2].Billed {
		t.Fatalf("pulled entries not marked billed")
	}
	if f.timesheets.entries[3].Billed {
		t.Fatalf("another client's entry was billed")
	}

	// Second pull finds nothing left.
	again, err := f.svc.PullTimesheetEntries(ctx, 1)
	if err != nil {
		t.Fatalf("second PullTimesheetEntries() error = %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second pull billed %d entries, want 0", len(again))
	}
}

func TestLedgerService_PullTimesheetEntriesNeedsClient(t *testing.T) {
	doc := draftDoc()
	doc.ClientID = nil
	doc.LeadID = clientID(2)
	f := newLedgerFixture(doc, nil, nil)

	_, err := f.svc.PullTimesheetEntries(context.Background(), 1)
	if !errors.Is(err, fault.ErrPolicyViolation) {
		t.Fatalf("pull on a lead document error = %v, want ErrPolicyViolation", err)
	}
}

func TestLedgerService_UnbillTimesheetEntry(t *testing.T) {
	entry := &entity.TimesheetEntry{ID: 7, ClientID: 1, WorkDate: time.Now(), Hours: 2, Rate: 90}
	f := newLedgerFixture(draftDoc(), newMockTimesheetRepo(entry), nil)
	ctx := context.Background()

	items, _ := f.svc.PullTimesheetEntries(ctx, 1)

	if err := f.svc.UnbillTimesheetEntry(ctx, 7); err != nil {
		t.Fatalf("UnbillTimesheetEntry() error = %v", err)
	}
	if f.timesheets.entries[7].Billed {
		t.Fatalf("billed flag not cleared")
	}
	if got, _ := f.itemRepo.GetByID(ctx, items[0].ID); got != nil {
		t.Fatalf("derived item not deleted")
	}
	if got := f.docRepo.docs[1].Amount; got != 0 {
		t.Fatalf("document amount = %v, want 0 after unbilling", got)
	}

	if err := f.svc.UnbillTimesheetEntry(ctx, 7); !errors.Is(err, fault.ErrPolicyViolation) {
		t.Fatalf("unbilling an unbilled entry error = %v, want ErrPolicyViolation", err)
	}
}

func TestLedgerService_OverrideSubtotal(t *testing.T) {
	doc := draftDoc()
	doc.TaxRate = 20
	f := newLedgerFixture(doc, nil, nil)
	ctx := context.Background()

	if err := f.svc.OverrideSubtotal(ctx, 1, 500); err != nil {
		t.Fatalf("OverrideSubtotal() error = %v", err)
	}
	stored := f.docRepo.docs[1]
	if stored.Subtotal != 500 || stored.Amount != 600 {
		t.Fatalf("subtotal=%v amount=%v, want 500 and 600 with 20%% tax", stored.Subtotal, stored.Amount)
	}

	if _, err := f.svc.AddItem(ctx, 1, ItemInput{Amount: 100}); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if err := f.svc.OverrideSubtotal(ctx, 1, 900); !errors.Is(err, fault.ErrPolicyViolation) {
		t.Fatalf("override with items present error = %v, want ErrPolicyViolation", err)
	}
	if got := f.docRepo.docs[1].Subtotal; got != 100 {
		t.Fatalf("subtotal = %v, items must win once they exist", got)
	}
}
