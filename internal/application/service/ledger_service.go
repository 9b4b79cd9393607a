package service

import (
	"context"
	"fmt"

	"github.com/praxisdesk/praxisdesk/internal/application/port"
	"github.com/praxisdesk/praxisdesk/internal/domain/billing"
	"github.com/praxisdesk/praxisdesk/internal/domain/entity"
	"github.com/praxisdesk/praxisdesk/internal/domain/fault"
	"github.com/praxisdesk/praxisdesk/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ItemInput is the payload for adding or editing a line item.
type ItemInput struct {
	Description       string  `json:"description"`
	Quantity          float64 `json:"quantity"`
	Rate              float64 `json:"rate"`
	Discount          float64 `json:"discount"`
	Amount            float64 `json:"amount"`
	Credit            bool    `json:"credit"`
	SourceTimesheetID *int64  `json:"source_timesheet_id,omitempty"`
	SourceChargeID    *int64  `json:"source_charge_id,omitempty"`
}

// LedgerService owns the line items of a document. Every successful
// mutation leaves the stored subtotal and amount consistent with the full
// item set; the recompute runs over all items inside the same transaction
// as the mutation, so a failure aborts the whole operation.
type LedgerService interface {
	AddItem(ctx context.Context, documentID int64, input ItemInput) (*entity.LineItem, error)
	EditItem(ctx context.Context, documentID, itemID int64, input ItemInput) (*entity.LineItem, error)
	RemoveItem(ctx context.Context, documentID, itemID int64) error
	ListItems(ctx context.Context, documentID int64) ([]*entity.LineItem, error)
	PullTimesheetEntries(ctx context.Context, documentID int64) ([]*entity.LineItem, error)
	UnbillTimesheetEntry(ctx context.Context, timesheetID int64) error
	OverrideSubtotal(ctx context.Context, documentID int64, subtotal float64) error
}

type ledgerServiceImpl struct {
	docRepo       port.DocumentRepository
	itemRepo      port.LineItemRepository
	timesheetRepo port.TimesheetRepository
	chargeRepo    port.ChargeRepository
	txManager     port.TransactionManager
	logger        Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	docRepo port.DocumentRepository,
	itemRepo port.LineItemRepository,
	timesheetRepo port.TimesheetRepository,
	chargeRepo port.ChargeRepository,
	txManager port.TransactionManager,
	logger Logger,
) LedgerService {
	return &ledgerServiceImpl{
		docRepo:       docRepo,
		itemRepo:      itemRepo,
		timesheetRepo: timesheetRepo,
		chargeRepo:    chargeRepo,
		txManager:     txManager,
		logger:        logger,
	}
}

// AddItem validates the payload, inserts the item and recomputes the
// document's totals over the full item set.
func (s *ledgerServiceImpl) AddItem(ctx context.Context, documentID int64, input ItemInput) (*entity.LineItem, error) {
	var item *entity.LineItem

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		doc, err := s.mutableDocument(txCtx, documentID)
		if err != nil {
			return err
		}

		built, err := s.buildItem(txCtx, doc, input)
		if err != nil {
			return err
		}

		if err := s.itemRepo.Create(txCtx, built); err != nil {
			return fmt.Errorf("create line item: %w", err)
		}

		if err := s.recompute(txCtx, doc); err != nil {
			return err
		}

		item = built
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to add line item", "error", err, "document_id", documentID)
		return nil, err
	}

	s.logger.Info("Line item added", "document_id", documentID, "item_id", item.ID, "amount", item.Amount)
	return item, nil
}

// EditItem applies the payload to an existing item with the same
// recomputation discipline. Changing the billed quantity of a
// timesheet-derived item flags it as manually edited; the source entry
// reference is preserved for audit.
func (s *ledgerServiceImpl) EditItem(ctx context.Context, documentID, itemID int64, input ItemInput) (*entity.LineItem, error) {
	var item *entity.LineItem

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		doc, err := s.mutableDocument(txCtx, documentID)
		if err != nil {
			return err
		}

		existing, err := s.documentItem(txCtx, documentID, itemID)
		if err != nil {
			return err
		}

		if input.Quantity < 0 || input.Rate < 0 || input.Discount < 0 {
			return fault.Validation("quantity/rate/discount", "must not be negative")
		}

		if existing.Kind == entity.ItemTimesheet && input.Quantity != existing.Quantity {
			existing.IsManuallyEdited = true
		}

		existing.Description = input.Description
		existing.Quantity = input.Quantity
		existing.Rate = input.Rate
		existing.Discount = input.Discount
		existing.Credit = input.Credit
		existing.Amount = billing.ItemAmount(input.Quantity, input.Rate, input.Discount, input.Amount, input.Credit)

		if err := s.itemRepo.Update(txCtx, existing); err != nil {
			return fmt.Errorf("update line item: %w", err)
		}

		if err := s.recompute(txCtx, doc); err != nil {
			return err
		}

		item = existing
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to edit line item", "error", err, "document_id", documentID, "item_id", itemID)
		return nil, err
	}

	s.logger.Info("Line item edited", "document_id", documentID, "item_id", itemID, "amount", item.Amount)
	return item, nil
}

// RemoveItem deletes the item and recomputes. Timesheet-derived items are
// refused: the source entry must be unbilled instead so its billed flag
// stays consistent. Removing a charge-derived item releases the charge for
// rebilling.
func (s *ledgerServiceImpl) RemoveItem(ctx context.Context, documentID, itemID int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		doc, err := s.mutableDocument(txCtx, documentID)
		if err != nil {
			return err
		}

		item, err := s.documentItem(txCtx, documentID, itemID)
		if err != nil {
			return err
		}

		if item.Kind == entity.ItemTimesheet {
			return fault.Policy("timesheet-derived items cannot be deleted; unbill the timesheet entry instead")
		}

		if item.Kind == entity.ItemCharge && item.SourceChargeID != nil {
			if err := s.chargeRepo.SetBilled(txCtx, *item.SourceChargeID, false); err != nil {
				return fmt.Errorf("release source charge: %w", err)
			}
		}

		if err := s.itemRepo.Delete(txCtx, item.ID); err != nil {
			return fmt.Errorf("delete line item: %w", err)
		}

		return s.recompute(txCtx, doc)
	})

	if err != nil {
		s.logger.Error("Failed to remove line item", "error", err, "document_id", documentID, "item_id", itemID)
		return err
	}

	s.logger.Info("Line item removed", "document_id", documentID, "item_id", itemID)
	return nil
}

// ListItems returns all line items of the document.
func (s *ledgerServiceImpl) ListItems(ctx context.Context, documentID int64) ([]*entity.LineItem, error) {
	items, err := s.itemRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		s.logger.Error("Failed to list line items", "error", err, "document_id", documentID)
		return nil, err
	}
	return items, nil
}

// PullTimesheetEntries bills every unbilled timesheet entry of the
// document's client onto the document as derived line items.
func (s *ledgerServiceImpl) PullTimesheetEntries(ctx context.Context, documentID int64) ([]*entity.LineItem, error) {
	var pulled []*entity.LineItem

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		doc, err := s.mutableDocument(txCtx, documentID)
		if err != nil {
			return err
		}
		if doc.ClientID == nil {
			return fault.Policy("document has no client; timesheet entries can only be billed to a client")
		}

		entries, err := s.timesheetRepo.GetUnbilledByClientID(txCtx, *doc.ClientID)
		if err != nil {
			return fmt.Errorf("load unbilled entries: %w", err)
		}

		for _, e := range entries {
			id := e.ID
			item := &entity.LineItem{
				DocumentID:        doc.ID,
				Kind:              entity.ItemTimesheet,
				Description:       timesheetDescription(e),
				Quantity:          e.Hours,
				Rate:              e.Rate,
				Amount:            billing.ItemAmount(e.Hours, e.Rate, 0, 0, false),
				SourceTimesheetID: &id,
			}
			if err := s.itemRepo.Create(txCtx, item); err != nil {
				return fmt.Errorf("create derived item: %w", err)
			}
			if err := s.timesheetRepo.SetBilled(txCtx, e.ID, true); err != nil {
				return fmt.Errorf("mark entry billed: %w", err)
			}
			pulled = append(pulled, item)
		}

		if len(pulled) == 0 {
			return nil
		}
		return s.recompute(txCtx, doc)
	})

	if err != nil {
		s.logger.Error("Failed to pull timesheet entries", "error", err, "document_id", documentID)
		return nil, err
	}

	s.logger.Info("Timesheet entries pulled", "document_id", documentID, "count", len(pulled))
	return pulled, nil
}

// UnbillTimesheetEntry clears the entry's billed flag and removes the
// derived line item from its document, recomputing that document's totals.
// This is the sanctioned path for taking timesheet work off a document.
func (s *ledgerServiceImpl) UnbillTimesheetEntry(ctx context.Context, timesheetID int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		entry, err := s.timesheetRepo.GetByID(txCtx, timesheetID)
		if err != nil {
			return fmt.Errorf("get timesheet entry: %w", err)
		}
		if entry == nil {
			return fault.NotFound("timesheet entry", timesheetID)
		}
		if !entry.Billed {
			return fault.Policy("timesheet entry is not billed")
		}

		item, err := s.itemRepo.GetBySourceTimesheetID(txCtx, timesheetID)
		if err != nil {
			return fmt.Errorf("find derived item: %w", err)
		}
		if item != nil {
			doc, err := s.mutableDocument(txCtx, item.DocumentID)
			if err != nil {
				return err
			}
			if err := s.itemRepo.Delete(txCtx, item.ID); err != nil {
				return fmt.Errorf("delete derived item: %w", err)
			}
			if err := s.recompute(txCtx, doc); err != nil {
				return err
			}
		}

		return s.timesheetRepo.SetBilled(txCtx, timesheetID, false)
	})

	if err != nil {
		s.logger.Error("Failed to unbill timesheet entry", "error", err, "timesheet_id", timesheetID)
		return err
	}

	s.logger.Info("Timesheet entry unbilled", "timesheet_id", timesheetID)
	return nil
}

// OverrideSubtotal sets a manual subtotal. Permitted only while the
// document has no line items; once items exist the subtotal is derived.
func (s *ledgerServiceImpl) OverrideSubtotal(ctx context.Context, documentID int64, subtotal float64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		doc, err := s.mutableDocument(txCtx, documentID)
		if err != nil {
			return err
		}

		items, err := s.itemRepo.GetByDocumentID(txCtx, documentID)
		if err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		if len(items) > 0 {
			return fault.Policy("subtotal cannot be overridden while line items exist")
		}
		if subtotal < 0 {
			return fault.Validation("subtotal", "must not be negative")
		}

		totals := billing.ComputeFromSubtotal(subtotal, discountSpec(doc), taxSpec(doc))
		return s.docRepo.UpdateTotals(txCtx, doc.ID, totals.Subtotal, totals.Total)
	})

	if err != nil {
		s.logger.Error("Failed to override subtotal", "error", err, "document_id", documentID)
		return err
	}

	s.logger.Info("Subtotal overridden", "document_id", documentID, "subtotal", subtotal)
	return nil
}

// mutableDocument loads the document and verifies it accepts line-item
// mutations (drafts only).
func (s *ledgerServiceImpl) mutableDocument(ctx context.Context, documentID int64) (*entity.FinancialDocument, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, fault.NotFound("document", documentID)
	}
	if doc.Status != workflow.StateDraft.String() {
		return nil, fault.Policy("only draft documents can be edited")
	}
	return doc, nil
}

func (s *ledgerServiceImpl) documentItem(ctx context.Context, documentID, itemID int64) (*entity.LineItem, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get line item: %w", err)
	}
	if item == nil || item.DocumentID != documentID {
		return nil, fault.NotFound("line item", itemID)
	}
	return item, nil
}

// buildItem turns an input payload into a line item, validating any source
// references against their repositories.
func (s *ledgerServiceImpl) buildItem(ctx context.Context, doc *entity.FinancialDocument, input ItemInput) (*entity.LineItem, error) {
	if input.Quantity < 0 || input.Rate < 0 || input.Discount < 0 {
		return nil, fault.Validation("quantity/rate/discount", "must not be negative")
	}
	if input.SourceTimesheetID != nil && input.SourceChargeID != nil {
		return nil, fault.Validation("source", "an item derives from at most one source")
	}

	item := &entity.LineItem{
		DocumentID:  doc.ID,
		Kind:        entity.ItemManual,
		Description: input.Description,
		Quantity:    input.Quantity,
		Rate:        input.Rate,
		Discount:    input.Discount,
		Credit:      input.Credit,
	}

	switch {
	case input.SourceTimesheetID != nil:
		entry, err := s.timesheetRepo.GetByID(ctx, *input.SourceTimesheetID)
		if err != nil {
			return nil, fmt.Errorf("get timesheet entry: %w", err)
		}
		if entry == nil {
			return nil, fault.NotFound("timesheet entry", *input.SourceTimesheetID)
		}
		if entry.Billed {
			return nil, fault.Policy("timesheet entry is already billed")
		}
		item.Kind = entity.ItemTimesheet
		item.SourceTimesheetID = input.SourceTimesheetID
		if item.Quantity == 0 {
			item.Quantity = entry.Hours
		}
		if item.Rate == 0 {
			item.Rate = entry.Rate
		}
		if item.Description == "" {
			item.Description = timesheetDescription(entry)
		}
		if err := s.timesheetRepo.SetBilled(ctx, entry.ID, true); err != nil {
			return nil, fmt.Errorf("mark entry billed: %w", err)
		}

	case input.SourceChargeID != nil:
		charge, err := s.chargeRepo.GetByID(ctx, *input.SourceChargeID)
		if err != nil {
			return nil, fmt.Errorf("get charge: %w", err)
		}
		if charge == nil {
			return nil, fault.NotFound("charge", *input.SourceChargeID)
		}
		if charge.Billed {
			return nil, fault.Policy("charge is already billed")
		}
		item.Kind = entity.ItemCharge
		item.SourceChargeID = input.SourceChargeID
		if input.Amount == 0 {
			input.Amount = charge.Amount
		}
		if item.Description == "" {
			item.Description = charge.Description
		}
		if err := s.chargeRepo.SetBilled(ctx, charge.ID, true); err != nil {
			return nil, fmt.Errorf("mark charge billed: %w", err)
		}

	default:
		if input.Quantity == 0 && input.Amount == 0 {
			return nil, fault.Validation("amount", "manual items need a quantity and rate, or a direct amount")
		}
	}

	item.Amount = billing.ItemAmount(item.Quantity, item.Rate, item.Discount, input.Amount, item.Credit)
	return item, nil
}

// recompute refreshes the document's stored totals from the current full
// item set. Never patch the stored total incrementally.
func (s *ledgerServiceImpl) recompute(ctx context.Context, doc *entity.FinancialDocument) error {
	items, err := s.itemRepo.GetByDocumentID(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("load items for recompute: %w", err)
	}

	amounts := make([]float64, 0, len(items))
	for _, it := range items {
		amounts = append(amounts, it.Amount)
	}

	totals := billing.Compute(amounts, discountSpec(doc), taxSpec(doc))
	if err := s.docRepo.UpdateTotals(ctx, doc.ID, totals.Subtotal, totals.Total); err != nil {
		return fmt.Errorf("persist totals: %w", err)
	}
	return nil
}

func discountSpec(doc *entity.FinancialDocument) billing.DiscountSpec {
	return billing.DiscountSpec{Percent: doc.DiscountPercent, Amount: doc.DiscountAmount}
}

func taxSpec(doc *entity.FinancialDocument) billing.TaxSpec {
	return billing.TaxSpec{Rate: doc.TaxRate, Inclusive: doc.TaxInclusive}
}

func timesheetDescription(e *entity.TimesheetEntry) string {
	if e.Notes != "" {
		return e.Notes
	}
	return fmt.Sprintf("Logged work on %s", e.WorkDate.Format("2006-01-02"))
}
