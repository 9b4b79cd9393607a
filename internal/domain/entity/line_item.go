package entity

import "time"

// ItemKind distinguishes how a line item entered the document
type ItemKind string

const (
	ItemManual    ItemKind = "MANUAL"
	ItemTimesheet ItemKind = "TIMESHEET"
	ItemCharge    ItemKind = "CHARGE"
)

// LineItem is one billable or creditable row of a financial document.
// Amount carries the item's signed contribution to the subtotal: credits
// are stored with a negative amount.
type LineItem struct {
	ID          int64    `json:"id"`
	DocumentID  int64    `json:"document_id"`
	Kind        ItemKind `json:"kind"`
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	Rate        float64  `json:"rate"`
	Discount    float64  `json:"discount"`
	Amount      float64  `json:"amount"`
	Credit      bool     `json:"credit"`

	// Provenance back to the source row for derived items.
	SourceTimesheetID *int64 `json:"source_timesheet_id,omitempty"`
	SourceChargeID    *int64 `json:"source_charge_id,omitempty"`
	IsManuallyEdited  bool   `json:"is_manually_edited"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
