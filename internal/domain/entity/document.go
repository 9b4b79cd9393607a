package entity

import "time"

// DocumentKind distinguishes the two financial document variants
type DocumentKind string

const (
	KindProposal DocumentKind = "PROPOSAL"
	KindBill     DocumentKind = "BILL"
)

// ApprovalType is the consensus policy over the required approver set
type ApprovalType string

const (
	ApprovalAll      ApprovalType = "ALL"
	ApprovalAny      ApprovalType = "ANY"
	ApprovalMajority ApprovalType = "MAJORITY"
)

// Client decision values for proposals
const (
	ClientDecisionPending  = "PENDING"
	ClientDecisionApproved = "APPROVED"
	ClientDecisionRejected = "REJECTED"
)

// FinancialDocument is a proposal or bill whose total is derived from its
// line items, discount and tax fields. Amount and Status are engine-owned:
// they are written only by the ledger and document services.
type FinancialDocument struct {
	ID       int64        `json:"id"`
	Kind     DocumentKind `json:"kind"`
	Number   string       `json:"number"`
	ClientID *int64       `json:"client_id,omitempty"`
	LeadID   *int64       `json:"lead_id,omitempty"`
	Currency string       `json:"currency"`

	Subtotal        float64 `json:"subtotal"`
	DiscountPercent float64 `json:"discount_percent"`
	DiscountAmount  float64 `json:"discount_amount"`
	TaxRate         float64 `json:"tax_rate"`
	TaxInclusive    bool    `json:"tax_inclusive"`
	Amount          float64 `json:"amount"`

	Status string `json:"status"`

	InternalApprovalRequired  bool         `json:"internal_approval_required"`
	RequiredApproverIDs       []int64      `json:"required_approver_ids"`
	InternalApprovalType      ApprovalType `json:"internal_approval_type"`
	InternalApprovalsComplete bool         `json:"internal_approvals_complete"`
	ApprovedAt                *time.Time   `json:"approved_at,omitempty"`

	// Client decision fields are meaningful for proposals only.
	ClientDecision       string     `json:"client_decision"`
	ClientDecisionReason string     `json:"client_decision_reason,omitempty"`
	ApprovalToken        string     `json:"-"`
	ApprovalTokenExpiry  *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasOwner reports whether exactly one of client/lead is set. Bills always
// require a client.
func (d *FinancialDocument) HasOwner() bool {
	if d.Kind == KindBill {
		return d.ClientID != nil && d.LeadID == nil
	}
	return (d.ClientID != nil) != (d.LeadID != nil)
}

// IsRequiredApprover reports whether the user is a member of the document's
// required approver set.
func (d *FinancialDocument) IsRequiredApprover(userID int64) bool {
	for _, id := range d.RequiredApproverIDs {
		if id == userID {
			return true
		}
	}
	return false
}
