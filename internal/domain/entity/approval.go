package entity

import "time"

// Decision values for internal approval records
const (
	DecisionApproved = "APPROVED"
	DecisionRejected = "REJECTED"
)

// ApprovalRecord holds one approver's decision on one document. There is at
// most one live record per (document, approver); a resubmission updates the
// existing record in place.
type ApprovalRecord struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	ApproverID int64     `json:"approver_id"`
	Decision   string    `json:"decision"`
	Comments   string    `json:"comments,omitempty"`
	DecidedAt  time.Time `json:"decided_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ConsensusStatus is the evaluated consensus position of one document.
type ConsensusStatus struct {
	Approved  int  `json:"approved"`
	Rejected  int  `json:"rejected"`
	Required  int  `json:"required"`
	Satisfied bool `json:"satisfied"`
	Vetoed    bool `json:"vetoed"`
}
