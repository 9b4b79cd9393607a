package entity

import "time"

// TimesheetEntry is a unit of logged work that can be billed onto a document
// as a derived line item. Billed tracks whether the entry currently backs a
// line item; entries are unbilled at the source rather than removed from a
// document.
type TimesheetEntry struct {
	ID         int64     `json:"id"`
	ClientID   int64     `json:"client_id"`
	AssigneeID int64     `json:"assignee_id"`
	WorkDate   time.Time `json:"work_date"`
	Hours      float64   `json:"hours"`
	Rate       float64   `json:"rate"`
	Notes      string    `json:"notes,omitempty"`
	Billed     bool      `json:"billed"`
	CreatedAt  time.Time `json:"created_at"`
}

// Charge is a one-off billable expense recorded against a client.
type Charge struct {
	ID          int64     `json:"id"`
	ClientID    int64     `json:"client_id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Billed      bool      `json:"billed"`
	CreatedAt   time.Time `json:"created_at"`
}
