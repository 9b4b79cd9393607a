package entity

import "time"

// Client is a billable customer of the practice.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Lead is a prospective client; proposals may be addressed to a lead before
// any client record exists.
type Lead struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an internal staff identity. CanApproveAll grants a standing
// override: the user may record a decision on any document regardless of the
// required approver set.
type User struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	CanApproveAll bool      `json:"can_approve_all"`
	CreatedAt     time.Time `json:"created_at"`
}
