package port

import (
	"context"

	"github.com/praxisdesk/praxisdesk/internal/domain/entity"
)

// Notifier delivers approval-related notices. Delivery is fire-and-forget:
// a send failure is logged by the caller and never rolls back the state
// change that triggered it.
type Notifier interface {
	// SendApprovalRequest notifies a recipient that a document awaits their
	// decision. For external client recipients the message carries the
	// approval token link.
	SendApprovalRequest(ctx context.Context, recipient string, doc *entity.FinancialDocument, token string) error

	// SendDecisionNotice reports a recorded decision to interested staff.
	SendDecisionNotice(ctx context.Context, recipient string, doc *entity.FinancialDocument, decision, reason string) error
}
