package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/praxisdesk/praxisdesk/internal/application/port"
	"github.com/praxisdesk/praxisdesk/internal/domain/entity"
)

// LogNotifier writes notices to the application log instead of delivering
// them. Used in development and whenever Lark credentials are absent.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendApprovalRequest logs the approval request instead of sending it
func (n *LogNotifier) SendApprovalRequest(ctx context.Context, recipient string, doc *entity.FinancialDocument, token string) error {
	n.logger.Info("Approval request (not delivered)",
		zap.String("recipient", recipient),
		zap.String("number", doc.Number),
		zap.Bool("has_token", token != ""))
	return nil
}

// SendDecisionNotice logs the decision notice instead of sending it
func (n *LogNotifier) SendDecisionNotice(ctx context.Context, recipient string, doc *entity.FinancialDocument, decision, reason string) error {
	n.logger.Info("Decision notice (not delivered)",
		zap.String("recipient", recipient),
		zap.String("number", doc.Number),
		zap.String("decision", decision))
	return nil
}

// Verify interface compliance
var _ port.Notifier = (*LogNotifier)(nil)
