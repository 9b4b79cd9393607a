package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/praxisdesk/praxisdesk/internal/application/port"
	"github.com/praxisdesk/praxisdesk/internal/domain/entity"
)

// LarkNotifier delivers approval notices as Lark text messages addressed by
// email. Recipients without a Lark account simply fail delivery; the caller
// treats every send as fire-and-forget.
type LarkNotifier struct {
	client        *lark.Client
	portalBaseURL string
	logger        *zap.Logger
}

// Config holds Lark notifier configuration
type Config struct {
	AppID         string
	AppSecret     string
	APITimeout    time.Duration
	PortalBaseURL string
}

// NewLarkNotifier creates a Lark-backed notifier
func NewLarkNotifier(cfg Config, logger *zap.Logger) *LarkNotifier {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
		lark.WithReqTimeout(cfg.APITimeout),
	)

	return &LarkNotifier{
		client:        client,
		portalBaseURL: cfg.PortalBaseURL,
		logger:        logger,
	}
}

// SendApprovalRequest notifies a recipient that a document awaits their decision
func (n *LarkNotifier) SendApprovalRequest(ctx context.Context, recipient string, doc *entity.FinancialDocument, token string) error {
	var text string
	if token != "" {
		text = fmt.Sprintf("%s %s for %.2f %s is ready for your review: %s/client/documents/%d/decision?token=%s",
			docLabel(doc.Kind), doc.Number, doc.Amount, doc.Currency, n.portalBaseURL, doc.ID, token)
	} else {
		text = fmt.Sprintf("%s %s for %.2f %s awaits your approval.",
			docLabel(doc.Kind), doc.Number, doc.Amount, doc.Currency)
	}
	return n.sendText(ctx, recipient, text)
}

// SendDecisionNotice reports a recorded decision to interested staff
func (n *LarkNotifier) SendDecisionNotice(ctx context.Context, recipient string, doc *entity.FinancialDocument, decision, reason string) error {
	text := fmt.Sprintf("%s %s was %s.", docLabel(doc.Kind), doc.Number, decision)
	if reason != "" {
		text += " Reason: " + reason
	}
	return n.sendText(ctx, recipient, text)
}

func (n *LarkNotifier) sendText(ctx context.Context, email, text string) error {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal message content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("email").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(email).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := n.client.Im.Message.Create(ctx, req)
	if err != nil {
		n.logger.Error("Failed to send message", zap.String("recipient", email), zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		n.logger.Error("API returned failure",
			zap.String("recipient", email),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	n.logger.Info("Message sent", zap.String("recipient", email))
	return nil
}

func docLabel(kind entity.DocumentKind) string {
	if kind == entity.KindBill {
		return "Bill"
	}
	return "Proposal"
}

// Verify interface compliance
var _ port.Notifier = (*LarkNotifier)(nil)
