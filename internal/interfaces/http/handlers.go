package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/praxisdesk/praxisdesk/internal/application/service"
	"github.com/praxisdesk/praxisdesk/internal/domain/entity"
	"github.com/praxisdesk/praxisdesk/internal/domain/fault"
	"github.com/praxisdesk/praxisdesk/internal/export"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	documents  service.DocumentService
	ledger     service.LedgerService
	consensus  service.ConsensusService
	tokens     service.TokenService
	parties    service.PartyService
	statements *export.StatementWriter
	logger     Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	documents service.DocumentService,
	ledger service.LedgerService,
	consensus service.ConsensusService,
	tokens service.TokenService,
	parties service.PartyService,
	statements *export.StatementWriter,
	logger Logger,
) *Handlers {
	return &Handlers{
		documents:  documents,
		ledger:     ledger,
		consensus:  consensus,
		tokens:     tokens,
		parties:    parties,
		statements: statements,
		logger:     logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ApprovalRequest is the payload for recording an internal approval decision
type ApprovalRequest struct {
	Decision string `json:"decision" binding:"required"`
	Comments string `json:"comments"`
}

// ClientDecisionRequest is the payload for the external decision endpoint
type ClientDecisionRequest struct {
	Token    string `json:"token" binding:"required"`
	Decision string `json:"decision" binding:"required"`
	Reason   string `json:"reason"`
}

// ClientDocumentView is the sanitized document view shown to the external
// party. It omits the internal approval machinery and the stored token.
type ClientDocumentView struct {
	Number         string              `json:"number"`
	Kind           entity.DocumentKind `json:"kind"`
	Currency       string              `json:"currency"`
	Subtotal       float64             `json:"subtotal"`
	Amount         float64             `json:"amount"`
	ClientDecision string              `json:"client_decision"`
	Items          []*entity.LineItem  `json:"items"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CreateClient handles POST /api/clients
func (h *Handlers) CreateClient(c *gin.Context) {
	var client entity.Client
	if !h.bind(c, &client) {
		return
	}
	if err := h.parties.CreateClient(c.Request.Context(), &client); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: client})
}

// GetClient handles GET /api/clients/:id
func (h *Handlers) GetClient(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	client, err := h.parties.GetClient(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: client})
}

// CreateLead handles POST /api/leads
func (h *Handlers) CreateLead(c *gin.Context) {
	var lead entity.Lead
	if !h.bind(c, &lead) {
		return
	}
	if err := h.parties.CreateLead(c.Request.Context(), &lead); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: lead})
}

// GetLead handles GET /api/leads/:id
func (h *Handlers) GetLead(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	lead, err := h.parties.GetLead(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: lead})
}

// CreateUser handles POST /api/users
func (h *Handlers) CreateUser(c *gin.Context) {
	var user entity.User
	if !h.bind(c, &user) {
		return
	}
	if err := h.parties.CreateUser(c.Request.Context(), &user); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: user})
}

// CreateTimesheetEntry handles POST /api/timesheets
func (h *Handlers) CreateTimesheetEntry(c *gin.Context) {
	var entry entity.TimesheetEntry
	if !h.bind(c, &entry) {
		return
	}
	if err := h.parties.CreateTimesheetEntry(c.Request.Context(), &entry); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: entry})
}

// UnbillTimesheetEntry handles POST /api/timesheets/:id/unbill
func (h *Handlers) UnbillTimesheetEntry(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.UnbillTimesheetEntry(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// CreateCharge handles POST /api/charges
func (h *Handlers) CreateCharge(c *gin.Context) {
	var charge entity.Charge
	if !h.bind(c, &charge) {
		return
	}
	if err := h.parties.CreateCharge(c.Request.Context(), &charge); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: charge})
}

// CreateDocument handles POST /api/documents
func (h *Handlers) CreateDocument(c *gin.Context) {
	var input service.CreateDocumentInput
	if !h.bind(c, &input) {
		return
	}
	doc, err := h.documents.Create(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: doc})
}

// GetDocument handles GET /api/documents/:id
func (h *Handlers) GetDocument(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	doc, err := h.documents.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// SubmitDocument handles POST /api/documents/:id/submit
func (h *Handlers) SubmitDocument(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var input service.SubmitInput
	if !h.bind(c, &input) {
		return
	}
	doc, err := h.documents.Submit(c.Request.Context(), id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// MarkPaid handles POST /api/documents/:id/mark-paid
func (h *Handlers) MarkPaid(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.documents.MarkPaid(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// AddItem handles POST /api/documents/:id/items
func (h *Handlers) AddItem(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var input service.ItemInput
	if !h.bind(c, &input) {
		return
	}
	item, err := h.ledger.AddItem(c.Request.Context(), id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: item})
}

// EditItem handles PUT /api/documents/:id/items/:itemID
func (h *Handlers) EditItem(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "itemID")
	if !ok {
		return
	}
	var input service.ItemInput
	if !h.bind(c, &input) {
		return
	}
	item, err := h.ledger.EditItem(c.Request.Context(), id, itemID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: item})
}

// RemoveItem handles DELETE /api/documents/:id/items/:itemID
func (h *Handlers) RemoveItem(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "itemID")
	if !ok {
		return
	}
	if err := h.ledger.RemoveItem(c.Request.Context(), id, itemID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ListItems handles GET /api/documents/:id/items
// SubtotalOverrideRequest sets a manual subtotal on an itemless document.
type SubtotalOverrideRequest struct {
	Subtotal float64 `json:"subtotal"`
}

func (h *Handlers) OverrideSubtotal(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req SubtotalOverrideRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.ledger.OverrideSubtotal(c.Request.Context(), id, req.Subtotal); err != nil {
		h.respondError(c, err)
		return
	}
	doc, err := h.documents.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

func (h *Handlers) ListItems(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	items, err := h.ledger.ListItems(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: items})
}

// PullTimesheetEntries handles POST /api/documents/:id/timesheet-items
func (h *Handlers) PullTimesheetEntries(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	items, err := h.ledger.PullTimesheetEntries(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: items})
}

// ConsensusStatus handles GET /api/documents/:id/approvals
func (h *Handlers) ConsensusStatus(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	status, err := h.consensus.Status(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: status})
}

// SubmitApproval handles POST /api/documents/:id/approvals
func (h *Handlers) SubmitApproval(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	approverID, ok := h.actorID(c)
	if !ok {
		return
	}
	var req ApprovalRequest
	if !h.bind(c, &req) {
		return
	}
	record, err := h.consensus.Submit(c.Request.Context(), id, approverID, req.Decision, req.Comments)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: record})
}

// ExportStatement handles GET /api/documents/:id/export
func (h *Handlers) ExportStatement(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	doc, err := h.documents.Get(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	items, err := h.ledger.ListItems(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	ownerName := ""
	switch {
	case doc.ClientID != nil:
		if client, err := h.parties.GetClient(ctx, *doc.ClientID); err == nil {
			ownerName = client.Name
		}
	case doc.LeadID != nil:
		if lead, err := h.parties.GetLead(ctx, *doc.LeadID); err == nil {
			ownerName = lead.Name
		}
	}

	filename := fmt.Sprintf("%s.xlsx", doc.Number)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := h.statements.Write(c.Writer, doc, items, ownerName); err != nil {
		h.logger.Error("Statement export failed", "document_id", id, "error", err)
	}
}

// ClientViewDocument handles GET /client/documents/:id. The token query
// parameter is the only credential.
func (h *Handlers) ClientViewDocument(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := h.tokens.Validate(ctx, id, c.Query("token")); err != nil {
		h.respondError(c, err)
		return
	}

	doc, err := h.documents.Get(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	items, err := h.ledger.ListItems(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: ClientDocumentView{
		Number:         doc.Number,
		Kind:           doc.Kind,
		Currency:       doc.Currency,
		Subtotal:       doc.Subtotal,
		Amount:         doc.Amount,
		ClientDecision: doc.ClientDecision,
		Items:          items,
	}})
}

// ClientDecision handles POST /client/documents/:id/decision
func (h *Handlers) ClientDecision(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ClientDecisionRequest
	if !h.bind(c, &req) {
		return
	}
	ctx := c.Request.Context()

	if err := h.tokens.Validate(ctx, id, req.Token); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.tokens.RecordDecision(ctx, id, req.Decision, req.Reason); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

func (h *Handlers) bind(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return false
	}
	return true
}

func (h *Handlers) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func (h *Handlers) actorID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "missing or invalid X-User-ID header"})
		return 0, false
	}
	return id, true
}

// respondError maps the error taxonomy to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, fault.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, fault.ErrAuthorization):
		status = http.StatusForbidden
	case errors.Is(err, fault.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, fault.ErrPolicyViolation):
		status = http.StatusConflict
	case errors.Is(err, fault.ErrTokenInvalid):
		status = http.StatusUnauthorized
	case errors.Is(err, fault.ErrTokenExpired):
		status = http.StatusGone
	case errors.Is(err, fault.ErrTokenAlreadyDecided):
		status = http.StatusConflict
	default:
		h.logger.Error("Unclassified error", "error", err)
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}
