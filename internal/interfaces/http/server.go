// Package http provides the HTTP adapter for the application layer.
// It is a thin translation layer: handlers bind requests, call one
// application service, and map the error taxonomy to status codes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/praxisdesk/praxisdesk/internal/application/service"
	"github.com/praxisdesk/praxisdesk/internal/export"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	documents service.DocumentService,
	ledger service.LedgerService,
	consensus service.ConsensusService,
	tokens service.TokenService,
	parties service.PartyService,
	statements *export.StatementWriter,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		handlers: NewHandlers(documents, ledger, consensus, tokens, parties, statements, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	// Health check
	s.router.GET("/health", h.HealthCheck)

	// Staff API. A trusted X-User-ID header stands in for the session
	// layer; requests without it are rejected where an actor is needed.
	api := s.router.Group("/api")
	{
		api.POST("/clients", h.CreateClient)
		api.GET("/clients/:id", h.GetClient)
		api.POST("/leads", h.CreateLead)
		api.GET("/leads/:id", h.GetLead)
		api.POST("/users", h.CreateUser)
		api.POST("/timesheets", h.CreateTimesheetEntry)
		api.POST("/timesheets/:id/unbill", h.UnbillTimesheetEntry)
		api.POST("/charges", h.CreateCharge)

		api.POST("/documents", h.CreateDocument)
		api.GET("/documents/:id", h.GetDocument)
		api.POST("/documents/:id/submit", h.SubmitDocument)
		api.POST("/documents/:id/mark-paid", h.MarkPaid)
		api.GET("/documents/:id/export", h.ExportStatement)

		api.POST("/documents/:id/items", h.AddItem)
		api.PUT("/documents/:id/items/:itemID", h.EditItem)
		api.DELETE("/documents/:id/items/:itemID", h.RemoveItem)
		api.GET("/documents/:id/items", h.ListItems)
		api.PUT("/documents/:id/subtotal", h.OverrideSubtotal)
		api.POST("/documents/:id/timesheet-items", h.PullTimesheetEntries)

		api.GET("/documents/:id/approvals", h.ConsensusStatus)
		api.POST("/documents/:id/approvals", h.SubmitApproval)
	}

	// External client surface: authenticated by the approval token alone.
	client := s.router.Group("/client")
	{
		client.GET("/documents/:id", h.ClientViewDocument)
		client.POST("/documents/:id/decision", h.ClientDecision)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
