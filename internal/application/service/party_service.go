package service

import (
	"context"
	"strings"

	"github.com/praxisdesk/praxisdesk/internal/application/port"
	"github.com/praxisdesk/praxisdesk/internal/domain/entity"
	"github.com/praxisdesk/praxisdesk/internal/domain/fault"
	"github.com/praxisdesk/praxisdesk/pkg/utils"
)

// PartyService is the plain data-entry surface for clients, leads, staff
// users and billable source rows. No lifecycle logic lives here.
type PartyService interface {
	CreateClient(ctx context.Context, c *entity.Client) error
	GetClient(ctx context.Context, id int64) (*entity.Client, error)
	CreateLead(ctx context.Context, l *entity.Lead) error
	GetLead(ctx context.Context, id int64) (*entity.Lead, error)
	CreateUser(ctx context.Context, u *entity.User) error
	CreateTimesheetEntry(ctx context.Context, e *entity.TimesheetEntry) error
	CreateCharge(ctx context.Context, c *entity.Charge) error
}

type partyServiceImpl struct {
	clientRepo      port.ClientRepository
	leadRepo        port.LeadRepository
	userRepo        port.UserRepository
	timesheetRepo   port.TimesheetRepository
	chargeRepo      port.ChargeRepository
	defaultCurrency string
	logger          Logger
}

// NewPartyService creates a new PartyService
func NewPartyService(
	clientRepo port.ClientRepository,
	leadRepo port.LeadRepository,
	userRepo port.UserRepository,
	timesheetRepo port.TimesheetRepository,
	chargeRepo port.ChargeRepository,
	defaultCurrency string,
	logger Logger,
) PartyService {
	return &partyServiceImpl{
		clientRepo:      clientRepo,
		leadRepo:        leadRepo,
		userRepo:        userRepo,
		timesheetRepo:   timesheetRepo,
		chargeRepo:      chargeRepo,
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}
}

func (s *partyServiceImpl) CreateClient(ctx context.Context, c *entity.Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return fault.Validation("name", "is required")
	}
	if err := utils.ValidateEmail(c.Email); err != nil {
		return fault.Validation("email", err.Error())
	}
	if c.Currency == "" {
		c.Currency = s.defaultCurrency
	}
	if err := utils.ValidateCurrency(c.Currency); err != nil {
		return fault.Validation("currency", err.Error())
	}
	if err := s.clientRepo.Create(ctx, c); err != nil {
		s.logger.Error("Failed to create client", "error", err)
		return err
	}
	s.logger.Info("Client created", "id", c.ID, "name", c.Name)
	return nil
}

func (s *partyServiceImpl) GetClient(ctx context.Context, id int64) (*entity.Client, error) {
	c, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fault.NotFound("client", id)
	}
	return c, nil
}

func (s *partyServiceImpl) CreateLead(ctx context.Context, l *entity.Lead) error {
	if strings.TrimSpace(l.Name) == "" {
		return fault.Validation("name", "is required")
	}
	if err := utils.ValidateEmail(l.Email); err != nil {
		return fault.Validation("email", err.Error())
	}
	if err := s.leadRepo.Create(ctx, l); err != nil {
		s.logger.Error("Failed to create lead", "error", err)
		return err
	}
	s.logger.Info("Lead created", "id", l.ID, "name", l.Name)
	return nil
}

func (s *partyServiceImpl) GetLead(ctx context.Context, id int64) (*entity.Lead, error) {
	l, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fault.NotFound("lead", id)
	}
	return l, nil
}

func (s *partyServiceImpl) CreateUser(ctx context.Context, u *entity.User) error {
	if strings.TrimSpace(u.Name) == "" {
		return fault.Validation("name", "is required")
	}
	if err := utils.ValidateEmail(u.Email); err != nil {
		return fault.Validation("email", err.Error())
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		s.logger.Error("Failed to create user", "error", err)
		return err
	}
	s.logger.Info("User created", "id", u.ID, "name", u.Name)
	return nil
}

func (s *partyServiceImpl) CreateTimesheetEntry(ctx context.Context, e *entity.TimesheetEntry) error {
	if e.Hours <= 0 {
		return fault.Validation("hours", "must be positive")
	}
	if e.Rate < 0 {
		return fault.Validation("rate", "must not be negative")
	}
	client, err := s.clientRepo.GetByID(ctx, e.ClientID)
	if err != nil {
		return err
	}
	if client == nil {
		return fault.NotFound("client", e.ClientID)
	}
	assignee, err := s.userRepo.GetByID(ctx, e.AssigneeID)
	if err != nil {
		return err
	}
	if assignee == nil {
		return fault.NotFound("user", e.AssigneeID)
	}
	e.Notes = utils.SanitizeString(e.Notes)
	if err := s.timesheetRepo.Create(ctx, e); err != nil {
		s.logger.Error("Failed to create timesheet entry", "error", err)
		return err
	}
	s.logger.Info("Timesheet entry created", "id", e.ID, "client_id", e.ClientID, "hours", e.Hours)
	return nil
}

func (s *partyServiceImpl) CreateCharge(ctx context.Context, c *entity.Charge) error {
	if err := utils.ValidateAmount(c.Amount); err != nil {
		return fault.Validation("amount", err.Error())
	}
	client, err := s.clientRepo.GetByID(ctx, c.ClientID)
	if err != nil {
		return err
	}
	if client == nil {
		return fault.NotFound("client", c.ClientID)
	}
	c.Description = utils.SanitizeString(c.Description)
	if err := s.chargeRepo.Create(ctx, c); err != nil {
		s.logger.Error("Failed to create charge", "error", err)
		return err
	}
	s.logger.Info("Charge created", "id", c.ID, "client_id", c.ClientID, "amount", c.Amount)
	return nil
}
