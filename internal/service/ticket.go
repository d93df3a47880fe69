package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tallyworks/backoffice-api/internal/core"
	"github.com/tallyworks/backoffice-api/internal/data"
	"github.com/tallyworks/backoffice-api/internal/domain/model"
	apperrors "github.com/tallyworks/backoffice-api/internal/errors"
)

// TicketServiceOptions groups dependencies for TicketService.
type TicketServiceOptions struct {
	Repo   core.TicketRepository
	Router *AssignmentRouter
	Logger *slog.Logger // Optional: structured logger
}

// TicketService orchestrates ticket CRUD with rule-based assignment.
type TicketService struct {
	repo   core.TicketRepository
	router *AssignmentRouter
	logger *slog.Logger
}

// NewTicketService constructs a new TicketService.
func NewTicketService(opts TicketServiceOptions) (*TicketService, error) {
	if opts.Repo == nil {
		return nil, errors.New("TicketRepository is required")
	}
	if opts.Router == nil {
		return nil, errors.New("AssignmentRouter is required")
	}
	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "ticket_service")
	}
	return &TicketService{repo: opts.Repo, router: opts.Router, logger: logger}, nil
}

// MustNewTicketService constructs a new TicketService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewTicketService(opts TicketServiceOptions) *TicketService {
	svc, err := NewTicketService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create TicketService: %v", err))
	}
	return svc
}

// Create validates the request, rejects duplicates of a live ticket, runs the
// assignment rules, and stores the ticket with the routing decision.
func (s *TicketService) Create(ctx context.Context, req model.CreateTicketRequest) (*model.Ticket, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	exists, err := s.repo.ExistsOpenDuplicate(ctx, req.Category, req.Subject)
	if err != nil {
		return nil, fmt.Errorf("check duplicate ticket: %w", err)
	}
	if exists {
		return nil, duplicateTicketErr(req)
	}

	decision := s.router.Decide(ctx, req)

	ticket, err := s.repo.Create(ctx, core.CreateTicketParams{
		Request:        req,
		AssignedRole:   decision.Role,
		AssignedRuleID: decision.RuleID,
	})
	if err != nil {
		// The partial unique index catches races the pre-check missed.
		if errors.Is(err, data.ErrDuplicateTicket) {
			return nil, duplicateTicketErr(req)
		}
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "ticket created",
			"id", ticket.ID,
			"category", ticket.Category,
			"priority", ticket.Priority,
			"assigned_role", ticket.AssignedRole,
			"rule_assigned", decision.RuleID != nil,
		)
	}
	return ticket, nil
}

func duplicateTicketErr(req model.CreateTicketRequest) error {
	return apperrors.Conflictf("an open ticket for %q already exists in %s", req.Subject, req.Category)
}

// GetByID retrieves a ticket by ID.
func (s *TicketService) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrTicketNotFound) {
			return nil, apperrors.NotFoundf("ticket %s not found", id)
		}
		return nil, fmt.Errorf("get ticket %s: %w", id, err)
	}
	return ticket, nil
}

// List returns a page of tickets, optionally filtered by status and category.
func (s *TicketService) List(ctx context.Context, opts model.TicketsListOptions) ([]*model.Ticket, error) {
	tickets, err := s.repo.List(ctx, normalizeTicketListOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

// UpdateStatus applies a workflow transition after checking it is legal from
// the ticket's current state.
func (s *TicketService) UpdateStatus(
	ctx context.Context,
	id string,
	req model.UpdateTicketStatusRequest,
) (*model.Ticket, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(req.Status) {
		return nil, apperrors.Validationf("ticket %s cannot move from %s to %s", id, current.Status, req.Status)
	}

	ticket, err := s.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		if errors.Is(err, data.ErrTicketNotFound) {
			return nil, apperrors.NotFoundf("ticket %s not found", id)
		}
		return nil, fmt.Errorf("update ticket %s status: %w", id, err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "ticket status updated",
			"id", ticket.ID,
			"from", current.Status,
			"to", ticket.Status,
		)
	}
	return ticket, nil
}

// Assign reassigns a ticket to a role (and optionally a named assignee),
// overriding whatever the rules decided at creation.
func (s *TicketService) Assign(ctx context.Context, id string, req model.AssignTicketRequest) (*model.Ticket, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	ticket, err := s.repo.Assign(ctx, core.AssignTicketParams{
		ID:       id,
		Role:     req.Role,
		Assignee: req.Assignee,
	})
	if err != nil {
		if errors.Is(err, data.ErrTicketNotFound) {
			return nil, apperrors.NotFoundf("ticket %s not found", id)
		}
		return nil, fmt.Errorf("assign ticket %s: %w", id, err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "ticket reassigned",
			"id", ticket.ID,
			"role", ticket.AssignedRole,
		)
	}
	return ticket, nil
}

// Delete removes a ticket. Returns false when no ticket had that ID.
func (s *TicketService) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete ticket %s: %w", id, err)
	}
	if deleted && s.logger != nil {
		s.logger.InfoContext(ctx, "ticket deleted", "id", id)
	}
	return deleted, nil
}

// Stats returns per-status ticket counts.
func (s *TicketService) Stats(ctx context.Context) (*model.TicketStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("ticket stats: %w", err)
	}
	return stats, nil
}

func normalizeTicketListOptions(opts model.TicketsListOptions) model.TicketsListOptions {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}
