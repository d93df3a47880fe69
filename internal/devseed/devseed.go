// Package devseed populates a development database with assignment rules
// and sample tickets so the API is explorable immediately after db-seed.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/tallyworks/backoffice-api/internal/data"
	"github.com/tallyworks/backoffice-api/internal/domain/model"
	apperrors "github.com/tallyworks/backoffice-api/internal/errors"
	"github.com/tallyworks/backoffice-api/internal/service"
)

// Services carries the write path for seeding. Tickets go through
// TicketService so seeded data is subject to the same validation and
// assignment routing as API-created tickets.
type Services struct {
	tickets *service.TicketService
	rules   *data.AssignmentRuleRepo
}

// NewServices builds the seeding stack on top of an open database handle.
func NewServices(db *sql.DB) (Services, error) {
	ruleRepo := data.NewAssignmentRuleRepo(db)
	router, err := service.NewAssignmentRouter(service.AssignmentRouterOptions{
		Rules: ruleRepo,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build assignment router: %w", err)
	}

	ticketService := service.MustNewTicketService(service.TicketServiceOptions{
		Repo:   data.NewTicketRepo(db),
		Router: router,
	})

	return Services{tickets: ticketService, rules: ruleRepo}, nil
}

// Run seeds assignment rules and then sample tickets. Rules go in first so
// the tickets get routed through them.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if err := seedAssignmentRules(ctx, svcs.rules, logger); err != nil {
		return err
	}
	return seedTickets(ctx, svcs.tickets, logger)
}

// seedAssignmentRules replaces each seeded category's rule set with the
// defaults. Replacement keeps re-runs deterministic: editing a default and
// re-seeding converges instead of stacking duplicates.
func seedAssignmentRules(ctx context.Context, repo *data.AssignmentRuleRepo, logger *slog.Logger) error {
	for category, reqs := range DefaultAssignmentRules() {
		if _, err := repo.ReplaceCategoryRules(ctx, category, reqs); err != nil {
			return fmt.Errorf("seed %s rules: %w", category, err)
		}
		logger.InfoContext(ctx, "seeded assignment rules", "category", category, "rules", len(reqs))
	}
	return nil
}

// DefaultAssignmentRules returns the per-category rule sets installed by
// db-seed and seed-rules. Match expressions run against the ticket document
// (subject, description, category, priority, reporter_email).
func DefaultAssignmentRules() map[string][]model.CreateAssignmentRuleRequest {
	return map[string][]model.CreateAssignmentRuleRequest{
		"billing": {
			{
				Category: "billing",
				Role:     "refunds_team",
				Match:    `contains(subject, 'refund') || contains(description, 'refund')`,
				Position: 1,
			},
			{
				Category: "billing",
				Role:     "billing_team",
				Position: 2,
			},
		},
		"technical": {
			{
				Category: "technical",
				Role:     "oncall_engineers",
				Match:    `priority == 'urgent'`,
				Position: 1,
			},
			{
				Category: "technical",
				Role:     "helpdesk",
				Position: 2,
			},
		},
		"account": {
			{
				Category: "account",
				Role:     "identity_team",
				Match:    `contains(subject, 'password') || contains(subject, 'login')`,
				Position: 1,
			},
			{
				Category: "account",
				Role:     "helpdesk",
				Position: 2,
			},
		},
	}
}

// seedTickets creates the sample tickets, tolerating ones that already
// exist so re-runs stay quiet.
func seedTickets(ctx context.Context, svc *service.TicketService, logger *slog.Logger) error {
	var failed int
	for _, req := range defaultTickets() {
		created, err := createTicket(ctx, svc, req)
		switch {
		case err != nil:
			failed++
			logger.ErrorContext(ctx, "failed to create ticket", "subject", req.Subject, "error", err)
		case created:
			logger.InfoContext(ctx, "created ticket", "subject", req.Subject)
		default:
			logger.InfoContext(ctx, "ticket already exists", "subject", req.Subject)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d tickets failed to seed", failed)
	}
	return nil
}

func createTicket(ctx context.Context, svc *service.TicketService, req model.CreateTicketRequest) (bool, error) {
	if _, err := svc.Create(ctx, req); err != nil {
		if apperrors.IsConflict(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func defaultTickets() []model.CreateTicketRequest {
	return []model.CreateTicketRequest{
		{
			Subject:       "Refund for duplicate invoice 20417",
			Description:   "Charged twice for the May subscription, requesting a refund of the second charge.",
			Category:      "billing",
			ReporterEmail: "sam.delgado@example.com",
		},
		{
			Subject:       "Invoice PDF renders blank",
			Description:   "Downloading the April invoice produces an empty PDF.",
			Category:      "billing",
			ReporterEmail: "li.wen@example.com",
		},
		{
			Subject:       "Dashboard returns 502 since this morning",
			Description:   "All report pages fail with a gateway error, started around 08:30 UTC.",
			Category:      "technical",
			Priority:      model.TicketPriorityUrgent,
			ReporterEmail: "ops@acme-corp.example.com",
		},
		{
			Subject:       "CSV export drops the final row",
			Category:      "technical",
			ReporterEmail: "jordan.ruiz@example.com",
		},
		{
			Subject:       "Cannot reset password from the login page",
			Description:   "The reset link email never arrives.",
			Category:      "account",
			Priority:      model.TicketPriorityHigh,
			ReporterEmail: "dev.patel@example.com",
		},
	}
}
