package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tallyworks/backoffice-api/internal/core"
	"github.com/tallyworks/backoffice-api/internal/data/pgxutil"
	"github.com/tallyworks/backoffice-api/internal/domain/model"
)

// ErrDuplicateTicket is returned when an open ticket with the same category
// and subject already exists.
var ErrDuplicateTicket = errors.New("open ticket already exists for this category and subject")

// TicketRepo provides database operations for ticket management.
type TicketRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewTicketRepo creates a new TicketRepo instance with the given database connection.
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// NewTicketRepoWithTimeProvider creates a TicketRepo with a custom TimeProvider (useful for testing).
func NewTicketRepoWithTimeProvider(db *sql.DB, timeProvider TimeProvider) *TicketRepo {
	return &TicketRepo{
		DB:           db,
		timeProvider: timeProvider,
	}
}

// Create inserts a new open ticket with the assignment decision already made
// by the service layer.
func (r *TicketRepo) Create(ctx context.Context, params core.CreateTicketParams) (*model.Ticket, error) {
	now := r.timeProvider.Now()

	var ticket model.Ticket
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO tickets
				(subject, description, category, priority, status,
				 assigned_role, assignee, assigned_rule_id, reporter_email,
				 created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
			RETURNING `+ticketColumns,
			params.Request.Subject,
			params.Request.Description,
			params.Request.Category,
			params.Request.Priority,
			model.TicketStatusOpen,
			params.AssignedRole,
			params.Assignee,
			params.AssignedRuleID,
			params.Request.ReporterEmail,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		ticket, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Ticket])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", r.mapTicketWriteErr(err, false))
	}

	return &ticket, nil
}

// GetByID retrieves a ticket by its ID.
func (r *TicketRepo) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	var ticket model.Ticket
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, ticketGetByIDQuery, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		ticket, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Ticket])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket by ID: %w", err)
	}
	return &ticket, nil
}

// List retrieves tickets matching the options, newest first.
func (r *TicketRepo) List(ctx context.Context, opts model.TicketsListOptions) ([]*model.Ticket, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets`
	args := make([]any, 0, 4)
	conds := make([]string, 0, 2)
	argIdx := 1
	if opts.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *opts.Status)
		argIdx++
	}
	if opts.Category != nil {
		conds = append(conds, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, *opts.Category)
		argIdx++
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	var tickets []model.Ticket
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		tickets, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Ticket])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	result := make([]*model.Ticket, len(tickets))
	for i := range tickets {
		result[i] = &tickets[i]
	}
	return result, nil
}

// UpdateStatus persists a workflow transition already validated by the service.
func (r *TicketRepo) UpdateStatus(ctx context.Context, id string, status model.TicketStatus) (*model.Ticket, error) {
	var ticket model.Ticket
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE tickets SET status = $1, updated_at = $2
			WHERE id = $3
			RETURNING `+ticketColumns,
			status, r.timeProvider.Now(), id)
		if err != nil {
			return err
		}
		defer rows.Close()
		ticket, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Ticket])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update ticket status: %w", r.mapTicketWriteErr(err, true))
	}
	return &ticket, nil
}

// Assign reroutes a ticket to a role (and optionally a named assignee).
// Manual assignment clears the rule attribution.
func (r *TicketRepo) Assign(ctx context.Context, params core.AssignTicketParams) (*model.Ticket, error) {
	var ticket model.Ticket
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE tickets
			SET assigned_role = $1, assignee = $2, assigned_rule_id = NULL, updated_at = $3
			WHERE id = $4
			RETURNING `+ticketColumns,
			params.Role, params.Assignee, r.timeProvider.Now(), params.ID)
		if err != nil {
			return err
		}
		defer rows.Close()
		ticket, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Ticket])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assign ticket: %w", r.mapTicketWriteErr(err, true))
	}
	return &ticket, nil
}

// Delete deletes a ticket by its ID.
func (r *TicketRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete ticket: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ExistsOpenDuplicate reports whether an open or in-progress ticket with the
// same category and subject already exists.
func (r *TicketRepo) ExistsOpenDuplicate(ctx context.Context, category, subject string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM tickets
			WHERE category = $1 AND subject = $2 AND status IN ('open', 'in_progress')
		)`, category, subject).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate ticket: %w", err)
	}
	return exists, nil
}

// Stats returns counts of tickets in each workflow state.
func (r *TicketRepo) Stats(ctx context.Context) (*model.TicketStats, error) {
	var stats model.TicketStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'open'),
			COUNT(*) FILTER (WHERE status = 'in_progress'),
			COUNT(*) FILTER (WHERE status = 'resolved'),
			COUNT(*) FILTER (WHERE status = 'closed')
		FROM tickets`).
		Scan(&stats.Open, &stats.InProgress, &stats.Resolved, &stats.Closed)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket stats: %w", err)
	}
	return &stats, nil
}

// mapTicketWriteErr translates low-level write errors into repo sentinels.
func (r *TicketRepo) mapTicketWriteErr(err error, includeNotFound bool) error {
	if err == nil {
		return nil
	}
	if includeNotFound && errors.Is(err, pgx.ErrNoRows) {
		return ErrTicketNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicateTicket
	}
	return err
}

// ticketColumns is the canonical column list; it must stay in sync with
// model.Ticket's db tags for RowToStructByName scanning.
const ticketColumns = `id, subject, description, category, priority, status,
	assigned_role, assignee, assigned_rule_id, reporter_email, created_at, updated_at`

const ticketGetByIDQuery = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
