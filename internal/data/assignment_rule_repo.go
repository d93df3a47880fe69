package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tallyworks/backoffice-api/internal/data/pgxutil"
	"github.com/tallyworks/backoffice-api/internal/domain/model"
)

// ErrDuplicateRulePosition is returned when a rule already occupies the
// requested position within its category.
var ErrDuplicateRulePosition = errors.New("assignment rule position already taken for this category")

// AssignmentRuleRepo provides database operations for ticket assignment rules.
type AssignmentRuleRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAssignmentRuleRepo creates a new AssignmentRuleRepo instance with the given database connection.
func NewAssignmentRuleRepo(db *sql.DB) *AssignmentRuleRepo {
	return &AssignmentRuleRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// NewAssignmentRuleRepoWithTimeProvider creates an AssignmentRuleRepo with a custom TimeProvider (useful for testing).
func NewAssignmentRuleRepoWithTimeProvider(db *sql.DB, timeProvider TimeProvider) *AssignmentRuleRepo {
	return &AssignmentRuleRepo{
		DB:           db,
		timeProvider: timeProvider,
	}
}

// Create inserts a new assignment rule.
func (r *AssignmentRuleRepo) Create(ctx context.Context, req model.CreateAssignmentRuleRequest) (*model.AssignmentRule, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var rule model.AssignmentRule
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO assignment_rules (category, role, match, position, active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+assignmentRuleColumns,
			req.Category, req.Role, req.Match, req.Position, ruleActive(req), r.timeProvider.Now())
		if err != nil {
			return err
		}
		defer rows.Close()
		rule, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.AssignmentRule])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create assignment rule: %w", mapAssignmentRuleWriteErr(err))
	}
	return &rule, nil
}

// ruleActive defaults to true when the request leaves Active unset, matching
// the column default.
func ruleActive(req model.CreateAssignmentRuleRequest) bool {
	if req.Active != nil {
		return *req.Active
	}
	return true
}

// ListByCategory returns the rules for a category in evaluation order
// (lowest position first). When activeOnly is set, disabled rules are
// filtered out so the caller can evaluate the result as-is.
func (r *AssignmentRuleRepo) ListByCategory(ctx context.Context, category string, activeOnly bool) ([]*model.AssignmentRule, error) {
	query := `SELECT ` + assignmentRuleColumns + ` FROM assignment_rules WHERE category = $1`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY position ASC, created_at ASC`

	var rules []model.AssignmentRule
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, category)
		if err != nil {
			return err
		}
		defer rows.Close()
		rules, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.AssignmentRule])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assignment rules by category: %w", err)
	}

	result := make([]*model.AssignmentRule, len(rules))
	for i := range rules {
		result[i] = &rules[i]
	}
	return result, nil
}

// List retrieves assignment rules across all categories with pagination.
func (r *AssignmentRuleRepo) List(ctx context.Context, limit, offset int) ([]*model.AssignmentRule, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rules []model.AssignmentRule
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+assignmentRuleColumns+` FROM assignment_rules
			ORDER BY category ASC, position ASC
			LIMIT $1 OFFSET $2`, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		rules, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.AssignmentRule])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assignment rules: %w", err)
	}

	result := make([]*model.AssignmentRule, len(rules))
	for i := range rules {
		result[i] = &rules[i]
	}
	return result, nil
}

// ReplaceCategoryRules swaps a category's rule set in a single transaction so
// the router never observes a half-replaced order. Rules still referenced by
// tickets block the replacement via the foreign key.
func (r *AssignmentRuleRepo) ReplaceCategoryRules(ctx context.Context, category string, reqs []model.CreateAssignmentRuleRequest) ([]*model.AssignmentRule, error) {
	rules := make([]*model.AssignmentRule, 0, len(reqs))
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM assignment_rules WHERE category = $1`, category); err != nil {
			return err
		}
		now := r.timeProvider.Now()
		for _, req := range reqs {
			// The method argument owns the category; per-request values are ignored.
			req.Category = category
			if err := req.Validate(); err != nil {
				return err
			}
			rows, err := tx.Query(ctx, `
				INSERT INTO assignment_rules (category, role, match, position, active, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING `+assignmentRuleColumns,
				category, req.Role, req.Match, req.Position, ruleActive(req), now)
			if err != nil {
				return err
			}
			rule, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.AssignmentRule])
			if err != nil {
				return err
			}
			rules = append(rules, &rule)
		}
		return nil
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to replace assignment rules for category %q: %w", category, mapAssignmentRuleWriteErr(err))
	}
	return rules, nil
}

// Delete deletes an assignment rule by its ID. Rules referenced by tickets
// are protected by a foreign key and cannot be removed.
func (r *AssignmentRuleRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM assignment_rules WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete assignment rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func mapAssignmentRuleWriteErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicateRulePosition
	}
	return err
}

const assignmentRuleColumns = `id, category, role, match, position, active, created_at`
