package data

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyworks/backoffice-api/internal/core"
	"github.com/tallyworks/backoffice-api/internal/domain/model"
	apperrors "github.com/tallyworks/backoffice-api/internal/errors"
	"github.com/tallyworks/backoffice-api/internal/testutil"
)

func newTicketParams(subject, category string) core.CreateTicketParams {
	return core.CreateTicketParams{
		Request: model.CreateTicketRequest{
			Subject:       subject,
			Description:   "numbers disagree with the ledger",
			Category:      category,
			Priority:      model.TicketPriorityNormal,
			ReporterEmail: "clerk@example.com",
		},
		AssignedRole: model.RoleTriage,
	}
}

func TestTicketRepo_Create_Get_List_Update_Delete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewTicketRepo(db)

		subject := fmt.Sprintf("ticket-%d", time.Now().UnixNano())

		// create
		created, err := repo.Create(ctx, newTicketParams(subject, "reporting"))
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		assert.Equal(t, model.TicketStatusOpen, created.Status)
		assert.Equal(t, model.TicketPriorityNormal, created.Priority)
		assert.Equal(t, model.RoleTriage, created.AssignedRole)
		assert.Nil(t, created.Assignee)
		assert.Nil(t, created.AssignedRuleID)
		assert.NotZero(t, created.CreatedAt)
		assert.Equal(t, created.CreatedAt, created.UpdatedAt)

		// get by id
		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Subject, got.Subject)
		assert.Equal(t, created.ReporterEmail, got.ReporterEmail)

		// list filtered by category
		cat := "reporting"
		lst, err := repo.List(ctx, model.TicketsListOptions{Category: &cat})
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(lst), 1)

		// list filtered by status excludes after transition
		updated, err := repo.UpdateStatus(ctx, created.ID, model.TicketStatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, model.TicketStatusInProgress, updated.Status)
		assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

		open := model.TicketStatusOpen
		lst, err = repo.List(ctx, model.TicketsListOptions{Status: &open, Category: &cat})
		require.NoError(t, err)
		for _, tk := range lst {
			assert.NotEqual(t, created.ID, tk.ID)
		}

		// assign to a named supervisor
		assigned, err := repo.Assign(ctx, core.AssignTicketParams{
			ID:       created.ID,
			Role:     model.RoleSupervisors,
			Assignee: testutil.StringPtr("morgan"),
		})
		require.NoError(t, err)
		assert.Equal(t, model.RoleSupervisors, assigned.AssignedRole)
		require.NotNil(t, assigned.Assignee)
		assert.Equal(t, "morgan", *assigned.Assignee)
		assert.Nil(t, assigned.AssignedRuleID)

		// delete
		deleted, err := repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = repo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, ErrTicketNotFound)

		// delete of a missing ticket reports false without error
		deleted, err = repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestTicketRepo_ListPagination(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewTicketRepo(db)

		category := fmt.Sprintf("cat-%d", time.Now().UnixNano())
		for i := range 5 {
			_, err := repo.Create(ctx, newTicketParams(fmt.Sprintf("pagination-%d", i), category))
			require.NoError(t, err)
		}

		page1, err := repo.List(ctx, model.TicketsListOptions{Limit: 2, Offset: 0, Category: &category})
		require.NoError(t, err)
		assert.Len(t, page1, 2)

		page2, err := repo.List(ctx, model.TicketsListOptions{Limit: 2, Offset: 2, Category: &category})
		require.NoError(t, err)
		assert.Len(t, page2, 2)
		assert.NotEqual(t, page1[0].ID, page2[0].ID)

		// newest first
		all, err := repo.List(ctx, model.TicketsListOptions{Category: &category})
		require.NoError(t, err)
		require.Len(t, all, 5)
		for i := 1; i < len(all); i++ {
			assert.False(t, all[i-1].CreatedAt.Before(all[i].CreatedAt))
		}
	})
}

func TestTicketRepo_ExistsOpenDuplicate(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewTicketRepo(db)

		subject := fmt.Sprintf("dup-%d", time.Now().UnixNano())
		created, err := repo.Create(ctx, newTicketParams(subject, "billing"))
		require.NoError(t, err)

		exists, err := repo.ExistsOpenDuplicate(ctx, "billing", subject)
		require.NoError(t, err)
		assert.True(t, exists)

		// a different category does not collide
		exists, err = repo.ExistsOpenDuplicate(ctx, "reporting", subject)
		require.NoError(t, err)
		assert.False(t, exists)

		// in_progress still blocks
		_, err = repo.UpdateStatus(ctx, created.ID, model.TicketStatusInProgress)
		require.NoError(t, err)
		exists, err = repo.ExistsOpenDuplicate(ctx, "billing", subject)
		require.NoError(t, err)
		assert.True(t, exists)

		// resolving frees the subject for reuse
		_, err = repo.UpdateStatus(ctx, created.ID, model.TicketStatusResolved)
		require.NoError(t, err)
		exists, err = repo.ExistsOpenDuplicate(ctx, "billing", subject)
		require.NoError(t, err)
		assert.False(t, exists)

		again, err := repo.Create(ctx, newTicketParams(subject, "billing"))
		require.NoError(t, err)
		assert.NotEqual(t, created.ID, again.ID)
	})
}

func TestTicketRepo_DuplicateOpenTicketRejected(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewTicketRepo(db)

		subject := fmt.Sprintf("race-%d", time.Now().UnixNano())
		_, err := repo.Create(ctx, newTicketParams(subject, "billing"))
		require.NoError(t, err)

		// second open ticket with same category+subject trips the partial unique index
		_, err = repo.Create(ctx, newTicketParams(subject, "billing"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateTicket)
	})
}

func TestTicketRepo_UpdateStatusNotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewTicketRepo(db)

		_, err := repo.UpdateStatus(ctx, "00000000-0000-0000-0000-000000000000", model.TicketStatusClosed)
		assert.ErrorIs(t, err, ErrTicketNotFound)

		_, err = repo.Assign(ctx, core.AssignTicketParams{
			ID:   "00000000-0000-0000-0000-000000000000",
			Role: model.RoleTriage,
		})
		assert.ErrorIs(t, err, ErrTicketNotFound)
	})
}

func TestTicketRepo_AssignedRuleForeignKey(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		ticketRepo := NewTicketRepo(db)
		ruleRepo := NewAssignmentRuleRepo(db)

		rule, err := ruleRepo.Create(ctx, model.CreateAssignmentRuleRequest{
			Category: fmt.Sprintf("fk-%d", time.Now().UnixNano()),
			Role:     model.RoleSupervisors,
			Match:    "priority == 'urgent'",
			Position: 0,
			Active:   testutil.BoolPtr(true),
		})
		require.NoError(t, err)

		params := newTicketParams(fmt.Sprintf("fk-ticket-%d", time.Now().UnixNano()), rule.Category)
		params.AssignedRole = rule.Role
		params.AssignedRuleID = &rule.ID
		ticket, err := ticketRepo.Create(ctx, params)
		require.NoError(t, err)
		require.NotNil(t, ticket.AssignedRuleID)
		assert.Equal(t, rule.ID, *ticket.AssignedRuleID)

		// the referenced rule cannot be deleted while the ticket exists
		_, err = ruleRepo.Delete(ctx, rule.ID)
		require.Error(t, err)
		appErr := apperrors.MapDBError(err)
		assert.True(t, apperrors.IsForeignKey(appErr), "expected foreign key violation, got: %v", appErr)

		// once the ticket is gone the rule can be removed
		_, err = ticketRepo.Delete(ctx, ticket.ID)
		require.NoError(t, err)
		deleted, err := ruleRepo.Delete(ctx, rule.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
	})
}

func TestTicketRepo_Stats(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewTicketRepo(db)

		base, err := repo.Stats(ctx)
		require.NoError(t, err)

		nano := time.Now().UnixNano()
		open, err := repo.Create(ctx, newTicketParams(fmt.Sprintf("stats-open-%d", nano), "reporting"))
		require.NoError(t, err)
		inProgress, err := repo.Create(ctx, newTicketParams(fmt.Sprintf("stats-progress-%d", nano), "reporting"))
		require.NoError(t, err)
		_, err = repo.UpdateStatus(ctx, inProgress.ID, model.TicketStatusInProgress)
		require.NoError(t, err)
		closed, err := repo.Create(ctx, newTicketParams(fmt.Sprintf("stats-closed-%d", nano), "reporting"))
		require.NoError(t, err)
		_, err = repo.UpdateStatus(ctx, closed.ID, model.TicketStatusClosed)
		require.NoError(t, err)

		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, base.Open+1, stats.Open)
		assert.Equal(t, base.InProgress+1, stats.InProgress)
		assert.Equal(t, base.Closed+1, stats.Closed)

		_, err = repo.Delete(ctx, open.ID)
		require.NoError(t, err)
	})
}

func TestTicketRepo_TimeProvider(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		tp := NewFixedTimeProvider(testutil.TestTime())
		repo := NewTicketRepoWithTimeProvider(db, tp)

		created, err := repo.Create(ctx, newTicketParams(fmt.Sprintf("time-%d", time.Now().UnixNano()), "reporting"))
		require.NoError(t, err)
		assert.WithinDuration(t, testutil.TestTime(), created.CreatedAt, time.Second)

		tp.AddTime(45 * time.Minute)
		updated, err := repo.UpdateStatus(ctx, created.ID, model.TicketStatusInProgress)
		require.NoError(t, err)
		assert.WithinDuration(t, testutil.TestTime().Add(45*time.Minute), updated.UpdatedAt, time.Second)
	})
}
