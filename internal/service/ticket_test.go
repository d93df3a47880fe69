package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tallyworks/backoffice-api/internal/core"
	"github.com/tallyworks/backoffice-api/internal/data"
	"github.com/tallyworks/backoffice-api/internal/domain/model"
	apperrors "github.com/tallyworks/backoffice-api/internal/errors"
	"github.com/tallyworks/backoffice-api/internal/mocks"
	"go.uber.org/mock/gomock"
)

// fakeTicketRepo is an in-memory TicketRepository that records the params it
// receives so tests can assert on the service's decisions.
type fakeTicketRepo struct {
	existsOpen    bool
	existsErr     error
	createErr     error
	createdParams *core.CreateTicketParams
	lastListOpts  *model.TicketsListOptions
	tickets       map[string]*model.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*model.Ticket)}
}

func (f *fakeTicketRepo) Create(_ context.Context, params core.CreateTicketParams) (*model.Ticket, error) {
	f.createdParams = &params
	if f.createErr != nil {
		return nil, f.createErr
	}
	ticket := &model.Ticket{
		ID:             "tk-1",
		Subject:        params.Request.Subject,
		Description:    params.Request.Description,
		Category:       params.Request.Category,
		Priority:       params.Request.Priority,
		Status:         model.TicketStatusOpen,
		AssignedRole:   params.AssignedRole,
		Assignee:       params.Assignee,
		AssignedRuleID: params.AssignedRuleID,
		ReporterEmail:  params.Request.ReporterEmail,
	}
	f.tickets[ticket.ID] = ticket
	return ticket, nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*model.Ticket, error) {
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, data.ErrTicketNotFound
	}
	copied := *ticket
	return &copied, nil
}

func (f *fakeTicketRepo) List(_ context.Context, opts model.TicketsListOptions) ([]*model.Ticket, error) {
	f.lastListOpts = &opts
	out := make([]*model.Ticket, 0, len(f.tickets))
	for _, ticket := range f.tickets {
		out = append(out, ticket)
	}
	return out, nil
}

func (f *fakeTicketRepo) UpdateStatus(_ context.Context, id string, status model.TicketStatus) (*model.Ticket, error) {
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, data.ErrTicketNotFound
	}
	ticket.Status = status
	copied := *ticket
	return &copied, nil
}

func (f *fakeTicketRepo) Assign(_ context.Context, params core.AssignTicketParams) (*model.Ticket, error) {
	ticket, ok := f.tickets[params.ID]
	if !ok {
		return nil, data.ErrTicketNotFound
	}
	ticket.AssignedRole = params.Role
	ticket.Assignee = params.Assignee
	ticket.AssignedRuleID = nil
	copied := *ticket
	return &copied, nil
}

func (f *fakeTicketRepo) Delete(_ context.Context, id string) (bool, error) {
	_, ok := f.tickets[id]
	delete(f.tickets, id)
	return ok, nil
}

func (f *fakeTicketRepo) ExistsOpenDuplicate(_ context.Context, _, _ string) (bool, error) {
	return f.existsOpen, f.existsErr
}

func (f *fakeTicketRepo) Stats(_ context.Context) (*model.TicketStats, error) {
	return &model.TicketStats{Open: len(f.tickets)}, nil
}

func newTestTicketService(t *testing.T, repo core.TicketRepository, rules []*model.AssignmentRule) *TicketService {
	t.Helper()
	router := newTestRouter(t, AssignmentRouterOptions{Rules: &fakeRuleRepo{rules: rules}})
	svc, err := NewTicketService(TicketServiceOptions{
		Repo:   repo,
		Router: router,
		Logger: slog.Default(),
	})
	require.NoError(t, err)
	return svc
}

func TestNewTicketService(t *testing.T) {
	router := newTestRouter(t, AssignmentRouterOptions{Rules: &fakeRuleRepo{}})

	t.Run("returns error when repo is nil", func(t *testing.T) {
		_, err := NewTicketService(TicketServiceOptions{Router: router})
		assert.ErrorContains(t, err, "TicketRepository is required")
	})

	t.Run("returns error when router is nil", func(t *testing.T) {
		_, err := NewTicketService(TicketServiceOptions{Repo: newFakeTicketRepo()})
		assert.ErrorContains(t, err, "AssignmentRouter is required")
	})
}

func TestTicketService_CreateAssignsByRule(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newTestTicketService(t, repo, []*model.AssignmentRule{
		billingRule("r-1", "refunds_team", "contains(subject, 'Refund')", 0),
	})

	ticket, err := svc.Create(context.Background(), billingRequest(model.TicketPriorityNormal))
	require.NoError(t, err)

	assert.Equal(t, "refunds_team", ticket.AssignedRole)
	require.NotNil(t, ticket.AssignedRuleID)
	assert.Equal(t, "r-1", *ticket.AssignedRuleID)
	require.NotNil(t, repo.createdParams)
	assert.Equal(t, "refunds_team", repo.createdParams.AssignedRole)
}

func TestTicketService_CreateFallsBackByPriority(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newTestTicketService(t, repo, nil)

	ticket, err := svc.Create(context.Background(), billingRequest(model.TicketPriorityUrgent))
	require.NoError(t, err)

	assert.Equal(t, model.RoleSupervisors, ticket.AssignedRole)
	assert.Nil(t, ticket.AssignedRuleID)
}

func TestTicketService_CreateRejectsInvalidRequest(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newTestTicketService(t, repo, nil)

	req := billingRequest(model.TicketPriorityNormal)
	req.Subject = "   "

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Nil(t, repo.createdParams, "nothing should reach the repository")
}

func TestTicketService_CreateConflictsOnDuplicate(t *testing.T) {
	t.Run("pre-check", func(t *testing.T) {
		repo := newFakeTicketRepo()
		repo.existsOpen = true
		svc := newTestTicketService(t, repo, nil)

		_, err := svc.Create(context.Background(), billingRequest(model.TicketPriorityNormal))
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		assert.Nil(t, repo.createdParams)
	})

	t.Run("insert race", func(t *testing.T) {
		repo := newFakeTicketRepo()
		repo.createErr = data.ErrDuplicateTicket
		svc := newTestTicketService(t, repo, nil)

		_, err := svc.Create(context.Background(), billingRequest(model.TicketPriorityNormal))
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestTicketService_UpdateStatus(t *testing.T) {
	t.Run("legal transition", func(t *testing.T) {
		repo := newFakeTicketRepo()
		svc := newTestTicketService(t, repo, nil)
		created, err := svc.Create(context.Background(), billingRequest(model.TicketPriorityNormal))
		require.NoError(t, err)

		updated, err := svc.UpdateStatus(context.Background(), created.ID,
			model.UpdateTicketStatusRequest{Status: model.TicketStatusInProgress})
		require.NoError(t, err)
		assert.Equal(t, model.TicketStatusInProgress, updated.Status)
	})

	t.Run("skipping in_progress is rejected", func(t *testing.T) {
		repo := newFakeTicketRepo()
		svc := newTestTicketService(t, repo, nil)
		created, err := svc.Create(context.Background(), billingRequest(model.TicketPriorityNormal))
		require.NoError(t, err)

		_, err = svc.UpdateStatus(context.Background(), created.ID,
			model.UpdateTicketStatusRequest{Status: model.TicketStatusResolved})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Contains(t, err.Error(), "cannot move from open to resolved")
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		repo := newFakeTicketRepo()
		svc := newTestTicketService(t, repo, nil)

		_, err := svc.UpdateStatus(context.Background(), "tk-1",
			model.UpdateTicketStatusRequest{Status: "archived"})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("unknown ticket", func(t *testing.T) {
		repo := newFakeTicketRepo()
		svc := newTestTicketService(t, repo, nil)

		_, err := svc.UpdateStatus(context.Background(), "missing",
			model.UpdateTicketStatusRequest{Status: model.TicketStatusInProgress})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestTicketService_Assign(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newTestTicketService(t, repo, []*model.AssignmentRule{
		billingRule("r-1", "refunds_team", "", 0),
	})
	created, err := svc.Create(context.Background(), billingRequest(model.TicketPriorityNormal))
	require.NoError(t, err)
	require.NotNil(t, created.AssignedRuleID)

	assignee := "morgan"
	reassigned, err := svc.Assign(context.Background(), created.ID,
		model.AssignTicketRequest{Role: "Supervisors", Assignee: &assignee})
	require.NoError(t, err)

	assert.Equal(t, "supervisors", reassigned.AssignedRole, "role is normalized")
	require.NotNil(t, reassigned.Assignee)
	assert.Equal(t, "morgan", *reassigned.Assignee)
	assert.Nil(t, reassigned.AssignedRuleID, "manual assignment clears rule attribution")

	t.Run("empty role is rejected", func(t *testing.T) {
		_, err := svc.Assign(context.Background(), created.ID, model.AssignTicketRequest{Role: "  "})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestTicketService_GetByIDNotFound(t *testing.T) {
	svc := newTestTicketService(t, newFakeTicketRepo(), nil)

	_, err := svc.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTicketService_ListNormalizesOptions(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newTestTicketService(t, repo, nil)

	_, err := svc.List(context.Background(), model.TicketsListOptions{Limit: 0, Offset: -3})
	require.NoError(t, err)

	require.NotNil(t, repo.lastListOpts)
	assert.Equal(t, 50, repo.lastListOpts.Limit)
	assert.Equal(t, 0, repo.lastListOpts.Offset)
}

func TestTicketService_Delete(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newTestTicketService(t, repo, nil)
	created, err := svc.Create(context.Background(), billingRequest(model.TicketPriorityNormal))
	require.NoError(t, err)

	deleted, err := svc.Delete(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.Delete(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	var notFound error
	_, notFound = svc.GetByID(context.Background(), created.ID)
	assert.True(t, apperrors.IsNotFound(notFound))
}

func TestTicketService_CreateSurfacesExistsCheckFailure(t *testing.T) {
	repo := newFakeTicketRepo()
	repo.existsErr = errors.New("connection reset")
	svc := newTestTicketService(t, repo, nil)

	_, err := svc.Create(context.Background(), billingRequest(model.TicketPriorityNormal))
	require.Error(t, err)
	assert.ErrorContains(t, err, "check duplicate ticket")
}

func TestTicketService_CreatePassesDecisionToRepository(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rules := mocks.NewMockAssignmentRuleRepository(ctrl)
	repo := mocks.NewMockTicketRepository(ctrl)

	rules.EXPECT().ListByCategory(gomock.Any(), "billing", true).
		Return([]*model.AssignmentRule{billingRule("r-9", "refunds_team", "", 0)}, nil)
	repo.EXPECT().ExistsOpenDuplicate(gomock.Any(), "billing", "Refund for order 4421").
		Return(false, nil)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params core.CreateTicketParams) (*model.Ticket, error) {
			assert.Equal(t, "refunds_team", params.AssignedRole)
			if assert.NotNil(t, params.AssignedRuleID) {
				assert.Equal(t, "r-9", *params.AssignedRuleID)
			}
			return &model.Ticket{
				ID:             "tk-9",
				Status:         model.TicketStatusOpen,
				AssignedRole:   params.AssignedRole,
				AssignedRuleID: params.AssignedRuleID,
			}, nil
		},
	)

	router := newTestRouter(t, AssignmentRouterOptions{Rules: rules})
	svc, err := NewTicketService(TicketServiceOptions{Repo: repo, Router: router, Logger: slog.Default()})
	require.NoError(t, err)

	ticket, err := svc.Create(context.Background(), billingRequest(model.TicketPriorityNormal))
	require.NoError(t, err)
	assert.Equal(t, "tk-9", ticket.ID)
}

func TestTicketService_UpdateStatusSurfacesRepoFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockTicketRepository(ctrl)
	repo.EXPECT().GetByID(gomock.Any(), "tk-1").
		Return(&model.Ticket{ID: "tk-1", Status: model.TicketStatusOpen}, nil)
	repo.EXPECT().UpdateStatus(gomock.Any(), "tk-1", model.TicketStatusInProgress).
		Return(nil, errors.New("deadlock detected"))

	router := newTestRouter(t, AssignmentRouterOptions{Rules: mocks.NewMockAssignmentRuleRepository(ctrl)})
	svc, err := NewTicketService(TicketServiceOptions{Repo: repo, Router: router, Logger: slog.Default()})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), "tk-1",
		model.UpdateTicketStatusRequest{Status: model.TicketStatusInProgress})
	require.Error(t, err)
	assert.ErrorContains(t, err, "update ticket tk-1 status")
	assert.ErrorContains(t, err, "deadlock detected")
}
