package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tallyworks/backoffice-api/internal/domain/model"
)

// fakeRuleRepo serves a fixed rule set and records how it was queried.
type fakeRuleRepo struct {
	rules          []*model.AssignmentRule
	listErr        error
	lastActiveOnly *bool
}

func (f *fakeRuleRepo) Create(_ context.Context, _ model.CreateAssignmentRuleRequest) (*model.AssignmentRule, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRuleRepo) ListByCategory(_ context.Context, category string, activeOnly bool) ([]*model.AssignmentRule, error) {
	f.lastActiveOnly = &activeOnly
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*model.AssignmentRule, 0, len(f.rules))
	for _, rule := range f.rules {
		if rule.Category == category {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (f *fakeRuleRepo) List(_ context.Context, _, _ int) ([]*model.AssignmentRule, error) {
	return f.rules, nil
}

func (f *fakeRuleRepo) Delete(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (f *fakeRuleRepo) ReplaceCategoryRules(_ context.Context, _ string, _ []model.CreateAssignmentRuleRequest) ([]*model.AssignmentRule, error) {
	return nil, errors.New("not implemented")
}

// stubEvaluator returns canned results per expression.
type stubEvaluator struct {
	results map[string]any
	errs    map[string]error
}

func (s stubEvaluator) Validate(string) error { return nil }

func (s stubEvaluator) Evaluate(expr string, _ any) (any, error) {
	if err := s.errs[expr]; err != nil {
		return nil, err
	}
	return s.results[expr], nil
}

func billingRule(id, role, match string, position int) *model.AssignmentRule {
	return &model.AssignmentRule{
		ID:       id,
		Category: "billing",
		Role:     role,
		Match:    match,
		Position: position,
		Active:   true,
	}
}

func billingRequest(priority model.TicketPriority) model.CreateTicketRequest {
	return model.CreateTicketRequest{
		Subject:       "Refund for order 4421",
		Description:   "Customer paid twice",
		Category:      "billing",
		Priority:      priority,
		ReporterEmail: "clerk@example.com",
	}
}

func newTestRouter(t *testing.T, opts AssignmentRouterOptions) *AssignmentRouter {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	router, err := NewAssignmentRouter(opts)
	require.NoError(t, err)
	return router
}

func TestNewAssignmentRouter_RequiresRuleRepo(t *testing.T) {
	_, err := NewAssignmentRouter(AssignmentRouterOptions{})
	assert.ErrorContains(t, err, "AssignmentRuleRepository is required")
}

func TestAssignmentRouter_FirstTruthyMatchWins(t *testing.T) {
	repo := &fakeRuleRepo{rules: []*model.AssignmentRule{
		billingRule("r-1", "fraud_team", "expr_a", 0),
		billingRule("r-2", "refunds_team", "expr_b", 1),
		billingRule("r-3", "billing_desk", "", 2),
	}}
	router := newTestRouter(t, AssignmentRouterOptions{
		Rules: repo,
		Evaluator: stubEvaluator{results: map[string]any{
			"expr_a": false,
			"expr_b": true,
		}},
	})

	decision := router.Decide(context.Background(), billingRequest(model.TicketPriorityNormal))

	assert.Equal(t, "refunds_team", decision.Role)
	require.NotNil(t, decision.RuleID)
	assert.Equal(t, "r-2", *decision.RuleID)
	require.NotNil(t, repo.lastActiveOnly)
	assert.True(t, *repo.lastActiveOnly, "router should only consider active rules")
}

func TestAssignmentRouter_EmptyMatchAlwaysMatches(t *testing.T) {
	repo := &fakeRuleRepo{rules: []*model.AssignmentRule{
		billingRule("r-1", "billing_desk", "", 0),
	}}
	router := newTestRouter(t, AssignmentRouterOptions{Rules: repo, Evaluator: stubEvaluator{}})

	decision := router.Decide(context.Background(), billingRequest(model.TicketPriorityNormal))

	assert.Equal(t, "billing_desk", decision.Role)
	require.NotNil(t, decision.RuleID)
}

func TestAssignmentRouter_PriorityFallback(t *testing.T) {
	tests := []struct {
		priority model.TicketPriority
		wantRole string
	}{
		{model.TicketPriorityLow, model.RoleTriage},
		{model.TicketPriorityNormal, model.RoleTriage},
		{model.TicketPriorityHigh, model.RoleSupervisors},
		{model.TicketPriorityUrgent, model.RoleSupervisors},
	}
	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			router := newTestRouter(t, AssignmentRouterOptions{Rules: &fakeRuleRepo{}})

			decision := router.Decide(context.Background(), billingRequest(tt.priority))

			assert.Equal(t, tt.wantRole, decision.Role)
			assert.Nil(t, decision.RuleID, "fallback decisions carry no rule id")
		})
	}
}

func TestAssignmentRouter_FallsBackWhenRulesUnavailable(t *testing.T) {
	repo := &fakeRuleRepo{listErr: errors.New("connection refused")}
	router := newTestRouter(t, AssignmentRouterOptions{Rules: repo})

	decision := router.Decide(context.Background(), billingRequest(model.TicketPriorityUrgent))

	assert.Equal(t, model.RoleSupervisors, decision.Role)
	assert.Nil(t, decision.RuleID)
}

func TestAssignmentRouter_SkipsUnevaluableRule(t *testing.T) {
	repo := &fakeRuleRepo{rules: []*model.AssignmentRule{
		billingRule("r-1", "fraud_team", "broken(", 0),
		billingRule("r-2", "refunds_team", "expr_b", 1),
	}}
	router := newTestRouter(t, AssignmentRouterOptions{
		Rules: repo,
		Evaluator: stubEvaluator{
			results: map[string]any{"expr_b": true},
			errs:    map[string]error{"broken(": errors.New("syntax error")},
		},
	})

	decision := router.Decide(context.Background(), billingRequest(model.TicketPriorityNormal))

	require.NotNil(t, decision.RuleID)
	assert.Equal(t, "r-2", *decision.RuleID)
}

// The real evaluator, with the expression shapes rules actually use.
func TestAssignmentRouter_JMESPathExpressions(t *testing.T) {
	repo := &fakeRuleRepo{rules: []*model.AssignmentRule{
		billingRule("r-1", "supervisors", "priority == 'urgent' || priority == 'high'", 0),
		billingRule("r-2", "refunds_team", "contains(subject, 'Refund')", 1),
		billingRule("r-3", "billing_desk", "", 2),
	}}
	router := newTestRouter(t, AssignmentRouterOptions{Rules: repo})

	t.Run("priority expression", func(t *testing.T) {
		decision := router.Decide(context.Background(), billingRequest(model.TicketPriorityUrgent))
		assert.Equal(t, "supervisors", decision.Role)
	})

	t.Run("subject expression", func(t *testing.T) {
		decision := router.Decide(context.Background(), billingRequest(model.TicketPriorityNormal))
		assert.Equal(t, "refunds_team", decision.Role)
	})

	t.Run("catch-all rule", func(t *testing.T) {
		req := billingRequest(model.TicketPriorityNormal)
		req.Subject = "Invoice formatting question"
		decision := router.Decide(context.Background(), req)
		assert.Equal(t, "billing_desk", decision.Role)
	})
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
	}{
		{"nil", nil, false},
		{"false", false, false},
		{"true", true, true},
		{"empty string", "", false},
		{"string", "x", true},
		{"empty array", []any{}, false},
		{"array", []any{1}, true},
		{"empty object", map[string]any{}, false},
		{"object", map[string]any{"k": "v"}, true},
		{"zero number", 0.0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truthy(tt.in))
		})
	}
}
