package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/tallyworks/backoffice-api/internal/core"
	"github.com/tallyworks/backoffice-api/internal/domain/model"
)

// JMESPathEvaluator abstracts JMESPath operations for testability.
type JMESPathEvaluator interface {
	Validate(expr string) error
	Evaluate(expr string, data any) (any, error)
}

// jmespathLibEvaluator implements JMESPathEvaluator using go-jmespath.
type jmespathLibEvaluator struct{}

func (j jmespathLibEvaluator) Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

func (j jmespathLibEvaluator) Evaluate(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// AssignmentDecision is the routing outcome for a new ticket.
type AssignmentDecision struct {
	Role string
	// RuleID names the rule that decided; nil when the priority fallback did.
	RuleID *string
}

// AssignmentRouterOptions groups dependencies for AssignmentRouter.
type AssignmentRouterOptions struct {
	Rules     core.AssignmentRuleRepository
	Evaluator JMESPathEvaluator // Optional: defaults to the go-jmespath evaluator
	Logger    *slog.Logger      // Optional: structured logger
}

// AssignmentRouter picks the support role for a new ticket by running the
// category's active rules in position order against the ticket document.
type AssignmentRouter struct {
	rules  core.AssignmentRuleRepository
	jems   JMESPathEvaluator
	logger *slog.Logger
}

// NewAssignmentRouter constructs a new AssignmentRouter.
func NewAssignmentRouter(opts AssignmentRouterOptions) (*AssignmentRouter, error) {
	if opts.Rules == nil {
		return nil, errors.New("AssignmentRuleRepository is required")
	}
	jems := opts.Evaluator
	if jems == nil {
		jems = jmespathLibEvaluator{}
	}
	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "assignment_router")
	}
	return &AssignmentRouter{rules: opts.Rules, jems: jems, logger: logger}, nil
}

// Decide returns the first active rule whose match expression yields a truthy
// value. An empty match always matches. When no rule matches, when a rule
// cannot be evaluated, or when rules cannot be loaded at all, routing degrades
// to the priority fallback instead of failing ticket creation.
func (r *AssignmentRouter) Decide(ctx context.Context, req model.CreateTicketRequest) AssignmentDecision {
	rules, err := r.rules.ListByCategory(ctx, req.Category, true)
	if err != nil {
		if r.logger != nil {
			r.logger.WarnContext(ctx, "assignment rules unavailable, using priority fallback",
				"category", req.Category,
				"error", err,
			)
		}
		return AssignmentDecision{Role: model.FallbackRole(req.Priority)}
	}

	doc := ticketDocument(req)
	for _, rule := range rules {
		matched, err := r.matches(rule.Match, doc)
		if err != nil {
			if r.logger != nil {
				r.logger.WarnContext(ctx, "skipping unevaluable assignment rule",
					"rule_id", rule.ID,
					"match", rule.Match,
					"error", err,
				)
			}
			continue
		}
		if matched {
			ruleID := rule.ID
			return AssignmentDecision{Role: rule.Role, RuleID: &ruleID}
		}
	}

	return AssignmentDecision{Role: model.FallbackRole(req.Priority)}
}

func (r *AssignmentRouter) matches(expr string, doc map[string]any) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return true, nil
	}
	result, err := r.jems.Evaluate(expr, doc)
	if err != nil {
		return false, err
	}
	return truthy(result), nil
}

// ticketDocument is the shape match expressions are evaluated against.
func ticketDocument(req model.CreateTicketRequest) map[string]any {
	return map[string]any{
		"subject":        req.Subject,
		"description":    req.Description,
		"category":       req.Category,
		"priority":       string(req.Priority),
		"reporter_email": req.ReporterEmail,
	}
}

// truthy follows JMESPath semantics: null, false, empty strings, empty
// arrays, and empty objects are false; everything else, numbers included,
// is true.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
