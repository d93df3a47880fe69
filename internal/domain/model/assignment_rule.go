package model

import (
	"errors"
	"strings"
	"time"
)

// Default roles used by the priority fallback when no rule matches.
const (
	RoleSupervisors = "supervisors"
	RoleTriage      = "triage"
)

// AssignmentRule routes new tickets in a category to a support role.
// Rules are evaluated in Position order; the first active rule whose Match
// expression yields a truthy value wins. An empty Match always matches.
type AssignmentRule struct {
	ID       string `json:"id"       db:"id"`
	Category string `json:"category" db:"category"`
	Role     string `json:"role"     db:"role"`
	// Match is a JMESPath expression evaluated against the ticket document.
	Match     string    `json:"match"      db:"match"`
	Position  int       `json:"position"   db:"position"`
	Active    bool      `json:"active"     db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateAssignmentRuleRequest represents parameters to create an AssignmentRule.
type CreateAssignmentRuleRequest struct {
	Category string `json:"category"`
	Role     string `json:"role"`
	Match    string `json:"match,omitempty"`
	Position int    `json:"position"`
	Active   *bool  `json:"active,omitempty"`
}

// Validate validates CreateAssignmentRuleRequest and normalizes category and role in place.
func (r *CreateAssignmentRuleRequest) Validate() error {
	category := strings.ToLower(strings.TrimSpace(r.Category))
	if category == "" {
		return errors.New("category is required")
	}
	role := strings.ToLower(strings.TrimSpace(r.Role))
	if role == "" {
		return errors.New("role is required")
	}
	if r.Position < 0 {
		return errors.New("position must be >= 0")
	}
	r.Category = category
	r.Role = role
	r.Match = strings.TrimSpace(r.Match)
	return nil
}

// FallbackRole picks the assignment role when no rule matched.
// Urgent and high priority tickets escalate to supervisors, everything
// else lands in triage.
func FallbackRole(priority TicketPriority) string {
	switch priority {
	case TicketPriorityUrgent, TicketPriorityHigh:
		return RoleSupervisors
	default:
		return RoleTriage
	}
}
