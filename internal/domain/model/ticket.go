package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxTicketSubjectLen  = 200
	maxTicketCategoryLen = 64
)

// TicketPriority ranks how urgently a ticket needs attention.
type TicketPriority string

// TicketStatus represents the workflow state of a ticket.
type TicketStatus string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityNormal TicketPriority = "normal"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"

	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether the priority is supported.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityNormal, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	default:
		return false
	}
}

// normalizeTicketPriority trims and lowercases the input, defaulting to normal when empty.
func normalizeTicketPriority(p TicketPriority) TicketPriority {
	normalized := TicketPriority(strings.ToLower(strings.TrimSpace(string(p))))
	if normalized == "" {
		return TicketPriorityNormal
	}
	return normalized
}

// Valid reports whether the ticket status is supported.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	default:
		return false
	}
}

// Open reports whether the ticket still needs work.
func (s TicketStatus) Open() bool {
	return s == TicketStatusOpen || s == TicketStatusInProgress
}

// CanTransitionTo reports whether the ticket workflow allows moving from s to next.
// Resolved tickets may be reopened; closed tickets are final.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	switch s {
	case TicketStatusOpen:
		return next == TicketStatusInProgress || next == TicketStatusClosed
	case TicketStatusInProgress:
		return next == TicketStatusResolved || next == TicketStatusOpen
	case TicketStatusResolved:
		return next == TicketStatusClosed || next == TicketStatusOpen
	default:
		return false
	}
}

// ParseTicketStatus normalizes a status string and reports whether it is supported.
func ParseTicketStatus(value string) (TicketStatus, bool) {
	status := TicketStatus(strings.ToLower(strings.TrimSpace(value)))
	if status.Valid() {
		return status, true
	}
	return "", false
}

// TicketsListOptions controls paging and filtering for listing tickets.
// Notes:
// - Status and Category match exactly.
// - Results are ordered newest first.
type TicketsListOptions struct {
	Limit    int
	Offset   int
	Status   *TicketStatus
	Category *string
}

// Ticket represents a back-office work item routed to a support role.
type Ticket struct {
	ID             string         `json:"id"                         db:"id"`
	Subject        string         `json:"subject"                    db:"subject"`
	Description    string         `json:"description"                db:"description"`
	Category       string         `json:"category"                   db:"category"`
	Priority       TicketPriority `json:"priority"                   db:"priority"`
	Status         TicketStatus   `json:"status"                     db:"status"`
	AssignedRole   string         `json:"assigned_role"              db:"assigned_role"`
	Assignee       *string        `json:"assignee,omitempty"         db:"assignee"`
	AssignedRuleID *string        `json:"assigned_rule_id,omitempty" db:"assigned_rule_id"`
	ReporterEmail  string         `json:"reporter_email"             db:"reporter_email"`
	CreatedAt      time.Time      `json:"created_at"                 db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"                 db:"updated_at"`
}

// CreateTicketRequest represents parameters to create a Ticket.
type CreateTicketRequest struct {
	Subject       string         `json:"subject"`
	Description   string         `json:"description,omitempty"`
	Category      string         `json:"category"`
	Priority      TicketPriority `json:"priority,omitempty"`
	ReporterEmail string         `json:"reporter_email"`
}

// UpdateTicketStatusRequest represents a ticket workflow transition.
type UpdateTicketStatusRequest struct {
	Status TicketStatus `json:"status"`
}

// AssignTicketRequest represents an explicit reassignment.
type AssignTicketRequest struct {
	Role     string  `json:"role"`
	Assignee *string `json:"assignee,omitempty"`
}

// Validate validates CreateTicketRequest and normalizes category and priority in place.
func (r *CreateTicketRequest) Validate() error {
	subject := strings.TrimSpace(r.Subject)
	if subject == "" {
		return errors.New("subject is required and cannot be empty")
	}
	if utf8.RuneCountInString(subject) > maxTicketSubjectLen {
		return errors.New("subject cannot exceed 200 characters")
	}
	category := strings.ToLower(strings.TrimSpace(r.Category))
	if category == "" {
		return errors.New("category is required")
	}
	if utf8.RuneCountInString(category) > maxTicketCategoryLen {
		return errors.New("category cannot exceed 64 characters")
	}
	email := strings.TrimSpace(r.ReporterEmail)
	if email == "" {
		return errors.New("reporter_email is required")
	}
	if !strings.Contains(email, "@") {
		return errors.New("reporter_email must be a valid email address")
	}
	r.Subject = subject
	r.Category = category
	r.ReporterEmail = email
	r.Priority = normalizeTicketPriority(r.Priority)
	if !r.Priority.Valid() {
		return errors.New("invalid priority")
	}
	return nil
}

// Validate validates UpdateTicketStatusRequest.
func (r *UpdateTicketStatusRequest) Validate() error {
	status, ok := ParseTicketStatus(string(r.Status))
	if !ok {
		return errors.New("invalid status")
	}
	r.Status = status
	return nil
}

// TicketStats represents counts of tickets in each workflow state.
type TicketStats struct {
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
	Closed     int `json:"closed"`
}

// Validate validates AssignTicketRequest.
func (r *AssignTicketRequest) Validate() error {
	role := strings.ToLower(strings.TrimSpace(r.Role))
	if role == "" {
		return errors.New("role is required")
	}
	r.Role = role
	if r.Assignee != nil {
		assignee := strings.TrimSpace(*r.Assignee)
		if assignee == "" {
			return errors.New("assignee cannot be empty")
		}
		*r.Assignee = assignee
	}
	return nil
}
