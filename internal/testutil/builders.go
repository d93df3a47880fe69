// Package testutil provides testing utilities and helpers for the tallyworks back office.
package testutil

import (
	"time"

	"github.com/tallyworks/backoffice-api/internal/domain/model"
)

// TicketRequestBuilder provides a fluent interface for building CreateTicketRequest objects for testing.
type TicketRequestBuilder struct {
	req *model.CreateTicketRequest
}

// NewTicketRequest creates a new TicketRequestBuilder with sensible defaults.
func NewTicketRequest() *TicketRequestBuilder {
	return &TicketRequestBuilder{
		req: &model.CreateTicketRequest{
			Subject:       "Quarterly numbers look off",
			Description:   "The accounts receivable report disagrees with the ledger.",
			Category:      "reporting",
			Priority:      model.TicketPriorityNormal,
			ReporterEmail: "clerk@example.com",
		},
	}
}

// WithSubject sets the ticket subject.
func (b *TicketRequestBuilder) WithSubject(subject string) *TicketRequestBuilder {
	b.req.Subject = subject
	return b
}

// WithDescription sets the ticket description.
func (b *TicketRequestBuilder) WithDescription(description string) *TicketRequestBuilder {
	b.req.Description = description
	return b
}

// WithCategory sets the ticket category.
func (b *TicketRequestBuilder) WithCategory(category string) *TicketRequestBuilder {
	b.req.Category = category
	return b
}

// WithPriority sets the ticket priority.
func (b *TicketRequestBuilder) WithPriority(priority model.TicketPriority) *TicketRequestBuilder {
	b.req.Priority = priority
	return b
}

// WithReporterEmail sets the reporter's email address.
func (b *TicketRequestBuilder) WithReporterEmail(email string) *TicketRequestBuilder {
	b.req.ReporterEmail = email
	return b
}

// Build returns the constructed CreateTicketRequest.
func (b *TicketRequestBuilder) Build() *model.CreateTicketRequest {
	return b.req
}

// Common ticket request presets

// UrgentTicketRequest creates an urgent ticket request with default values.
func UrgentTicketRequest() *model.CreateTicketRequest {
	return NewTicketRequest().
		WithSubject("Month-end close is blocked").
		WithPriority(model.TicketPriorityUrgent).
		Build()
}

// BillingTicketRequest creates a billing-category ticket request.
func BillingTicketRequest() *model.CreateTicketRequest {
	return NewTicketRequest().
		WithCategory("billing").
		WithSubject("Invoice totals missing VAT").
		Build()
}

// RuleRequestBuilder provides a fluent interface for building CreateAssignmentRuleRequest objects.
type RuleRequestBuilder struct {
	req model.CreateAssignmentRuleRequest
}

// NewRuleRequest creates a new RuleRequestBuilder with sensible defaults.
func NewRuleRequest() *RuleRequestBuilder {
	return &RuleRequestBuilder{
		req: model.CreateAssignmentRuleRequest{
			Category: "reporting",
			Role:     model.RoleTriage,
			Match:    "",
			Position: 0,
			Active:   BoolPtr(true),
		},
	}
}

// WithCategory sets the rule category.
func (b *RuleRequestBuilder) WithCategory(category string) *RuleRequestBuilder {
	b.req.Category = category
	return b
}

// WithRole sets the role the rule routes to.
func (b *RuleRequestBuilder) WithRole(role string) *RuleRequestBuilder {
	b.req.Role = role
	return b
}

// WithMatch sets the JMESPath match expression.
func (b *RuleRequestBuilder) WithMatch(match string) *RuleRequestBuilder {
	b.req.Match = match
	return b
}

// WithPosition sets the rule's evaluation position.
func (b *RuleRequestBuilder) WithPosition(position int) *RuleRequestBuilder {
	b.req.Position = position
	return b
}

// WithActive sets whether the rule is active.
func (b *RuleRequestBuilder) WithActive(active bool) *RuleRequestBuilder {
	b.req.Active = &active
	return b
}

// Build returns the constructed CreateAssignmentRuleRequest.
func (b *RuleRequestBuilder) Build() model.CreateAssignmentRuleRequest {
	return b.req
}

// ReportJobBuilder provides a fluent interface for building ReportJob fixtures.
type ReportJobBuilder struct {
	job model.ReportJob
}

// NewReportJob creates a ReportJobBuilder for a pending accounts job.
func NewReportJob(id string) *ReportJobBuilder {
	return &ReportJobBuilder{
		job: model.ReportJob{
			ID:          id,
			Kind:        model.ReportKindAccounts,
			Status:      model.JobStatusPending,
			SubmittedAt: TestTime(),
		},
	}
}

// WithKind sets the report kind.
func (b *ReportJobBuilder) WithKind(kind model.ReportKind) *ReportJobBuilder {
	b.job.Kind = kind
	return b
}

// WithStatus sets the job status.
func (b *ReportJobBuilder) WithStatus(status model.JobStatus) *ReportJobBuilder {
	b.job.Status = status
	return b
}

// WithSubmittedAt sets the submission time.
func (b *ReportJobBuilder) WithSubmittedAt(at time.Time) *ReportJobBuilder {
	b.job.SubmittedAt = at
	return b
}

// WithCompletedAt sets the completion time.
func (b *ReportJobBuilder) WithCompletedAt(at time.Time) *ReportJobBuilder {
	b.job.CompletedAt = &at
	return b
}

// WithResultLocations sets the artifact locations.
func (b *ReportJobBuilder) WithResultLocations(locations ...string) *ReportJobBuilder {
	b.job.ResultLocations = locations
	return b
}

// Build returns the constructed ReportJob.
func (b *ReportJobBuilder) Build() model.ReportJob {
	return b.job
}
