// Package core defines the contracts between the service layer and its
// collaborators (ports in hexagonal architecture). Service implementations
// depend on these interfaces, not concrete implementations.
package core

import (
	"context"
	"time"

	"github.com/tallyworks/backoffice-api/internal/domain/model"
)

// ReportJobStore defines the interface for the in-memory report job registry.
// Implementations must serialize all operations behind a single lock so that
// id assignment, transitions, and sweeps are linearizable. Every returned job
// is a copy; callers can never mutate registry state through it.
//
// The store is intentionally context-free: operations are non-blocking memory
// mutations, and job history does not survive a restart.
type ReportJobStore interface {
	// Insert adds a new pending job and returns the tracked-record count
	// observed immediately after the insert (the submission's concurrency
	// sample). Inserting a duplicate id is a programming error.
	Insert(job model.ReportJob) (int, error)

	// GetByID returns a copy of the job or ErrReportJobNotFound.
	GetByID(id string) (model.ReportJob, error)

	// Start transitions a pending job to processing.
	Start(id string, at time.Time) (model.ReportJob, error)

	// Complete transitions a processing job to completed.
	Complete(params CompleteReportJobParams) (model.ReportJob, error)

	// Fail transitions a processing job to failed.
	Fail(params FailReportJobParams) (model.ReportJob, error)

	// SetSubmissionLatency stamps the measured accept-path duration on a
	// tracked job once the submit call has done all its work. The stamp is
	// independent of status, so it stays safe to apply while the loop is
	// already processing the job.
	SetSubmissionLatency(id string, millis float64) error

	// List returns copies of every tracked job in insertion order.
	List() []model.ReportJob

	// Stats returns per-status counts of tracked jobs.
	Stats() model.JobStats

	// DeleteTerminalBefore removes terminal jobs whose CompletedAt is before
	// cutoff and returns how many were removed. Non-terminal jobs are never
	// touched.
	DeleteTerminalBefore(cutoff time.Time) int
}

// CompleteReportJobParams groups parameters for ReportJobStore.Complete to keep param count ≤3.
type CompleteReportJobParams struct {
	ID                      string
	CompletedAt             time.Time
	ResultLocations         []string
	ProcessingLatencyMillis float64
}

// FailReportJobParams groups parameters for ReportJobStore.Fail.
type FailReportJobParams struct {
	ID                      string
	CompletedAt             time.Time
	ErrorMessage            string
	ProcessingLatencyMillis float64
}

// ReportGenerator produces one report artifact for a single (non-composite)
// kind and returns its location. The processing loop expands composite kinds
// before calling. Implementations are swappable; tests substitute mocks.
type ReportGenerator interface {
	Generate(ctx context.Context, kind model.ReportKind) (string, error)
}

// CacheRepository defines the interface for caching operations.
// The result cache uses it to avoid re-reading artifacts from disk on
// repeated result fetches.
type CacheRepository interface {
	// Set stores a value in the cache with the given key and TTL.
	// If TTL is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value from the cache by key.
	// Returns nil if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key from the cache.
	// Returns true if the key was deleted, false if it didn't exist.
	Delete(ctx context.Context, key string) (bool, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}

// CreateTicketParams carries a validated create request plus the assignment
// decision computed by the service.
type CreateTicketParams struct {
	Request        model.CreateTicketRequest
	AssignedRole   string
	Assignee       *string
	AssignedRuleID *string
}

// AssignTicketParams groups parameters for TicketRepository.Assign.
type AssignTicketParams struct {
	ID       string
	Role     string
	Assignee *string
}

// TicketRepository defines the interface for ticket data operations.
type TicketRepository interface {
	Create(ctx context.Context, params CreateTicketParams) (*model.Ticket, error)
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
	List(ctx context.Context, opts model.TicketsListOptions) ([]*model.Ticket, error)
	// UpdateStatus persists a workflow transition already validated by the service.
	UpdateStatus(ctx context.Context, id string, status model.TicketStatus) (*model.Ticket, error)
	Assign(ctx context.Context, params AssignTicketParams) (*model.Ticket, error)
	Delete(ctx context.Context, id string) (bool, error)
	// ExistsOpenDuplicate reports whether an open or in-progress ticket with
	// the same category and subject already exists.
	ExistsOpenDuplicate(ctx context.Context, category, subject string) (bool, error)
	Stats(ctx context.Context) (*model.TicketStats, error)
}

// AssignmentRuleRepository defines the interface for assignment rule data operations.
type AssignmentRuleRepository interface {
	Create(ctx context.Context, req model.CreateAssignmentRuleRequest) (*model.AssignmentRule, error)
	// ListByCategory returns a category's rules ordered by position.
	ListByCategory(ctx context.Context, category string, activeOnly bool) ([]*model.AssignmentRule, error)
	List(ctx context.Context, limit, offset int) ([]*model.AssignmentRule, error)
	Delete(ctx context.Context, id string) (bool, error)
	// ReplaceCategoryRules atomically swaps a category's rule set. Rules still
	// referenced by tickets block the replacement.
	ReplaceCategoryRules(ctx context.Context, category string, reqs []model.CreateAssignmentRuleRequest) ([]*model.AssignmentRule, error)
}
