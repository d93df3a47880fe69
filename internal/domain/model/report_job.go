// Package model defines the core data types and structures used throughout the tallyworks back-office system.
package model

import (
	"errors"
	"strings"
	"time"
)

// ReportKind represents the kind of report a job produces.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type ReportKind string

// JobStatus represents the current status of a report job.
type JobStatus string

const (
	// ReportKindAccounts represents the per-account balance summary report.
	ReportKindAccounts ReportKind = "accounts"
	// ReportKindYearly represents the per-year debit/credit totals report.
	ReportKindYearly ReportKind = "yearly"
	// ReportKindFinancials represents the full financial statement report.
	ReportKindFinancials ReportKind = "fs"
	// ReportKindAll represents the composite kind that produces every single-kind report.
	ReportKindAll ReportKind = "all"

	// JobStatusPending indicates a job is waiting in the submission queue.
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing indicates a job is currently being generated.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted indicates a job has finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates a job has failed to complete.
	JobStatusFailed JobStatus = "failed"
)

// UnmarshalText implements encoding.TextUnmarshaler for ReportKind. It only
// normalizes the wire form; unknown kinds are kept as-is so the submission
// path can reject them with an invalid_kind error naming the value, instead
// of a generic decode failure.
func (k *ReportKind) UnmarshalText(text []byte) error {
	*k = ReportKind(strings.ToLower(strings.TrimSpace(string(text))))
	return nil
}

// Valid returns true if the ReportKind is valid.
func (k ReportKind) Valid() bool {
	return k == ReportKindAccounts || k == ReportKindYearly || k == ReportKindFinancials ||
		k == ReportKindAll
}

// Composite returns true if the kind fans out into multiple sub-reports.
func (k ReportKind) Composite() bool {
	return k == ReportKindAll
}

// Expand returns the single kinds executed for this kind, in execution order.
// Single kinds expand to themselves.
func (k ReportKind) Expand() []ReportKind {
	if k == ReportKindAll {
		return []ReportKind{ReportKindAccounts, ReportKindYearly, ReportKindFinancials}
	}
	return []ReportKind{k}
}

// SingleReportKinds lists every non-composite kind in execution order.
func SingleReportKinds() []ReportKind {
	return []ReportKind{ReportKindAccounts, ReportKindYearly, ReportKindFinancials}
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusProcessing || s == JobStatusCompleted ||
		s == JobStatusFailed
}

// Terminal returns true once a job can no longer change status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo reports whether the status machine allows moving from s to next.
// Jobs never skip the processing state and never leave a terminal state.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusProcessing
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

// JobStatuses lists every status in listing order.
func JobStatuses() []JobStatus {
	return []JobStatus{JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed}
}

// JobMetrics holds the per-job measurements recorded by the pipeline.
type JobMetrics struct {
	// SubmissionLatencyMillis is how long the submit call itself took.
	SubmissionLatencyMillis float64 `json:"submission_latency_ms"`
	// ProcessingLatencyMillis is the start-to-terminal duration. For composite
	// jobs it spans every sub-report.
	ProcessingLatencyMillis float64 `json:"processing_latency_ms"`
	// PeakTrackedJobs is the total tracked-record count observed when this job
	// was submitted.
	PeakTrackedJobs int `json:"peak_tracked_jobs"`
}

// ReportJob represents a report generation job with all its metadata and status information.
type ReportJob struct {
	ID              string     `json:"id"`
	Kind            ReportKind `json:"kind"`
	Status          JobStatus  `json:"status"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ResultLocations []string   `json:"result_locations,omitempty"`
	LastError       *string    `json:"last_error,omitempty"`
	Metrics         JobMetrics `json:"metrics"`
}

// Clone returns a deep copy of the job so registry internals never leak to callers.
func (j ReportJob) Clone() ReportJob {
	out := j
	if j.StartedAt != nil {
		t := *j.StartedAt
		out.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	if j.LastError != nil {
		s := *j.LastError
		out.LastError = &s
	}
	if j.ResultLocations != nil {
		out.ResultLocations = append([]string(nil), j.ResultLocations...)
	}
	return out
}

// SubmitReportRequest represents a request to submit a new report job.
type SubmitReportRequest struct {
	Kind ReportKind `json:"kind"`
}

// Validate validates the SubmitReportRequest fields.
func (r *SubmitReportRequest) Validate() error {
	if !r.Kind.Valid() {
		return errors.New("invalid report kind")
	}
	return nil
}

// JobStats represents counts of jobs in each state.
type JobStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Total returns the number of tracked jobs across all states.
func (s JobStats) Total() int {
	return s.Pending + s.Processing + s.Completed + s.Failed
}

// Terminal returns the number of jobs that reached a terminal state.
func (s JobStats) Terminal() int {
	return s.Completed + s.Failed
}
