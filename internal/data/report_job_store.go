package data

import (
	"fmt"
	"sync"
	"time"

	"github.com/tallyworks/backoffice-api/internal/core"
	"github.com/tallyworks/backoffice-api/internal/domain/model"
)

// ReportJobStore is the in-memory report job registry. A single mutex
// serializes every operation, which makes id assignment, status transitions,
// and retention sweeps linearizable without any retry logic. Jobs are handed
// out as copies only, so callers can never mutate registry state.
//
// Job history intentionally does not survive a restart.
type ReportJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.ReportJob
	// order preserves insertion order for listing; it only ever contains
	// ids that are still present in jobs.
	order []string
}

var _ core.ReportJobStore = (*ReportJobStore)(nil)

// NewReportJobStore creates an empty registry.
func NewReportJobStore() *ReportJobStore {
	return &ReportJobStore{jobs: make(map[string]*model.ReportJob)}
}

// Insert adds a new job and returns the tracked-record count observed
// immediately after the insert. That count is also stamped on the record as
// its concurrency sample.
func (s *ReportJobStore) Insert(job model.ReportJob) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return 0, fmt.Errorf("insert job %s: %w", job.ID, ErrDuplicateReportJob)
	}
	stored := job.Clone()
	s.jobs[job.ID] = &stored
	s.order = append(s.order, job.ID)
	tracked := len(s.jobs)
	stored.Metrics.PeakTrackedJobs = tracked
	return tracked, nil
}

// GetByID returns a copy of the job or ErrReportJobNotFound.
func (s *ReportJobStore) GetByID(id string) (model.ReportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return model.ReportJob{}, fmt.Errorf("get job %s: %w", id, ErrReportJobNotFound)
	}
	return job.Clone(), nil
}

// Start transitions a pending job to processing and records its start time.
func (s *ReportJobStore) Start(id string, at time.Time) (model.ReportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return model.ReportJob{}, fmt.Errorf("start job %s: %w", id, ErrReportJobNotFound)
	}
	if !job.Status.CanTransitionTo(model.JobStatusProcessing) {
		return model.ReportJob{}, fmt.Errorf("start job %s from %s: %w", id, job.Status, ErrInvalidTransition)
	}
	job.Status = model.JobStatusProcessing
	startedAt := at
	job.StartedAt = &startedAt
	return job.Clone(), nil
}

// Complete transitions a processing job to completed and records its results.
func (s *ReportJobStore) Complete(params core.CompleteReportJobParams) (model.ReportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[params.ID]
	if !ok {
		return model.ReportJob{}, fmt.Errorf("complete job %s: %w", params.ID, ErrReportJobNotFound)
	}
	if !job.Status.CanTransitionTo(model.JobStatusCompleted) {
		return model.ReportJob{}, fmt.Errorf(
			"complete job %s from %s: %w", params.ID, job.Status, ErrInvalidTransition)
	}
	job.Status = model.JobStatusCompleted
	completedAt := params.CompletedAt
	job.CompletedAt = &completedAt
	job.ResultLocations = append([]string(nil), params.ResultLocations...)
	job.Metrics.ProcessingLatencyMillis = params.ProcessingLatencyMillis
	return job.Clone(), nil
}

// Fail transitions a processing job to failed and records the error.
func (s *ReportJobStore) Fail(params core.FailReportJobParams) (model.ReportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[params.ID]
	if !ok {
		return model.ReportJob{}, fmt.Errorf("fail job %s: %w", params.ID, ErrReportJobNotFound)
	}
	if !job.Status.CanTransitionTo(model.JobStatusFailed) {
		return model.ReportJob{}, fmt.Errorf(
			"fail job %s from %s: %w", params.ID, job.Status, ErrInvalidTransition)
	}
	job.Status = model.JobStatusFailed
	completedAt := params.CompletedAt
	job.CompletedAt = &completedAt
	errMsg := params.ErrorMessage
	job.LastError = &errMsg
	job.Metrics.ProcessingLatencyMillis = params.ProcessingLatencyMillis
	return job.Clone(), nil
}

// SetSubmissionLatency stamps the accept-path duration on a tracked job.
// The field is orthogonal to status, so the stamp lands even when the loop
// has already moved the job past pending.
func (s *ReportJobStore) SetSubmissionLatency(id string, millis float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("stamp submission latency for job %s: %w", id, ErrReportJobNotFound)
	}
	job.Metrics.SubmissionLatencyMillis = millis
	return nil
}

// List returns copies of every tracked job in insertion order.
func (s *ReportJobStore) List() []model.ReportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ReportJob, 0, len(s.order))
	for _, id := range s.order {
		if job, ok := s.jobs[id]; ok {
			out = append(out, job.Clone())
		}
	}
	return out
}

// Stats returns per-status counts of tracked jobs.
func (s *ReportJobStore) Stats() model.JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats model.JobStats
	for _, job := range s.jobs {
		switch job.Status {
		case model.JobStatusPending:
			stats.Pending++
		case model.JobStatusProcessing:
			stats.Processing++
		case model.JobStatusCompleted:
			stats.Completed++
		case model.JobStatusFailed:
			stats.Failed++
		}
	}
	return stats
}

// DeleteTerminalBefore removes terminal jobs completed before cutoff.
// Pending and processing jobs are never swept regardless of age.
func (s *ReportJobStore) DeleteTerminalBefore(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if !job.Status.Terminal() || job.CompletedAt == nil {
			continue
		}
		if job.CompletedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		kept := s.order[:0]
		for _, id := range s.order {
			if _, ok := s.jobs[id]; ok {
				kept = append(kept, id)
			}
		}
		s.order = kept
	}
	return removed
}
