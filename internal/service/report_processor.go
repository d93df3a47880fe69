package service

import (
	"context"
	"time"

	"github.com/tallyworks/backoffice-api/internal/core"
	"github.com/tallyworks/backoffice-api/internal/domain/model"
	apperrors "github.com/tallyworks/backoffice-api/internal/errors"
	obsmetrics "github.com/tallyworks/backoffice-api/internal/observability/metrics"
)

// processLoop drains the submission queue one job at a time and exits when
// the queue is empty or shutdown began. Queue pop and running-flag clear
// share the service mutex, so a concurrent submission either sees the loop
// still running or starts the next one itself.
//
// Known limitation: if the process crashes mid-generation, the record stays
// in processing forever. Nothing re-queues it because the registry is
// memory-only and rebuilt empty on restart.
func (s *ReportJobService) processLoop() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.closed {
			s.running = false
			s.mu.Unlock()
			return
		}
		id := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.processJob(s.baseCtx, id)
		s.sweepExpired()
	}
}

// processJob runs a single queued job through its full lifecycle:
// pending -> processing -> completed or failed.
func (s *ReportJobService) processJob(ctx context.Context, id string) {
	startedAt := s.timeProvider.Now()
	job, err := s.store.Start(id, startedAt)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "cannot start queued report job", "id", id, "error", err)
		}
		return
	}

	obsmetrics.EmitReportLifecycle(s.sink, obsmetrics.ReportMetric{
		Kind:       string(job.Kind),
		Transition: "started",
		Result:     obsmetrics.ResultSuccess,
	})

	locations, genErr := s.generateAll(ctx, job.Kind)

	completedAt := s.timeProvider.Now()
	latency := millisBetween(startedAt, completedAt)

	if genErr != nil {
		s.recordFailure(ctx, recordFailureParams{
			ID:          id,
			Kind:        job.Kind,
			CompletedAt: completedAt,
			Latency:     latency,
			Err:         genErr,
		})
		return
	}

	completed, err := s.store.Complete(core.CompleteReportJobParams{
		ID:                      id,
		CompletedAt:             completedAt,
		ResultLocations:         locations,
		ProcessingLatencyMillis: latency,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to record report completion", "id", id, "error", err)
		}
		return
	}

	s.metrics.RecordCompletion(latency)
	obsmetrics.EmitReportLifecycle(s.sink, obsmetrics.ReportMetric{
		Kind:       string(completed.Kind),
		Transition: "completed",
		Result:     obsmetrics.ResultSuccess,
		Duration:   completedAt.Sub(startedAt),
	})

	if s.logger != nil {
		s.logger.DebugContext(ctx, "report job completed",
			"id", completed.ID,
			"kind", completed.Kind,
			"locations", completed.ResultLocations,
			"processing_ms", latency,
		)
	}
}

// generateAll produces one artifact per expanded kind, in execution order.
// The first failure aborts the remaining kinds. Composite jobs therefore
// fail as a whole while keeping a single processing latency spanning every
// sub-report that ran.
func (s *ReportJobService) generateAll(ctx context.Context, kind model.ReportKind) ([]string, error) {
	kinds := kind.Expand()
	locations := make([]string, 0, len(kinds))
	for _, k := range kinds {
		location, err := s.generator.Generate(ctx, k)
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeGeneration, "generate %s report", k)
		}
		locations = append(locations, location)
	}
	return locations, nil
}

// recordFailureParams groups parameters for recordFailure to keep param count ≤3.
type recordFailureParams struct {
	ID          string
	Kind        model.ReportKind
	CompletedAt time.Time
	Latency     float64
	Err         error
}

func (s *ReportJobService) recordFailure(ctx context.Context, params recordFailureParams) {
	failed, err := s.store.Fail(core.FailReportJobParams{
		ID:                      params.ID,
		CompletedAt:             params.CompletedAt,
		ErrorMessage:            params.Err.Error(),
		ProcessingLatencyMillis: params.Latency,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to record report failure", "id", params.ID, "error", err)
		}
		return
	}

	s.metrics.RecordCompletion(params.Latency)
	obsmetrics.EmitReportLifecycle(s.sink, obsmetrics.ReportMetric{
		Kind:       string(failed.Kind),
		Transition: "failed",
		Result:     obsmetrics.ResultError,
		Err:        params.Err,
	})

	if s.logger != nil {
		s.logger.WarnContext(ctx, "report job failed",
			"id", failed.ID,
			"kind", failed.Kind,
			"error", params.Err,
		)
	}
}
