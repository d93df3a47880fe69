package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tallyworks/backoffice-api/internal/core"
	"github.com/tallyworks/backoffice-api/internal/data"
	"github.com/tallyworks/backoffice-api/internal/domain/model"
	apperrors "github.com/tallyworks/backoffice-api/internal/errors"
	obsmetrics "github.com/tallyworks/backoffice-api/internal/observability/metrics"
	"github.com/tallyworks/backoffice-api/internal/observability/statsd"
)

// DefaultRetentionAge is how long terminal report records stay queryable
// after completion before a sweep removes them.
const DefaultRetentionAge = time.Hour

// ErrReportServiceClosed is returned for submissions after shutdown began.
var ErrReportServiceClosed = errors.New("report job service is closed")

const resultCacheKeyPrefix = "report_result:"

// ReportJobServiceConfig carries tuning knobs for the report pipeline.
type ReportJobServiceConfig struct {
	// RetentionAge is how long terminal records stay visible. Zero means
	// DefaultRetentionAge.
	RetentionAge time.Duration
	// LegacyBaseline is the per-report duration of the manual process that
	// this pipeline replaced. Zero means DefaultLegacyBaseline.
	LegacyBaseline time.Duration
}

// ReportJobServiceOptions groups dependencies for ReportJobService.
type ReportJobServiceOptions struct {
	Store        core.ReportJobStore  // Required: job registry
	Generator    core.ReportGenerator // Required: produces report artifacts
	Cache        core.CacheRepository // Optional: result read-through cache
	Config       ReportJobServiceConfig
	Logger       *slog.Logger      // Optional: structured logger
	Sink         statsd.Sink       // Optional: lifecycle metric emission
	TimeProvider data.TimeProvider // Optional: clock override for tests
}

// ReportJobService owns the report pipeline: it accepts submissions, drains
// them one at a time on a background loop, tracks every job's lifecycle in
// the registry, and aggregates pipeline metrics.
//
// The loop is demand-started. It spins up on the first submission, drains the
// queue to empty, and exits; a later submission starts a fresh one. The
// running flag and the queue share one mutex, so a submission either observes
// a live loop or becomes the one that starts it.
type ReportJobService struct {
	store        core.ReportJobStore
	generator    core.ReportGenerator
	cache        core.CacheRepository
	metrics      *ReportMetrics
	retentionAge time.Duration
	logger       *slog.Logger
	sink         statsd.Sink
	timeProvider data.TimeProvider

	mu      sync.Mutex
	queue   []string
	running bool
	closed  bool

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewReportJobService constructs a new ReportJobService.
func NewReportJobService(opts ReportJobServiceOptions) (*ReportJobService, error) {
	if opts.Store == nil {
		return nil, errors.New("ReportJobStore is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("ReportGenerator is required")
	}

	retention := opts.Config.RetentionAge
	if retention <= 0 {
		retention = DefaultRetentionAge
	}

	timeProvider := opts.TimeProvider
	if timeProvider == nil {
		timeProvider = &data.RealTimeProvider{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "report_job_service")
		logger.Debug("ReportJobService initialized",
			"retention_age", retention,
		)
	}

	baseCtx, cancel := context.WithCancel(context.Background())

	return &ReportJobService{
		store:        opts.Store,
		generator:    opts.Generator,
		cache:        opts.Cache,
		metrics:      NewReportMetrics(opts.Config.LegacyBaseline),
		retentionAge: retention,
		logger:       logger,
		sink:         opts.Sink,
		timeProvider: timeProvider,
		baseCtx:      baseCtx,
		cancel:       cancel,
	}, nil
}

// MustNewReportJobService constructs a new ReportJobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewReportJobService(opts ReportJobServiceOptions) *ReportJobService {
	svc, err := NewReportJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create ReportJobService: %v", err))
	}
	return svc
}

// Submit validates the request, registers a pending job under a fresh random
// id, and wakes the processing loop. It returns as soon as the job is queued;
// generation happens in the background.
func (s *ReportJobService) Submit(
	ctx context.Context,
	req model.SubmitReportRequest,
) (*model.ReportJob, error) {
	start := s.timeProvider.Now()

	if !req.Kind.Valid() {
		return nil, apperrors.InvalidKindf("unknown report kind %q", string(req.Kind))
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrReportServiceClosed
	}

	job := model.ReportJob{
		ID:          uuid.NewString(),
		Kind:        req.Kind,
		Status:      model.JobStatusPending,
		SubmittedAt: start,
	}

	tracked, err := s.store.Insert(job)
	if err != nil {
		return nil, fmt.Errorf("track report job: %w", err)
	}
	job.Metrics.PeakTrackedJobs = tracked

	s.enqueue(job.ID)

	// Measured after insert and enqueue so the figure covers the whole
	// accept path, not just building the record.
	latency := millisBetween(start, s.timeProvider.Now())
	job.Metrics.SubmissionLatencyMillis = latency
	if err := s.store.SetSubmissionLatency(job.ID, latency); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "submission latency not stamped", "id", job.ID, "error", err)
	}

	s.metrics.RecordSubmission(latency, tracked)
	obsmetrics.EmitReportLifecycle(s.sink, obsmetrics.ReportMetric{
		Kind:       string(job.Kind),
		Transition: "submitted",
		Result:     obsmetrics.ResultSuccess,
	})
	obsmetrics.EmitTrackedJobs(s.sink, tracked)

	if s.logger != nil {
		s.logger.DebugContext(ctx, "report job submitted",
			"id", job.ID,
			"kind", job.Kind,
			"tracked_jobs", tracked,
		)
	}

	return &job, nil
}

// enqueue appends the job id to the submission queue and starts the
// processing loop unless one is already draining.
func (s *ReportJobService) enqueue(id string) {
	s.mu.Lock()
	s.queue = append(s.queue, id)
	shouldStart := !s.running && !s.closed
	if shouldStart {
		s.running = true
		s.wg.Add(1)
	}
	s.mu.Unlock()

	if shouldStart {
		go s.processLoop()
	}
}

// Status returns the current state of a tracked job.
func (s *ReportJobService) Status(ctx context.Context, id string) (*model.ReportJob, error) {
	job, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, data.ErrReportJobNotFound) {
			return nil, apperrors.NotFoundf("report job %s not found", id)
		}
		return nil, fmt.Errorf("get report job %s: %w", id, err)
	}
	return &job, nil
}

// Result returns the generated documents for a completed job. Jobs that have
// not completed yet are rejected with a not_ready error naming their current
// status; failed jobs are rejected the same way with the stored failure.
func (s *ReportJobService) Result(ctx context.Context, id string) (*model.ReportResult, error) {
	job, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, data.ErrReportJobNotFound) {
			return nil, apperrors.NotFoundf("report job %s not found", id)
		}
		return nil, fmt.Errorf("get report job %s: %w", id, err)
	}

	if job.Status != model.JobStatusCompleted {
		return nil, apperrors.NotReadyf("report job %s is %s", id, job.Status)
	}

	if cached := s.cachedResult(ctx, id); cached != nil {
		return cached, nil
	}

	result := &model.ReportResult{
		JobID:     job.ID,
		Kind:      job.Kind,
		Locations: append([]string(nil), job.ResultLocations...),
	}
	s.attachDocuments(ctx, result)
	s.cacheResult(ctx, result)

	return result, nil
}

// artifactReader is an optional generator extension for loading generated
// artifact content back from storage.
type artifactReader interface {
	ReadArtifact(ctx context.Context, location string) ([]byte, error)
}

// attachDocuments loads artifact content when the generator supports reads.
// Missing artifacts degrade to locations-only results rather than failing the
// whole fetch.
func (s *ReportJobService) attachDocuments(ctx context.Context, result *model.ReportResult) {
	reader, ok := s.generator.(artifactReader)
	if !ok {
		return
	}
	for _, location := range result.Locations {
		content, err := reader.ReadArtifact(ctx, location)
		if err != nil {
			if s.logger != nil {
				s.logger.WarnContext(ctx, "failed to read report artifact",
					"job_id", result.JobID,
					"location", location,
					"error", err,
				)
			}
			continue
		}
		result.Documents = append(result.Documents, model.ReportDocument{
			Location: location,
			Content:  string(content),
		})
	}
}

func (s *ReportJobService) cachedResult(ctx context.Context, id string) *model.ReportResult {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, resultCacheKeyPrefix+id)
	if err != nil || raw == nil {
		return nil
	}
	var result model.ReportResult
	if err := json.Unmarshal(raw, &result); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "discarding malformed cached report result",
				"job_id", id,
				"error", err,
			)
		}
		return nil
	}
	return &result
}

// cacheResult stores the assembled result best-effort. The cache entry lives
// as long as the record itself would.
func (s *ReportJobService) cacheResult(ctx context.Context, result *model.ReportResult) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, resultCacheKeyPrefix+result.JobID, raw, s.retentionAge); err != nil {
		if s.logger != nil {
			s.logger.DebugContext(ctx, "failed to cache report result",
				"job_id", result.JobID,
				"error", err,
			)
		}
	}
}

// ListGrouped returns every tracked job bucketed by status. All four status
// buckets are always present; within a bucket jobs keep submission order.
func (s *ReportJobService) ListGrouped(ctx context.Context) map[model.JobStatus][]model.ReportJob {
	groups := make(map[model.JobStatus][]model.ReportJob, len(model.JobStatuses()))
	for _, status := range model.JobStatuses() {
		groups[status] = []model.ReportJob{}
	}
	for _, job := range s.store.List() {
		groups[job.Status] = append(groups[job.Status], job)
	}
	return groups
}

// MetricsSnapshot returns the current aggregated pipeline metrics.
func (s *ReportJobService) MetricsSnapshot(ctx context.Context) model.SystemMetrics {
	return s.metrics.Snapshot(s.store.Stats())
}

// QueueDepth reports how many submissions are waiting for the loop.
func (s *ReportJobService) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close stops accepting submissions, cancels in-flight generation, and waits
// for the processing loop to exit. Queued submissions that have not started
// are abandoned in pending state.
func (s *ReportJobService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	if s.logger != nil {
		s.logger.Info("report job service stopped")
	}
}

func millisBetween(from, to time.Time) float64 {
	return float64(to.Sub(from)) / float64(time.Millisecond)
}
