package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tallyworks/backoffice-api/internal/data"
	"github.com/tallyworks/backoffice-api/internal/domain/model"
)

// reportSubmitter is the slice of ReportJobService the scheduler uses.
type reportSubmitter interface {
	Submit(ctx context.Context, req model.SubmitReportRequest) (*model.ReportJob, error)
}

// ScheduleEntry pairs a report kind with a parsed cron schedule.
type ScheduleEntry struct {
	Kind model.ReportKind
	Spec string

	schedule cron.Schedule
	nextRun  time.Time
}

// ParseScheduleEntries parses a semicolon-separated schedule string of
// kind@cronspec pairs, e.g. "accounts@0 6 * * *;all@0 0 * * 0". Specs use the
// standard five-field crontab syntax plus descriptors like "@hourly" and
// "@every 1h".
func ParseScheduleEntries(raw string) ([]ScheduleEntry, error) {
	var entries []ScheduleEntry
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kindStr, spec, found := strings.Cut(part, "@")
		if !found {
			return nil, fmt.Errorf("schedule entry %q: want kind@cronspec", part)
		}
		kind := model.ReportKind(strings.TrimSpace(kindStr))
		if !kind.Valid() {
			return nil, fmt.Errorf("schedule entry %q: unknown report kind %q", part, strings.TrimSpace(kindStr))
		}
		// Cut split on the first "@". When the cron expression is itself a
		// descriptor ("hourly", "every 1h") that strips its marker, so put it back.
		spec = strings.TrimSpace(spec)
		if strings.HasPrefix(spec, "every ") || isCronDescriptor(spec) {
			spec = "@" + spec
		}
		schedule, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, fmt.Errorf("schedule entry %q: %w", part, err)
		}
		entries = append(entries, ScheduleEntry{Kind: kind, Spec: spec, schedule: schedule})
	}
	return entries, nil
}

func isCronDescriptor(spec string) bool {
	switch spec {
	case "hourly", "daily", "midnight", "weekly", "monthly", "yearly", "annually":
		return true
	}
	return false
}

// ReportSchedulerOptions groups dependencies for ReportScheduler.
type ReportSchedulerOptions struct {
	Jobs         reportSubmitter   // Required: report job service
	Entries      []ScheduleEntry   // Required: at least one schedule entry
	Logger       *slog.Logger      // Optional: structured logger
	TimeProvider data.TimeProvider // Optional: clock override for tests
}

// ReportScheduler submits report jobs on cron schedules. It runs a single
// timer loop that sleeps until the earliest next activation across all
// entries, submits whatever came due, and recomputes.
type ReportScheduler struct {
	jobs         reportSubmitter
	entries      []ScheduleEntry
	logger       *slog.Logger
	timeProvider data.TimeProvider
}

// NewReportScheduler constructs a new ReportScheduler.
func NewReportScheduler(opts ReportSchedulerOptions) (*ReportScheduler, error) {
	if opts.Jobs == nil {
		return nil, errors.New("Jobs is required")
	}
	if len(opts.Entries) == 0 {
		return nil, errors.New("at least one schedule entry is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "report_scheduler")
	}

	timeProvider := opts.TimeProvider
	if timeProvider == nil {
		timeProvider = &data.RealTimeProvider{}
	}

	// Copy so callers cannot mutate schedule state behind the loop's back.
	entries := make([]ScheduleEntry, len(opts.Entries))
	copy(entries, opts.Entries)

	return &ReportScheduler{
		jobs:         opts.Jobs,
		entries:      entries,
		logger:       logger,
		timeProvider: timeProvider,
	}, nil
}

// MustNewReportScheduler constructs a new ReportScheduler and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewReportScheduler(opts ReportSchedulerOptions) *ReportScheduler {
	s, err := NewReportScheduler(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create ReportScheduler: %v", err))
	}
	return s
}

// Run starts the scheduler loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReportScheduler) Run(ctx context.Context) error {
	s.seedNextRuns(s.timeProvider.Now())

	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting report scheduler", "entries", len(s.entries))
		for _, entry := range s.entries {
			s.logger.DebugContext(ctx, "report schedule registered",
				"kind", entry.Kind,
				"spec", entry.Spec,
				"first_run", entry.nextRun,
			)
		}
	}

	timer := time.NewTimer(0) // duration is Reset at the top of the loop
	<-timer.C

	for {
		timer.Reset(s.timeUntilNextRun())

		select {
		case <-ctx.Done():
			// The timer has not fired since its last reset, otherwise we
			// would have taken the other case. Drain if Stop loses the race.
			if !timer.Stop() {
				<-timer.C
			}
			if s.logger != nil {
				s.logger.InfoContext(ctx, "report scheduler stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-timer.C:
			s.submitDue(ctx)
		}
	}
}

// submitDue submits every entry due at or before now and advances its
// schedule. A failed submission is logged and skipped so one bad entry
// cannot starve the rest.
func (s *ReportScheduler) submitDue(ctx context.Context) {
	now := s.timeProvider.Now()
	// A small margin keeps an entry due a hair after the timer fired from
	// waiting out a full extra cycle.
	horizon := now.Add(10 * time.Millisecond)

	for i := range s.entries {
		entry := &s.entries[i]
		if entry.nextRun.After(horizon) {
			continue
		}
		entry.nextRun = entry.schedule.Next(now)

		job, err := s.jobs.Submit(ctx, model.SubmitReportRequest{Kind: entry.Kind})
		if err != nil {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "scheduled report submission failed",
					"kind", entry.Kind,
					"error", err,
				)
			}
			continue
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "scheduled report submitted",
				"kind", entry.Kind,
				"job_id", job.ID,
				"next_run", entry.nextRun,
			)
		}
	}
}

// seedNextRuns computes the first activation for every entry from now.
func (s *ReportScheduler) seedNextRuns(now time.Time) {
	for i := range s.entries {
		s.entries[i].nextRun = s.entries[i].schedule.Next(now)
	}
}

// timeUntilNextRun returns how long the loop should sleep before the
// earliest entry comes due. Zero when an entry is already overdue.
func (s *ReportScheduler) timeUntilNextRun() time.Duration {
	now := s.timeProvider.Now()

	var earliest time.Time
	for i := range s.entries {
		next := s.entries[i].nextRun
		if next.Before(now) {
			return 0
		}
		if earliest.IsZero() || next.Before(earliest) {
			earliest = next
		}
	}
	return earliest.Sub(now)
}
