package service

import (
	"sync"
	"time"

	"github.com/tallyworks/backoffice-api/internal/domain/model"
)

// DefaultLegacyBaseline is how long a submission blocked back when reports
// were generated on the request path. Improvement percentages compare the
// current accept latency against it.
const DefaultLegacyBaseline = 2 * time.Second

// ReportMetrics accumulates pipeline statistics incrementally, so a snapshot
// never needs the full sample history. Averages follow
// newAvg = (oldAvg*(n-1) + sample) / n.
type ReportMetrics struct {
	mu                  sync.Mutex
	submissions         int
	avgSubmissionMillis float64
	processed           int
	avgProcessingMillis float64
	peakTracked         int
	baselineMillis      float64
}

// NewReportMetrics creates an aggregator measuring improvement against the
// given per-report baseline. A non-positive baseline falls back to
// DefaultLegacyBaseline.
func NewReportMetrics(legacyBaseline time.Duration) *ReportMetrics {
	if legacyBaseline <= 0 {
		legacyBaseline = DefaultLegacyBaseline
	}
	return &ReportMetrics{
		baselineMillis: float64(legacyBaseline) / float64(time.Millisecond),
	}
}

// RecordSubmission folds one submission latency sample into the running
// average and raises the tracked-jobs high-water mark when exceeded.
func (m *ReportMetrics) RecordSubmission(latencyMillis float64, tracked int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.submissions++
	m.avgSubmissionMillis = runningAverage(m.avgSubmissionMillis, latencyMillis, m.submissions)
	if tracked > m.peakTracked {
		m.peakTracked = tracked
	}
}

// RecordCompletion folds one start-to-terminal latency sample into the
// running average. Failed jobs count too; the sample measures how long the
// pipeline held the job, not whether the report came out.
func (m *ReportMetrics) RecordCompletion(latencyMillis float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processed++
	m.avgProcessingMillis = runningAverage(m.avgProcessingMillis, latencyMillis, m.processed)
}

// Snapshot combines the accumulated averages with the registry's current
// per-status counts. The success rate covers retained terminal records only,
// so it moves as old records are swept; the averages and the high-water mark
// cover the process lifetime.
func (m *ReportMetrics) Snapshot(stats model.JobStats) model.SystemMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := model.SystemMetrics{
		TotalProcessed:        m.processed,
		AvgSubmissionMillis:   m.avgSubmissionMillis,
		AvgProcessingMillis:   m.avgProcessingMillis,
		ConcurrencyCapability: m.peakTracked,
		LegacyComparison: model.LegacyComparison{
			BaselineMillis: m.baselineMillis,
			CurrentMillis:  m.avgSubmissionMillis,
		},
	}
	if terminal := stats.Terminal(); terminal > 0 {
		snap.SuccessRatePct = float64(stats.Completed) / float64(terminal) * 100
	}
	if m.submissions > 0 && m.baselineMillis > 0 {
		snap.LegacyComparison.ImprovementPct = (m.baselineMillis - m.avgSubmissionMillis) /
			m.baselineMillis * 100
	}
	return snap
}

func runningAverage(avg, sample float64, n int) float64 {
	return (avg*float64(n-1) + sample) / float64(n)
}
