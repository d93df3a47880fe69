package model

// LegacyComparison relates the async accept path to the synchronous wait it
// replaced. CurrentMillis mirrors the running average submission latency.
type LegacyComparison struct {
	BaselineMillis float64 `json:"baseline_ms"`
	CurrentMillis  float64 `json:"current_ms"`
	// ImprovementPct is (baseline - current) / baseline * 100. Zero until
	// the first submission lands.
	ImprovementPct float64 `json:"improvement_pct"`
}

// SystemMetrics is a point-in-time snapshot of the report pipeline aggregates.
// Snapshots are value copies; mutating one never affects the aggregator.
type SystemMetrics struct {
	// TotalProcessed counts jobs that reached a terminal state since startup.
	TotalProcessed int `json:"total_processed"`
	// AvgSubmissionMillis is the running average submit-call latency.
	AvgSubmissionMillis float64 `json:"avg_submission_ms"`
	// AvgProcessingMillis is the running average start-to-terminal latency.
	AvgProcessingMillis float64 `json:"avg_processing_ms"`
	// SuccessRatePct is completed/(completed+failed)*100 over currently
	// retained terminal jobs. Retention sweeps shrink the window.
	SuccessRatePct float64 `json:"success_rate_pct"`
	// ConcurrencyCapability is the high-water mark of simultaneously tracked jobs.
	ConcurrencyCapability int `json:"concurrency_capability"`
	// LegacyComparison measures how much faster accepting a job is now.
	LegacyComparison LegacyComparison `json:"legacy_comparison"`
}

// ReportDocument is one generated artifact belonging to a completed job.
type ReportDocument struct {
	Location string `json:"location"`
	Content  string `json:"content"`
}

// ReportResult is the payload returned for a completed report job.
type ReportResult struct {
	JobID     string           `json:"job_id"`
	Kind      ReportKind       `json:"kind"`
	Locations []string         `json:"locations"`
	Documents []ReportDocument `json:"documents,omitempty"`
}
