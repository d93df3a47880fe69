package metrics

import (
	"time"

	obserrors "github.com/tallyworks/backoffice-api/internal/observability/errors"
	"github.com/tallyworks/backoffice-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// ReportMetric captures details about a report job lifecycle event for metric emission.
type ReportMetric struct {
	Kind       string
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitReportLifecycle emits standardised report job lifecycle metrics.
func EmitReportLifecycle(sink statsd.Sink, in ReportMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"report_kind": in.Kind,
		"transition":  in.Transition,
		"result":      in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("report.transition", 1, tags)

	if in.Duration > 0 {
		sink.Timing("report.duration", in.Duration, CloneTags(tags))
	}
}

// EmitTrackedJobs records the current number of tracked report jobs.
func EmitTrackedJobs(sink statsd.Sink, tracked int) {
	if sink == nil {
		return
	}
	sink.Gauge("report.tracked_jobs", float64(tracked), nil)
}

// EmitRetentionSweep records how many expired report records a sweep removed.
func EmitRetentionSweep(sink statsd.Sink, removed int) {
	if sink == nil || removed <= 0 {
		return
	}
	sink.Count("report.retention.swept", int64(removed), nil)
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
