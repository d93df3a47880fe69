package service

import (
	obsmetrics "github.com/tallyworks/backoffice-api/internal/observability/metrics"
)

// sweepExpired removes terminal records whose completion is older than the
// retention age. It runs after every processed job rather than on a timer,
// so an idle service retains stale records until the next submission wakes
// the loop. Pending and processing records are never swept.
func (s *ReportJobService) sweepExpired() {
	cutoff := s.timeProvider.Now().Add(-s.retentionAge)
	removed := s.store.DeleteTerminalBefore(cutoff)
	if removed == 0 {
		return
	}

	obsmetrics.EmitRetentionSweep(s.sink, removed)
	if s.logger != nil {
		s.logger.Debug("swept expired report jobs", "removed", removed, "cutoff", cutoff)
	}
}
