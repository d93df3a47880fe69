package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tallyworks/backoffice-api/internal/domain/model"
)

// ReportsConfig contains report pipeline configuration.
type ReportsConfig struct {
	// LedgerDir is the directory holding entries_*.csv ledger files.
	LedgerDir string `env:"REPORT_LEDGER_DIR" envDefault:"./ledger"`

	// OutputDir is the directory report artifacts are written to.
	OutputDir string `env:"REPORT_OUTPUT_DIR" envDefault:"./reports"`

	// RetentionAge is how long terminal job records stay queryable after
	// completion before the sweeper evicts them.
	RetentionAge time.Duration `env:"REPORT_RETENTION_AGE" envDefault:"1h"`

	// LegacyBaseline is the request-path generation latency of the old
	// synchronous system; the metrics snapshot reports improvement over it.
	LegacyBaseline time.Duration `env:"REPORT_LEGACY_BASELINE" envDefault:"2s"`

	// SimulatedDelays adds per-kind generation delays for dev setups,
	// e.g. "accounts:2s,yearly:1500ms".
	SimulatedDelays map[string]time.Duration `env:"REPORT_SIMULATED_DELAYS"`

	// Schedules drives the report-scheduler service mode as semicolon-joined
	// kind@cronspec pairs, e.g. "accounts@0 6 * * *;all@0 0 * * 0".
	Schedules string `env:"REPORT_SCHEDULES" envDefault:""`

	// CacheResults toggles the Redis-backed result payload cache.
	CacheResults bool `env:"REPORT_CACHE_RESULTS" envDefault:"true"`
}

// Sanitize applies guardrails to report configuration values.
func (r *ReportsConfig) Sanitize() {
	if r.RetentionAge <= 0 {
		r.RetentionAge = time.Hour
	}
	if r.LegacyBaseline <= 0 {
		r.LegacyBaseline = 2 * time.Second
	}
}

// DelaysByKind converts SimulatedDelays keys to report kinds, rejecting
// unknown kind names so typos fail startup instead of silently never firing.
func (r *ReportsConfig) DelaysByKind() (map[model.ReportKind]time.Duration, error) {
	if len(r.SimulatedDelays) == 0 {
		return nil, nil
	}
	out := make(map[model.ReportKind]time.Duration, len(r.SimulatedDelays))
	for name, delay := range r.SimulatedDelays {
		kind := model.ReportKind(strings.ToLower(strings.TrimSpace(name)))
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown report kind %q in simulated delays", name)
		}
		out[kind] = delay
	}
	return out, nil
}
