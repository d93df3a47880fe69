package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ServiceMode names a runnable service within this binary.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP API server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeReportScheduler runs the cron-driven report submitter.
	ServiceModeReportScheduler ServiceMode = "report-scheduler"
)

// ValidServiceModes lists every recognised service mode.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeReportScheduler}
}

// ParseServices resolves a comma-separated list of service names into the
// set of enabled modes. Blank entries are skipped; unknown names and lists
// that enable nothing are errors.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	enabled := make(map[ServiceMode]bool)
	for _, part := range strings.Split(servicesStr, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		mode := ServiceMode(name)
		if !slices.Contains(ValidServiceModes(), mode) {
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, report-scheduler)", name)
		}
		enabled[mode] = true
	}
	if len(enabled) == 0 {
		return nil, errors.New("at least one service must be specified")
	}
	return enabled, nil
}
