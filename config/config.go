package config

import (
	"os"
	"strings"
)

// AppConfig is the root configuration, composed from the domain-specific
// structs in this package and loaded from environment variables via
// github.com/caarlos0/env. See the individual files for the available
// variables:
//   - database.go: Postgres and Redis settings
//   - http.go: HTTP server settings
//   - services.go: service mode selection
//   - reports.go: report pipeline settings
//   - observability.go: metrics emission
type AppConfig struct {
	// IsDev enables development behavior such as debug logging.
	// Set DEV=true or APP_ENV=development.
	IsDev bool `env:"DEV" envDefault:"false"`

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP HTTPConfig

	// Services selects the modes this process runs, comma-separated.
	Services string `env:"SERVICES" envDefault:"http"`

	Reports ReportsConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to values loaded from the environment.
// Call it once after parsing.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Reports.Sanitize()
	c.Observability.Sanitize()
	c.detectDevMode()
}

// detectDevMode folds APP_ENV into IsDev so either variable can enable
// development behavior.
func (c *AppConfig) detectDevMode() {
	if c.IsDev {
		return
	}
	switch strings.ToLower(os.Getenv("APP_ENV")) {
	case "development", "dev":
		c.IsDev = true
	}
}

// GetEnabledServices parses the Services field into the set of enabled
// modes.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled reports whether the HTTP server mode is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	return c.modeEnabled(ServiceModeHTTP)
}

// IsReportSchedulerEnabled reports whether the report scheduler mode is
// enabled.
func (c *AppConfig) IsReportSchedulerEnabled() bool {
	return c.modeEnabled(ServiceModeReportScheduler)
}

func (c *AppConfig) modeEnabled(mode ServiceMode) bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[mode]
}
