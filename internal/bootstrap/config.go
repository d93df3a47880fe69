package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/tallyworks/backoffice-api/config"
)

// InitLogger builds the process-wide JSON logger and installs it as the
// slog default. It runs before configuration loads, so the level starts at
// Info; InitDevLogger switches to Debug once config reports dev mode.
func InitLogger() *slog.Logger {
	return initLogger(slog.LevelInfo)
}

// InitDevLogger swaps in a Debug-level logger for development mode.
func InitDevLogger() *slog.Logger {
	return initLogger(slog.LevelDebug)
}

func initLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig reads configuration from the environment, loading a .env file
// first when one is present. A missing .env file is fine; any other read
// failure is reported.
func LoadConfig() (config.AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// ValidateServiceConfig rejects configurations that enable no services.
func ValidateServiceConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("service config is required")
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("invalid service configuration: %w", err)
	}
	if len(services) == 0 {
		return errors.New("no services enabled")
	}
	return nil
}

// GetEnabledServices lists the enabled service names in stable order, for
// startup logging. A nil or unparsable config yields an empty list;
// ValidateServiceConfig is where such configs are rejected.
func GetEnabledServices(cfg *config.AppConfig) []string {
	names := []string{}
	if cfg == nil {
		return names
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		return names
	}
	for mode := range services {
		names = append(names, string(mode))
	}
	slices.Sort(names)
	return names
}
