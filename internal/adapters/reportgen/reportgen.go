// Package reportgen provides the file-based report generator adapter.
//
// It renders report artifacts from ledger CSV files and writes them into an
// output directory shared with other processes (the admin CLI generates into
// the same directory), guarded by a file lock.
package reportgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/tallyworks/backoffice-api/internal/domain/model"
)

const (
	artifactLockName  = ".artifacts.lock"
	artifactLockRetry = 50 * time.Millisecond
)

// Options configures the file-based report generator.
type Options struct {
	LedgerDir string // Required: directory holding entries_*.csv ledger files
	OutputDir string // Required: directory artifacts are written to

	// Delays adds a simulated per-kind generation delay. Useful in dev
	// setups without real ledgers, where generation would otherwise finish
	// too fast to observe submission latency staying flat.
	Delays map[model.ReportKind]time.Duration

	Logger *slog.Logger // Optional: structured logger
}

// Generator renders report artifacts from ledger CSV files.
type Generator struct {
	ledgerDir string
	outputDir string
	delays    map[model.ReportKind]time.Duration
	logger    *slog.Logger
	lock      *flock.Flock
}

// New constructs a file-based Generator and creates the output directory if
// it does not exist yet.
func New(opts Options) (*Generator, error) {
	if opts.LedgerDir == "" {
		return nil, errors.New("LedgerDir is required")
	}
	if opts.OutputDir == "" {
		return nil, errors.New("OutputDir is required")
	}
	if err := os.MkdirAll(opts.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "report_generator")
	}

	return &Generator{
		ledgerDir: opts.LedgerDir,
		outputDir: opts.OutputDir,
		delays:    opts.Delays,
		logger:    logger,
		lock:      flock.New(filepath.Join(opts.OutputDir, artifactLockName)),
	}, nil
}

// Generate renders one report for a single kind and returns the artifact
// filename as its location. Composite kinds never reach this method; the
// processing loop expands them first.
func (g *Generator) Generate(ctx context.Context, kind model.ReportKind) (string, error) {
	if err := g.simulateDelay(ctx, kind); err != nil {
		return "", err
	}

	entries, err := g.loadLedger(ctx)
	if err != nil {
		return "", fmt.Errorf("load ledger: %w", err)
	}

	content, err := renderReport(kind, entries)
	if err != nil {
		return "", err
	}

	location := artifactName(kind)
	if err := g.writeArtifact(ctx, location, content); err != nil {
		return "", err
	}

	if g.logger != nil {
		g.logger.InfoContext(ctx, "report artifact written",
			"kind", kind,
			"location", location,
			"entries", len(entries),
			"bytes", len(content),
		)
	}
	return location, nil
}

// ReadArtifact returns the stored content of a previously generated artifact.
// The result endpoint uses it to inline document text next to locations.
func (g *Generator) ReadArtifact(_ context.Context, location string) ([]byte, error) {
	if location == "" || location != filepath.Base(location) {
		return nil, fmt.Errorf("invalid artifact location %q", location)
	}
	content, err := os.ReadFile(filepath.Join(g.outputDir, location)) // #nosec G304 -- location is rejected above unless it is a bare filename
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", location, err)
	}
	return content, nil
}

// artifactName builds a location like "accounts_3f9c01ab": the kind plus the
// first eight hex characters of a fresh UUID.
func artifactName(kind model.ReportKind) string {
	return fmt.Sprintf("%s_%s", kind, uuid.NewString()[:8])
}

func (g *Generator) simulateDelay(ctx context.Context, kind model.ReportKind) error {
	delay := g.delays[kind]
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// writeArtifact writes the rendered content under the directory lock. The
// lock serializes writers across processes; within one process the
// processing loop already serializes generation.
func (g *Generator) writeArtifact(ctx context.Context, location string, content []byte) error {
	if _, err := g.lock.TryLockContext(ctx, artifactLockRetry); err != nil {
		return fmt.Errorf("acquire artifact lock: %w", err)
	}
	defer func() { _ = g.lock.Unlock() }()

	if err := os.WriteFile(filepath.Join(g.outputDir, location), content, 0o600); err != nil {
		return fmt.Errorf("write artifact %s: %w", location, err)
	}
	return nil
}
