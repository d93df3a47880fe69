package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/tallyworks/backoffice-api/internal/adapters/reportgen"
	"github.com/tallyworks/backoffice-api/internal/domain/model"
)

type seedLedgerOptions struct {
	Dir   string
	Force bool
}

type generateOptions struct {
	Kind    model.ReportKind
	Timeout time.Duration
}

const defaultGenerateTimeout = 2 * time.Minute

func runSeedLedger(cmdCtx *commandContext, args []string) error {
	opts, err := parseSeedLedgerFlags(args)
	if err != nil {
		return err
	}

	dir := opts.Dir
	if dir == "" {
		dir = cmdCtx.Config.Reports.LedgerDir
	}

	written, err := seedLedgerFiles(dir, opts.Force)
	if err != nil {
		return err
	}
	if len(written) == 0 {
		return writef(os.Stdout, "Ledger files already present in %s; re-run with --force to overwrite.\n", dir)
	}

	for _, path := range written {
		if printErr := writef(os.Stdout, "wrote %s\n", path); printErr != nil {
			return printErr
		}
	}
	return nil
}

// seedLedgerFiles writes the sample ledgers into dir. Without force it
// refuses to touch a directory that already holds ledger files and reports
// nothing written.
func seedLedgerFiles(dir string, force bool) ([]string, error) {
	if dir == "" {
		return nil, errors.New("ledger directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	if !force {
		existing, err := filepath.Glob(filepath.Join(dir, "entries_*.csv"))
		if err != nil {
			return nil, fmt.Errorf("scan ledger directory: %w", err)
		}
		if len(existing) > 0 {
			return nil, nil
		}
	}

	ledgers := sampleLedgers()
	written := make([]string, 0, len(ledgers))
	for _, name := range sortedLedgerNames(ledgers) {
		path := filepath.Join(dir, name)
		if err := writeLedgerFile(path, ledgers[name]); err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeLedgerFile(path string, rows [][]string) error {
	f, err := os.Create(path) // #nosec G304 -- path is built from the operator-provided ledger directory
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	records := append([][]string{{"date", "account", "debit", "credit"}}, rows...)
	if writeErr := w.WriteAll(records); writeErr != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, writeErr)
	}
	if closeErr := f.Close(); closeErr != nil {
		return fmt.Errorf("close %s: %w", path, closeErr)
	}
	return nil
}

// sampleLedgers returns two small years of double-entry lines. Every row is
// single-sided: a debit row carries 0.00 credit and vice versa.
func sampleLedgers() map[string][][]string {
	return map[string][][]string{
		"entries_2024.csv": {
			{"2024-01-15", "cash", "12000.00", "0.00"},
			{"2024-01-15", "revenue:subscriptions", "0.00", "12000.00"},
			{"2024-03-02", "expenses:payroll", "7400.00", "0.00"},
			{"2024-03-02", "cash", "0.00", "7400.00"},
			{"2024-06-20", "accounts_receivable", "3150.00", "0.00"},
			{"2024-06-20", "revenue:consulting", "0.00", "3150.00"},
			{"2024-09-10", "expenses:office", "680.50", "0.00"},
			{"2024-09-10", "cash", "0.00", "680.50"},
		},
		"entries_2025.csv": {
			{"2025-01-15", "cash", "14500.00", "0.00"},
			{"2025-01-15", "revenue:subscriptions", "0.00", "14500.00"},
			{"2025-02-28", "cash", "3150.00", "0.00"},
			{"2025-02-28", "accounts_receivable", "0.00", "3150.00"},
			{"2025-04-05", "expenses:payroll", "8100.00", "0.00"},
			{"2025-04-05", "cash", "0.00", "8100.00"},
			{"2025-07-19", "expenses:office", "540.25", "0.00"},
			{"2025-07-19", "cash", "0.00", "540.25"},
		},
	}
}

func sortedLedgerNames(ledgers map[string][][]string) []string {
	names := make([]string, 0, len(ledgers))
	for name := range ledgers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseSeedLedgerFlags(args []string) (seedLedgerOptions, error) {
	fs := newFlagSet("seed-ledger")
	var opts seedLedgerOptions
	fs.StringVar(&opts.Dir, "dir", "", "Target directory (default: REPORT_LEDGER_DIR)")
	fs.BoolVar(&opts.Force, "force", false, "Overwrite existing ledger files")

	if err := fs.Parse(args); err != nil {
		return seedLedgerOptions{}, err
	}
	return opts, nil
}

func runGenerate(cmdCtx *commandContext, args []string) error {
	opts, err := parseGenerateFlags(args)
	if err != nil {
		return err
	}

	delays, err := cmdCtx.Config.Reports.DelaysByKind()
	if err != nil {
		return err
	}

	generator, err := reportgen.New(reportgen.Options{
		LedgerDir: cmdCtx.Config.Reports.LedgerDir,
		OutputDir: cmdCtx.Config.Reports.OutputDir,
		Delays:    delays,
		Logger:    cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("build report generator: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	// The pipeline expands composite kinds before generation; this command
	// does the same so --kind all produces every artifact.
	for _, kind := range opts.Kind.Expand() {
		location, genErr := generator.Generate(ctx, kind)
		if genErr != nil {
			return fmt.Errorf("generate %s report: %w", kind, genErr)
		}
		if printErr := writef(os.Stdout, "wrote %s\n", filepath.Join(cmdCtx.Config.Reports.OutputDir, location)); printErr != nil {
			return printErr
		}
	}
	return nil
}

func parseGenerateFlags(args []string) (generateOptions, error) {
	fs := newFlagSet("generate")
	opts := generateOptions{Timeout: defaultGenerateTimeout}
	kindName := string(model.ReportKindAccounts)
	fs.StringVar(&kindName, "kind", kindName, "Report kind to generate (accounts, yearly, fs, all)")
	fs.DurationVar(&opts.Timeout, "timeout", defaultGenerateTimeout, "Maximum duration to wait for generation to complete")
	if err := parseTimed(fs, args, &opts.Timeout); err != nil {
		return generateOptions{}, err
	}

	kind := model.ReportKind(strings.ToLower(strings.TrimSpace(kindName)))
	if !kind.Valid() {
		return generateOptions{}, fmt.Errorf("unknown report kind %q (valid: accounts, yearly, fs, all)", kindName)
	}
	opts.Kind = kind

	return opts, nil
}
