// Command tallyworks-admin bundles operator tasks for the back-office API:
// schema migrations, database resets, development seeding, and offline
// report generation.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tallyworks/backoffice-api/config"
	"github.com/tallyworks/backoffice-api/internal/bootstrap"
	"github.com/tallyworks/backoffice-api/internal/devseed"
)

const defaultMigrationTimeout = 5 * time.Minute

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

type command struct {
	name    string
	summary string
	run     func(*commandContext, []string) error
}

// commands are listed in the order they appear in usage output.
var commands = []command{
	{"migrate", "Run database migrations", runMigrate},
	{"db-reset", "Drop the database schema, run migrations, and optionally seed data", runDBReset},
	{"db-seed", "Run database migrations and seed development data", runDBSeed},
	{"seed-rules", "Install the default assignment rules (all categories or one)", runSeedRules},
	{"seed-ledger", "Write sample ledger CSV files for development reports", runSeedLedger},
	{"generate", "Generate one report synchronously and print the artifact location", runGenerate},
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2) //nolint:forbidigo // usage mistakes exit 2 so scripts can tell them from command failures
	}
	cmd := lookupCommand(os.Args[1])
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(2) //nolint:forbidigo // usage mistakes exit 2 so scripts can tell them from command failures
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1) //nolint:forbidigo // config failures must reach the calling shell as a non-zero status
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if err := cmd.run(cmdCtx, os.Args[2:]); err != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmd.name, "error", err)
		os.Exit(1) //nolint:forbidigo // command failures must reach the calling shell as a non-zero status
	}
}

func lookupCommand(name string) *command {
	for i := range commands {
		if commands[i].name == name {
			return &commands[i]
		}
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: tallyworks-admin <command> [flags]\n\nAvailable commands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-12s %s\n", c.name, c.summary)
	}
}

// newFlagSet builds a flag set that reports parse errors to stderr instead
// of exiting.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// parseTimed parses args and validates the shared --timeout flag.
func parseTimed(fs *flag.FlagSet, args []string, timeout *time.Duration) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *timeout <= 0 {
		return errors.New("--timeout must be greater than zero")
	}
	return nil
}

func runMigrate(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("migrate")
	timeout := fs.Duration("timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")
	if err := parseTimed(fs, args, timeout); err != nil {
		return err
	}

	return withDatabase(cmdCtx, *timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("running database migrations")
		if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		cmdCtx.Logger.Info("migrations completed successfully")
		return nil
	})
}

func runDBReset(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("db-reset")
	timeout := fs.Duration("timeout", defaultMigrationTimeout, "Maximum duration to wait for the reset to complete")
	yes := fs.Bool("yes", false, "Skip the interactive confirmation prompt")
	seed := fs.Bool("seed", false, "Seed development data after the schema is rebuilt")
	allowRemote := fs.Bool("allow-remote", false, "Permit running against a non-local database host")
	if err := parseTimed(fs, args, timeout); err != nil {
		return err
	}

	remote, err := guardRemoteHost(cmdCtx, *allowRemote, "drop and recreate the public schema")
	if err != nil {
		return err
	}
	// --yes is only honored for local databases; a remote reset always prompts.
	if err := confirmSchemaReset(cmdCtx, *yes && !remote, remote); err != nil {
		return err
	}

	return withDatabase(cmdCtx, *timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("resetting public schema", "database", cmdCtx.Config.Postgres.Name)
		if err := resetSchema(ctx, db, cmdCtx.Config.Postgres.User); err != nil {
			return err
		}

		cmdCtx.Logger.Info("reapplying schema migrations")
		if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		if *seed {
			cmdCtx.Logger.Info("reseeding development data")
			if err := seedDatabase(ctx, db, cmdCtx.Logger); err != nil {
				return err
			}
		}

		cmdCtx.Logger.Info("database reset complete")
		return nil
	})
}

func runDBSeed(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("db-seed")
	timeout := fs.Duration("timeout", defaultMigrationTimeout, "Maximum duration to wait for seeding to complete")
	allowRemote := fs.Bool("allow-remote", false, "Permit running against a non-local database host")
	if err := parseTimed(fs, args, timeout); err != nil {
		return err
	}

	if _, err := guardRemoteHost(cmdCtx, *allowRemote, "seed development data on the configured database"); err != nil {
		return err
	}

	return withDatabase(cmdCtx, *timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("applying any pending migrations")
		if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		cmdCtx.Logger.Info("loading development seed data")
		if err := seedDatabase(ctx, db, cmdCtx.Logger); err != nil {
			return err
		}

		cmdCtx.Logger.Info("database seed complete")
		return nil
	})
}

func seedDatabase(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	svcs, err := devseed.NewServices(db)
	if err != nil {
		return fmt.Errorf("build seed services: %w", err)
	}
	if err := devseed.Run(ctx, svcs, logger); err != nil {
		return fmt.Errorf("seed data: %w", err)
	}
	return nil
}

// withDatabase connects to Postgres and runs f under a timeout that also
// honors Ctrl-C.
func withDatabase(cmdCtx *commandContext, timeout time.Duration, f func(context.Context, *sql.DB) error) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(cmdCtx.Config.Postgres, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return f(ctx, db)
}

// guardRemoteHost blocks destructive commands aimed at anything that does
// not look like a local database. With --allow-remote the operator must
// still type the hostname back before proceeding.
func guardRemoteHost(cmdCtx *commandContext, allow bool, action string) (bool, error) {
	host := cmdCtx.Config.Postgres.Host
	if !isLikelyRemoteHost(host) {
		return false, nil
	}
	if !allow {
		return true, fmt.Errorf(
			"database host %q does not look local; pass --allow-remote if this is intentional", host)
	}

	if err := writef(os.Stderr,
		"\nWARNING: database host %q does not look like a local address.\nThis operation will %s.\n",
		host, action,
	); err != nil {
		return true, err
	}
	if err := writef(os.Stderr, "Type %q to proceed, anything else aborts: ", host); err != nil {
		return true, err
	}
	resp, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return true, fmt.Errorf("read confirmation: %w", err)
	}
	if strings.TrimSpace(resp) != host {
		return true, errors.New("aborted by user")
	}
	return true, nil
}

// confirmSchemaReset asks for an interactive y/N before the schema is
// dropped. skip bypasses the prompt; remote adds a second warning line.
func confirmSchemaReset(cmdCtx *commandContext, skip, remote bool) error {
	if skip {
		return nil
	}

	pg := cmdCtx.Config.Postgres
	if err := writef(os.Stdout, "About to reset database schema for database %q on %s:%d.\n", pg.Name, pg.Host, pg.Port); err != nil {
		return err
	}
	if remote {
		if err := writef(os.Stdout, "Host %q appears to be remote; double-check before proceeding.\n", pg.Host); err != nil {
			return err
		}
	}

	if err := writef(os.Stdout, "Continue? [y/N]: "); err != nil {
		return err
	}
	resp, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(resp)) {
	case "y", "yes":
		return nil
	}
	return errors.New("aborted by user")
}

// resetSchema drops and recreates the public schema, restoring grants for
// the configured user.
func resetSchema(ctx context.Context, db *sql.DB, user string) error {
	statements := []string{
		"DROP SCHEMA public CASCADE",
		"CREATE SCHEMA public",
		"GRANT ALL ON SCHEMA public TO public",
	}
	if u := strings.TrimSpace(user); u != "" && !strings.EqualFold(u, "public") {
		statements = append(statements, "GRANT ALL ON SCHEMA public TO "+quoteIdentifier(u))
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute %q: %w", stmt, err)
		}
	}
	return nil
}

func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// isLikelyRemoteHost reports whether host points somewhere other than the
// developer's machine. Loopback addresses, localhost, and .local names
// count as local; everything else is assumed remote.
func isLikelyRemoteHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	switch {
	case h == "", h == "localhost", h == "127.0.0.1", h == "::1":
		return false
	case strings.HasSuffix(h, ".local"):
		return false
	}
	if ip := net.ParseIP(h); ip != nil {
		return !ip.IsLoopback()
	}
	return true
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
