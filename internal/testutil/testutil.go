// Package testutil wires integration tests to the docker-compose
// Postgres and Redis instances and provides a hand-cranked clock for
// time-dependent code.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	// Registers the pgx driver with database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/tallyworks/backoffice-api/internal/migrate"
)

// TestingTB is the subset of testing.T and testing.B these helpers need.
type TestingTB interface {
	Helper()
	Cleanup(func())
	Skip(args ...any)
	Skipf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
}

// TestDBConfig points at the Postgres instance integration tests use.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DefaultTestDBConfig reads TEST_DB_* overrides and falls back to the
// docker-compose test database on port 55432. CI sets TEST_DB_PORT=5432.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "55432"),
		User:     envOr("TEST_DB_USER", "tallyworks"),
		Password: envOr("TEST_DB_PASSWORD", "tallyworks"),
		DBName:   envOr("TEST_DB_NAME", "tallyworks"),
	}
}

// dsn renders the config as a pgx connection string.
func (c TestDBConfig) dsn() string {
	hostPort := net.JoinHostPort(c.Host, c.Port)
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		c.User, c.Password, hostPort, c.DBName, envOr("DB_SSL_MODE", "disable"))
}

// SkipIfNoTestDB skips the test unless the test database answers a
// ping. With TEST_REQUIRE_DB or TEST_REQUIRE_INFRA set it fails
// instead, so CI cannot silently skip the integration suite.
func SkipIfNoTestDB(t TestingTB) {
	t.Helper()

	db, err := sql.Open("pgx", DefaultTestDBConfig().dsn())
	if err != nil {
		skipOrFail(t, requireDB(), "Test database not available:", err)
	}
	defer closeQuietly(t, "test db", db)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		skipOrFail(t, requireDB(), "Test database not available:", err)
	}
}

// WithAutoDB hands fn a migrated database connection. With
// TEST_DB_EPHEMERAL set each test runs in its own schema, dropped
// again by t.Cleanup; otherwise tests share the compose database and
// the domain tables are cleared before and after.
func WithAutoDB(t TestingTB, fn func(*sql.DB)) {
	t.Helper()
	SkipIfNoTestDB(t)

	if envBool("TEST_DB_EPHEMERAL") {
		fn(setupEphemeralSchemaDB(t))
		return
	}

	db := setupSharedDB(t)
	defer func() {
		clearDomainTables(t, db)
		closeQuietly(t, "test db", db)
	}()
	fn(db)
}

// setupSharedDB connects to the shared test database, applies
// migrations, and clears the domain tables so the test starts empty.
func setupSharedDB(t TestingTB) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", DefaultTestDBConfig().dsn())
	if err != nil {
		t.Fatal("Failed to open database:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatal("Failed to connect to test database. Make sure PostgreSQL is running (docker-compose up -d):", err)
	}
	if err := migrate.Run(ctx, db); err != nil {
		t.Fatal("Failed to run migrations:", err)
	}

	clearDomainTables(t, db)
	return db
}

// clearDomainTables empties the domain tables. Tickets go first
// because they reference assignment rules.
func clearDomainTables(t TestingTB, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, table := range []string{"tickets", "assignment_rules"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("Failed to clean up table %s: %v", table, err)
		}
	}
}

// setupEphemeralSchemaDB gives the test a private schema: create it,
// point search_path at it, and migrate inside it. The schema is
// dropped with CASCADE when the test finishes.
func setupEphemeralSchemaDB(t TestingTB) *sql.DB {
	t.Helper()

	cfg := DefaultTestDBConfig()
	admin := openAndPing(t, cfg.dsn(), "admin DB", 5*time.Second)
	cleanupRegistered := false
	defer func() {
		if !cleanupRegistered {
			closeQuietly(t, "admin DB", admin)
		}
	}()

	schema := randomSchemaName()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
		t.Fatalf("Failed to create ephemeral schema %s: %v", schema, err)
	}

	db := openAndPing(t, schemaDSN(t, cfg, schema), "schema DB", 10*time.Second)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	// Registered before migrations run so the schema is dropped even
	// when they fail.
	t.Logf("Using ephemeral schema: %s", schema)
	t.Cleanup(func() {
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dropCancel()

		closeQuietly(t, "schema DB", db)
		if _, err := admin.ExecContext(dropCtx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("Warning: failed to drop schema %s: %v", schema, err)
		}
		closeQuietly(t, "admin DB", admin)
	})
	cleanupRegistered = true

	mctx, mcancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer mcancel()
	if err := migrate.Run(mctx, db); err != nil {
		t.Fatal("Failed to run migrations in ephemeral schema:", err)
	}
	return db
}

// schemaDSN rewrites the base DSN so search_path resolves the given
// schema first, then public.
func schemaDSN(t TestingTB, cfg TestDBConfig, schema string) string {
	u, err := url.Parse(cfg.dsn())
	if err != nil {
		t.Fatal("Failed to parse DSN:", err)
	}
	q := u.Query()
	q.Set("search_path", schema+",public")
	u.RawQuery = q.Encode()
	return u.String()
}

// randomSchemaName returns a lowercase identifier safe to interpolate
// into CREATE SCHEMA.
func randomSchemaName() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("t_%d", time.Now().UnixNano())
	}
	return "t_" + hex.EncodeToString(b)
}

func openAndPing(t TestingTB, dsn, name string, timeout time.Duration) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", name, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		closeQuietly(t, name, db)
		t.Fatalf("Failed to ping %s: %v", name, err)
	}
	return db
}

func skipOrFail(t TestingTB, required bool, args ...any) {
	t.Helper()
	if required {
		t.Fatal(args...)
	}
	t.Skip(args...)
}

func closeQuietly(t TestingTB, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		t.Logf("warning: failed to close %s: %v", name, err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envBool treats 1/true/yes/y (any case) as set.
func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func requireDB() bool    { return envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") }
func requireRedis() bool { return envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") }

// TestTime is the fixed instant fixtures are pinned to.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// TestTimeProvider is a hand-cranked clock. Tests advance it from the
// test goroutine while code under test reads it from background ones.
type TestTimeProvider struct {
	mu  sync.RWMutex
	now time.Time
}

// NewTestTimeProvider returns a clock reading start.
func NewTestTimeProvider(start time.Time) *TestTimeProvider {
	return &TestTimeProvider{now: start}
}

// Now returns the clock's current reading.
func (p *TestTimeProvider) Now() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.now
}

// SetTime moves the clock to an absolute instant.
func (p *TestTimeProvider) SetTime(t time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = t
}

// AddTime advances the clock by d.
func (p *TestTimeProvider) AddTime(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = p.now.Add(d)
}

// SetupTestRedis connects to the test Redis, reserving a database
// index so packages running in parallel do not flush each other, and
// flushes the reserved database before handing it to the test.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr, ok := findTestRedis(t)
	if !ok {
		skipOrFail(t, requireRedis(), "Redis not available for testing")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: reserveRedisDB(t, addr)})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		closeQuietly(t, "redis client", client)
		skipOrFail(t, requireRedis(), fmt.Sprintf("Redis not available for testing at %s: %v", addr, err))
	}

	client.FlushDB(ctx)
	return client
}

// findTestRedis tries REDIS_ADDR, then the CI service addresses, then
// the compose test instance on 56379.
func findTestRedis(t TestingTB) (string, bool) {
	t.Helper()

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr, pingRedis(t, addr)
	}
	for _, addr := range []string{"redis:6379", "localhost:6379"} {
		if pingRedis(t, addr) {
			return addr, true
		}
	}
	const local = "localhost:56379"
	return local, pingRedis(t, local)
}

func pingRedis(t TestingTB, addr string) bool {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer closeQuietly(t, "redis client", client)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Logf("redis ping %s failed: %v", addr, err)
		return false
	}
	return true
}

// reserveRedisDB picks a database index in [1,15] by taking a lock key
// in DB 0, which FlushDB on the chosen database cannot wipe. The lock
// is released by t.Cleanup and expires after 30 minutes regardless.
func reserveRedisDB(t TestingTB, addr string) int {
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
		t.Logf("ignoring invalid TEST_REDIS_DB=%q; auto-selecting", v)
	}

	meta := redis.NewClient(&redis.Options{Addr: addr, DB: 0})
	defer closeQuietly(t, "redis meta client", meta)

	owner := strconv.Itoa(os.Getpid()) + ":" + strconv.FormatInt(time.Now().UnixNano(), 10)
	for i := 1; i <= 15; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		lockKey := fmt.Sprintf("tallyworks:testutil:db_lock:%d", i)
		ok, err := meta.SetNX(ctx, lockKey, owner, 30*time.Minute).Result()
		cancel()
		if err != nil || !ok {
			continue
		}

		releaseRedisLockOnCleanup(t, addr, lockKey)
		t.Logf("reserved redis DB %d at %s", i, addr)
		return i
	}

	t.Logf("no free redis DB at %s; defaulting to DB 1", addr)
	return 1
}

func releaseRedisLockOnCleanup(t TestingTB, addr, lockKey string) {
	t.Cleanup(func() {
		c := redis.NewClient(&redis.Options{Addr: addr, DB: 0})
		defer closeQuietly(t, "redis cleanup client", c)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.Del(ctx, lockKey).Err(); err != nil {
			t.Logf("warning: failed to release redis db lock %s: %v", lockKey, err)
		}
	})
}

// StringPtr returns a pointer to s, for optional request fields.
func StringPtr(s string) *string { return &s }

// BoolPtr returns a pointer to b, for optional request fields.
func BoolPtr(b bool) *bool { return &b }
