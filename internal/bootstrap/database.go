package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tallyworks/backoffice-api/config"
	"github.com/tallyworks/backoffice-api/internal/data"
)

const (
	// connectTimeout bounds the startup ping against Postgres and Redis.
	connectTimeout = 5 * time.Second

	dbMaxOpenConns    = 25
	dbMaxIdleConns    = 5
	dbConnMaxLifetime = 5 * time.Minute
)

// ConnectDB opens a pgx-backed connection pool against PostgreSQL and
// verifies it with a short ping before handing it out.
func ConnectDB(cfg config.DBConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database connection: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	if logger != nil {
		logger.Info("database connected",
			"host", cfg.Host,
			"port", cfg.Port,
			"database", cfg.Name,
		)
	}
	return db, nil
}

// postgresDSN assembles the connection URL. url.UserPassword escapes
// credentials, so passwords may contain any character.
func postgresDSN(cfg config.DBConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

// ConnectRedis builds a client for the configured Redis topology and
// verifies it with a short ping. Cluster and sentinel modes are chosen by
// config flags so a single config block covers every deployment shape.
//
//nolint:ireturn // returning redis.UniversalClient lets us pick single, sentinel, or cluster clients at runtime.
func ConnectRedis(cfg config.RedisConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	var (
		client redis.UniversalClient
		desc   string
		err    error
	)
	switch {
	case cfg.UseCluster:
		client, desc, err = clusterClient(cfg)
	case cfg.UseSentinel:
		client, desc, err = sentinelClient(cfg)
	default:
		client, desc, err = standaloneClient(cfg)
	}
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	if logger != nil {
		logger.Info("redis connected", "addr", redactAddr(desc))
	}
	return client, nil
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func clusterClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	opts := &redis.ClusterOptions{
		Addrs:    trimAddrs(cfg.ClusterNodes),
		Password: cfg.Password,
	}
	if len(opts.Addrs) == 0 {
		// No explicit node list; fall back to the standalone URI as a seed node.
		ep, err := endpointFromURI(cfg.URI, cfg.Password)
		if err != nil {
			return nil, "", err
		}
		if ep.addr == "" {
			return nil, "", errors.New("redis cluster configuration requires at least one address")
		}
		opts.Addrs = []string{ep.addr}
		opts.Username = ep.username
		opts.Password = ep.password
		opts.TLSConfig = ep.tls
	}
	return redis.NewClusterClient(opts), "cluster:" + strings.Join(opts.Addrs, ","), nil
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func sentinelClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	if len(cfg.SentinelNodes) == 0 {
		return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
	}
	client := redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:       cfg.SentinelMasterName,
		SentinelAddrs:    cfg.SentinelNodes,
		Password:         cfg.Password,
		SentinelPassword: cfg.SentinelPassword,
	})
	return client, "sentinel:" + cfg.SentinelMasterName, nil
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func standaloneClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	uri := strings.TrimSpace(cfg.URI)
	switch {
	case uri == "":
		return nil, "", errors.New("redis configuration requires a URI")
	case isRedisURL(uri):
		opt, err := redis.ParseURL(uri)
		if err != nil {
			return nil, "", fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), opt.Addr, nil
	default:
		return redis.NewClient(&redis.Options{Addr: uri, Password: cfg.Password}), uri, nil
	}
}

// redisEndpoint is a single parsed seed address with its credentials.
type redisEndpoint struct {
	addr     string
	username string
	password string
	tls      *tls.Config
}

// endpointFromURI turns the standalone URI setting into a cluster seed.
// Plain host:port values pass through with the fallback password; redis://
// URLs contribute their own credentials and TLS settings.
func endpointFromURI(uri, fallbackPassword string) (redisEndpoint, error) {
	trimmed := strings.TrimSpace(uri)
	if trimmed == "" {
		return redisEndpoint{password: fallbackPassword}, nil
	}
	if !isRedisURL(trimmed) {
		return redisEndpoint{addr: trimmed, password: fallbackPassword}, nil
	}

	opt, err := redis.ParseURL(trimmed)
	if err != nil {
		return redisEndpoint{}, fmt.Errorf("parse redis cluster url: %w", err)
	}
	ep := redisEndpoint{addr: opt.Addr, username: opt.Username, password: opt.Password, tls: opt.TLSConfig}
	if ep.password == "" {
		ep.password = fallbackPassword
	}
	return ep, nil
}

func trimAddrs(raw []string) []string {
	addrs := make([]string, 0, len(raw))
	for _, a := range raw {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	return addrs
}

// redactAddr strips credentials from a redis address before it is logged.
func redactAddr(desc string) string {
	if u, err := url.Parse(desc); err == nil && u.User != nil {
		u.User = url.User("*")
		return u.Redacted()
	}
	if i := strings.LastIndex(desc, "@"); i >= 0 {
		return desc[i+1:]
	}
	return desc
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}

// RunMigrations applies any pending schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := data.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}
	return nil
}
