// Package statsd emits metrics over UDP using the StatsD line protocol with
// DogStatsD-style tags.
package statsd

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Sink is the minimal surface services need to emit metrics.
type Sink interface {
	Count(name string, value int64, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}

// Config describes the StatsD endpoint and defaults applied to every metric.
type Config struct {
	// Address is the UDP host:port of the StatsD daemon.
	Address string
	// Prefix is prepended to every metric name, dot-separated.
	Prefix string
	// GlobalTags ride along on every emission; per-call tags win on collision.
	GlobalTags map[string]string
	Logger     *slog.Logger
	Enabled    bool
}

// Client is a concurrency-safe StatsD client. A nil or disabled client
// swallows every call, so callers never need to guard emission sites.
type Client struct {
	prefix   string
	baseTags map[string]string
	logger   *slog.Logger

	mu      sync.Mutex
	conn    net.Conn
	enabled bool
}

var _ Sink = (*Client)(nil)

const dialTimeout = 5 * time.Second

// NewClient dials the configured endpoint. A disabled config or blank
// address yields a client that drops all metrics without error.
func NewClient(cfg Config) (*Client, error) {
	addr := strings.TrimSpace(cfg.Address)
	c := &Client{
		prefix:   strings.Trim(strings.TrimSpace(cfg.Prefix), "."),
		baseTags: normalizeTags(cfg.GlobalTags),
		logger:   cfg.Logger,
		enabled:  cfg.Enabled && addr != "",
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if !c.enabled {
		return c, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, err := (&net.Dialer{}).DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("statsd dial %s: %w", addr, err)
	}
	c.conn = conn
	return c, nil
}

// Enabled reports whether metrics are actually leaving the process.
func (c *Client) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled && c.conn != nil
}

// Count adds value to a counter.
func (c *Client) Count(name string, value int64, tags map[string]string) {
	if c == nil {
		return
	}
	c.emit(name, strconv.FormatInt(value, 10), "c", tags)
}

// Gauge sets the current value of a gauge.
func (c *Client) Gauge(name string, value float64, tags map[string]string) {
	if c == nil {
		return
	}
	c.emit(name, strconv.FormatFloat(value, 'f', -1, 64), "g", tags)
}

// Timing records a duration in milliseconds.
func (c *Client) Timing(name string, value time.Duration, tags map[string]string) {
	if c == nil {
		return
	}
	ms := float64(value) / float64(time.Millisecond)
	c.emit(name, strconv.FormatFloat(ms, 'f', -1, 64), "ms", tags)
}

// Close tears down the connection. Further calls become no-ops; closing an
// already-closed or nil client is safe.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = false
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// emit assembles "<prefix>.<name>:<value>|<kind>|#k:v,..." and sends it as
// one datagram. Write failures are logged at debug; metrics are best-effort.
func (c *Client) emit(name, value, kind string, tags map[string]string) {
	metric := c.fullName(name)
	if metric == "" {
		return
	}

	var line strings.Builder
	line.Grow(len(metric) + len(value) + len(kind) + 2)
	line.WriteString(metric)
	line.WriteByte(':')
	line.WriteString(value)
	line.WriteByte('|')
	line.WriteString(kind)
	writeTagSuffix(&line, c.baseTags, tags)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled || c.conn == nil {
		return
	}
	if _, err := c.conn.Write([]byte(line.String())); err != nil {
		c.logger.Debug("statsd datagram dropped", "error", err)
	}
}

func (c *Client) fullName(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	cleaned := cleanName(name)
	switch {
	case cleaned == "":
		return c.prefix
	case c.prefix == "":
		return cleaned
	default:
		return c.prefix + "." + cleaned
	}
}

// cleanName maps characters the line protocol reserves to underscores and
// collapses dot runs so sanitised names stay hierarchical.
func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(name))
	lastDot := false
	for _, r := range name {
		switch r {
		case ' ', '/':
			b.WriteByte('_')
			lastDot = false
		case '.':
			if !lastDot {
				b.WriteByte('.')
			}
			lastDot = true
		default:
			b.WriteRune(r)
			lastDot = false
		}
	}
	return strings.Trim(b.String(), ".")
}

// writeTagSuffix appends "|#k:v,..." with base and per-call tags merged,
// per-call winning on key collisions. Keys are sorted so output is stable.
func writeTagSuffix(line *strings.Builder, base, extra map[string]string) {
	merged := normalizeTags(base)
	for k, v := range extra {
		if key := strings.TrimSpace(k); key != "" {
			merged[key] = strings.TrimSpace(v)
		}
	}
	if len(merged) == 0 {
		return
	}

	line.WriteString("|#")
	for i, k := range slices.Sorted(maps.Keys(merged)) {
		if i > 0 {
			line.WriteByte(',')
		}
		line.WriteString(k)
		line.WriteByte(':')
		line.WriteString(merged[k])
	}
}

// normalizeTags copies tags with whitespace trimmed, dropping blank keys.
func normalizeTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		if key := strings.TrimSpace(k); key != "" {
			out[key] = strings.TrimSpace(v)
		}
	}
	return out
}
