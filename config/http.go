package config

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the listen address for the HTTP server.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// CompressionEnabled turns on gzip encoding for text responses.
	CompressionEnabled bool `env:"HTTP_COMPRESSION_ENABLED" envDefault:"false"`

	// CompressionLevel is the gzip level, clamped to 1-9 by Sanitize.
	// 6 is the stock gzip default.
	CompressionLevel int `env:"HTTP_COMPRESSION_LEVEL" envDefault:"6"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.CompressionLevel = min(max(h.CompressionLevel, 1), 9)
}
