package httpx

import (
	"compress/gzip"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Logging returns a middleware that logs one line per request with the
// response status, size and latency.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Int("bytes", rec.bytes),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// Recover returns a middleware that turns handler panics into a JSON 500
// instead of tearing down the connection.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("panic",
						slog.Any("error", v),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())))
					WriteError(w, ErrorParams{
						Code:    http.StatusInternalServerError,
						ErrCode: "internal",
						Err:     errors.New("internal server error"),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CompressionConfig configures the gzip middleware. The zero value compresses
// everything in the default type set at gzip.DefaultCompression.
type CompressionConfig struct {
	Level   int      // gzip level 1-9; out-of-range values fall back to the default
	MinSize int      // bodies smaller than this are sent uncompressed (0 compresses everything)
	Types   []string // overrides the default compressible media types
	Logger  *slog.Logger
}

// defaultCompressibleTypes lists the media types this API actually serves.
// Binary formats are excluded; gzip on already-compressed payloads wastes CPU.
var defaultCompressibleTypes = []string{
	"application/json",
	"application/xml",
	"text/html",
	"text/plain",
	"text/csv",
	"image/svg+xml",
}

// Compression returns a middleware that gzips responses when the client
// advertises gzip support and the response is a compressible media type.
// 1xx, 204 and 304 responses, HEAD requests and responses that already carry
// a Content-Encoding pass through untouched.
func Compression(cfg CompressionConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	types := cfg.Types
	if types == nil {
		types = defaultCompressibleTypes
	}
	typeSet := make(map[string]struct{}, len(types))
	for _, t := range types {
		typeSet[strings.ToLower(t)] = struct{}{}
	}

	level := cfg.Level
	if level < gzip.BestSpeed || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	// One pool per middleware instance; the level is fixed for its lifetime.
	pool := &sync.Pool{New: func() any {
		zw, err := gzip.NewWriterLevel(io.Discard, level)
		if err != nil {
			return gzip.NewWriter(io.Discard)
		}
		return zw
	}}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || !clientAcceptsGzip(r.Header.Get("Accept-Encoding")) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Accept-Encoding")
			cw := &compressWriter{
				ResponseWriter: w,
				pool:           pool,
				types:          typeSet,
				minSize:        cfg.MinSize,
			}
			next.ServeHTTP(cw, r)
			if err := cw.finish(); err != nil {
				logger.ErrorContext(r.Context(), "finish gzip response failed", "error", err)
			}
		})
	}
}

// clientAcceptsGzip reports whether the Accept-Encoding header allows gzip.
// A q-value of zero is an explicit refusal.
func clientAcceptsGzip(header string) bool {
	for _, entry := range strings.Split(header, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(entry), ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "gzip") {
			continue
		}
		q, found := strings.CutPrefix(strings.TrimSpace(params), "q=")
		if !found {
			return true
		}
		q = strings.TrimSpace(q)
		return q != "0" && !strings.HasPrefix(q, "0.0")
	}
	return false
}

// compressWriter defers the compress-or-not decision to WriteHeader, where
// the status and Content-Type are known. When MinSize is set, writes are
// buffered until the threshold is crossed so short bodies skip gzip entirely.
type compressWriter struct {
	http.ResponseWriter
	pool    *sync.Pool
	types   map[string]struct{}
	minSize int

	wroteHeader bool
	status      int
	compressing bool
	zw          *gzip.Writer
	pending     []byte
}

func (cw *compressWriter) WriteHeader(status int) {
	if cw.wroteHeader {
		return
	}
	cw.wroteHeader = true
	cw.status = status
	cw.compressing = cw.shouldCompress(status)
	if cw.compressing && cw.minSize <= 0 {
		cw.startGzip()
	}
	// With a MinSize the header write is delayed until the decision is made.
	if !cw.compressing || cw.minSize <= 0 {
		cw.ResponseWriter.WriteHeader(status)
	}
}

func (cw *compressWriter) shouldCompress(status int) bool {
	if status < http.StatusOK || status == http.StatusNoContent || status == http.StatusNotModified {
		return false
	}
	if cw.Header().Get("Content-Encoding") != "" {
		return false
	}
	mediaType := cw.Header().Get("Content-Type")
	if mediaType == "" {
		// Sniffed later in Write; treat as compressible until known.
		return true
	}
	if cut, _, found := strings.Cut(mediaType, ";"); found {
		mediaType = cut
	}
	_, ok := cw.types[strings.ToLower(strings.TrimSpace(mediaType))]
	return ok
}

func (cw *compressWriter) startGzip() {
	zw, ok := cw.pool.Get().(*gzip.Writer)
	if !ok {
		zw = gzip.NewWriter(io.Discard)
	}
	zw.Reset(cw.ResponseWriter)
	cw.zw = zw
	cw.Header().Set("Content-Encoding", "gzip")
	cw.Header().Del("Content-Length")
}

func (cw *compressWriter) Write(b []byte) (int, error) {
	if !cw.wroteHeader {
		if cw.Header().Get("Content-Type") == "" {
			cw.Header().Set("Content-Type", http.DetectContentType(b))
		}
		cw.WriteHeader(http.StatusOK)
	}
	if !cw.compressing {
		return cw.ResponseWriter.Write(b)
	}
	if cw.zw != nil {
		return cw.zw.Write(b)
	}

	// Below-threshold bytes accumulate until the body proves big enough.
	cw.pending = append(cw.pending, b...)
	if len(cw.pending) < cw.minSize {
		return len(b), nil
	}
	cw.startGzip()
	cw.ResponseWriter.WriteHeader(cw.status)
	_, err := cw.zw.Write(cw.pending)
	cw.pending = nil
	return len(b), err
}

// finish flushes whatever the handler left behind. A body that never crossed
// MinSize goes out uncompressed; an active gzip stream is closed and its
// writer returned to the pool.
func (cw *compressWriter) finish() error {
	if cw.compressing && cw.zw == nil && cw.wroteHeader {
		cw.ResponseWriter.WriteHeader(cw.status)
		if len(cw.pending) > 0 {
			_, err := cw.ResponseWriter.Write(cw.pending)
			cw.pending = nil
			return err
		}
		return nil
	}
	if cw.zw == nil {
		return nil
	}
	err := cw.zw.Close()
	cw.zw.Reset(io.Discard)
	cw.pool.Put(cw.zw)
	cw.zw = nil
	return err
}

// Flush supports streaming handlers through the gzip layer.
func (cw *compressWriter) Flush() {
	if cw.zw != nil {
		_ = cw.zw.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
