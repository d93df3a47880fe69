package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	healthResponse         = `{"status":"ok"}`
	healthDegradedResponse = `{"status":"degraded"}`
	healthPingTimeout      = 2 * time.Second
)

// Pinger verifies connectivity to a backing store. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandlers serves liveness checks. When a database handle is
// configured the check also verifies connectivity so load balancers stop
// routing to instances that lost their store.
type HealthHandlers struct {
	DB     Pinger
	Logger *slog.Logger
}

// Health returns 200 when the process is up and its database reachable,
// 503 otherwise. HEAD requests get headers only.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		if err := h.DB.PingContext(ctx); err != nil {
			if h.Logger != nil {
				h.Logger.Warn("health check database ping failed", "error", err)
			}
			writeHealthBody(w, r, http.StatusServiceUnavailable, healthDegradedResponse)
			return
		}
	}

	writeHealthBody(w, r, http.StatusOK, healthResponse)
}

func writeHealthBody(w http.ResponseWriter, r *http.Request, status int, body string) {
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, body); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}
