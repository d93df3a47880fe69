// Package httpx provides HTTP handlers and utilities for the back-office
// reporting API.
package httpx

import (
	"log/slog"
	"net/http"

	"github.com/tallyworks/backoffice-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Reports *service.ReportJobService
	Tickets *service.TicketService
	// DB is pinged by /healthz when set.
	DB     Pinger
	Logger *slog.Logger
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	registerReportRoutes(mux, &ReportHandlers{Svc: services.Reports})
	registerTicketRoutes(mux, &TicketHandlers{Svc: services.Tickets})

	health := &HealthHandlers{DB: services.DB, Logger: services.Logger}
	mux.Handle("GET /healthz", http.HandlerFunc(health.Health))
	mux.Handle("HEAD /healthz", http.HandlerFunc(health.Health))

	return mux
}

func registerReportRoutes(mux *http.ServeMux, h *ReportHandlers) {
	mux.HandleFunc("POST /api/reports", h.Submit)
	mux.HandleFunc("GET /api/reports", h.List)
	mux.HandleFunc("GET /api/reports/metrics", h.Metrics)
	mux.HandleFunc("GET /api/reports/{id}", h.Status)
	mux.HandleFunc("GET /api/reports/{id}/result", h.Result)
}

func registerTicketRoutes(mux *http.ServeMux, h *TicketHandlers) {
	mux.HandleFunc("POST /api/tickets", h.Create)
	mux.HandleFunc("GET /api/tickets", h.List)
	mux.HandleFunc("GET /api/tickets/stats", h.Stats)
	mux.HandleFunc("GET /api/tickets/{id}", h.GetByID)
	mux.HandleFunc("PATCH /api/tickets/{id}/status", h.UpdateStatus)
	mux.HandleFunc("POST /api/tickets/{id}/assign", h.Assign)
	mux.HandleFunc("DELETE /api/tickets/{id}", h.Delete)
}
