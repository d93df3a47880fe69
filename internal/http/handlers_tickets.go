package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tallyworks/backoffice-api/internal/domain/model"
	apperrors "github.com/tallyworks/backoffice-api/internal/errors"
	"github.com/tallyworks/backoffice-api/internal/service"
)

// TicketHandlers provides HTTP handlers for ticket operations.
type TicketHandlers struct {
	Svc *service.TicketService
}

const (
	maxTicketListLimit = 100 // Maximum number of tickets that can be requested in one call
)

// Create handles HTTP requests to open a new ticket. The assignment router
// decides the owning role before the ticket is stored.
func (h *TicketHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTicketRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	ticket, err := h.Svc.Create(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, ticket)
}

// List handles HTTP requests to list tickets with pagination and optional
// status/category filters.
func (h *TicketHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, maxTicketListLimit)

	opts := model.TicketsListOptions{Limit: limit, Offset: offset}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := model.ParseTicketStatus(raw)
		if !ok {
			WriteAppError(w, apperrors.Validationf("unknown status filter %q", raw))
			return
		}
		opts.Status = &status
	}
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		opts.Category = &category
	}

	tickets, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"tickets": tickets,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetByID handles HTTP requests to fetch a single ticket.
func (h *TicketHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("ticket id is required")},
		)
		return
	}

	ticket, err := h.Svc.GetByID(r.Context(), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, ticket)
}

// UpdateStatus handles HTTP requests to move a ticket along its lifecycle.
func (h *TicketHandlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("ticket id is required")},
		)
		return
	}

	var req model.UpdateTicketStatusRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	ticket, err := h.Svc.UpdateStatus(r.Context(), id, req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, ticket)
}

// Assign handles HTTP requests to reassign a ticket to a role and
// optionally a named assignee.
func (h *TicketHandlers) Assign(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("ticket id is required")},
		)
		return
	}

	var req model.AssignTicketRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	ticket, err := h.Svc.Assign(r.Context(), id, req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, ticket)
}

// Delete handles HTTP requests to delete a ticket.
func (h *TicketHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("ticket id is required")},
		)
		return
	}

	deleted, err := h.Svc.Delete(r.Context(), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	if !deleted {
		WriteError(
			w,
			ErrorParams{Code: http.StatusNotFound, ErrCode: "ticket_not_found", Err: errors.New("ticket not found")},
		)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Stats handles HTTP requests for per-status ticket counts.
func (h *TicketHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Stats(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}
