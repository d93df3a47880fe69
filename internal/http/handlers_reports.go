package httpx

import (
	"errors"
	"net/http"

	"github.com/tallyworks/backoffice-api/internal/domain/model"
	"github.com/tallyworks/backoffice-api/internal/service"
)

// ReportHandlers provides HTTP handlers for report job operations.
type ReportHandlers struct {
	Svc *service.ReportJobService
}

// Submit handles HTTP requests to queue a new report job. The job is
// accepted immediately; generation happens in the background.
func (h *ReportHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitReportRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.Submit(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]any{
		"job_id": job.ID,
		"status": job.Status,
	})
}

// Status handles HTTP requests to fetch the current state of a report job.
func (h *ReportHandlers) Status(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("report job id is required")},
		)
		return
	}

	job, err := h.Svc.Status(r.Context(), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// Result handles HTTP requests to fetch the generated documents of a
// completed report job. Jobs still pending or processing come back as 409
// with the job's current status in the message.
func (h *ReportHandlers) Result(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("report job id is required")},
		)
		return
	}

	result, err := h.Svc.Result(r.Context(), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// List handles HTTP requests to list tracked report jobs grouped by status.
func (h *ReportHandlers) List(w http.ResponseWriter, r *http.Request) {
	grouped := h.Svc.ListGrouped(r.Context())

	WriteJSON(w, http.StatusOK, map[string]any{
		"jobs":        grouped,
		"queue_depth": h.Svc.QueueDepth(),
	})
}

// Metrics handles HTTP requests for the aggregated processing metrics snapshot.
func (h *ReportHandlers) Metrics(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Svc.MetricsSnapshot(r.Context()))
}
