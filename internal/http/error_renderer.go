package httpx

import (
	"errors"
	"net/http"

	apperrors "github.com/tallyworks/backoffice-api/internal/errors"
)

// statusClientClosedRequest mirrors the nginx convention for requests the
// client abandoned before a response could be written.
const statusClientClosedRequest = 499

// StatusForCode maps an application error code to an HTTP status.
func StatusForCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeInvalidKind:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict, apperrors.ErrCodeNotReady, apperrors.ErrCodeForeignKey:
		return http.StatusConflict
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeCanceled:
		return statusClientClosedRequest
	case apperrors.ErrCodeGeneration, apperrors.ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON envelope for error responses. Field carries the
// offending field name for validation and constraint errors when known.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteAppError renders an error as a JSON response using the application
// error taxonomy. Raw database errors are mapped to their application codes
// first. Errors outside the taxonomy are reported as plain internal errors
// so driver details never reach clients.
func WriteAppError(w http.ResponseWriter, err error) {
	mapped := apperrors.MapDBError(err)

	var appErr *apperrors.AppError
	if !errors.As(mapped, &appErr) {
		WriteJSON(w, http.StatusInternalServerError, errorBody{
			Error:   string(apperrors.ErrCodeInternal),
			Message: "internal server error",
		})
		return
	}

	WriteJSON(w, StatusForCode(appErr.Code), errorBody{
		Error:   string(appErr.Code),
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}
