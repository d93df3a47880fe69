package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// DecodeJSON parses the request body into dst, rejecting unknown
// fields. On failure it writes the invalid_json error response and
// returns false so handlers can simply return.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}
	return true
}

// WriteJSON buffers the encoded body, so an encoding failure becomes a
// plain 500 before any bytes have reached the client.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// A short write means the client went away; nothing left to do.
	_, _ = buf.WriteTo(w)
}

// ErrorParams names the pieces of a rendered error response.
type ErrorParams struct {
	Code    int    // HTTP status
	ErrCode string // machine-readable error code
	Err     error  // message source
}

// WriteError renders the same envelope as WriteAppError so clients see
// one error shape everywhere.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, errorBody{Error: p.ErrCode, Message: p.Err.Error()})
}
