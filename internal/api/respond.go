// Package api exposes the fetch pipeline over HTTP for local frontends:
// start a fetch as a job, poll its progress, and read cached snapshots
package api

import (
	"encoding/json"
	"net/http"

	perr "reposcope/internal/platform/errors"
)

// Envelope is the standard response body for all endpoints
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Data       any            `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, Envelope{
		StatusCode: status,
		Status:     http.StatusText(status),
		Data:       data,
	})
}

// respondError maps a coded error onto its HTTP status and wire form
func respondError(w http.ResponseWriter, err error) {
	status, wire := perr.HTTP(err)
	respondJSON(w, status, Envelope{
		StatusCode: status,
		Status:     http.StatusText(status),
		Code:       wire.Code,
		Error:      wire.Message,
	})
}
