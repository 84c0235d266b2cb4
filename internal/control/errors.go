// ABOUTME: Uniform error body for the REST surface (spec 4.8)
// ABOUTME: Every domain error is recovered here rather than leaking a raw 500
package control

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sonicrelay/voicenode/internal/apperr"
)

// errorBody is {timestamp, status, error, trace?, message, path} verbatim.
type errorBody struct {
	Timestamp int64  `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Trace     string `json:"trace,omitempty"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

// writeError maps any error to the uniform body and its HTTP status via
// apperr.HTTPStatus; an error that isn't an *apperr.Error is treated as
// InternalError rather than leaking implementation detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperr.As(err)
	kind := apperr.InternalError
	message := http.StatusText(http.StatusInternalServerError)
	if ok {
		kind = appErr.Kind
		message = appErr.Message
	}
	status := apperr.HTTPStatus(kind)
	writeJSON(w, status, errorBody{
		Timestamp: time.Now().UnixMilli(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
