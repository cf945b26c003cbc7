package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

type ErrorResponse struct {
	Error             string `json:"error"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithAppError picks the status from err and adds a retry hint for rate limits.
func RespondWithAppError(w http.ResponseWriter, err error) {
	code := HTTPStatusFromError(err)
	resp := ErrorResponse{Error: err.Error()}
	if code == http.StatusInternalServerError && !errors.Is(err, ErrUpstream) {
		resp.Error = ErrInternalServer.Error()
	}
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		resp.RetryAfterSeconds = rlErr.RetryAfterSeconds()
		if resp.RetryAfterSeconds > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(resp.RetryAfterSeconds))
		}
	}
	RespondWithJSON(w, code, resp)
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
