// Package httputil centralizes the JSON response envelope and error mapping.
//
// Every endpoint answers with the same shape:
//
//	{"success": true,  "data": ...}
//	{"success": false, "error": "..."}
//	{"success": false, "error": "...", "errors": ["...", "..."]}
//
// Coded domain errors map to HTTP statuses; internal errors withhold their
// message so backend detail never leaks to clients.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "residora/pkg/domain-errors"
)

// Envelope is the uniform response body.
type Envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// Validatable is implemented by request DTOs that validate and parse themselves.
type Validatable interface {
	Validate() error
}

// WriteSuccess writes a success envelope with the given payload.
func WriteSuccess(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, Envelope{Success: true, Data: data})
}

// WriteError maps a coded error to an HTTP status and writes a failure envelope.
// Uncoded and internal errors produce a generic message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := StatusForCode(code)
	message := dErrors.MessageOf(err)
	if code == dErrors.CodeInternal || message == "" {
		message = "internal error"
	}
	writeEnvelope(w, status, Envelope{Success: false, Error: message})
}

// WriteViolations writes an aggregated-conflict failure: a generic summary plus
// the full list of violated constraints.
func WriteViolations(w http.ResponseWriter, summary string, violations []string) {
	if len(violations) == 1 {
		writeEnvelope(w, http.StatusBadRequest, Envelope{Success: false, Error: violations[0]})
		return
	}
	writeEnvelope(w, http.StatusBadRequest, Envelope{Success: false, Error: summary, Errors: violations})
}

// StatusForCode maps a domain error code to an HTTP status.
// Forbidden intentionally maps to 400: not-permitted-for-this-residence is
// reported like any other request problem, only unauthenticated gets 401.
func StatusForCode(code dErrors.Code) int {
	switch code {
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

type validatablePtr[T any] interface {
	*T
	Validatable
}

// DecodeAndPrepare decodes a JSON body into T and runs its validation.
// On failure it writes the error response and returns ok=false; the handler
// should simply return.
func DecodeAndPrepare[T any, PT validatablePtr[T]](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req := new(T)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "malformed request body", "request_id", requestID, "error", err)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	if err := PT(req).Validate(); err != nil {
		WriteError(w, err)
		return nil, false
	}
	return req, true
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
