// Package httpx holds the JSON response helpers and the error-to-status
// mapping shared by all HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ayush/nebula-feed/internal/apperr"
)

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Status maps a domain error kind to its HTTP status.
func Status(err error) int {
	switch apperr.Kind(err) {
	case apperr.ErrValidation, apperr.ErrConflict, apperr.ErrInvalidReference:
		return http.StatusBadRequest
	case apperr.ErrInvalidCredentials, apperr.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperr.ErrForbidden:
		return http.StatusForbidden
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError translates err once at the API boundary. Internal errors are
// logged with their cause and returned with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := Status(err)
	code := "internal"
	if k := apperr.Kind(err); k != nil {
		code = k.Error()
	} else if log != nil {
		log.ErrorContext(r.Context(), "http.internal_error",
			"err", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
	}
	WriteJSON(w, status, errorResponse{Error: apperr.Message(err), Code: code})
}

// DecodeJSON reads a single JSON object from the request body.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.Validation("httpx.DecodeJSON", "request body is required")
	}
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("httpx.DecodeJSON", "invalid request body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.Validation("httpx.DecodeJSON", "invalid request body")
	}
	return nil
}
