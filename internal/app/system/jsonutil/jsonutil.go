// Package jsonutil writes the JSON responses shared by every API handler.
// Errors always have the shape {"error": message}.
package jsonutil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
)

// JSON writes data with status. A nil data writes headers only.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func OK(w http.ResponseWriter, data any)      { JSON(w, http.StatusOK, data) }
func Created(w http.ResponseWriter, data any) { JSON(w, http.StatusCreated, data) }

// NoContent writes 204 with no body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes {"error": message} with status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func BadRequest(w http.ResponseWriter, message string)   { Error(w, http.StatusBadRequest, message) }
func Unauthorized(w http.ResponseWriter, message string) { Error(w, http.StatusUnauthorized, message) }
func Forbidden(w http.ResponseWriter, message string)    { Error(w, http.StatusForbidden, message) }
func NotFound(w http.ResponseWriter, message string)     { Error(w, http.StatusNotFound, message) }

// InternalError writes a 500. message goes to the client, so log the cause
// separately.
func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}

// ValidationError writes 400 with per-field messages.
func ValidationError(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": fields,
	})
}

// DecodeStrict decodes the request body into v. Unknown fields are rejected
// and the body is capped at maxBytes. Pass any error to BodyError.
func DecodeStrict(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// BodyError writes the response for a DecodeStrict failure: 413 when the
// cap was hit, 400 otherwise.
func BodyError(w http.ResponseWriter, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		Error(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	BadRequest(w, "invalid JSON body")
}

// StoreStatus maps a store error kind to its HTTP status.
func StoreStatus(err error) int {
	switch {
	case errors.Is(err, storeutil.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storeutil.ErrDuplicate), errors.Is(err, storeutil.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, storeutil.ErrInvalidValue):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// StoreError writes the response for a store error. Known kinds carry their
// own message; anything else is reported as "internal error".
func StoreError(w http.ResponseWriter, err error) {
	switch status := StoreStatus(err); status {
	case http.StatusInternalServerError:
		InternalError(w, "internal error")
	case http.StatusNotFound:
		NotFound(w, "not found")
	default:
		Error(w, status, err.Error())
	}
}
