package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"cash-register-client/internal/apperr"
)

// WriteError writes a standardised JSON error response.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{
		"error": msg,
	})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// StatusFor maps a controller error to the local surface's status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, apperr.ErrExtendedDisabled):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrInvalidOption):
		return http.StatusBadRequest
	}

	switch apperr.Kind(err) {
	case "busy":
		return http.StatusConflict
	case "validation":
		return http.StatusUnprocessableEntity
	case "canceled", "timeout":
		return http.StatusGatewayTimeout
	case "internal":
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
