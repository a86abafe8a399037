package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"vector-starter/internal/provision"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	_ = writeJSON(w, status, ErrorResponse{Error: message})
}

// statusFor maps provisioning errors to HTTP status codes.
func statusFor(err error) int {
	var cfgErr *provision.ConfigurationError
	switch {
	case errors.As(err, &cfgErr) && errors.Is(err, provision.ErrNotRegistered):
		return http.StatusNotFound
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError
	case provision.IsRemoteError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
