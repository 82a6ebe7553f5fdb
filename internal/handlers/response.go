package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/catatkas/backend/internal/validation"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   message,
		Details: validation.Details(validationErr),
	})
}
