package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody matches the envelope the REST handlers use for failures.
type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Success: false, Message: message}) //nolint:errcheck
}
