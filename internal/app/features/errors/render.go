// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Errors []errorItem `json:"errors"`
}

type errorItem struct {
	Message    string            `json:"message"`
	Extensions map[string]string `json:"extensions"`
}

// Render writes a single-error JSON body with the given status.
func Render(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Errors: []errorItem{{
		Message:    message,
		Extensions: map[string]string{"code": code},
	}}})
}
