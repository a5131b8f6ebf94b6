// internal/app/features/userinfo/handler.go
package userinfo

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/usersvc/internal/app/system/auth"
)

// Handler echoes the caller identity the gateway attached to the request.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

type response struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	UID             string `json:"uid"`
	Role            string `json:"role"`
}

// ServeUserInfo returns the caller's identity as JSON. Without a caller
// isAuthenticated is false and uid and role are empty.
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	var resp response
	if c, ok := auth.CurrentUser(r); ok {
		resp = response{IsAuthenticated: true, UID: c.UID, Role: c.Role}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
