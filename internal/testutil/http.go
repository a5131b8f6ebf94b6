package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/dalemusser/usersvc/internal/app/system/auth"
)

// CCCaller returns a caller with the cc role.
func CCCaller() *auth.Caller {
	return &auth.Caller{UID: "cc.admin", Role: "cc"}
}

// ClubCaller returns a caller with the club role.
func ClubCaller() *auth.Caller {
	return &auth.Caller{UID: "club.account", Role: "club"}
}

// PublicCaller returns a caller with the public role and the given uid.
func PublicCaller(uid string) *auth.Caller {
	return &auth.Caller{UID: uid, Role: "public"}
}

// WithCaller adds a caller to the request context for testing handlers.
// This bypasses the header middleware and injects the caller directly.
func WithCaller(r *http.Request, c *auth.Caller) *http.Request {
	return auth.WithTestCaller(r, c)
}

// SetCallerHeader sets the gateway header the way the upstream proxy does.
func SetCallerHeader(r *http.Request, c *auth.Caller) {
	b, _ := json.Marshal(c)
	r.Header.Set(auth.HeaderUser, string(b))
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}
