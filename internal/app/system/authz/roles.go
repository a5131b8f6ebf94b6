// internal/app/system/authz/roles.go
package authz

import (
	"context"
	"strings"
)

// HasAnyRole reports whether the caller has any of the given roles.
// Returns false if no caller is present.
func HasAnyRole(ctx context.Context, roles ...string) bool {
	c, ok := CallerCtx(ctx)
	if !ok {
		return false
	}
	cur := strings.ToLower(c.Role)
	for _, want := range roles {
		if cur == strings.ToLower(strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// HasRole is a convenience wrapper for a single role.
func HasRole(ctx context.Context, role string) bool {
	return HasAnyRole(ctx, role)
}

// Role returns the caller's role (lowercased) and whether a caller is present.
// Absent callers report "anonymous".
func Role(ctx context.Context) (string, bool) {
	c, ok := CallerCtx(ctx)
	if !ok {
		return "anonymous", false
	}
	return strings.ToLower(c.Role), true
}
