// internal/app/system/authz/authz.go
package authz

import (
	"context"

	"github.com/dalemusser/usersvc/internal/app/system/auth"
	"github.com/dalemusser/usersvc/internal/domain/models"
)

// CallerCtx returns the caller attached to ctx and a found flag. A caller
// without a uid is treated as absent, so ok=true always means a usable
// identity.
func CallerCtx(ctx context.Context) (*auth.Caller, bool) {
	c, ok := auth.CurrentCaller(ctx)
	if !ok || c.UID == "" {
		return nil, false
	}
	return c, true
}

// IsCC reports whether the caller holds the cc role.
func IsCC(ctx context.Context) bool {
	return HasRole(ctx, models.RoleCC)
}

// IsClub reports whether the caller is a club account.
func IsClub(ctx context.Context) bool {
	return HasRole(ctx, models.RoleClub)
}

// IsSelf reports whether the caller is the user identified by uid.
func IsSelf(ctx context.Context, uid string) bool {
	c, ok := CallerCtx(ctx)
	return ok && c.Is(uid)
}
