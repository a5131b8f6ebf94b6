package authz_test

import (
	"context"
	"testing"

	"github.com/dalemusser/usersvc/internal/app/system/auth"
	"github.com/dalemusser/usersvc/internal/app/system/authz"
)

func withCaller(uid, role string) context.Context {
	return auth.WithCaller(context.Background(), &auth.Caller{UID: uid, Role: role})
}

func TestCallerCtx_NoCaller(t *testing.T) {
	if _, ok := authz.CallerCtx(context.Background()); ok {
		t.Error("expected no caller")
	}
}

func TestCallerCtx_EmptyUID(t *testing.T) {
	if _, ok := authz.CallerCtx(withCaller("", "cc")); ok {
		t.Error("expected caller without uid to be treated as absent")
	}
}

func TestIsCC(t *testing.T) {
	if !authz.IsCC(withCaller("cc.admin", "cc")) {
		t.Error("expected IsCC to be true for cc")
	}
	if authz.IsCC(withCaller("club.x", "club")) {
		t.Error("expected IsCC to be false for club")
	}
	if authz.IsCC(context.Background()) {
		t.Error("expected IsCC to be false without caller")
	}
}

func TestIsClub(t *testing.T) {
	if !authz.IsClub(withCaller("club.x", "club")) {
		t.Error("expected IsClub to be true for club")
	}
}

func TestIsSelf(t *testing.T) {
	ctx := withCaller("ada.lovelace", "public")
	if !authz.IsSelf(ctx, "Ada.Lovelace") {
		t.Error("expected IsSelf to match case-insensitively")
	}
	if authz.IsSelf(ctx, "grace.hopper") {
		t.Error("expected IsSelf to be false for another uid")
	}
}

func TestHasAnyRole(t *testing.T) {
	ctx := withCaller("slo.office", "SLO")
	if !authz.HasAnyRole(ctx, "cc", " slo ") {
		t.Error("expected HasAnyRole to match slo")
	}
	if authz.HasAnyRole(ctx, "cc", "club") {
		t.Error("expected HasAnyRole to be false")
	}
	if authz.HasAnyRole(context.Background(), "public") {
		t.Error("expected HasAnyRole to be false without caller")
	}
}

func TestRole(t *testing.T) {
	role, ok := authz.Role(withCaller("x", "Club"))
	if !ok || role != "club" {
		t.Errorf("Role() = %q, %v; want club, true", role, ok)
	}
	role, ok = authz.Role(context.Background())
	if ok || role != "anonymous" {
		t.Errorf("Role() = %q, %v; want anonymous, false", role, ok)
	}
}
