package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/usersvc/internal/app/store/audit"
	"github.com/dalemusser/usersvc/internal/testutil"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventRoleUpdated,
		ActorUID:  "cc.admin",
		ActorRole: "cc",
		TargetUID: "ada.lovelace",
		Success:   true,
		Details:   map[string]string{"new_role": "club"},
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.QueryFilter{TargetUID: "ada.lovelace"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
	if events[0].Details["new_role"] != "club" {
		t.Errorf("expected details to round-trip, got %v", events[0].Details)
	}
}

func TestStore_Query_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	events, err := store.Query(ctx, audit.QueryFilter{Limit: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
	n, err := store.CountByFilter(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected count 0, got %d", n)
	}
}

func TestStore_Query_NewestFirstWithLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().Add(-time.Hour).UTC()
	for i := 0; i < 5; i++ {
		if err := store.Log(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Category:  audit.CategoryAdmin,
			EventType: audit.EventPhoneUpdated,
			TargetUID: "grace",
			Success:   true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.Query(ctx, audit.QueryFilter{TargetUID: "grace", Limit: 2})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if !events[0].Timestamp.After(events[1].Timestamp) {
		t.Error("expected newest first")
	}

	skipped, err := store.Query(ctx, audit.QueryFilter{TargetUID: "grace", Limit: 10, Offset: 3})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(skipped) != 2 {
		t.Errorf("expected 2 events after offset, got %d", len(skipped))
	}
}

func TestStore_Query_ByCategoryAndType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAdmin, EventType: audit.EventRoleUpdated, Success: true})
	_ = store.Log(ctx, audit.Event{Category: audit.CategorySecurity, EventType: audit.EventAccessDenied, FailureReason: "forbidden"})
	_ = store.Log(ctx, audit.Event{Category: audit.CategorySecurity, EventType: audit.EventAccessDenied, FailureReason: "bad_secret"})

	n, err := store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategorySecurity})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 security events, got %d", n)
	}

	events, err := store.Query(ctx, audit.QueryFilter{EventType: audit.EventRoleUpdated})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 role event, got %d", len(events))
	}
}

func TestStore_Query_ByTimeRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	_ = store.Log(ctx, audit.Event{Timestamp: now.Add(-48 * time.Hour), Category: audit.CategoryAdmin, EventType: audit.EventUserCreated})
	_ = store.Log(ctx, audit.Event{Timestamp: now.Add(-time.Hour), Category: audit.CategoryAdmin, EventType: audit.EventUserCreated})

	since := now.Add(-24 * time.Hour)
	events, err := store.Query(ctx, audit.QueryFilter{StartTime: &since})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event in range, got %d", len(events))
	}

	until := now.Add(-24 * time.Hour)
	older, err := store.Query(ctx, audit.QueryFilter{EndTime: &until})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(older) != 1 || !older[0].Timestamp.Before(until) {
		t.Errorf("expected the 48h-old event only, got %+v", older)
	}
}

func TestStore_DeleteBefore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	for _, ts := range []time.Time{now.Add(-48 * time.Hour), now.Add(-25 * time.Hour), now.Add(-time.Hour)} {
		if err := store.Log(ctx, audit.Event{Timestamp: ts, Category: audit.CategoryAdmin, EventType: audit.EventUserCreated}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	n, err := store.DeleteBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}

	left, err := store.CountByFilter(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if left != 1 {
		t.Errorf("expected 1 remaining, got %d", left)
	}
}
