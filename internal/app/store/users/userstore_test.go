package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/usersvc/internal/app/store/users"
	"github.com/dalemusser/usersvc/internal/app/system/indexes"
	"github.com/dalemusser/usersvc/internal/domain/models"
	"github.com/dalemusser/usersvc/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func strp(s string) *string { return &s }

func TestStore_Insert_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Insert(ctx, models.User{UID: "Ada.Lovelace"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if created.UID != "ada.lovelace" {
		t.Errorf("expected lowercased uid, got %q", created.UID)
	}
	if created.Role != models.RolePublic {
		t.Errorf("expected default role, got %q", created.Role)
	}

	got, err := store.GetByUID(ctx, "ADA.LOVELACE")
	if err != nil {
		t.Fatalf("GetByUID failed: %v", err)
	}
	if got.UID != "ada.lovelace" || got.Img != nil || got.Phone != nil {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestStore_Insert_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	store := userstore.New(db)

	if _, err := store.Insert(ctx, models.NewUser("dup")); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}
	_, err := store.Insert(ctx, models.NewUser("DUP"))
	if !errors.Is(err, userstore.ErrDuplicateUID) {
		t.Errorf("expected ErrDuplicateUID, got %v", err)
	}
}

func TestStore_GetByUID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByUID(ctx, "nobody")
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_SetRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateUser(ctx, "grace", models.RolePublic)

	if err := store.SetRole(ctx, "grace", models.RoleSLO); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	got, _ := store.GetByUID(ctx, "grace")
	if got.Role != models.RoleSLO {
		t.Errorf("expected role slo, got %q", got.Role)
	}

	if err := store.SetRole(ctx, "missing", models.RoleCC); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments for missing uid, got %v", err)
	}
}

func TestStore_SetPhone_AndClear(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateUserWithContact(ctx, "alan", models.RolePublic, "https://img/a.png", "+91 90000 00000")

	if err := store.SetPhone(ctx, "alan", strp("+91 98765 43210")); err != nil {
		t.Fatalf("SetPhone failed: %v", err)
	}
	got, _ := store.GetByUID(ctx, "alan")
	if got.Phone == nil || *got.Phone != "+91 98765 43210" {
		t.Errorf("unexpected phone: %v", got.Phone)
	}
	if got.Img == nil || *got.Img != "https://img/a.png" {
		t.Errorf("SetPhone should not touch img, got %v", got.Img)
	}

	if err := store.SetPhone(ctx, "alan", nil); err != nil {
		t.Fatalf("SetPhone(nil) failed: %v", err)
	}
	got, _ = store.GetByUID(ctx, "alan")
	if got.Phone != nil {
		t.Errorf("expected phone cleared, got %v", *got.Phone)
	}
}

func TestStore_SetProfileData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateUser(ctx, "linus", models.RoleClub)

	if err := store.SetProfileData(ctx, "linus", strp("https://img/l.png"), nil); err != nil {
		t.Fatalf("SetProfileData failed: %v", err)
	}
	got, _ := store.GetByUID(ctx, "linus")
	if got.Img == nil || *got.Img != "https://img/l.png" {
		t.Errorf("unexpected img: %v", got.Img)
	}
	if got.Phone != nil {
		t.Errorf("expected nil phone, got %v", *got.Phone)
	}
	if got.Role != models.RoleClub {
		t.Errorf("role must be untouched, got %q", got.Role)
	}
}

func TestStore_ListByRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateUser(ctx, "zed", models.RoleClub)
	fx.CreateUser(ctx, "amy", models.RoleClub)
	fx.CreateUser(ctx, "bob", models.RolePublic)

	users, err := store.ListByRole(ctx, models.RoleClub)
	if err != nil {
		t.Fatalf("ListByRole failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].UID != "amy" || users[1].UID != "zed" {
		t.Errorf("expected uid order [amy zed], got [%s %s]", users[0].UID, users[1].UID)
	}

	none, err := store.ListByRole(ctx, models.RoleSLC)
	if err != nil {
		t.Fatalf("ListByRole failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", none)
	}
}

func TestStore_UIDsWithoutImage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateUser(ctx, "noimg", models.RolePublic)
	fx.CreateUserWithContact(ctx, "hasimg", models.RolePublic, "https://img/h.png", "")
	fx.CreateUser(ctx, "other", models.RolePublic)

	got, err := store.UIDsWithoutImage(ctx, []string{"hasimg", "NOIMG", "unknown"})
	if err != nil {
		t.Fatalf("UIDsWithoutImage failed: %v", err)
	}
	if len(got) != 1 || got[0] != "noimg" {
		t.Errorf("expected [noimg], got %v", got)
	}
}
