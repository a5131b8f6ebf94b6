package testutil

import (
	"context"
	"testing"

	"github.com/dalemusser/usersvc/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user record with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, uid, role string) models.User {
	f.t.Helper()

	u := models.User{UID: uid, Role: role}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateUserWithContact inserts a user record with image and phone set.
func (f *Fixtures) CreateUserWithContact(ctx context.Context, uid, role, img, phone string) models.User {
	f.t.Helper()

	u := models.User{UID: uid, Role: role, Img: &img, Phone: &phone}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateClub inserts a club owned by the clubs service.
func (f *Fixtures) CreateClub(ctx context.Context, cid, state string) models.Club {
	f.t.Helper()

	c := models.Club{CID: cid, State: state}
	if _, err := f.db.Collection("clubs").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test club: %v", err)
	}
	return c
}

// CreateMember inserts a club member with the given roles.
func (f *Fixtures) CreateMember(ctx context.Context, cid, uid string, roles ...models.MemberRole) models.Member {
	f.t.Helper()

	m := models.Member{CID: cid, UID: uid, Roles: roles}
	if _, err := f.db.Collection("members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return m
}
