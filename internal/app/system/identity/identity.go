// Package identity resolves which user an operation is about and makes sure
// that user has a local record.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	userstore "github.com/dalemusser/usersvc/internal/app/store/users"
	"github.com/dalemusser/usersvc/internal/app/policy/userpolicy"
	"github.com/dalemusser/usersvc/internal/app/system/auth"
	"github.com/dalemusser/usersvc/internal/app/system/metrics"
	"github.com/dalemusser/usersvc/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Store is the part of the user store identity needs.
type Store interface {
	GetByUID(ctx context.Context, uid string) (*models.User, error)
	Insert(ctx context.Context, u models.User) (models.User, error)
}

// Resolve picks the effective uid: the explicit target if given, else the
// caller's own uid, else "". The result is lowercased.
func Resolve(target *string, caller *auth.Caller) string {
	if target != nil {
		if t := strings.TrimSpace(*target); t != "" {
			return strings.ToLower(t)
		}
	}
	if caller != nil {
		return strings.ToLower(caller.UID)
	}
	return ""
}

// Redact clears the phone unless caller may see it.
func Redact(u models.User, caller *auth.Caller) models.User {
	if !userpolicy.CanSeePhone(caller, u.UID) {
		u.Phone = nil
	}
	return u
}

// Resolver finds or lazily creates user records.
type Resolver struct {
	store Store
	log   *zap.Logger

	// OnCreate, if set, is called after this resolver inserts a record.
	OnCreate func(ctx context.Context, u models.User)
}

func NewResolver(store Store, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: store, log: logger}
}

// FindOrCreate returns the record for uid, inserting a default one if none
// exists. Two requests racing to create the same uid both get the record
// that won the insert.
func (r *Resolver) FindOrCreate(ctx context.Context, uid string) (models.User, error) {
	uid = strings.ToLower(uid)

	u, err := r.store.GetByUID(ctx, uid)
	if err == nil {
		return *u, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, fmt.Errorf("find user %q: %w", uid, err)
	}

	created, err := r.store.Insert(ctx, models.NewUser(uid))
	if err == nil {
		metrics.UsersCreated.Inc()
		r.log.Info("user record created", zap.String("uid", uid))
		if r.OnCreate != nil {
			r.OnCreate(ctx, created)
		}
		return created, nil
	}
	if !errors.Is(err, userstore.ErrDuplicateUID) {
		return models.User{}, fmt.Errorf("create user %q: %w", uid, err)
	}

	// lost the race; the winner's record is there now
	u, err = r.store.GetByUID(ctx, uid)
	if err != nil {
		return models.User{}, fmt.Errorf("re-read user %q after duplicate insert: %w", uid, err)
	}
	return *u, nil
}
