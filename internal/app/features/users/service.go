// Package users implements the user operations exposed over GraphQL:
// profile and metadata reads, bulk lookups, and role, phone and
// profile-data updates.
//
// Every operation takes the caller from the request context (see
// auth.LoadCaller) and returns domain errors the transport maps to codes.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/usersvc/internal/app/policy/userpolicy"
	"github.com/dalemusser/usersvc/internal/app/system/auditlog"
	"github.com/dalemusser/usersvc/internal/app/system/auth"
	"github.com/dalemusser/usersvc/internal/app/system/authz"
	"github.com/dalemusser/usersvc/internal/app/system/directory"
	"github.com/dalemusser/usersvc/internal/app/system/identity"
	"github.com/dalemusser/usersvc/internal/app/system/inputval"
	"github.com/dalemusser/usersvc/internal/app/system/phone"
	"github.com/dalemusser/usersvc/internal/app/system/profiles"
	"github.com/dalemusser/usersvc/internal/app/system/timeouts"
	domainerrors "github.com/dalemusser/usersvc/internal/domain/errors"
	"github.com/dalemusser/usersvc/internal/domain/models"
	"go.uber.org/zap"
)

// Batch years outside this range return no profiles without a directory search.
const (
	MinBatchYear = 18
	MaxBatchYear = 100
)

// Store is the user store as seen by the operations.
type Store interface {
	identity.Store
	SetRole(ctx context.Context, uid, role string) error
	SetPhone(ctx context.Context, uid string, phone *string) error
	SetProfileData(ctx context.Context, uid string, img, phone *string) error
	ListByRole(ctx context.Context, role string) ([]models.User, error)
}

// RoleInput is the argument of UpdateRole.
type RoleInput struct {
	UID    string
	Role   string
	Secret *string
}

// UserDataInput is the argument of UpdatePhone and UpdateProfileData.
type UserDataInput struct {
	UID   string
	Img   *string
	Phone *string
}

// Service holds the dependencies of the user operations.
type Service struct {
	store    Store
	dir      directory.Searcher
	resolver *identity.Resolver
	audit    *auditlog.Logger
	events   AuditReader
	secret   string
	log      *zap.Logger
}

// NewService wires the operations. secret is the inter-service shared
// secret ("" when none is configured). audit and events may be nil.
func NewService(store Store, dir directory.Searcher, audit *auditlog.Logger, events AuditReader, secret string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := identity.NewResolver(store, logger)
	if audit != nil {
		r.OnCreate = func(ctx context.Context, u models.User) {
			audit.UserCreated(ctx, u.UID, u.Role)
		}
	}
	return &Service{
		store:    store,
		dir:      dir,
		resolver: r,
		audit:    audit,
		events:   events,
		secret:   secret,
		log:      logger,
	}
}

func caller(ctx context.Context) *auth.Caller {
	c, _ := authz.CallerCtx(ctx)
	return c
}

// UserProfile returns the directory profile of target, or of the caller
// when target is empty. With neither it returns nil.
func (s *Service) UserProfile(ctx context.Context, target *string) (*models.Profile, error) {
	uid := identity.Resolve(target, caller(ctx))
	if uid == "" {
		return nil, nil
	}
	if err := inputval.CheckUID(uid); err != nil {
		return nil, err
	}

	entries, err := s.search(ctx, directory.ByUID(uid))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: could not find profile", domainerrors.ErrNotFound)
	}
	p := profiles.ToProfile(entries[0])
	return &p, nil
}

// UserMeta returns the stored metadata of target (or the caller), creating
// a default record on first access. The phone is redacted unless the caller
// may see it.
func (s *Service) UserMeta(ctx context.Context, target *string) (*models.User, error) {
	c := caller(ctx)
	uid := identity.Resolve(target, c)
	if uid == "" {
		return nil, nil
	}
	if err := inputval.CheckUID(uid); err != nil {
		return nil, err
	}

	u, err := s.findOrCreate(ctx, uid)
	if err != nil {
		return nil, err
	}
	u = identity.Redact(u, c)
	return &u, nil
}

// UsersByRole lists every record with role, ordered by uid. Only cc callers
// and holders of the shared secret may call it.
func (s *Service) UsersByRole(ctx context.Context, role string, secret *string) ([]models.User, error) {
	c := caller(ctx)
	if err := userpolicy.CanListByRole(c, secret, s.secret); err != nil {
		s.audit.AccessDenied(ctx, c, userpolicy.ActionListByRole, "", err)
		return nil, err
	}

	role = inputval.NormalizeRole(role)
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", domainerrors.ErrValidation, role)
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "list users by role")
	defer cancel()
	users, err := s.store.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return users, nil
}

// UsersByBatch returns the profiles of every student in the cohort of the
// two-digit year.
func (s *Service) UsersByBatch(ctx context.Context, year int) ([]models.Profile, error) {
	if year < MinBatchYear || year > MaxBatchYear {
		return []models.Profile{}, nil
	}

	entries, err := s.search(ctx, directory.ByBatch(year))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no profiles for this batch", domainerrors.ErrNotFound)
	}
	return profiles.ToProfiles(entries), nil
}

// UsersByList looks up uids in one directory search. The result has one
// slot per input uid, in input order; uids the directory does not know
// are nil.
func (s *Service) UsersByList(ctx context.Context, uids []string) ([]*models.Profile, error) {
	out := make([]*models.Profile, len(uids))
	if len(uids) == 0 {
		return out, nil
	}

	keys := make([]string, len(uids))
	seen := make(map[string]struct{}, len(uids))
	var query []string
	for i, u := range uids {
		k := strings.ToLower(strings.TrimSpace(u))
		keys[i] = k
		if k == "" {
			continue
		}
		if err := inputval.CheckUID(k); err != nil {
			return nil, err
		}
		if _, dup := seen[k]; !dup {
			seen[k] = struct{}{}
			query = append(query, k)
		}
	}
	if len(query) == 0 {
		return out, nil
	}

	entries, err := s.search(ctx, directory.ByUIDs(query))
	if err != nil {
		return nil, err
	}
	byUID := make(map[string]*models.Profile, len(entries))
	for _, e := range entries {
		p := profiles.ToProfile(e)
		byUID[strings.ToLower(p.UID)] = &p
	}
	for i, k := range keys {
		out[i] = byUID[k]
	}
	return out, nil
}

// UpdateRole assigns a role. Checks run in order: caller present, caller
// is cc, shared secret, role valid.
func (s *Service) UpdateRole(ctx context.Context, in RoleInput) (bool, error) {
	c := caller(ctx)
	uid := strings.ToLower(strings.TrimSpace(in.UID))
	if err := userpolicy.CanUpdateRole(c, in.Secret, s.secret); err != nil {
		s.audit.AccessDenied(ctx, c, userpolicy.ActionUpdateRole, uid, err)
		return false, err
	}

	role := inputval.NormalizeRole(in.Role)
	if err := inputval.Check(inputval.RoleChange{UID: uid, Role: role}); err != nil {
		return false, err
	}

	u, err := s.findOrCreate(ctx, uid)
	if err != nil {
		return false, err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "set role")
	defer cancel()
	if err := s.store.SetRole(ctx, uid, role); err != nil {
		return false, fmt.Errorf("set role: %w", err)
	}
	s.audit.RoleUpdated(ctx, c, uid, u.Role, role)
	return true, nil
}

// UpdatePhone sets or clears (blank phone) a user's phone. Checks run in
// order: caller present, input valid, caller is cc, club or the user.
func (s *Service) UpdatePhone(ctx context.Context, in UserDataInput) (bool, error) {
	c := caller(ctx)
	uid := strings.ToLower(strings.TrimSpace(in.UID))
	if c == nil {
		err := userpolicy.CanUpdatePhone(nil, uid)
		s.audit.AccessDenied(ctx, nil, userpolicy.ActionUpdatePhone, uid, err)
		return false, err
	}

	if err := inputval.Check(inputval.UserData{UID: uid, Phone: in.Phone}); err != nil {
		return false, err
	}
	normalized, err := phone.NormalizePtr(in.Phone)
	if err != nil {
		return false, inputval.Wrap(err)
	}

	if err := userpolicy.CanUpdatePhone(c, uid); err != nil {
		s.audit.AccessDenied(ctx, c, userpolicy.ActionUpdatePhone, uid, err)
		return false, err
	}

	if _, err := s.findOrCreate(ctx, uid); err != nil {
		return false, err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "set phone")
	defer cancel()
	if err := s.store.SetPhone(ctx, uid, normalized); err != nil {
		return false, fmt.Errorf("set phone: %w", err)
	}
	s.audit.PhoneUpdated(ctx, c, uid, normalized == nil)
	return true, nil
}

// UpdateProfileData replaces image and phone together; an omitted field is
// cleared. Checks run in order: caller present, caller is cc or the user,
// input valid.
func (s *Service) UpdateProfileData(ctx context.Context, in UserDataInput) (bool, error) {
	c := caller(ctx)
	uid := strings.ToLower(strings.TrimSpace(in.UID))
	if err := userpolicy.CanUpdateProfileData(c, uid); err != nil {
		s.audit.AccessDenied(ctx, c, userpolicy.ActionUpdateProfileData, uid, err)
		return false, err
	}

	img := blankToNil(in.Img)
	if err := inputval.Check(inputval.UserData{UID: uid, Img: img, Phone: in.Phone}); err != nil {
		return false, err
	}
	normalized, err := phone.NormalizePtr(in.Phone)
	if err != nil {
		return false, inputval.Wrap(err)
	}

	if _, err := s.findOrCreate(ctx, uid); err != nil {
		return false, err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "set profile data")
	defer cancel()
	if err := s.store.SetProfileData(ctx, uid, img, normalized); err != nil {
		return false, fmt.Errorf("set profile data: %w", err)
	}
	s.audit.ProfileDataUpdated(ctx, c, uid, img != nil, normalized != nil)
	return true, nil
}

func (s *Service) findOrCreate(ctx context.Context, uid string) (models.User, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "find or create user")
	defer cancel()
	return s.resolver.FindOrCreate(ctx, uid)
}

func (s *Service) search(ctx context.Context, q directory.Query) ([]directory.Entry, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Directory(), s.log, "directory "+q.Kind+" search")
	defer cancel()
	entries, err := s.dir.Search(ctx, q)
	if err != nil {
		if !errors.Is(err, domainerrors.ErrUpstreamUnavailable) {
			s.log.Error("directory search failed", zap.String("kind", q.Kind), zap.Error(err))
		}
		return nil, err
	}
	return entries, nil
}

func blankToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
