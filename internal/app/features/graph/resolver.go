package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/usersvc/internal/app/features/users"
	domainerrors "github.com/dalemusser/usersvc/internal/domain/errors"
	"github.com/dalemusser/usersvc/internal/domain/models"
	"go.uber.org/zap"
)

// Service is what the resolvers call. *users.Service implements it.
type Service interface {
	UserProfile(ctx context.Context, target *string) (*models.Profile, error)
	UserMeta(ctx context.Context, target *string) (*models.User, error)
	UsersByRole(ctx context.Context, role string, secret *string) ([]models.User, error)
	UsersByBatch(ctx context.Context, year int) ([]models.Profile, error)
	UsersByList(ctx context.Context, uids []string) ([]*models.Profile, error)
	UpdateRole(ctx context.Context, in users.RoleInput) (bool, error)
	UpdatePhone(ctx context.Context, in users.UserDataInput) (bool, error)
	UpdateProfileData(ctx context.Context, in users.UserDataInput) (bool, error)
	AuditEvents(ctx context.Context, in users.AuditFilter) (users.AuditPage, error)
}

var _ Service = (*users.Service)(nil)

// Resolver is the root resolver for both Query and Mutation.
type Resolver struct {
	svc Service
	log *zap.Logger
}

func target(in *userInput) *string {
	if in == nil {
		return nil
	}
	return in.UID
}

/*─────────────────────────────────────────────────────────────────────────────*
| Queries                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (r *Resolver) UserProfile(ctx context.Context, args struct{ UserInput *userInput }) (*profileResolver, error) {
	p, err := r.svc.UserProfile(ctx, target(args.UserInput))
	if err != nil {
		return nil, r.fail(ctx, "userProfile", err)
	}
	return newProfile(p), nil
}

func (r *Resolver) UserMeta(ctx context.Context, args struct{ UserInput *userInput }) (*userMetaResolver, error) {
	u, err := r.svc.UserMeta(ctx, target(args.UserInput))
	if err != nil {
		return nil, r.fail(ctx, "userMeta", err)
	}
	if u == nil {
		return nil, nil
	}
	return &userMetaResolver{u: *u}, nil
}

func (r *Resolver) UsersByRole(ctx context.Context, args struct {
	Role                     string
	InterCommunicationSecret *string
}) ([]*userMetaResolver, error) {
	list, err := r.svc.UsersByRole(ctx, args.Role, args.InterCommunicationSecret)
	if err != nil {
		return nil, r.fail(ctx, "usersByRole", err)
	}
	out := make([]*userMetaResolver, len(list))
	for i := range list {
		out[i] = &userMetaResolver{u: list[i]}
	}
	return out, nil
}

func (r *Resolver) UsersByBatch(ctx context.Context, args struct{ BatchYear int32 }) ([]*profileResolver, error) {
	list, err := r.svc.UsersByBatch(ctx, int(args.BatchYear))
	if err != nil {
		return nil, r.fail(ctx, "usersByBatch", err)
	}
	out := make([]*profileResolver, len(list))
	for i := range list {
		out[i] = &profileResolver{p: list[i]}
	}
	return out, nil
}

func (r *Resolver) UsersByList(ctx context.Context, args struct{ UIDs []string }) ([]*profileResolver, error) {
	list, err := r.svc.UsersByList(ctx, args.UIDs)
	if err != nil {
		return nil, r.fail(ctx, "usersByList", err)
	}
	out := make([]*profileResolver, len(list))
	for i, p := range list {
		out[i] = newProfile(p)
	}
	return out, nil
}

func (r *Resolver) AuditEvents(ctx context.Context, args struct{ Filter *auditFilterInput }) (*auditPageResolver, error) {
	in, err := auditFilter(args.Filter)
	if err != nil {
		return nil, r.fail(ctx, "auditEvents", err)
	}
	page, err := r.svc.AuditEvents(ctx, in)
	if err != nil {
		return nil, r.fail(ctx, "auditEvents", err)
	}
	return &auditPageResolver{page: page}, nil
}

func auditFilter(in *auditFilterInput) (users.AuditFilter, error) {
	var out users.AuditFilter
	if in == nil {
		return out, nil
	}
	out.TargetUID = deref(in.TargetUID)
	out.ActorUID = deref(in.ActorUID)
	out.Category = deref(in.Category)
	out.EventType = deref(in.EventType)
	if in.Limit != nil {
		out.Limit = int(*in.Limit)
	}
	if in.Offset != nil {
		out.Offset = int(*in.Offset)
	}
	var err error
	if out.Since, err = parseTime("since", in.Since); err != nil {
		return out, err
	}
	if out.Until, err = parseTime("until", in.Until); err != nil {
		return out, err
	}
	return out, nil
}

func parseTime(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an RFC 3339 timestamp", domainerrors.ErrValidation, field)
	}
	return &t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

/*─────────────────────────────────────────────────────────────────────────────*
| Mutations                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (r *Resolver) UpdateRole(ctx context.Context, args struct{ RoleInput roleInput }) (bool, error) {
	ok, err := r.svc.UpdateRole(ctx, users.RoleInput{
		UID:    args.RoleInput.UID,
		Role:   args.RoleInput.Role,
		Secret: args.RoleInput.InterCommunicationSecret,
	})
	if err != nil {
		return false, r.fail(ctx, "updateRole", err)
	}
	return ok, nil
}

func (r *Resolver) UpdatePhone(ctx context.Context, args struct{ UserDataInput userDataInput }) (bool, error) {
	ok, err := r.svc.UpdatePhone(ctx, users.UserDataInput(args.UserDataInput))
	if err != nil {
		return false, r.fail(ctx, "updatePhone", err)
	}
	return ok, nil
}

func (r *Resolver) UpdateProfileData(ctx context.Context, args struct{ UserDataInput userDataInput }) (bool, error) {
	ok, err := r.svc.UpdateProfileData(ctx, users.UserDataInput(args.UserDataInput))
	if err != nil {
		return false, r.fail(ctx, "updateProfileData", err)
	}
	return ok, nil
}
