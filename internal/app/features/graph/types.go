package graph

import (
	"sort"
	"time"

	"github.com/dalemusser/usersvc/internal/app/features/users"
	"github.com/dalemusser/usersvc/internal/app/store/audit"
	"github.com/dalemusser/usersvc/internal/domain/models"
	graphql "github.com/graph-gophers/graphql-go"
)

type profileResolver struct {
	p models.Profile
}

func newProfile(p *models.Profile) *profileResolver {
	if p == nil {
		return nil
	}
	return &profileResolver{p: *p}
}

func (r *profileResolver) UID() string       { return r.p.UID }
func (r *profileResolver) FirstName() string { return r.p.FirstName }
func (r *profileResolver) LastName() string  { return r.p.LastName }
func (r *profileResolver) Gender() *string   { return r.p.Gender }
func (r *profileResolver) Batch() *string    { return r.p.Batch }
func (r *profileResolver) BatchYear() *string {
	return r.p.BatchYear
}
func (r *profileResolver) Stream() *string { return r.p.Stream }
func (r *profileResolver) Rollno() *string { return r.p.RollNo }
func (r *profileResolver) Email() *string  { return r.p.Email }

type userMetaResolver struct {
	u models.User
}

func (r *userMetaResolver) UID() string    { return r.u.UID }
func (r *userMetaResolver) Role() string   { return r.u.Role }
func (r *userMetaResolver) Img() *string   { return r.u.Img }
func (r *userMetaResolver) Phone() *string { return r.u.Phone }

type userInput struct {
	UID *string
}

type roleInput struct {
	UID                      string
	Role                     string
	InterCommunicationSecret *string
}

type userDataInput struct {
	UID   string
	Img   *string
	Phone *string
}

type auditFilterInput struct {
	TargetUID *string
	ActorUID  *string
	Category  *string
	EventType *string
	Since     *string
	Until     *string
	Limit     *int32
	Offset    *int32
}

type auditPageResolver struct {
	page users.AuditPage
}

func (r *auditPageResolver) Total() int32 { return int32(r.page.Total) }

func (r *auditPageResolver) Events() []*auditEventResolver {
	out := make([]*auditEventResolver, len(r.page.Events))
	for i := range r.page.Events {
		out[i] = &auditEventResolver{e: r.page.Events[i]}
	}
	return out
}

type auditEventResolver struct {
	e audit.Event
}

func (r *auditEventResolver) ID() graphql.ID { return graphql.ID(r.e.ID.Hex()) }
func (r *auditEventResolver) Timestamp() string {
	return r.e.Timestamp.UTC().Format(time.RFC3339Nano)
}
func (r *auditEventResolver) Category() string       { return r.e.Category }
func (r *auditEventResolver) EventType() string      { return r.e.EventType }
func (r *auditEventResolver) ActorUID() *string      { return optional(r.e.ActorUID) }
func (r *auditEventResolver) ActorRole() *string     { return optional(r.e.ActorRole) }
func (r *auditEventResolver) TargetUID() *string     { return optional(r.e.TargetUID) }
func (r *auditEventResolver) RequestID() *string     { return optional(r.e.RequestID) }
func (r *auditEventResolver) Success() bool          { return r.e.Success }
func (r *auditEventResolver) FailureReason() *string { return optional(r.e.FailureReason) }

// Details are ordered by key.
func (r *auditEventResolver) Details() []*auditDetailResolver {
	keys := make([]string, 0, len(r.e.Details))
	for k := range r.e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*auditDetailResolver, len(keys))
	for i, k := range keys {
		out[i] = &auditDetailResolver{key: k, value: r.e.Details[k]}
	}
	return out
}

type auditDetailResolver struct {
	key, value string
}

func (r *auditDetailResolver) Key() string   { return r.key }
func (r *auditDetailResolver) Value() string { return r.value }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
