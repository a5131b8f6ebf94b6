package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/usersvc/internal/app/policy/userpolicy"
	"github.com/dalemusser/usersvc/internal/app/store/audit"
	"github.com/dalemusser/usersvc/internal/app/system/timeouts"
	domainerrors "github.com/dalemusser/usersvc/internal/domain/errors"
)

// Page sizes for AuditEvents.
const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 500
)

// AuditReader is the read side of the audit store.
type AuditReader interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	CountByFilter(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

// AuditFilter is the argument of AuditEvents. Empty fields match anything.
type AuditFilter struct {
	TargetUID string
	ActorUID  string
	Category  string
	EventType string
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
}

// AuditPage is one page of audit events, newest first, with the total
// number of events matching the filter.
type AuditPage struct {
	Events []audit.Event
	Total  int64
}

// AuditEvents pages through the audit trail. cc only.
func (s *Service) AuditEvents(ctx context.Context, in AuditFilter) (AuditPage, error) {
	c := caller(ctx)
	if err := userpolicy.CanReadAudit(c); err != nil {
		s.audit.AccessDenied(ctx, c, userpolicy.ActionReadAudit, strings.ToLower(in.TargetUID), err)
		return AuditPage{}, err
	}

	filter, err := auditQuery(in)
	if err != nil {
		return AuditPage{}, err
	}
	if s.events == nil {
		return AuditPage{}, errors.New("audit trail not configured")
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "read audit trail")
	defer cancel()
	events, err := s.events.Query(ctx, filter)
	if err != nil {
		return AuditPage{}, fmt.Errorf("query audit events: %w", err)
	}
	total, err := s.events.CountByFilter(ctx, filter)
	if err != nil {
		return AuditPage{}, fmt.Errorf("count audit events: %w", err)
	}
	if events == nil {
		events = []audit.Event{}
	}
	return AuditPage{Events: events, Total: total}, nil
}

func auditQuery(in AuditFilter) (audit.QueryFilter, error) {
	invalid := func(format string, args ...any) (audit.QueryFilter, error) {
		return audit.QueryFilter{}, fmt.Errorf("%w: "+format, append([]any{domainerrors.ErrValidation}, args...)...)
	}

	limit := in.Limit
	switch {
	case limit == 0:
		limit = DefaultAuditLimit
	case limit < 0 || limit > MaxAuditLimit:
		return invalid("limit must be between 1 and %d", MaxAuditLimit)
	}
	if in.Offset < 0 {
		return invalid("offset must not be negative")
	}
	category := strings.ToLower(strings.TrimSpace(in.Category))
	if category != "" && category != audit.CategoryAdmin && category != audit.CategorySecurity {
		return invalid("unknown category %q", in.Category)
	}
	if in.Since != nil && in.Until != nil && in.Since.After(*in.Until) {
		return invalid("since is after until")
	}

	return audit.QueryFilter{
		TargetUID: strings.ToLower(strings.TrimSpace(in.TargetUID)),
		ActorUID:  strings.ToLower(strings.TrimSpace(in.ActorUID)),
		Category:  category,
		EventType: strings.TrimSpace(in.EventType),
		StartTime: in.Since,
		EndTime:   in.Until,
		Limit:     int64(limit),
		Offset:    int64(in.Offset),
	}, nil
}
