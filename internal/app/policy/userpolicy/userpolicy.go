// Package userpolicy decides who may read and change user records.
//
// Authorization rules:
//   - Role update: cc only, plus the shared secret when one is configured
//   - Phone update: cc, club, or the user themself
//   - Profile-data update (image and phone): cc or the user themself
//   - Metadata read: anyone; the phone is visible only to cc, slo, slc,
//     club, or the user themself
//   - List by role: cc, or anyone presenting the shared secret
//   - Audit trail read: cc only
//
// Denials wrap ErrNotAuthenticated, ErrForbidden or ErrBadSecret from the
// domain errors package and are counted in the policy denial metric.
package userpolicy

import (
	"crypto/subtle"
	"fmt"

	"github.com/dalemusser/usersvc/internal/app/system/auth"
	"github.com/dalemusser/usersvc/internal/app/system/metrics"
	domainerrors "github.com/dalemusser/usersvc/internal/domain/errors"
	"github.com/dalemusser/usersvc/internal/domain/models"
)

// Actions, used in metrics and audit events.
const (
	ActionUpdateRole        = "update_role"
	ActionUpdatePhone       = "update_phone"
	ActionUpdateProfileData = "update_profile_data"
	ActionListByRole        = "list_by_role"
	ActionReadAudit         = "read_audit"
)

// phoneReaders may see anyone's phone number.
var phoneReaders = []string{models.RoleCC, models.RoleSLO, models.RoleSLC, models.RoleClub}

// CanUpdateRole checks a role assignment. secret is what the caller sent;
// configured is the service's shared secret ("" when none is set, in which
// case no secret is required).
func CanUpdateRole(caller *auth.Caller, secret *string, configured string) error {
	if caller == nil {
		return deny(ActionUpdateRole, "unauthenticated", domainerrors.ErrNotAuthenticated)
	}
	if !caller.HasRole(models.RoleCC) {
		return deny(ActionUpdateRole, "forbidden",
			fmt.Errorf("%w: only cc can assign roles", domainerrors.ErrForbidden))
	}
	if configured != "" && !SecretMatches(secret, configured) {
		return deny(ActionUpdateRole, "bad_secret", domainerrors.ErrBadSecret)
	}
	return nil
}

// CanUpdatePhone checks a phone change on target.
func CanUpdatePhone(caller *auth.Caller, target string) error {
	if caller == nil {
		return deny(ActionUpdatePhone, "unauthenticated", domainerrors.ErrNotAuthenticated)
	}
	if caller.HasRole(models.RoleCC, models.RoleClub) || caller.Is(target) {
		return nil
	}
	return deny(ActionUpdatePhone, "forbidden", domainerrors.ErrForbidden)
}

// CanUpdateProfileData checks an image and phone change on target.
func CanUpdateProfileData(caller *auth.Caller, target string) error {
	if caller == nil {
		return deny(ActionUpdateProfileData, "unauthenticated", domainerrors.ErrNotAuthenticated)
	}
	if caller.HasRole(models.RoleCC) || caller.Is(target) {
		return nil
	}
	return deny(ActionUpdateProfileData, "forbidden", domainerrors.ErrForbidden)
}

// CanSeePhone reports whether caller may see target's phone number.
// A nil caller never can.
func CanSeePhone(caller *auth.Caller, target string) bool {
	return caller.HasRole(phoneReaders...) || caller.Is(target)
}

// CanListByRole checks a bulk read. A cc caller needs no secret; anyone
// else, including an anonymous service, must present the configured secret.
func CanListByRole(caller *auth.Caller, secret *string, configured string) error {
	if caller.HasRole(models.RoleCC) {
		return nil
	}
	if SecretMatches(secret, configured) {
		return nil
	}
	return deny(ActionListByRole, "bad_secret", domainerrors.ErrBadSecret)
}

// CanReadAudit checks a read of the audit trail.
func CanReadAudit(caller *auth.Caller) error {
	if caller == nil {
		return deny(ActionReadAudit, "unauthenticated", domainerrors.ErrNotAuthenticated)
	}
	if !caller.HasRole(models.RoleCC) {
		return deny(ActionReadAudit, "forbidden",
			fmt.Errorf("%w: only cc can read the audit trail", domainerrors.ErrForbidden))
	}
	return nil
}

// SecretMatches compares in constant time. An unset configured secret
// never matches.
func SecretMatches(supplied *string, configured string) bool {
	if supplied == nil || configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*supplied), []byte(configured)) == 1
}

func deny(action, reason string, err error) error {
	metrics.PolicyDenials.WithLabelValues(action, reason).Inc()
	return err
}
