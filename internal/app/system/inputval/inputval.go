// Package inputval validates mutation inputs before anything is written.
//
// Failures wrap domain ErrValidation so the transport can report them as
// VALIDATION_FAILED without inspecting messages.
package inputval

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/dalemusser/usersvc/internal/app/system/htmlsanitize"
	"github.com/dalemusser/usersvc/internal/app/system/phone"
	domainerrors "github.com/dalemusser/usersvc/internal/domain/errors"
	"github.com/dalemusser/usersvc/internal/domain/models"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// MaxUIDLength bounds identifiers accepted from clients.
const MaxUIDLength = 128

var uidPattern = regexp.MustCompile(`^[^\s()*\\<>]+$`)

var uidRules = []validation.Rule{
	validation.Required,
	validation.Length(1, MaxUIDLength),
	validation.Match(uidPattern).Error("must not contain whitespace or filter characters"),
}

// RoleChange is the input of a role update.
type RoleChange struct {
	UID  string
	Role string
}

// Validate checks the uid shape and that Role is a known role.
func (r RoleChange) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UID, uidRules...),
		validation.Field(&r.Role, validation.Required, validation.In(roleValues()...).Error("must be one of public, club, cc, slc, slo")),
	)
}

// UserData is the input of phone and profile-data updates.
type UserData struct {
	UID   string
	Img   *string
	Phone *string
}

// Validate checks the uid, that Img (when set) is a plain http(s) URL and
// that Phone (when set and non-blank) is a valid number.
func (d UserData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.UID, uidRules...),
		validation.Field(&d.Img, validation.By(noMarkup), is.URL, validation.By(httpScheme)),
		validation.Field(&d.Phone, validation.By(validPhone)),
	)
}

// CheckUID validates a single identifier, for operations that take nothing else.
func CheckUID(uid string) error {
	return Wrap(validation.Validate(uid, uidRules...))
}

// Check runs v.Validate and wraps any failure in ErrValidation.
func Check(v validation.Validatable) error {
	return Wrap(v.Validate())
}

// Wrap marks err as a validation failure. Nil stays nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domainerrors.ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %v", domainerrors.ErrValidation, err)
}

// NormalizeRole lowercases and trims a role the way stored roles are kept.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

func roleValues() []interface{} {
	roles := models.AllRoles()
	out := make([]interface{}, len(roles))
	for i, r := range roles {
		out[i] = r
	}
	return out
}

func str(value interface{}) (string, bool) {
	v, isNil := validation.Indirect(value)
	if isNil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func noMarkup(value interface{}) error {
	s, ok := str(value)
	if ok && htmlsanitize.HasMarkup(s) {
		return errors.New("must not contain markup")
	}
	return nil
}

func httpScheme(value interface{}) error {
	s, ok := str(value)
	if !ok {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an http or https URL")
	}
	return nil
}

func validPhone(value interface{}) error {
	s, ok := str(value)
	if !ok {
		return nil
	}
	if _, err := phone.Normalize(s); err != nil {
		return errors.New("must be a valid phone number")
	}
	return nil
}
