// Package phone normalizes user-supplied phone numbers.
package phone

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers written without a country code.
const DefaultRegion = "IN"

// Normalize parses v and returns it in international format, for example
// "+91 98765 43210". An empty or blank v means "no phone" and returns nil.
// Numbers without a country code are read as DefaultRegion numbers.
func Normalize(v string) (*string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	num, err := phonenumbers.Parse(v, DefaultRegion)
	if err != nil {
		return nil, fmt.Errorf("invalid phone number: %w", err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return nil, fmt.Errorf("invalid phone number")
	}
	out := phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
	return &out, nil
}

// NormalizePtr is Normalize for optional inputs; nil stays nil.
func NormalizePtr(v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	return Normalize(*v)
}
