// Package profiles turns directory entries into user profiles.
package profiles

import (
	"regexp"
	"strings"

	"github.com/dalemusser/usersvc/internal/app/system/directory"
	"github.com/dalemusser/usersvc/internal/domain/models"
	"github.com/go-ldap/ldap/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var batchYearPattern = regexp.MustCompile(`(?i)2k(\d+)`)

// ToProfile decodes e. It never fails: attributes that are missing leave
// the matching optional fields nil.
func ToProfile(e directory.Entry) models.Profile {
	p := models.Profile{}
	if uid, ok := e.FirstAttribute("uid"); ok {
		p.UID = strings.ToLower(uid)
	}
	p.FirstName, p.LastName = names(e)

	p.Email = optional(e, "mail")
	p.Gender = optional(e, "gender")
	p.RollNo = optional(e, "uidNumber")
	if p.RollNo == nil {
		p.RollNo = optional(e, "sambaSID")
	}

	ous := OUs(e.DN)
	if len(ous) > 0 {
		stream := ous[0]
		p.Stream = &stream
	}
	if len(ous) > 1 {
		batch := stripDual(ous[1])
		p.Batch = &batch
		p.BatchYear = BatchYear(batch)
	}
	return p
}

// ToProfiles decodes every entry in order.
func ToProfiles(entries []directory.Entry) []models.Profile {
	out := make([]models.Profile, 0, len(entries))
	for _, e := range entries {
		out = append(out, ToProfile(e))
	}
	return out
}

// names prefers cn, then givenName+sn, then a "first.last" uid.
func names(e directory.Entry) (string, string) {
	if cn, ok := e.FirstAttribute("cn"); ok {
		if parts := strings.Fields(cn); len(parts) > 0 {
			return parts[0], strings.Join(parts[1:], " ")
		}
	}
	given, gok := e.FirstAttribute("givenName")
	sn, sok := e.FirstAttribute("sn")
	if gok && sok {
		return given, sn
	}
	uid, _ := e.FirstAttribute("uid")
	first, last, _ := strings.Cut(uid, ".")
	caser := cases.Title(language.Und)
	return caser.String(first), caser.String(last)
}

func optional(e directory.Entry, name string) *string {
	v, ok := e.FirstAttribute(name)
	if !ok {
		return nil
	}
	return &v
}

// OUs returns the organizational-unit values of dn, leaf first. A DN that
// does not parse has no OUs.
func OUs(dn string) []string {
	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return nil
	}
	var out []string
	for _, rdn := range parsed.RDNs {
		for _, a := range rdn.Attributes {
			if strings.EqualFold(a.Type, "ou") {
				out = append(out, a.Value)
			}
		}
	}
	return out
}

func stripDual(batch string) string {
	if len(batch) >= 4 && strings.EqualFold(batch[len(batch)-4:], "dual") {
		return batch[:len(batch)-4]
	}
	return batch
}

// BatchYear extracts the digits after "2k" in a cohort code: "ug2k19" -> "19".
func BatchYear(batch string) *string {
	m := batchYearPattern.FindStringSubmatch(batch)
	if m == nil {
		return nil
	}
	return &m[1]
}
