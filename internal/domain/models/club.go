// internal/domain/models/club.go
package models

// Club and Member are owned by the clubs service; this service only reads
// them when building reports, so only the fields it needs are mapped.
type Club struct {
	CID   string `bson:"cid"`
	State string `bson:"state"` // active | deleted
}

// MemberRole is one tenure of a club member.
type MemberRole struct {
	Name      string `bson:"name"`
	StartYear int    `bson:"start_year"`
	EndYear   *int   `bson:"end_year"` // nil while the role is ongoing
}

type Member struct {
	CID   string       `bson:"cid"`
	UID   string       `bson:"uid"`
	Roles []MemberRole `bson:"roles"`
}

// IsCurrent reports whether any of the member's roles is ongoing or ends
// in year or later.
func (m Member) IsCurrent(year int) bool {
	for _, r := range m.Roles {
		if r.EndYear == nil || *r.EndYear >= year {
			return true
		}
	}
	return false
}
