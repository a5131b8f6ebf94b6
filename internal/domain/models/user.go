// internal/domain/models/user.go
package models

// User is the locally stored metadata for a directory user.
//
// Only these four fields are persisted. Everything else about a person
// (name, email, batch, ...) lives in the directory and is exposed through
// Profile.
type User struct {
	UID   string  `bson:"uid" json:"uid"` // lowercase, unique
	Role  string  `bson:"role" json:"role"`
	Img   *string `bson:"img" json:"img"`
	Phone *string `bson:"phone" json:"phone"` // normalized international format
}

// User roles
const (
	RolePublic = "public"
	RoleClub   = "club"
	RoleCC     = "cc"
	RoleSLC    = "slc"
	RoleSLO    = "slo"
)

// DefaultRole is assigned to records created by find-or-create.
const DefaultRole = RolePublic

// AllRoles returns all valid user roles.
func AllRoles() []string {
	return []string{
		RolePublic,
		RoleClub,
		RoleCC,
		RoleSLC,
		RoleSLO,
	}
}

// IsValidRole reports whether role is one of AllRoles.
func IsValidRole(role string) bool {
	for _, r := range AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// NewUser returns a fresh record with the default role and no optional fields.
func NewUser(uid string) User {
	return User{UID: uid, Role: DefaultRole}
}
