// internal/domain/models/profile.go
package models

// Profile is a directory user's canonical attributes. It is rebuilt from
// the directory on every lookup and never stored.
type Profile struct {
	UID       string
	FirstName string
	LastName  string
	Email     *string
	Gender    *string
	Batch     *string // cohort code, e.g. "ug2k19" (dual suffix removed)
	BatchYear *string // two-digit year from Batch, e.g. "19"
	Stream    *string
	RollNo    *string
}
