package directory

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Query kinds, used as metric labels.
const (
	KindUID   = "uid"
	KindBatch = "batch"
	KindList  = "list"
)

// Query is a search filter plus what it was built from. Fake matches on
// UIDs and OUs instead of evaluating the filter.
type Query struct {
	Kind   string
	Filter string
	UIDs   []string
	OUs    []string
}

// ByUID matches one user.
func ByUID(uid string) Query {
	return Query{
		Kind:   KindUID,
		Filter: "(uid=" + ldap.EscapeFilter(uid) + ")",
		UIDs:   []string{uid},
	}
}

// ByUIDs matches any of uids in a single OR filter.
func ByUIDs(uids []string) Query {
	var b strings.Builder
	b.WriteString("(|")
	for _, u := range uids {
		b.WriteString("(uid=")
		b.WriteString(ldap.EscapeFilter(u))
		b.WriteString(")")
	}
	b.WriteString(")")
	return Query{Kind: KindList, Filter: b.String(), UIDs: append([]string(nil), uids...)}
}

// batchOUFormats name the program OUs of a cohort. Dual-degree students
// sit under the undergraduate code with a "dual" suffix; lateral-entry
// students join in the second year so their code carries the next year.
var batchOUFormats = []struct {
	format string
	offset int
}{
	{"ug2k%02d", 0},
	{"ug2k%02ddual", 0},
	{"pg2k%02d", 0},
	{"int2k%02d", 0},
	{"pgd2k%02d", 0},
	{"phd2k%02d", 0},
	{"le2k%02d", 1},
}

// BatchOUs returns the organizational units holding the cohort that joined
// in year (two digits, 2000-based).
func BatchOUs(year int) []string {
	ous := make([]string, 0, len(batchOUFormats))
	for _, f := range batchOUFormats {
		ous = append(ous, fmt.Sprintf(f.format, year+f.offset))
	}
	return ous
}

// ByBatch matches every user whose DN contains one of the cohort OUs.
func ByBatch(year int) Query {
	ous := BatchOUs(year)
	var b strings.Builder
	b.WriteString("(|")
	for _, ou := range ous {
		b.WriteString("(ou:dn:=")
		b.WriteString(ldap.EscapeFilter(ou))
		b.WriteString(")")
	}
	b.WriteString(")")
	return Query{Kind: KindBatch, Filter: b.String(), OUs: ous}
}
