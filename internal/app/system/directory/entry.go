package directory

import (
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Entry is one directory result: a distinguished name plus its attributes.
// Attribute names are stored lowercased so lookups ignore case the way LDAP
// does.
type Entry struct {
	DN    string
	attrs map[string][]string
}

// NewEntry builds an Entry from a name -> values map.
func NewEntry(dn string, attrs map[string][]string) Entry {
	e := Entry{DN: dn, attrs: make(map[string][]string, len(attrs))}
	for k, v := range attrs {
		e.attrs[strings.ToLower(k)] = append([]string(nil), v...)
	}
	return e
}

func fromLDAP(le *ldap.Entry) Entry {
	e := Entry{DN: le.DN, attrs: make(map[string][]string, len(le.Attributes))}
	for _, a := range le.Attributes {
		e.attrs[strings.ToLower(a.Name)] = a.Values
	}
	return e
}

// FirstAttribute returns the first value of name. Missing or empty-valued
// attributes report false.
func (e Entry) FirstAttribute(name string) (string, bool) {
	vals := e.attrs[strings.ToLower(name)]
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}
