package directory

import (
	"context"
	"strings"
	"sync"

	"github.com/go-ldap/ldap/v3"
)

// Fake is an in-memory Searcher for tests. It matches uid queries on the
// entries' uid attribute and batch queries on the OUs in their DNs.
type Fake struct {
	mu      sync.Mutex
	entries []Entry
	calls   []Query

	// Err, when set, is returned by every call.
	Err error
}

var _ Searcher = (*Fake)(nil)

// NewFake returns a Fake serving entries.
func NewFake(entries ...Entry) *Fake {
	return &Fake{entries: entries}
}

// Add appends entries.
func (f *Fake) Add(entries ...Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entries...)
}

// Calls returns every query seen so far.
func (f *Fake) Calls() []Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Query(nil), f.calls...)
}

// Search implements Searcher.
func (f *Fake) Search(_ context.Context, q Query) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, q)
	if f.Err != nil {
		return nil, f.Err
	}

	var out []Entry
	for _, e := range f.entries {
		if matches(e, q) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Ping implements Searcher.
func (f *Fake) Ping(context.Context) error {
	return f.Err
}

func matches(e Entry, q Query) bool {
	if len(q.UIDs) > 0 {
		uid, _ := e.FirstAttribute("uid")
		for _, u := range q.UIDs {
			if strings.EqualFold(u, uid) {
				return true
			}
		}
		return false
	}
	if len(q.OUs) > 0 {
		dn, err := ldap.ParseDN(e.DN)
		if err != nil {
			return false
		}
		for _, rdn := range dn.RDNs {
			for _, a := range rdn.Attributes {
				if !strings.EqualFold(a.Type, "ou") {
					continue
				}
				for _, ou := range q.OUs {
					if strings.EqualFold(a.Value, ou) {
						return true
					}
				}
			}
		}
	}
	return false
}
