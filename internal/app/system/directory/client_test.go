package directory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domainerrors "github.com/dalemusser/usersvc/internal/domain/errors"
	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedConn returns the queued errors in order, then succeeds.
type scriptedConn struct {
	mu      sync.Mutex
	errs    []error
	entries []*ldap.Entry
	last    *ldap.SearchRequest
	paging  uint32
}

func (s *scriptedConn) SearchWithPaging(req *ldap.SearchRequest, pagingSize uint32) (*ldap.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = req
	s.paging = pagingSize
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return &ldap.SearchResult{Entries: s.entries}, nil
}

func networkErr() error {
	return ldap.NewError(ldap.ErrorNetwork, errors.New("connection reset"))
}

func newTestClient(conns ...*scriptedConn) (*Client, *int32) {
	c := New(Config{URL: "ldap://test", BaseDN: "ou=Users,dc=example,dc=org"}, zap.NewNop())
	var dials int32
	c.dial = func(context.Context) (searchConn, func(), error) {
		n := atomic.AddInt32(&dials, 1)
		if int(n) > len(conns) {
			return nil, nil, errors.New("no more connections")
		}
		return conns[n-1], func() {}, nil
	}
	return c, &dials
}

func ldapEntry(dn, uid string) *ldap.Entry {
	return ldap.NewEntry(dn, map[string][]string{"uid": {uid}, "cn": {"Ada Lovelace"}})
}

func TestClient_Search_DialsLazily(t *testing.T) {
	conn := &scriptedConn{entries: []*ldap.Entry{ldapEntry("uid=ada,ou=ug2k19,ou=cse,ou=Users,dc=example,dc=org", "ada")}}
	c, dials := newTestClient(conn)

	got, err := c.Search(context.Background(), ByUID("ada"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(dials))

	uid, ok := got[0].FirstAttribute("UID")
	assert.True(t, ok)
	assert.Equal(t, "ada", uid)
	assert.Equal(t, "(uid=ada)", conn.last.Filter)
	assert.Equal(t, "ou=Users,dc=example,dc=org", conn.last.BaseDN)
	assert.Equal(t, uint32(DefaultPageSize), conn.paging)
}

func TestClient_Search_RetriesOnceAfterTransientFailure(t *testing.T) {
	broken := &scriptedConn{errs: []error{networkErr()}}
	healthy := &scriptedConn{entries: []*ldap.Entry{ldapEntry("uid=ada,ou=Users,dc=example,dc=org", "ada")}}
	c, dials := newTestClient(broken, healthy)

	got, err := c.Search(context.Background(), ByUID("ada"))
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(dials))
}

func TestClient_Search_SecondFailureIsUpstreamUnavailable(t *testing.T) {
	first := &scriptedConn{errs: []error{networkErr()}}
	second := &scriptedConn{errs: []error{networkErr()}}
	c, dials := newTestClient(first, second)

	_, err := c.Search(context.Background(), ByUID("ada"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrUpstreamUnavailable))
	assert.Equal(t, int32(2), atomic.LoadInt32(dials))
}

func TestClient_Search_DialFailureIsUpstreamUnavailable(t *testing.T) {
	c, _ := newTestClient()

	_, err := c.Search(context.Background(), ByUID("ada"))
	assert.True(t, errors.Is(err, domainerrors.ErrUpstreamUnavailable))
}

func TestClient_Search_NonTransientErrorNotRetried(t *testing.T) {
	conn := &scriptedConn{errs: []error{ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("no such object"))}}
	c, dials := newTestClient(conn)

	_, err := c.Search(context.Background(), ByUID("ada"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, domainerrors.ErrUpstreamUnavailable))
	assert.Equal(t, int32(1), atomic.LoadInt32(dials))
}

func TestClient_Reconnect_CoalescesConcurrentCallers(t *testing.T) {
	conns := make([]*scriptedConn, 0, 16)
	for i := 0; i < 16; i++ {
		conns = append(conns, &scriptedConn{})
	}
	c, dials := newTestClient(conns...)
	_, err := c.Search(context.Background(), ByUID("warmup"))
	require.NoError(t, err)

	c.mu.RLock()
	seen := c.gen
	c.mu.RUnlock()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.reconnect(context.Background(), seen, true)
		}()
	}
	wg.Wait()

	// one dial for warmup plus one shared reconnect
	assert.Equal(t, int32(2), atomic.LoadInt32(dials))
}

func TestClient_Search_DeadlineBecomesTimeLimit(t *testing.T) {
	conn := &scriptedConn{}
	c, _ := newTestClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := c.Search(ctx, ByUID("ada"))
	require.NoError(t, err)
	assert.InDelta(t, 2, conn.last.TimeLimit, 1)
}

func TestClient_Ping(t *testing.T) {
	conn := &scriptedConn{}
	c, _ := newTestClient(conn)

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, ldap.ScopeBaseObject, conn.last.Scope)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(networkErr()))
	assert.True(t, isTransient(ldap.NewError(ldap.LDAPResultBusy, errors.New("busy"))))
	assert.True(t, isTransient(ldap.NewError(ldap.LDAPResultUnavailable, errors.New("down"))))
	assert.True(t, isTransient(errDial))
	assert.False(t, isTransient(nil))
	assert.False(t, isTransient(errors.New("boom")))
	assert.False(t, isTransient(ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("bad creds"))))
}
