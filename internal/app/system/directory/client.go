// Package directory talks to the LDAP server that owns user profiles.
//
// The service only reads from the directory. A Client holds one shared,
// reconnectable connection; a search that fails with a transient error
// triggers a single reconnect and one retry before the failure is surfaced
// as ErrUpstreamUnavailable.
package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/dalemusser/usersvc/internal/app/system/metrics"
	domainerrors "github.com/dalemusser/usersvc/internal/domain/errors"
	"github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultPageSize is used when Config.PageSize is zero.
const DefaultPageSize = 500

// ProfileAttributes are the attributes requested for every user search.
var ProfileAttributes = []string{
	"uid", "cn", "givenName", "sn", "mail", "gender", "uidNumber", "sambaSID",
}

// Searcher is what the rest of the service needs from the directory.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Entry, error)
	Ping(ctx context.Context) error
}

// Config holds connection settings.
type Config struct {
	URL          string // ldap://host:389 or ldaps://host:636
	BaseDN       string // e.g. ou=Users,dc=iiit,dc=ac,dc=in
	BindDN       string // empty for an anonymous bind
	BindPassword string
	PageSize     uint32
	DialTimeout  time.Duration
}

// searchConn is the subset of *ldap.Conn the client uses.
type searchConn interface {
	SearchWithPaging(req *ldap.SearchRequest, pagingSize uint32) (*ldap.SearchResult, error)
}

type dialFunc func(ctx context.Context) (searchConn, func(), error)

var errDial = errors.New("directory dial failed")

// Client is safe for concurrent use.
type Client struct {
	cfg  Config
	log  *zap.Logger
	dial dialFunc

	mu      sync.RWMutex
	conn    searchConn
	closeFn func()
	gen     uint64

	sf singleflight.Group
}

// New returns a client. It does not dial; the first search (or Reconnect)
// opens the connection.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{cfg: cfg, log: logger}
	c.dial = c.dialLDAP
	return c
}

func (c *Client) dialLDAP(ctx context.Context) (searchConn, func(), error) {
	d := &net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := ldap.DialURL(c.cfg.URL, ldap.DialWithDialer(d))
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { conn.Close() }
	if c.cfg.BindDN != "" {
		if err := conn.Bind(c.cfg.BindDN, c.cfg.BindPassword); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("bind as %s: %w", c.cfg.BindDN, err)
		}
	}
	return conn, closeFn, nil
}

// Reconnect drops the current connection and dials a new one.
func (c *Client) Reconnect(ctx context.Context) error {
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()
	return c.reconnect(ctx, gen, true)
}

// reconnect replaces the connection seen at generation seen. Concurrent
// callers share one dial; a caller whose generation is already stale finds
// the fresh connection and returns without dialing.
func (c *Client) reconnect(ctx context.Context, seen uint64, force bool) error {
	_, err, _ := c.sf.Do("reconnect", func() (interface{}, error) {
		c.mu.RLock()
		fresh := c.conn != nil && (c.gen != seen || !force)
		c.mu.RUnlock()
		if fresh {
			return nil, nil
		}

		conn, closeFn, err := c.dial(ctx)
		if err != nil {
			metrics.DirectoryReconnects.WithLabelValues("error").Inc()
			c.log.Warn("directory dial failed", zap.String("url", c.cfg.URL), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", errDial, err)
		}

		c.mu.Lock()
		old := c.closeFn
		c.conn, c.closeFn = conn, closeFn
		c.gen++
		c.mu.Unlock()

		if old != nil {
			old()
		}
		metrics.DirectoryReconnects.WithLabelValues("ok").Inc()
		c.log.Info("directory connected", zap.String("url", c.cfg.URL))
		return nil, nil
	})
	return err
}

func (c *Client) current(ctx context.Context) (searchConn, uint64, error) {
	c.mu.RLock()
	conn, gen := c.conn, c.gen
	c.mu.RUnlock()
	if conn != nil {
		return conn, gen, nil
	}
	if err := c.reconnect(ctx, gen, false); err != nil {
		return nil, gen, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil {
		return nil, c.gen, errDial
	}
	return c.conn, c.gen, nil
}

// Search runs q below the base DN and returns every matching entry.
func (c *Client) Search(ctx context.Context, q Query) ([]Entry, error) {
	return c.run(ctx, q, ldap.ScopeWholeSubtree, ProfileAttributes)
}

// Ping checks that the base DN is readable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.run(ctx, Query{Kind: "ping", Filter: "(objectClass=*)"}, ldap.ScopeBaseObject, []string{"dn"})
	return err
}

func (c *Client) run(ctx context.Context, q Query, scope int, attrs []string) ([]Entry, error) {
	start := time.Now()

	entries, gen, err := c.searchOnce(ctx, q, scope, attrs)
	result := "ok"
	if err != nil && isTransient(err) && ctx.Err() == nil {
		c.log.Warn("directory search failed, reconnecting",
			zap.String("kind", q.Kind), zap.Error(err))
		result = "retried"
		if rerr := c.reconnect(ctx, gen, true); rerr != nil {
			err = rerr
		} else {
			entries, _, err = c.searchOnce(ctx, q, scope, attrs)
		}
	}

	if err != nil {
		metrics.ObserveDirectorySearch(q.Kind, "error", time.Since(start))
		if isTransient(err) || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domainerrors.ErrUpstreamUnavailable, err)
		}
		return nil, fmt.Errorf("directory search: %w", err)
	}
	if len(entries) == 0 && result == "ok" {
		result = "empty"
	}
	metrics.ObserveDirectorySearch(q.Kind, result, time.Since(start))
	return entries, nil
}

func (c *Client) searchOnce(ctx context.Context, q Query, scope int, attrs []string) ([]Entry, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	conn, gen, err := c.current(ctx)
	if err != nil {
		return nil, gen, err
	}

	timeLimit := 0
	if dl, ok := ctx.Deadline(); ok {
		timeLimit = int(time.Until(dl).Seconds())
		if timeLimit < 1 {
			timeLimit = 1
		}
	}
	req := ldap.NewSearchRequest(
		c.cfg.BaseDN,
		scope, ldap.NeverDerefAliases, 0, timeLimit, false,
		q.Filter,
		attrs,
		nil,
	)

	res, err := conn.SearchWithPaging(req, c.cfg.PageSize)
	if err != nil {
		return nil, gen, err
	}
	out := make([]Entry, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, fromLDAP(e))
	}
	return out, gen, nil
}

// Close releases the connection.
func (c *Client) Close() {
	c.mu.Lock()
	closeFn := c.closeFn
	c.conn, c.closeFn = nil, nil
	c.mu.Unlock()
	if closeFn != nil {
		closeFn()
	}
}

// isTransient reports failures that a fresh connection may fix: network
// errors, a closed connection, or a server that is busy or unavailable.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errDial) || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	if ldap.IsErrorWithCode(err, ldap.ErrorNetwork) ||
		ldap.IsErrorWithCode(err, ldap.LDAPResultUnavailable) ||
		ldap.IsErrorWithCode(err, ldap.LDAPResultBusy) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
