package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Caller identity                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// HeaderUser is the request header the upstream gateway fills with the
// authenticated caller as JSON: {"uid": "...", "role": "..."}.
const HeaderUser = "user"

// Caller is the identity attached to a request by the gateway. It is
// trusted as-is; nothing here verifies credentials.
type Caller struct {
	UID  string `json:"uid"`
	Role string `json:"role"`
}

// HasRole reports whether the caller's role is one of roles.
// A nil caller has no role.
func (c *Caller) HasRole(roles ...string) bool {
	if c == nil {
		return false
	}
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// Is reports whether the caller is the user identified by uid.
// Identifiers compare case-insensitively.
func (c *Caller) Is(uid string) bool {
	if c == nil || c.UID == "" || uid == "" {
		return false
	}
	return strings.EqualFold(c.UID, uid)
}

// ParseHeader decodes the gateway header value. Empty, "{}", malformed
// JSON, or a payload without a uid all mean "no caller".
func ParseHeader(v string) (*Caller, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, false
	}
	var c Caller
	if err := json.Unmarshal([]byte(v), &c); err != nil {
		return nil, false
	}
	c.UID = strings.ToLower(strings.TrimSpace(c.UID))
	c.Role = strings.ToLower(strings.TrimSpace(c.Role))
	if c.UID == "" {
		return nil, false
	}
	return &c, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| Context helpers                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentCallerKey ctxKey = "currentCaller"

// WithCaller returns a context carrying c.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, currentCallerKey, c)
}

// CurrentCaller returns the caller & "found?" flag.
func CurrentCaller(ctx context.Context) (*Caller, bool) {
	c, ok := ctx.Value(currentCallerKey).(*Caller)
	return c, ok && c != nil
}

// CurrentUser is the request-level shorthand for CurrentCaller.
func CurrentUser(r *http.Request) (*Caller, bool) {
	return CurrentCaller(r.Context())
}

// WithTestCaller attaches c to r. Tests use it to skip the header round trip.
func WithTestCaller(r *http.Request, c *Caller) *http.Request {
	return r.WithContext(WithCaller(r.Context(), c))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadCaller parses the gateway header once per request and stores the
// caller in the context. Requests without a usable header pass through
// unauthenticated; every decision about what they may do is made later by
// the policy layer.
func LoadCaller(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(HeaderUser)
			if c, ok := ParseHeader(raw); ok {
				r = WithTestCaller(r, c)
			} else if raw != "" && strings.TrimSpace(raw) != "{}" {
				logger.Debug("ignoring unusable caller header", zap.Int("length", len(raw)))
			}
			next.ServeHTTP(w, r)
		})
	}
}
