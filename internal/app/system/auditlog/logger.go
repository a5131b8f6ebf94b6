// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/usersvc/internal/app/store/audit"
	"github.com/dalemusser/usersvc/internal/app/system/auth"
	"github.com/dalemusser/usersvc/internal/app/system/requestid"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Admin controls logging for user record changes (role, phone, profile data, creation).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
	// Security controls logging for denied operations.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Security string
}

// ValidMode reports whether v is an accepted Config value.
func ValidMode(v string) bool {
	switch v {
	case "all", "db", "log", "off":
		return true
	}
	return false
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

type clientKey struct{}

type client struct {
	ip        string
	userAgent string
}

// Middleware records the client address and user agent so events logged
// further down the call chain can carry them without the *http.Request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), clientKey{}, client{
			ip:        getClientIP(r),
			userAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// First hop of X-Forwarded-For is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.ActorUID != "" {
		fields = append(fields, zap.String("actor_uid", event.ActorUID), zap.String("actor_role", event.ActorRole))
	}
	if event.TargetUID != "" {
		fields = append(fields, zap.String("target_uid", event.TargetUID))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAdmin:
		setting = l.config.Admin
	case audit.CategorySecurity:
		setting = l.config.Security
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if event.RequestID == "" {
		event.RequestID = requestid.From(ctx)
	}
	if c, ok := ctx.Value(clientKey{}).(client); ok {
		if event.IP == "" {
			event.IP = c.ip
		}
		if event.UserAgent == "" {
			event.UserAgent = c.userAgent
		}
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func actor(caller *auth.Caller) (uid, role string) {
	if caller == nil {
		return "", ""
	}
	return caller.UID, caller.Role
}

// --- Admin Events ---

// UserCreated logs the lazy creation of a user record on first access.
func (l *Logger) UserCreated(ctx context.Context, uid, role string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserCreated,
		TargetUID: uid,
		Success:   true,
		Details:   map[string]string{"role": role},
	})
}

// RoleUpdated logs a role assignment.
func (l *Logger) RoleUpdated(ctx context.Context, caller *auth.Caller, targetUID, oldRole, newRole string) {
	uid, role := actor(caller)
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventRoleUpdated,
		ActorUID:  uid,
		ActorRole: role,
		TargetUID: targetUID,
		Success:   true,
		Details: map[string]string{
			"old_role": oldRole,
			"new_role": newRole,
		},
	})
}

// PhoneUpdated logs a phone change. The number itself is not recorded.
func (l *Logger) PhoneUpdated(ctx context.Context, caller *auth.Caller, targetUID string, cleared bool) {
	uid, role := actor(caller)
	action := "set"
	if cleared {
		action = "cleared"
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventPhoneUpdated,
		ActorUID:  uid,
		ActorRole: role,
		TargetUID: targetUID,
		Success:   true,
		Details:   map[string]string{"phone": action},
	})
}

// ProfileDataUpdated logs an image/phone replacement.
func (l *Logger) ProfileDataUpdated(ctx context.Context, caller *auth.Caller, targetUID string, hasImg, hasPhone bool) {
	uid, role := actor(caller)
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventProfileDataUpdated,
		ActorUID:  uid,
		ActorRole: role,
		TargetUID: targetUID,
		Success:   true,
		Details: map[string]string{
			"img":   presence(hasImg),
			"phone": presence(hasPhone),
		},
	})
}

// --- Security Events ---

// AccessDenied logs an operation refused by policy.
func (l *Logger) AccessDenied(ctx context.Context, caller *auth.Caller, action, targetUID string, reason error) {
	uid, role := actor(caller)
	failure := ""
	if reason != nil {
		failure = reason.Error()
	}
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySecurity,
		EventType:     audit.EventAccessDenied,
		ActorUID:      uid,
		ActorRole:     role,
		TargetUID:     targetUID,
		Success:       false,
		FailureReason: failure,
		Details:       map[string]string{"action": action},
	})
}

func presence(b bool) string {
	if b {
		return "set"
	}
	return "cleared"
}
