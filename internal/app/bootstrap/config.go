// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/usersvc/internal/app/system/auditlog"
	"github.com/dalemusser/usersvc/internal/app/system/directory"
	"github.com/dalemusser/usersvc/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvPrefix is the environment prefix for app keys (USERSVC_MONGO_URI, ...).
const EnvPrefix = "USERSVC"

// appConfigKeys defines the configuration keys for usersvc.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, ldap_url, etc.
//   - Environment variables: USERSVC_MONGO_URI, USERSVC_LDAP_URL, etc.
//   - Command-line flags: --mongo_uri, --ldap_url, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "users", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// LDAP directory
	{Name: "ldap_url", Default: "ldap://ldap.iiit.ac.in", Desc: "LDAP server URL (ldap:// or ldaps://)"},
	{Name: "ldap_base_dn", Default: "ou=Users,dc=iiit,dc=ac,dc=in", Desc: "Search base for user entries"},
	{Name: "ldap_bind_dn", Default: "", Desc: "Bind DN (blank for anonymous bind)"},
	{Name: "ldap_bind_password", Default: "", Desc: "Bind password"},
	{Name: "ldap_page_size", Default: directory.DefaultPageSize, Desc: "Entries per page for paged searches"},
	{Name: "ldap_dial_timeout", Default: "5s", Desc: "LDAP dial timeout (e.g., 5s)"},

	// Inter-service access
	{Name: "inter_communication_secret", Default: "", Desc: "Shared secret for role updates and bulk reads by sibling services"},

	{Name: "graphiql", Default: false, Desc: "Serve the GraphQL playground at GET /graphql"},

	// Audit logging settings
	{Name: "audit_log_admin", Default: "all", Desc: "User change event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_retention", Default: "2160h", Desc: "How long audit events are kept (0 keeps them forever)"},
	{Name: "audit_log_security", Default: "all", Desc: "Denied operation logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Timeouts
	{Name: "timeout_short", Default: timeouts.DefaultShort.String(), Desc: "Timeout for single-document database operations"},
	{Name: "timeout_directory", Default: timeouts.DefaultDirectory.String(), Desc: "Timeout for directory searches"},

	// Request throttling on /graphql, keyed by caller uid or client IP
	{Name: "rate_limit", Default: 120, Desc: "GraphQL requests per caller per window (0 disables)"},
	{Name: "rate_limit_window", Default: "1m", Desc: "Rate limit window (e.g., 1m)"},

	{Name: "report_dir", Default: ".", Desc: "Output directory for generated reports"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, USERSVC_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		LDAPURL:          appValues.String("ldap_url"),
		LDAPBaseDN:       appValues.String("ldap_base_dn"),
		LDAPBindDN:       appValues.String("ldap_bind_dn"),
		LDAPBindPassword: appValues.String("ldap_bind_password"),
		LDAPPageSize:     uint32(appValues.Int("ldap_page_size")),
		LDAPDialTimeout:  appValues.Duration("ldap_dial_timeout", 5*time.Second),

		InterCommunicationSecret: appValues.String("inter_communication_secret"),
		GraphiQL:                 appValues.Bool("graphiql"),

		AuditLogAdmin:    appValues.String("audit_log_admin"),
		AuditLogSecurity: appValues.String("audit_log_security"),
		AuditRetention:   appValues.Duration("audit_retention", 90*24*time.Hour),

		TimeoutShort:     appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutDirectory: appValues.Duration("timeout_directory", timeouts.DefaultDirectory),

		RateLimit:       appValues.Int("rate_limit"),
		RateLimitWindow: appValues.Duration("rate_limit_window", time.Minute),

		ReportDir: appValues.String("report_dir"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// usersvc checks the MongoDB URI and LDAP URL formats and the audit modes
// to catch configuration errors before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		return fmt.Errorf("mongo_database must not be empty")
	}

	if err := validateLDAPURL(appCfg.LDAPURL); err != nil {
		logger.Error("invalid LDAP URL", zap.Error(err))
		return fmt.Errorf("invalid LDAP URL: %w", err)
	}
	if strings.TrimSpace(appCfg.LDAPBaseDN) == "" {
		return fmt.Errorf("ldap_base_dn must not be empty")
	}

	for name, v := range map[string]string{
		"audit_log_admin":    appCfg.AuditLogAdmin,
		"audit_log_security": appCfg.AuditLogSecurity,
	} {
		if !auditlog.ValidMode(v) {
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", name, v)
		}
	}

	if appCfg.AuditRetention < 0 {
		return fmt.Errorf("audit_retention must not be negative")
	}
	if appCfg.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	if appCfg.RateLimit > 0 && appCfg.RateLimitWindow <= 0 {
		return fmt.Errorf("rate_limit_window must be positive when rate_limit is set")
	}

	if appCfg.InterCommunicationSecret == "" {
		logger.Warn("inter_communication_secret is not set; role updates need no secret and non-cc bulk reads are refused")
	}
	return nil
}

func validateLDAPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "ldap" && u.Scheme != "ldaps" {
		return fmt.Errorf("scheme must be ldap or ldaps, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
