// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig is where usersvc keeps its backends (MongoDB and the LDAP
// directory), the inter-service secret, and audit and timeout settings.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// LDAP directory configuration
	LDAPURL          string // ldap://host:389 or ldaps://host:636
	LDAPBaseDN       string // search base for user entries
	LDAPBindDN       string // blank for an anonymous bind
	LDAPBindPassword string
	LDAPPageSize     uint32 // entries per paged-search page
	LDAPDialTimeout  time.Duration

	// InterCommunicationSecret is shared with sibling services. Required for
	// role updates and for non-cc bulk reads; blank disables the check on
	// role updates and denies non-cc bulk reads.
	InterCommunicationSecret string

	// GraphiQL enables the playground at GET /graphql.
	GraphiQL bool

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogAdmin    string
	AuditLogSecurity string
	AuditRetention   time.Duration // 0 keeps events forever

	// Operation timeouts (zero keeps the built-in default)
	TimeoutShort     time.Duration
	TimeoutDirectory time.Duration

	// GraphQL requests allowed per caller per RateLimitWindow; 0 disables.
	RateLimit       int
	RateLimitWindow time.Duration

	// ReportDir is where cmd/usersreport writes its CSV files.
	ReportDir string
}
