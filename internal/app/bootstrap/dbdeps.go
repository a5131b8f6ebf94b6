// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/usersvc/internal/app/system/directory"
	"github.com/dalemusser/usersvc/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Directory is the shared LDAP client. It dials lazily and reconnects
	// on transient failures.
	Directory *directory.Client

	// AuditRetention prunes old audit events; nil when retention is off.
	AuditRetention *workers.AuditRetention
}
