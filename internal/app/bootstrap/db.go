// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/usersvc/internal/app/store/audit"
	"github.com/dalemusser/usersvc/internal/app/system/directory"
	"github.com/dalemusser/usersvc/internal/app/system/indexes"
	"github.com/dalemusser/usersvc/internal/app/system/timeouts"
	"github.com/dalemusser/usersvc/internal/app/system/validators"
	"github.com/dalemusser/usersvc/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and prepares the directory client.
//
// MongoDB must be reachable: startup fails otherwise. The directory is only
// pinged; an unreachable LDAP server is logged and retried on first use so
// metadata reads keep working while it is down.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	dir := directory.New(directory.Config{
		URL:          appCfg.LDAPURL,
		BaseDN:       appCfg.LDAPBaseDN,
		BindDN:       appCfg.LDAPBindDN,
		BindPassword: appCfg.LDAPBindPassword,
		PageSize:     appCfg.LDAPPageSize,
		DialTimeout:  appCfg.LDAPDialTimeout,
	}, logger.Named("directory"))

	dirCtx, dirCancel := context.WithTimeout(ctx, timeouts.Directory())
	defer dirCancel()
	if err := dir.Ping(dirCtx); err != nil {
		logger.Warn("directory not reachable at startup; will retry on first search",
			zap.String("url", appCfg.LDAPURL), zap.Error(err))
	} else {
		logger.Info("connected to directory", zap.String("url", appCfg.LDAPURL))
	}

	db := client.Database(appCfg.MongoDatabase)
	var retention *workers.AuditRetention
	if appCfg.AuditRetention > 0 {
		retention = workers.NewAuditRetention(audit.New(db), logger.Named("audit_retention"), time.Hour, appCfg.AuditRetention)
	}

	return DBDeps{
		MongoClient:    client,
		MongoDatabase:  db,
		Directory:      dir,
		AuditRetention: retention,
	}, nil
}

// EnsureSchema applies collection validators and indexes. Both steps are
// idempotent and run on every start.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	return nil
}
