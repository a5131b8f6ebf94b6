// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	errorsfeature "github.com/dalemusser/usersvc/internal/app/features/errors"
	graphfeature "github.com/dalemusser/usersvc/internal/app/features/graph"
	healthfeature "github.com/dalemusser/usersvc/internal/app/features/health"
	reportsfeature "github.com/dalemusser/usersvc/internal/app/features/reports"
	userinfofeature "github.com/dalemusser/usersvc/internal/app/features/userinfo"
	usersfeature "github.com/dalemusser/usersvc/internal/app/features/users"
	"github.com/dalemusser/usersvc/internal/app/store/audit"
	clubstore "github.com/dalemusser/usersvc/internal/app/store/clubs"
	userstore "github.com/dalemusser/usersvc/internal/app/store/users"
	"github.com/dalemusser/usersvc/internal/app/system/auditlog"
	"github.com/dalemusser/usersvc/internal/app/system/auth"
	"github.com/dalemusser/usersvc/internal/app/system/directory"
	"github.com/dalemusser/usersvc/internal/app/system/metrics"
	"github.com/dalemusser/usersvc/internal/app/system/ratelimit"
	"github.com/dalemusser/usersvc/internal/app/system/requestid"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// usersvc serves:
//   - POST /graphql  the user API (GET /graphql is the playground when enabled)
//   - GET  /api/user the caller identity attached by the gateway
//   - GET  /reports/members-without-images.csv (cc only)
//   - GET  /health   MongoDB and directory status
//   - GET  /metrics  Prometheus metrics
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	var dir directory.Searcher
	if deps.Directory != nil {
		dir = deps.Directory
	}
	return newRouter(appCfg, deps.MongoDatabase, dir, logger)
}

func newRouter(appCfg AppConfig, db *mongo.Database, dir directory.Searcher, logger *zap.Logger) (http.Handler, error) {
	auditStore := audit.New(db)
	auditLogger := auditlog.New(auditStore, logger.Named("audit"), auditlog.Config{
		Admin:    appCfg.AuditLogAdmin,
		Security: appCfg.AuditLogSecurity,
	})

	users := userstore.New(db)
	svc := usersfeature.NewService(users, dir, auditLogger, auditStore, appCfg.InterCommunicationSecret, logger)
	graphHandler, err := graphfeature.NewHandler(svc, appCfg.GraphiQL, logger)
	if err != nil {
		logger.Error("graphql schema init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()

	// Request ID first so every later log line and audit event can carry it.
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(auditlog.Middleware)

	// Caller identity from the gateway header, available via auth.CurrentUser(r).
	r.Use(auth.LoadCaller(logger))

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	var pinger healthfeature.Pinger
	if dir != nil {
		pinger = dir
	}
	healthHandler := healthfeature.NewHandler(db.Client(), pinger, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", promhttp.Handler())

	userinfofeature.MountRoutes(r, userinfofeature.NewHandler())

	var limiter *ratelimit.Limiter
	if appCfg.RateLimit > 0 {
		limiter = ratelimit.New(appCfg.RateLimit, appCfg.RateLimitWindow)
	}
	tooMany := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errorsfeature.Render(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
	})
	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(limiter, tooMany))
		graphfeature.MountRoutes(r, graphHandler)
	})

	reportsHandler := reportsfeature.NewHandler(&reportsfeature.Generator{
		Clubs: clubstore.New(db),
		Users: users,
		Dir:   dir,
		Log:   logger,
	}, logger)
	r.Mount("/reports", reportsfeature.Routes(reportsHandler))

	return r, nil
}
