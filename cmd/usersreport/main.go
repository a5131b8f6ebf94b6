// Command usersreport writes members_without_images.csv: the email of every
// current member of an active club who has no profile image.
//
// It reads the same configuration as usersvc (USERSVC_* environment,
// config files, flags) and writes into report_dir.
package main

import (
	"context"
	"log"
	"time"

	"github.com/dalemusser/usersvc/internal/app/bootstrap"
	"github.com/dalemusser/usersvc/internal/app/features/reports"
	clubstore "github.com/dalemusser/usersvc/internal/app/store/clubs"
	userstore "github.com/dalemusser/usersvc/internal/app/store/users"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), logger); err != nil {
		logger.Fatal("report failed", zap.Error(err))
	}
}

func run(ctx context.Context, logger *zap.Logger) error {
	coreCfg, appCfg, err := bootstrap.LoadConfig(logger)
	if err != nil {
		return err
	}
	if err := bootstrap.ValidateConfig(coreCfg, appCfg, logger); err != nil {
		return err
	}
	if err := bootstrap.Startup(ctx, coreCfg, appCfg, bootstrap.DBDeps{}, logger); err != nil {
		return err
	}

	deps, err := bootstrap.ConnectDB(ctx, coreCfg, appCfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = bootstrap.Shutdown(shutdownCtx, coreCfg, appCfg, deps, logger)
	}()

	gen := &reports.Generator{
		Clubs: clubstore.New(deps.MongoDatabase),
		Users: userstore.New(deps.MongoDatabase),
		Dir:   deps.Directory,
		Log:   logger,
	}
	path, err := reports.WriteFile(ctx, gen, appCfg.ReportDir, time.Now().Year())
	if err != nil {
		return err
	}
	logger.Info("report written", zap.String("path", path))
	return nil
}
