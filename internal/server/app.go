// Package server initializes and runs the reconciliation service: it wires
// the store, the device gateway and the workers, applies migrations and
// handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dkarlovs/voucherd/internal/billing"
	"github.com/dkarlovs/voucherd/internal/config"
	"github.com/dkarlovs/voucherd/internal/device"
	"github.com/dkarlovs/voucherd/internal/engine"
	"github.com/dkarlovs/voucherd/internal/logging"
	"github.com/dkarlovs/voucherd/internal/repositories/profiles"
	"github.com/dkarlovs/voucherd/internal/repositories/repomanager"
	"github.com/dkarlovs/voucherd/internal/storex"
	"github.com/dkarlovs/voucherd/internal/throttle"
	"github.com/dkarlovs/voucherd/internal/vouchersvc"
)

// stopTimeout bounds how long shutdown waits for in-flight worker cycles.
const stopTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	registry *prometheus.Registry
	manager  repomanager.RepositoryManager
	pool     *storex.Pool
	engine   *engine.Engine
	vouchers *vouchersvc.Service
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	registry := prometheus.NewRegistry()
	storeMetrics := storex.NewMetrics(registry)

	pool := storex.NewPool(storex.PgxDialer(cfg.DatabaseDSN), cfg.PoolMaxConns, logger, storeMetrics)
	executor := storex.NewExecutor(pool, cfg.QueryRetries, logger, storeMetrics)

	manager := repomanager.NewPostgresRepositoryManager()
	vouchersRepo := manager.Vouchers(executor)
	usersRepo := manager.Users(executor)
	pricingRepo := manager.Pricing(executor)
	transactionsRepo := manager.Transactions(executor)
	profileCache := profiles.NewCache(manager.Profiles(executor), cfg.ProfileCacheTTL)

	gateway := device.NewRouterOS(cfg.DeviceAddr, cfg.DeviceUser, cfg.DevicePassword, logger)

	recorder := billing.NewRecorder(usersRepo, vouchersRepo, transactionsRepo, pricingRepo, logger)
	usageThrottle := throttle.New(cfg.ThrottleMinDeltaBytes, cfg.ThrottleMaxAge)
	voucherService := vouchersvc.NewService(vouchersRepo, profileCache, gateway, logger)

	eng := engine.New(logger, engine.NewMetrics(registry))
	eng.Register(engine.NewSyncTask(gateway, usersRepo, vouchersRepo, logger), cfg.SyncInterval)
	eng.Register(engine.NewActiveMonitorTask(gateway, usersRepo, vouchersRepo, recorder, usageThrottle, logger), cfg.ActiveInterval)
	eng.Register(engine.NewExpiryCheckTask(gateway, usersRepo, vouchersRepo, usageThrottle, logger), cfg.ExpiryInterval)

	return &App{
		config:   cfg,
		logger:   logger,
		registry: registry,
		manager:  manager,
		pool:     pool,
		engine:   eng,
		vouchers: voucherService,
	}, nil
}

// VoucherService exposes issuance and review to the embedding API layer.
func (app *App) VoucherService() *vouchersvc.Service {
	return app.vouchers
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) runMigrations(ctx context.Context) error {
	db, err := sql.Open("pgx", app.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close()

	if err := app.manager.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) *http.Server {
	if app.config.MetricsAddr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: app.config.MetricsAddr, Handler: mux}

	go func() {
		app.logger.Info(ctx, "metrics listener started", "addr", app.config.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "metrics listener failed", "error", err)
			cancelFunc()
		}
	}()

	return srv
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting reconciliation service")
	app.initSignalHandler(cancelFunc)

	if err := app.runMigrations(ctx); err != nil {
		return err
	}

	metricsSrv := app.startMetricsServer(ctx, cancelFunc)

	app.engine.Start(ctx)

	<-ctx.Done()
	app.logger.Info(context.Background(), "shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()

	if err := app.engine.Stop(stopCtx); err != nil {
		app.logger.Error(stopCtx, "engine did not stop cleanly", "error", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(stopCtx); err != nil {
			app.logger.Error(stopCtx, "metrics listener shutdown failed", "error", err)
		}
	}
	app.pool.Close(stopCtx)

	app.logger.Info(context.Background(), "stopped")
	return nil
}
