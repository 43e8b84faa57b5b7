// Package server initializes and runs the PackVault server: storage,
// migrations, outbound dispatch, event publishing and the HTTP endpoint,
// with graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmolchanov/packvault/internal/logging"
	"github.com/dmolchanov/packvault/internal/server/config"
	"github.com/dmolchanov/packvault/internal/server/dispatch"
	"github.com/dmolchanov/packvault/internal/server/events"
	"github.com/dmolchanov/packvault/internal/server/httpapi"
	"github.com/dmolchanov/packvault/internal/server/oracle"
	"github.com/dmolchanov/packvault/internal/server/registry"
	"github.com/dmolchanov/packvault/internal/server/repositories/repomanager"
	"github.com/dmolchanov/packvault/internal/server/services"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	worker    *dispatch.Worker
	publisher events.Publisher
	handler   *httpapi.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	reg := registry.NewHTTPClient(cfg.RegistryBaseURL, cfg.ServiceAccount)
	orc := oracle.NewHTTPClient(cfg.OracleBaseURL)
	worker := dispatch.NewWorker(reg, orc, logger)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RedisAddr != "" {
		publisher = events.NewRedisPublisher(cfg.RedisAddr, cfg.RedisNamespace)
	}

	unboxing := services.NewUnboxingService(db, rm, cfg, reg, worker, publisher)
	catalog := services.NewCatalogService(db, rm, cfg, reg, publisher)
	pool := services.NewPoolService(db, rm, cfg, reg, publisher)
	staging := services.NewStagingService(db, rm, cfg, reg, worker)
	admin := services.NewAdminService(db, rm, cfg)
	audit := services.NewAuditService(db, rm, cfg)

	handler := httpapi.NewHandler(unboxing, catalog, pool, staging, admin, audit, []byte(cfg.SecretKey))

	return &App{
		config:    cfg,
		logger:    logger,
		db:        db,
		worker:    worker,
		publisher: publisher,
		handler:   handler,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.worker.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.handler.Mux(), app.logger)
		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.publisher.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
