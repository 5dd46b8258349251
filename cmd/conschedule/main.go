package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/example/conschedule/internal/application"
	"github.com/example/conschedule/internal/config"
	httptransport "github.com/example/conschedule/internal/http"
	"github.com/example/conschedule/internal/logging"
	"github.com/example/conschedule/internal/persistence/sqlstore"
	"github.com/example/conschedule/internal/persistence/sqlstore/migration"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "info", "json").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("schedule service stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	storage, err := sqlstore.Open(migration.DefaultDatabaseConfig(migration.Driver(cfg.DBDriver), cfg.DBDSN), logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           newRouter(storage, cfg, logger, time.Now),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("schedule API listening", "addr", server.Addr, "db_driver", cfg.DBDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newRouter wires the stores into the services and the services into the HTTP
// handlers.
func newRouter(storage *sqlstore.Storage, cfg config.Config, logger *slog.Logger, now func() time.Time) *gin.Engine {
	idGenerator := uuid.NewString

	catalog := newEventCatalogAdapter(storage.Events, storage.DesiredEvents)
	desired := newSignupStoreAdapter(storage.DesiredEvents)
	tracked := newSignupStoreAdapter(storage.TrackedEvents)
	personal := newPersonalEventRepositoryAdapter(storage.PersonalEvents)
	users := newUserDirectoryAdapter(storage.Users)

	conflictService := application.NewConflictServiceWithLogger(application.NewCommitmentSources(application.SourceDeps{
		PersonalEvents: personal,
		DesiredEvents:  desired,
		TrackedEvents:  tracked,
		Purchases:      newPurchaseLedgerAdapter(storage.Purchases),
		Users:          users,
		Logger:         logger,
	}), logger)

	desiredService := application.NewDesiredEventServiceWithLogger(desired, catalog, conflictService, idGenerator, now, logger)
	trackingService := application.NewTrackingServiceWithLogger(tracked, catalog, conflictService, idGenerator, now, logger)
	personalService := application.NewPersonalEventServiceWithLogger(personal, users, conflictService, idGenerator, now, logger)
	capacityService := application.NewCapacityServiceWithLogger(catalog, logger)

	return httptransport.NewRouter(httptransport.RouterConfig{
		DesiredEvents:  httptransport.NewDesiredEventHandler(desiredService, logger),
		TrackedEvents:  httptransport.NewTrackedEventHandler(trackingService, logger),
		PersonalEvents: httptransport.NewPersonalEventHandler(personalService, logger),
		Schedule:       httptransport.NewScheduleHandler(conflictService, logger),
		Capacity:       httptransport.NewCapacityHandler(capacityService, logger),
		Health:         httptransport.NewHealthHandler(storage, logger),
		Auth:           httptransport.RequireBearer(httptransport.NewJWTVerifier(cfg.JWTSecret), logger),
		Middleware:     []gin.HandlerFunc{httptransport.RequestLogger(logger)},
	})
}
