package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/autorovers/autorovers/internal/config"
	"github.com/autorovers/autorovers/internal/db"
	dbFile "github.com/autorovers/autorovers/internal/db/file"
	dbMemory "github.com/autorovers/autorovers/internal/db/memory"
	dbRedis "github.com/autorovers/autorovers/internal/db/redis"
	"github.com/autorovers/autorovers/internal/domain/classify"
	"github.com/autorovers/autorovers/internal/domain/comparison"
	logpkg "github.com/autorovers/autorovers/internal/logger"
	"github.com/autorovers/autorovers/internal/metrics"
	"github.com/autorovers/autorovers/internal/repository/detailcache"
	selectionrepo "github.com/autorovers/autorovers/internal/repository/selection"
	vehicletyperepo "github.com/autorovers/autorovers/internal/repository/vehicletype"
	"github.com/autorovers/autorovers/internal/transport/catalog"
	chiTransport "github.com/autorovers/autorovers/internal/transport/chi"
	natsTransport "github.com/autorovers/autorovers/internal/transport/nats"
	compareuc "github.com/autorovers/autorovers/internal/usecase/compare"
	healthuc "github.com/autorovers/autorovers/internal/usecase/health"
	selectionuc "github.com/autorovers/autorovers/internal/usecase/selection"
	vehicletypeuc "github.com/autorovers/autorovers/internal/usecase/vehicletype"
	"github.com/autorovers/autorovers/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting autorovers API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("catalog", cfg.Catalog.BaseURL),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	ctx := context.Background()
	store := openStore(ctx, cfg.Database, logger)
	defer store.Close()
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterCompareMetrics()

	policy, err := comparison.ParsePolicy(cfg.Compare.Validation, cfg.Compare.Fuel)
	if err != nil {
		logger.Fatal("Invalid comparison policy", zap.Error(err))
	}
	cls := classify.Default()

	catalogClient := catalog.New(catalog.Config{
		BaseURL:    cfg.Catalog.BaseURL,
		Token:      cfg.Catalog.Token,
		Timeout:    time.Duration(cfg.Catalog.TimeoutSec) * time.Second,
		RatePerSec: cfg.Catalog.RatePerSec,
		Burst:      cfg.Catalog.Burst,
		Logger:     logpkg.Component(logger, "catalog"),
	})

	// Catalog reads go through the detail cache when enabled
	var fetcher compareuc.Fetcher = catalogClient
	if cfg.Catalog.CacheSec > 0 {
		fetcher = detailcache.New(catalogClient, store, cfg.Storage.KeyPrefix,
			time.Duration(cfg.Catalog.CacheSec)*time.Second, metrics.CatalogCacheTotal, logpkg.Component(logger, "detail_cache"))
	}

	// Repositories
	selRepo := selectionrepo.New(store, cfg.Storage.KeyPrefix, cls)
	typeRepo := vehicletyperepo.New(store, cfg.Storage.KeyPrefix)

	// Use case services
	selSvc := selectionuc.New(selRepo, cls, logpkg.Component(logger, "selection")).
		WithMetrics(metrics.SelectionMutationsTotal)
	typeSvc := vehicletypeuc.New(typeRepo, selSvc, logpkg.Component(logger, "vehicle_type"))
	cmpSvc := compareuc.New(selSvc, fetcher, cls, policy, logpkg.Component(logger, "compare")).
		WithFetchTimeout(time.Duration(cfg.Compare.FetchTimeoutSec) * time.Second)
	healthSvc := healthuc.New(store, catalogClient)

	// Optional event fan-out
	if cfg.Events.NATSURL != "" {
		pub, err := natsTransport.Connect(cfg.Events.NATSURL, cfg.Events.SubjectPrefix, logpkg.Component(logger, "nats"))
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer func() {
			if err := pub.Close(); err != nil {
				logger.Warn("NATS drain failed", zap.Error(err))
			}
		}()
		selSvc.WithPublisher(pub)
		cmpSvc.WithPublisher(pub)
		logger.Info("Publishing events to NATS", zap.String("prefix", cfg.Events.SubjectPrefix))
	}

	// Create chi server
	server := chiTransport.NewServer(selSvc, typeSvc, cmpSvc, healthSvc, catalogClient, cls, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter:  r,
		Middlewares: []chiTransport.MiddlewareFunc{chiTransport.SessionMiddleware(cfg.HTTP.SecureCookie)},
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
				Code:    chiTransport.ErrorResponseCodeBadRequest,
				Message: "invalid request: " + err.Error(),
			})
		},
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, "autorovers"),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openStore creates the configured store and waits until it answers.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) db.Store {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverValkey, config.DriverRedis:
		var rs *dbRedis.Store
		rs, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err == nil && cfg.EnableKeyspaceEvents {
			if kerr := rs.EnableKeyspaceEvents(ctx); kerr != nil {
				logger.Warn("Could not enable keyspace notifications; cross-process watch disabled", zap.Error(kerr))
			}
		}
		store = rs
	case config.DriverFile:
		store, err = dbFile.NewStore(cfg.FileDir)
	case config.DriverMemory:
		store = dbMemory.New()
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	return store
}
