package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"stand-catalog-service/internal/api"
	"stand-catalog-service/internal/config"
	"stand-catalog-service/internal/importer"
	"stand-catalog-service/internal/logger"
	"stand-catalog-service/internal/store"
)

const serviceName = "stand-catalog-service"

func main() {
	// A missing .env is normal outside local development.
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: loading configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: building logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("service", serviceName))

	if envErr != nil {
		log.Debug(".env file not loaded, relying on process environment", zap.Error(envErr))
	}
	log.Info("configuration loaded", zap.String("app_env", cfg.AppEnv), zap.String("log_level", cfg.LogLevel))

	if err := run(cfg, log); err != nil {
		log.Fatal("service stopped with error", zap.Error(err))
	}
	log.Info("service shutdown sequence finished")
}

func run(cfg *config.Config, log *zap.Logger) error {
	// --- Database Connection ---
	db, err := openDB(cfg.Postgres)
	if err != nil {
		return err
	}
	dbStore := store.NewPostgresStore(db)
	defer func() {
		if err := dbStore.Close(); err != nil {
			log.Warn("closing database failed", zap.Error(err))
		}
	}()
	log.Info("database connection established",
		zap.String("host", cfg.Postgres.Host),
		zap.String("dbname", cfg.Postgres.DBName),
	)

	if cfg.Postgres.MigrateOnStart {
		if err := store.Migrate(db); err != nil {
			return err
		}
		log.Info("database migrations applied")
	}

	// --- Importer & API Handlers ---
	normalizer := importer.New(dbStore, log.Named("importer"),
		importer.WithMetrics(importer.NewMetrics(prometheus.DefaultRegisterer)),
	)
	httpAPIHandler := api.NewHTTPHandler(dbStore, dbStore, normalizer, log.Named("http"), cfg.Import.MaxUploadBytes())
	grpcAPIHandler := api.NewGRPCHandler(dbStore, dbStore, normalizer, log.Named("grpc"))

	// --- HTTP Server ---
	httpRouter := chi.NewRouter()
	httpRouter.Use(middleware.RequestID)
	httpRouter.Use(middleware.RealIP)
	httpRouter.Use(api.RequestLogger(log.Named("http")))
	httpRouter.Use(api.Recoverer(log.Named("http")))
	httpRouter.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.HttpServer.RequestTimeout))
		r.Get("/api/v1/healthz", api.HealthHandler(serviceName, dbStore, log))
		r.Handle("/metrics", promhttp.Handler())
	})
	httpAPIHandler.RegisterRoutes(httpRouter, cfg.HttpServer.RequestTimeout)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	// --- gRPC Server ---
	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(cfg.GrpcServer.MaxRecvMsgSize),
		grpc.ChainUnaryInterceptor(api.UnaryLoggingInterceptor(log.Named("grpc"))),
	)
	api.RegisterCatalogServiceServer(grpcServer, grpcAPIHandler)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(api.CatalogServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		return fmt.Errorf("listening for gRPC on port %s: %w", cfg.GrpcServer.Port, err)
	}

	serveErr := make(chan error, 2)
	go func() {
		log.Info("HTTP server listening", zap.String("port", cfg.HttpServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("HTTP server: %w", err)
		}
	}()
	go func() {
		log.Info("gRPC server listening", zap.String("port", cfg.GrpcServer.Port))
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr <- fmt.Errorf("gRPC server: %w", err)
		}
	}()

	// --- Graceful Shutdown ---
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		log.Info("received signal, starting graceful shutdown", zap.String("signal", sig.String()))
	case runErr = <-serveErr:
		log.Error("server failed, shutting down", zap.Error(runErr))
	}

	healthServer.Shutdown()
	shutdown(log, httpServer, grpcServer)
	return runErr
}

func openDB(pc config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", pc.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(pc.MaxOpenConns)
	db.SetMaxIdleConns(pc.MaxIdleConns)
	db.SetConnMaxLifetime(pc.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

func shutdown(log *zap.Logger, httpServer *http.Server, grpcServer *grpc.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		log.Info("HTTP server gracefully shut down")
	}

	select {
	case <-stoppedGrpc:
		log.Info("gRPC server gracefully shut down")
	case <-shutdownCtx.Done():
		log.Warn("gRPC graceful shutdown timed out, forcing stop", zap.Error(shutdownCtx.Err()))
		grpcServer.Stop()
	}
}
