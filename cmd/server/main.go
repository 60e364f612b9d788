package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmehra2102/todo-api/internal/api"
	"github.com/dmehra2102/todo-api/internal/app"
	"github.com/dmehra2102/todo-api/internal/domain"
	"github.com/dmehra2102/todo-api/internal/health"
	"github.com/dmehra2102/todo-api/internal/infrastructure/config"
	"github.com/dmehra2102/todo-api/internal/infrastructure/memory"
	infrapostgres "github.com/dmehra2102/todo-api/internal/infrastructure/postgres"
	"github.com/dmehra2102/todo-api/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

const serviceName = "todo-api"

// serviceVersion is overridden at build time with -ldflags "-X main.serviceVersion=...".
var serviceVersion = "1.0.0"

func main() {
	// Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	obs := cfg.GetObservabilityConfig()

	// Initialize logger
	logger, err := initLogger(obs, cfg.IsProduction())
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting todo service",
		zap.String("version", serviceVersion),
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.StorageDriver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	if obs.EnableTracing {
		shutdown, err := initTracer(ctx, obs.OTLPEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer shutdown(context.Background())
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize storage
	repo, closeStore, err := initStorage(ctx, cfg, registry)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer closeStore()

	todoService := app.NewTodoService(repo, logger)

	serverCfg := cfg.GetServerConfig()
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	routerCfg := api.RouterConfig{
		Version:        serviceVersion,
		Environment:    cfg.Environment,
		AllowedOrigins: serverCfg.AllowedOrigins,
		RateLimitRPS:   serverCfg.RateLimitRPS,
		RateLimitBurst: serverCfg.RateLimitBurst,
		RequestTimeout: serverCfg.RequestTimeout,
	}
	if obs.EnableMetrics {
		routerCfg.Metrics = middleware.NewMetrics(obs.PrometheusNamespace, registry)
	}
	router := api.NewRouter(api.NewTodoHandler(todoService), logger, routerCfg)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", serverCfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 3)

	go func() {
		logger.Info("HTTP server starting", zap.Int("port", serverCfg.Port), zap.Bool("tls", serverCfg.TLSEnabled))
		var err error
		if serverCfg.TLSEnabled {
			err = httpServer.ListenAndServeTLS(serverCfg.TLSCertFile, serverCfg.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var metricsServer *http.Server
	if obs.EnableMetrics {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", serverCfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("Metrics server starting", zap.Int("port", serverCfg.MetricsPort))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	var healthServer *health.Server
	if obs.EnableHealthCheck {
		healthServer, err = initHealthServer(ctx, cfg, todoService, logger, errCh)
		if err != nil {
			logger.Fatal("Failed to start health server", zap.Error(err))
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
	case err := <-errCh:
		logger.Error("Server failed, shutting down", zap.Error(err))
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()

	if healthServer != nil {
		healthServer.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Shutdown timeout exceeded, forcing stop", zap.Error(err))
		_ = httpServer.Close()
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	logger.Info("Server stopped gracefully")
}

func initLogger(obs config.ObservabilityConfig, production bool) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(obs.LogLevel)
	if err != nil {
		return nil, err
	}

	var zcfg zap.Config
	if production {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.Level = level
	zcfg.Encoding = obs.LogFormat
	if obs.LogFormat == "json" {
		zcfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	}

	return zcfg.Build(zap.Fields(zap.String("service", serviceName)))
}

func initTracer(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		)),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// initStorage returns the configured repository and a func that releases it.
func initStorage(ctx context.Context, cfg *config.Config, registry prometheus.Registerer) (domain.Repository, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		return memory.NewMemoryRepository(), func() {}, nil
	}

	dbCfg := cfg.GetDatabaseConfig()
	db, err := infrapostgres.Open(ctx, dbCfg)
	if err != nil {
		return nil, nil, err
	}

	// Run migrations
	if err := infrapostgres.Migrate(dbCfg.URL, cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, nil, err
	}

	registry.MustRegister(collectors.NewDBStatsCollector(db, "todos"))

	return infrapostgres.NewPostgresRepository(db, dbCfg.Timeout), func() { db.Close() }, nil
}

func initHealthServer(ctx context.Context, cfg *config.Config, pinger health.Pinger, logger *zap.Logger, errCh chan<- error) (*health.Server, error) {
	var opts []grpc.ServerOption

	// TLS configuration for production
	if cfg.TLSEnabled {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS credentials: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	}

	srv := health.NewServer(pinger, logger, health.Config{
		Interval:         10 * time.Second,
		Timeout:          cfg.DatabaseTimeout,
		EnableReflection: !cfg.IsProduction(),
	}, opts...)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HealthPort))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	go func() {
		logger.Info("Health server starting", zap.Int("port", cfg.HealthPort))
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("health server: %w", err)
		}
	}()
	go srv.Watch(ctx)

	return srv, nil
}
