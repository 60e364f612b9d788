// Package health serves the standard gRPC health protocol, reporting
// SERVING only while the todo store answers pings.
package health

import (
	"context"
	"net"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is the name probes use to ask about the todo API specifically.
const ServiceName = "todo.v1.TodoService"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Interval         time.Duration
	Timeout          time.Duration
	EnableReflection bool
}

type Server struct {
	grpc     *grpc.Server
	health   *grpchealth.Server
	pinger   Pinger
	logger   *zap.Logger
	interval time.Duration
	timeout  time.Duration
}

func NewServer(pinger Pinger, logger *zap.Logger, cfg Config, opts ...grpc.ServerOption) *Server {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}

	opts = append([]grpc.ServerOption{
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 15 * time.Minute,
			Time:              5 * time.Minute,
			Timeout:           1 * time.Minute,
		}),
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(recoveryInterceptor(logger)),
	}, opts...)

	s := &Server{
		grpc:     grpc.NewServer(opts...),
		health:   grpchealth.NewServer(),
		pinger:   pinger,
		logger:   logger,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	if cfg.EnableReflection {
		reflection.Register(s.grpc)
	}

	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Serve blocks until the listener fails or the server stops.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Check pings storage once and publishes the result.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		s.logger.Warn("storage ping failed", zap.Error(err))
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.setStatus(st)
	return st
}

// Watch re-checks storage every interval until ctx is done.
func (s *Server) Watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := s.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if st := s.Check(ctx); st != last {
				s.logger.Info("health status changed", zap.String("status", st.String()))
				last = st
			}
		}
	}
}

// Shutdown flips every service to NOT_SERVING and drains connections,
// forcing a stop if ctx expires first.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("health server shutdown timeout exceeded, forcing stop")
		s.grpc.Stop()
	}
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func recoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())),
				)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()

		return handler(ctx, req)
	}
}
