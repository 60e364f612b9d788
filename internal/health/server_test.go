package health

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type switchPinger struct {
	down atomic.Bool
}

func (p *switchPinger) Ping(context.Context) error {
	if p.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func startServer(t *testing.T, pinger Pinger) (*Server, healthpb.HealthClient) {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := NewServer(pinger, zaptest.NewLogger(t), Config{Interval: time.Hour, Timeout: time.Second})
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	return srv, healthpb.NewHealthClient(conn)
}

func servingStatus(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("Check(%q): %v", service, err)
	}
	return resp.GetStatus()
}

func TestServer_NotServingUntilChecked(t *testing.T) {
	_, client := startServer(t, &switchPinger{})

	if got := servingStatus(t, client, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("initial status = %v, want NOT_SERVING", got)
	}
}

func TestServer_TracksStorage(t *testing.T) {
	pinger := &switchPinger{}
	srv, client := startServer(t, pinger)

	if got := srv.Check(context.Background()); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("Check = %v, want SERVING", got)
	}
	for _, svc := range []string{"", ServiceName} {
		if got := servingStatus(t, client, svc); got != healthpb.HealthCheckResponse_SERVING {
			t.Errorf("status(%q) = %v, want SERVING", svc, got)
		}
	}

	pinger.down.Store(true)
	srv.Check(context.Background())
	if got := servingStatus(t, client, ServiceName); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status after outage = %v, want NOT_SERVING", got)
	}
}

func TestServer_WatchStopsWithContext(t *testing.T) {
	srv, client := startServer(t, &switchPinger{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Watch(ctx)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for servingStatus(t, client, "") != healthpb.HealthCheckResponse_SERVING {
		if time.Now().After(deadline) {
			t.Fatal("Watch never published SERVING")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
