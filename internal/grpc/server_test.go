package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func dialBufconn(t *testing.T, logger *zap.Logger) (*Server, healthpb.HealthClient) {
	t.Helper()
	listener := bufconn.Listen(1 << 20)
	server := NewServer(logger)
	go func() {
		_ = server.GRPC.Serve(listener)
	}()
	t.Cleanup(server.GRPC.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return server, healthpb.NewHealthClient(conn)
}

func TestHealthServing(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	_, client := dialBufconn(t, zap.New(core))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, service := range []string{"", ServiceName} {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			t.Fatalf("check %q: %v", service, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("expected SERVING for %q, got %s", service, resp.GetStatus())
		}
	}
	if logs.FilterMessage("grpc request").Len() != 2 {
		t.Fatalf("expected two logged requests, got %d", logs.FilterMessage("grpc request").Len())
	}
}

func TestShutdownMarksNotServing(t *testing.T) {
	server, client := dialBufconn(t, zap.NewNop())
	server.health.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %s", resp.GetStatus())
	}
}
