package transport

import (
	"context"
	"net"
	"time"

	"github.com/flutterfocus/timedops/internal/hook"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCServer implements the Server interface for gRPC transport. It exposes
// the standard grpc.health.v1 service, with the serving status tracking the
// hook relay service.
type GRPCServer struct {
	server  *grpc.Server
	health  *health.Server
	service *hook.Service
	address string
	logger  *zap.Logger
	stop    chan struct{}
}

// NewGRPCServer creates a new gRPC server
func NewGRPCServer(cfg ServerConfig) *GRPCServer {
	gsrv := grpc.NewServer()
	hsrv := health.NewServer()
	healthpb.RegisterHealthServer(gsrv, hsrv)

	return &GRPCServer{
		server:  gsrv,
		health:  hsrv,
		service: cfg.Service,
		address: cfg.Address,
		logger:  cfg.Logger,
		stop:    make(chan struct{}),
	}
}

// Start starts the gRPC server
func (gs *GRPCServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", gs.address)
	if err != nil {
		gs.logger.Error("Failed to listen on address", zap.String("address", gs.address), zap.Error(err))
		return err
	}

	gs.logger.Info("Starting gRPC server", zap.String("address", gs.address))
	gs.setStatus(ctx)

	go gs.watchStatus(ctx)
	go func() {
		if err := gs.server.Serve(listener); err != nil {
			gs.logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	return nil
}

// watchStatus keeps the reported health status in sync with the service.
func (gs *GRPCServer) watchStatus(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-gs.stop:
			return
		case <-ticker.C:
			gs.setStatus(ctx)
		}
	}
}

func (gs *GRPCServer) setStatus(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := gs.service.Ping(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	gs.health.SetServingStatus("", status)
}

// Stop gracefully stops the gRPC server
func (gs *GRPCServer) Stop(ctx context.Context) error {
	gs.logger.Info("Stopping gRPC server")
	close(gs.stop)
	gs.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		gs.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		gs.server.Stop()
		return ctx.Err()
	}
}

// Addr returns the address the gRPC server is listening on
func (gs *GRPCServer) Addr() string {
	return gs.address
}
