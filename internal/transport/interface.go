package transport

import (
	"context"
	"time"

	"github.com/flutterfocus/timedops/internal/hook"
	"go.uber.org/zap"
)

// Server defines the interface for different transport implementations (HTTP, gRPC, etc.)
type Server interface {
	// Start starts the transport server
	Start(ctx context.Context) error

	// Stop gracefully stops the transport server
	Stop(ctx context.Context) error

	// Addr returns the address the server is listening on
	Addr() string
}

// ServerConfig contains common configuration for all transport servers
type ServerConfig struct {
	Address      string        // Address to listen on (e.g., "localhost:8080" or ":50051")
	Service      *hook.Service // Shared hook relay service
	Logger       *zap.Logger   // Shared logger
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	ClientWindow time.Duration // per-client trigger throttle window
}
