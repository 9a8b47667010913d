package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flutterfocus/timedops/internal/config"
	"github.com/flutterfocus/timedops/internal/hook"
	"github.com/flutterfocus/timedops/internal/transport"
	"go.uber.org/zap"
)

func main() {
	config.LoadDotEnv()

	cfg := config.Load()

	// Initialize logger
	logger, err := config.InitLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting hook relay server",
		zap.String("version", "1.0.0"),
		zap.String("address", cfg.ServerAddr()),
	)

	// Initialize hook relay service
	service := hook.NewService(hook.Options{
		DefaultWait:    cfg.Hook.DefaultWait,
		DefaultTimeout: cfg.Hook.DefaultTimeout,
		ClientTimeout:  cfg.Upstream.Timeout,
		MaxBodyBytes:   cfg.Upstream.MaxBodyBytes,
	}, logger)
	defer service.Close()

	ctx := context.Background()

	servers := []transport.Server{
		transport.NewHTTPServer(transport.ServerConfig{
			Address:      cfg.ServerAddr(),
			Service:      service,
			Logger:       logger,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
			ClientWindow: cfg.Hook.ClientWindow,
		}),
	}
	if cfg.GRPC.Enabled {
		servers = append(servers, transport.NewGRPCServer(transport.ServerConfig{
			Address: cfg.GRPCAddr(),
			Service: service,
			Logger:  logger,
		}))
	}

	for _, srv := range servers {
		if err := srv.Start(ctx); err != nil {
			logger.Fatal("Server failed to start", zap.String("address", srv.Addr()), zap.Error(err))
		}
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", zap.String("address", srv.Addr()), zap.Error(err))
		}
	}

	logger.Info("Server stopped")
}
