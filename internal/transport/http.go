package transport

import (
	"context"
	"net/http"

	"github.com/flutterfocus/timedops/internal/handler"
	"github.com/flutterfocus/timedops/internal/middleware"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HTTPServer implements the Server interface for HTTP transport
type HTTPServer struct {
	server  *http.Server
	router  *mux.Router
	address string
	logger  *zap.Logger
	hooks   *handler.HookHandler
	health  *handler.HealthCheckHandler
	window  func(http.Handler) http.Handler
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(cfg ServerConfig) *HTTPServer {
	router := mux.NewRouter()

	hs := &HTTPServer{
		address: cfg.Address,
		logger:  cfg.Logger,
		router:  router,
		hooks:   handler.NewHookHandler(cfg.Service, cfg.Logger),
		health:  handler.NewHealthCheckHandler(cfg.Service, cfg.Logger),
		server: &http.Server{
			Addr:         cfg.Address,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
	if cfg.ClientWindow > 0 {
		hs.window = middleware.ThrottleMiddleware(cfg.ClientWindow, middleware.PathKeyExtractor, cfg.Logger)
	}

	hs.registerRoutes()
	return hs
}

// registerRoutes registers all HTTP routes
func (hs *HTTPServer) registerRoutes() {
	hs.router.HandleFunc("/health", hs.health.HealthCheck()).Methods("GET")

	// Hook routes
	hs.router.HandleFunc("/hooks/set", hs.hooks.Set()).Methods("POST")
	hs.router.HandleFunc("/hooks/status/{key}", hs.hooks.Status()).Methods("GET")
	hs.router.HandleFunc("/hooks/reset/{key}", hs.hooks.Reset()).Methods("DELETE")

	trigger := http.Handler(hs.hooks.Trigger())
	if hs.window != nil {
		trigger = hs.window(trigger)
	}
	hs.router.Handle("/hooks/trigger/{key}", trigger).Methods("POST")
}

// Start starts the HTTP server
func (hs *HTTPServer) Start(ctx context.Context) error {
	hs.logger.Info("Starting HTTP server", zap.String("address", hs.address))

	go func() {
		if err := hs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			hs.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (hs *HTTPServer) Stop(ctx context.Context) error {
	hs.logger.Info("Stopping HTTP server")
	return hs.server.Shutdown(ctx)
}

// Addr returns the address the HTTP server is listening on
func (hs *HTTPServer) Addr() string {
	return hs.address
}
