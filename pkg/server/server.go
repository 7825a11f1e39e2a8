package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"grundbuch-online/portal/pkg/config"
	"grundbuch-online/portal/pkg/limits"
	"grundbuch-online/portal/pkg/proxy/handlers"
	"grundbuch-online/portal/pkg/proxy/middleware"
	"grundbuch-online/portal/pkg/security/auth"
	portaltls "grundbuch-online/portal/pkg/security/tls"
	"grundbuch-online/portal/pkg/telemetry/health"
	"grundbuch-online/portal/pkg/telemetry/metrics"
)

// Deps are the components the routes are served by. Gateway, Resolver and
// Orders are required; the rest may be nil.
type Deps struct {
	Gateway  handlers.Relay
	Resolver handlers.Resolver
	Orders   handlers.OrderService

	// AdminKeys resolves the admin API key. Without it the admin routes
	// answer 503.
	AdminKeys auth.KeySource

	Health  *health.Checker
	Metrics *metrics.Collector

	// MetricsPath is where Metrics is served. Empty disables the endpoint.
	MetricsPath string

	Version health.VersionInfo
}

// Server is the portal's HTTP server.
type Server struct {
	config       *config.ServerConfig
	deps         Deps
	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         net.Addr
}

// NewServer creates a new server.
func NewServer(cfg *config.ServerConfig, deps Deps) *Server {
	return &Server{
		config: cfg,
		deps:   deps,
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
	}

	tlsConfig, reloader, err := portaltls.ServerConfig(s.config.TLS)
	if err != nil {
		s.setRunning(false)
		return fmt.Errorf("failed to configure TLS: %w", err)
	}
	if reloader != nil {
		if err := reloader.Watch(ctx); err != nil {
			slog.Warn("certificate hot reload disabled", "error", err)
		}
		s.httpServer.TLSConfig = tlsConfig
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.setRunning(false)
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting portal server",
			"address", ln.Addr().String(),
			"tls_enabled", tlsConfig != nil,
		)

		var err error
		if tlsConfig != nil {
			// Certificates come from TLSConfig.GetCertificate.
			err = s.httpServer.ServeTLS(ln, "", "")
		} else {
			err = s.httpServer.Serve(ln)
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.WithoutCancel(ctx))
	case err := <-errChan:
		s.setRunning(false)
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if !s.IsRunning() {
			return
		}

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.setRunning(false)
		slog.Info("portal server stopped")
	})

	return shutdownErr
}

// Addr returns the bound address once Start is listening, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// setupRoutes configures HTTP routes and middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()
	d := s.deps
	maxBody := s.config.MaxBodyBytes

	route := func(name string, h http.Handler) http.Handler {
		return middleware.MetricsMiddleware(d.Metrics, name)(h)
	}

	var limiter *limits.Manager
	if s.config.RateLimit.Enabled {
		limiter = limits.NewManager(s.config.RateLimit)
	}
	public := func(name string, h http.Handler) http.Handler {
		limited := middleware.LimitsMiddleware(limiter, middleware.LimitsOptions{
			Route:             name,
			Metrics:           d.Metrics,
			TrustForwardedFor: s.config.RateLimit.TrustForwardedFor,
		})(h)
		return route(name, limited)
	}

	var adminKeys auth.KeySource = noAdminKey{}
	if d.AdminKeys != nil {
		adminKeys = d.AdminKeys
	}
	adminAuth := auth.NewAPIKeyMiddleware(auth.NewSecretKeyValidator(adminKeys, adminKeyName), auth.DefaultSources)
	admin := func(name string, h http.HandlerFunc) http.Handler {
		return route(name, adminAuth.Handle(h))
	}

	gw := handlers.NewGatewayHandler(d.Gateway, maxBody, s.config.RateLimit.TrustForwardedFor)
	addr := handlers.NewAddressHandler(d.Resolver, maxBody)
	ord := handlers.NewOrdersHandler(d.Orders, maxBody)

	mux.Handle("POST /api/uvst-proxy", route("gateway", gw))
	mux.Handle("POST /api/address/normalize", public("address.normalize", addr))
	mux.Handle("POST /api/orders", public("orders.create", http.HandlerFunc(ord.Create)))
	mux.Handle("GET /api/orders", admin("orders.list", ord.List))
	mux.Handle("GET /api/orders/{id}", admin("orders.get", ord.Get))
	mux.Handle("PATCH /api/orders/{id}", admin("orders.update", ord.Update))

	checker := d.Health
	if checker == nil {
		checker = health.New(0)
	}
	mux.Handle("GET /health", checker.LivenessHandler())
	mux.Handle("GET /ready", checker.ReadinessHandler())
	mux.Handle("GET /version", health.VersionHandler(d.Version.Version, d.Version.Commit, d.Version.BuildTime))

	if d.Metrics != nil && d.MetricsPath != "" {
		mux.Handle("GET "+d.MetricsPath, d.Metrics.Handler())
	}

	// Apply middleware chain
	var handler http.Handler = mux

	handler = middleware.CORSMiddleware(s.config.CORS)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	// Request ID middleware (outermost)
	handler = middleware.RequestIDMiddleware(handler)

	return handler
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Server) setRunning(v bool) {
	s.mu.Lock()
	s.isRunning = v
	s.mu.Unlock()
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}
