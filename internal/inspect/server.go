package inspect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/skellyview/internal/telemetry"
	"github.com/vango-dev/skellyview/pkg/store"
)

const (
	// sendBuffer is the number of messages queued per websocket client
	// before the client is dropped as too slow.
	sendBuffer = 64

	// writeWait bounds a single websocket write.
	writeWait = 10 * time.Second

	// shutdownTimeout bounds graceful HTTP shutdown.
	shutdownTimeout = 5 * time.Second
)

// ErrShutdown marks errors raised while stopping a running server, as
// opposed to errors that kept it from starting.
var ErrShutdown = errors.New("inspector shutdown failed")

// Config configures an inspector server.
type Config struct {
	// Addr is the host:port to listen on.
	Addr string

	// AllowedOrigins lists extra websocket origins. Same-origin requests
	// and requests without an Origin header are always accepted; "*"
	// accepts everything.
	AllowedOrigins []string

	// Metrics, when set, observes requests and is served on /metrics.
	Metrics *telemetry.Metrics

	// TraceOptions configure the request tracing middleware.
	TraceOptions []telemetry.TraceOption

	// Logger is the base logger. Default: slog.Default().
	Logger *slog.Logger
}

// Server exposes a store.Registry over HTTP and websocket.
type Server struct {
	reg     *store.Registry
	config  Config
	logger  *slog.Logger
	router  chi.Router
	metrics *telemetry.Metrics

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool

	unsubscribe func()
	closeOnce   sync.Once
}

// New creates a server for reg and subscribes it to the registry's change
// feed. Call Close to release the subscription.
func New(reg *store.Registry, config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		reg:     reg,
		config:  config,
		logger:  logger.With("component", "inspect"),
		metrics: config.Metrics,
		clients: make(map[*client]bool),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = s.routes()
	s.unsubscribe = reg.Subscribe(s.broadcastChange)
	return s
}

// routes builds the chi router.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(telemetry.Trace(s.config.TraceOptions...))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/stores", s.handleSnapshot)
		r.Get("/stores/{name}", s.handleStore)
		r.Post("/fetch", s.handleTriggerFetch)
		r.Delete("/fetch", s.handleResetFetch)
		r.Post("/animation", s.handleAnimation)
	})
	r.Get("/ws", s.handleWebSocket)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// Handler returns the HTTP handler for the inspector.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on config.Addr until ctx is cancelled, then shuts
// down gracefully. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return store.NewContext(context.Background(), s.reg) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspector listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.closeClients()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%w: %w", ErrShutdown, err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%w: %w", ErrShutdown, err)
	}
	s.logger.Info("inspector stopped")
	return nil
}

// Close detaches the server from the registry and disconnects all
// websocket clients.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.unsubscribe()
		s.closeClients()
	})
}

// ClientCount returns the number of connected websocket clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// checkOrigin accepts same-origin requests, requests without an Origin
// header, and the configured origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// logRequests logs each request at debug level once it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
