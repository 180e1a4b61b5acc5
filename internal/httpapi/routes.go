package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/cory-johannsen/diceroller/internal/config"
	"github.com/cory-johannsen/diceroller/internal/observability"
)

// RequestIDHeader carries the per-request correlation ID on responses.
const RequestIDHeader = "X-Request-Id"

type loggerKey struct{}

// NewRouter registers the roll API routes and middleware.
//
// Precondition: h and logger must be non-nil.
func NewRouter(h *Handlers, logger *zap.Logger) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestContext(logger))

	router.Get("/healthz", h.HandleHealth)
	router.Get("/roll", h.HandleDefaultRoll)
	router.Get("/roll/*", h.HandleRoll)
	router.Get("/macros/{name}", h.HandleMacro)

	return router
}

// requestContext assigns a request ID, attaches a request-scoped logger, and
// logs one access line per request.
func requestContext(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := observability.NewRequestID()
			reqLogger := observability.RequestLogger(logger, "http", id)

			w.Header().Set(RequestIDHeader, id)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), loggerKey{}, reqLogger)))

			reqLogger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}

func requestLogger(r *http.Request, fallback *zap.Logger) *zap.Logger {
	if l, ok := r.Context().Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return fallback
}

// Server runs the roll API as a server.Service.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer creates a Server listening on cfg.Addr().
//
// Precondition: handler and logger must be non-nil.
func NewServer(cfg config.HTTPConfig, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: logger,
	}
}

// Start listens and serves until Stop is called.
//
// Postcondition: Returns nil after a graceful Stop, otherwise the listen/serve error.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

// Serve serves on an existing listener until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("http server listening", zap.String("addr", lis.Addr().String()))
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down, waiting for in-flight requests until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
