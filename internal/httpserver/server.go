package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/onexay/travis-notify/internal/config"
	"github.com/onexay/travis-notify/internal/logging"
	"github.com/onexay/travis-notify/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server configuration and dependencies.
type Server struct {
	addr    string
	handler http.Handler
	svc     *service.Service
	logger  logging.Logger
}

// NewServer creates an HTTP server with routes and middleware.
func NewServer(ctx context.Context, cfg config.Config, logger logging.Logger) (*Server, error) {
	logger = logging.Ensure(logger)

	svc, err := service.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Server{
		addr:    cfg.APIAddr,
		handler: Routes(svc),
		svc:     svc,
		logger:  logger,
	}, nil
}

// Routes mounts the health check next to the service handler.
func Routes(svc *service.Service) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/", service.Handler(svc))
	return mux
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Run starts the HTTP server and blocks until ctx is cancelled, then drains
// in-flight requests and closes the store.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		_ = s.svc.Close()
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		serveErr = srv.Shutdown(shutdownCtx)
		<-errCh
	}

	if err := s.svc.Close(); err != nil {
		s.logger.Error("close store", "error", err)
	}
	if errors.Is(serveErr, http.ErrServerClosed) {
		return nil
	}
	return serveErr
}
