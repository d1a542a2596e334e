package http

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/config"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
)

// Server wraps http.Server with the configured timeouts.
type Server struct {
	srv    *http.Server
	cfg    config.ServerConfig
	logger logging.Logger
}

// NewServer creates a Server serving handler on cfg.Addr().
func NewServer(cfg config.ServerConfig, handler http.Handler, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Server{
		cfg:    cfg,
		logger: logger.Named("http"),
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       4 * cfg.ReadTimeout,
		},
	}
}

// Start listens on the configured address and blocks until the server
// stops.  A graceful shutdown returns nil.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "http: listen failed").WithDetail(s.srv.Addr)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("http server listening", logging.String("addr", ln.Addr().String()))
	if err := s.srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, errors.ErrCodeInternal, "http: serve failed")
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests
// within the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	s.logger.Info("shutting down http server")
	if err := s.srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeTimeout, "http: shutdown failed")
	}
	s.logger.Info("http server stopped")
	return nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

//Personal.AI order the ending
