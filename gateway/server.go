package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/chatrelay/chatrelay/logging"
)

// ServerOptions configures the gateway server.
type ServerOptions struct {
	Logger          logging.Logger
	ShutdownTimeout time.Duration
}

// Server runs the gateway over HTTP. It exposes Ready, a channel closed once
// the listener is bound, so a dependent task (the chat UI) can wait for the
// transport instead of sleeping for a fixed delay.
type Server struct {
	addr            string
	handler         http.Handler
	logger          logging.Logger
	shutdownTimeout time.Duration

	ready    chan struct{}
	listener net.Listener
}

// NewServer creates a Server for the handler bound to addr.
func NewServer(addr string, handler http.Handler, optFns ...func(o *ServerOptions)) *Server {
	opts := ServerOptions{
		Logger:          logging.NoOpLogger{},
		ShutdownTimeout: 5 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{
		addr:            addr,
		handler:         handler,
		logger:          opts.Logger,
		shutdownTimeout: opts.ShutdownTimeout,
		ready:           make(chan struct{}),
	}
}

// Ready is closed once the listener is bound and the server is accepting
// connections.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound listen address. Valid once Ready is closed; useful
// when the configured address uses port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Start binds the listener, signals readiness and serves until ctx is
// cancelled, then shuts down gracefully. It blocks for the lifetime of the
// server and returns the first serve error, or nil on clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener

	srv := &http.Server{Handler: s.handler}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	s.logger.Info("server.listening", "addr", s.Addr())
	close(s.ready)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		s.logger.Info("server.shutting_down", "addr", s.Addr())
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
