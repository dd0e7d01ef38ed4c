// package server contains the router, middleware and login callback handler for the local auth server
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows which patterns it serves.
type Handler interface {
	http.Handler
	Routes() []string // Go 1.22 mux patterns, e.g. "GET /callback"
}

// Router defines HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// CallbackServer runs a [CallbackHandler] on a local address until one login completes.
type CallbackServer struct {
	handler  *CallbackHandler
	srv      *http.Server
	listener net.Listener
	errs     chan error
	logger   *log.Logger
}

// NewCallbackServer binds addr and prepares a router serving handler.
//
// Binding happens here so the browser cannot race the listener.
func NewCallbackServer(addr string, handler *CallbackHandler, logger *log.Logger) (*CallbackServer, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "component", "callback-server")

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to listen on %s: %w", shared.ErrServiceUnavailable, addr, err)
	}

	router := NewBasicRouter()
	router.Use(Recoverer(logger), RequestLogger(logger))
	router.Handler(handler)

	return &CallbackServer{
		handler:  handler,
		srv:      &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
		listener: ln,
		errs:     make(chan error, 1),
		logger:   logger,
	}, nil
}

// Addr returns the bound address, useful when addr used port 0.
func (s *CallbackServer) Addr() string {
	return s.listener.Addr().String()
}

// URL returns the callback URL the backend should redirect to.
func (s *CallbackServer) URL() string {
	return "http://" + s.Addr() + CallbackPath
}

// Start serves in the background.
func (s *CallbackServer) Start() {
	go func() {
		s.logger.Info("listening for login callback", "addr", s.Addr())
		if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()
}

// Wait blocks until a callback arrives, the server fails, ctx is done or timeout elapses, then shuts down.
func (s *CallbackServer) Wait(ctx context.Context, timeout time.Duration) (models.Credentials, error) {
	defer s.shutdown()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-s.handler.Result():
		return res.Credentials, res.Err
	case err := <-s.errs:
		return models.Credentials{}, fmt.Errorf("%w: callback server: %w", shared.ErrServiceUnavailable, err)
	case <-timer.C:
		return models.Credentials{}, fmt.Errorf("%w: no login callback after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return models.Credentials{}, ctx.Err()
	}
}

func (s *CallbackServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("error shutting down server", "error", err)
	}
	s.listener.Close()
}
