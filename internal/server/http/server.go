// Package http exposes the remote sync service over HTTP with JSON bodies
// and serves the websocket endpoint for live updates.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/pinsync/internal/common"
	"github.com/dmitrijs2005/pinsync/internal/logging"
	"github.com/dmitrijs2005/pinsync/internal/models"
)

// SyncService is the part of services.SyncService the handlers call.
type SyncService interface {
	Upsert(ctx context.Context, p models.Pin) error
	ListVisible(ctx context.Context) ([]models.Pin, error)
}

type HTTPServer struct {
	address         string
	sync            SyncService
	ws              http.Handler
	logger          logging.Logger
	shutdownTimeout time.Duration
}

// NewHTTPServer builds the server. ws serves the websocket endpoint and may
// be nil, in which case the route is not registered.
func NewHTTPServer(a string, l logging.Logger, s SyncService, ws http.Handler, shutdownTimeout time.Duration) *HTTPServer {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	return &HTTPServer{
		address:         a,
		sync:            s,
		ws:              ws,
		logger:          l.With("module", "http_server"),
		shutdownTimeout: shutdownTimeout,
	}
}

// Handler returns the router with all routes mounted.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Post(common.SyncPath, s.handleUpsert)
	r.Get(common.SyncPath, s.handleList)
	r.Get(common.HealthPath, s.handleHealth)
	if s.ws != nil {
		r.Handle(common.WSPath, s.ws)
	}
	return r
}

// Run listens on the configured address and serves until ctx is cancelled,
// then drains in-flight requests for up to the shutdown timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *HTTPServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	failed := make(chan struct{})
	stopped := make(chan error, 1)
	go func() {
		select {
		case <-ctx.Done():
		case <-failed:
			stopped <- nil
			return
		}
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(sctx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		close(failed)
		<-stopped
		return err
	}
	return <-stopped
}
