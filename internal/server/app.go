// Package server initializes and runs the remote sync service. It selects
// the storage backend, starts the single-owner sync worker and the websocket
// hub, and serves the HTTP API until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/pinsync/internal/logging"
	"github.com/dmitrijs2005/pinsync/internal/server/config"
	"github.com/dmitrijs2005/pinsync/internal/server/hub"
	"github.com/dmitrijs2005/pinsync/internal/server/services"
	"github.com/dmitrijs2005/pinsync/internal/server/storage"

	hs "github.com/dmitrijs2005/pinsync/internal/server/http"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  storage.Store
	sync   *services.SyncService
	hub    *hub.Hub
	http   *hs.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(logging.Options{File: c.LogFile})
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	store, err := storage.Open(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	logger.Info(ctx, "Storage ready", "backend", storage.Kind(c))

	h := hub.New(logger, c.BroadcastBuffer)
	ss := services.NewSyncService(store, h, logger)
	srv := hs.NewHTTPServer(c.EndpointAddr, logger, ss, h, c.ShutdownTimeout)

	return &App{config: c, logger: logger, store: store, sync: ss, hub: h, http: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled or a signal arrives, then waits for the
// HTTP server, hub and sync worker to stop and closes the store.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.sync.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		app.hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return app.store.Close()
}
