package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/pinsync/internal/client/client"
	"github.com/dmitrijs2005/pinsync/internal/client/config"
	"github.com/dmitrijs2005/pinsync/internal/client/identity"
	"github.com/dmitrijs2005/pinsync/internal/client/merge"
	"github.com/dmitrijs2005/pinsync/internal/client/notifier"
	"github.com/dmitrijs2005/pinsync/internal/client/queue"
	"github.com/dmitrijs2005/pinsync/internal/client/scheduler"
	"github.com/dmitrijs2005/pinsync/internal/client/services"
	"github.com/dmitrijs2005/pinsync/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config   *config.Config
	log      logging.Logger
	repos    *client.Repositories
	api      client.Client
	pins     services.PinService
	syncer   *services.Syncer
	sched    *scheduler.Scheduler
	clientID string

	mu   sync.RWMutex
	mode Mode
}

// NewApp opens the local database and wires the sync engine around it.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	repos, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	var ident identity.Provider = identity.NewStored(repos.Metadata)
	if c.Owner != "" {
		ident = identity.Static(c.Owner)
	}
	clientID, err := ident.ClientID(ctx)
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("client id: %w", err)
	}

	api, err := client.NewHTTPClient(c.ServerURL, clientID, c.RequestTimeout)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	return newApp(c, log.With("client_id", clientID), repos, api, ident, clientID), nil
}

func newApp(c *config.Config, log logging.Logger, repos *client.Repositories, api client.Client, ident identity.Provider, clientID string) *App {
	notes := notifier.New(log, 32)
	resolver := merge.NewResolver(repos.Pins, notes, log)
	syncer := services.NewSyncer(api, queue.New(repos.Pins), resolver, repos.Metadata, log)

	opts := scheduler.DefaultOptions()
	opts.PullInterval = c.PullInterval
	if c.RequestTimeout > 0 {
		opts.RunTimeout = 3 * c.RequestTimeout
	}
	sched := scheduler.New(syncer, log, opts)

	return &App{
		config:   c,
		log:      log,
		repos:    repos,
		api:      api,
		pins:     services.NewPinService(repos.Pins, ident, notes, sched),
		syncer:   syncer,
		sched:    sched,
		clientID: clientID,
		mode:     ModeOffline,
	}
}

func (a *App) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

// setMode reports whether the mode changed.
func (a *App) setMode(ctx context.Context, mode Mode) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode == mode {
		return false
	}
	a.mode = mode
	a.log.Info(ctx, "connectivity changed", "mode", string(mode))
	return true
}

// Run starts the background machinery and the REPL. It returns when the
// user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.repos.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	start := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}

	start(func(ctx context.Context) { _ = a.sched.Run(ctx) })
	start(a.syncer.Listen)
	start(a.printSessionEvents)
	start(func(ctx context.Context) { a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval) })

	// activation
	a.sched.Request(scheduler.Pull)
	a.sched.Request(scheduler.Push)

	printlnFn(fmt.Sprintf("pinsync client %s (type 'help' for commands)", a.clientID))

	lines := make(chan struct{})
	go func() {
		runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
		close(lines)
	}()

	select {
	case <-lines:
	case <-ctx.Done():
	}
	cancel()
	wg.Wait()
	return nil
}

// StartOnlineStatusWatcher pings the server every interval. Going from
// offline to online counts as a reconnect and schedules a pull and a push.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.api.Ping(pctx)
	cancel()

	if err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	if a.setMode(ctx, ModeOnline) {
		a.sched.Request(scheduler.Pull)
		a.sched.Request(scheduler.Push)
	}
}

func (a *App) printSessionEvents(ctx context.Context) {
	events, unsub := a.pins.Subscribe()
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-events:
			if !ok {
				return
			}
			printlnFn("*", formatPin(p))
		}
	}
}

func (a *App) status() string {
	return string(a.Mode())
}
