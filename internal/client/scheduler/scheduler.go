// Package scheduler decides when the client pushes pending pins to the
// authority and when it pulls the authoritative set back.
//
// Each direction runs its own Idle -> Scheduled -> Running -> Idle cycle.
// Requests for a direction that is already Scheduled are dropped; a request
// that arrives while the direction is Running is remembered and causes
// exactly one follow-up run.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/pinsync/internal/logging"
)

type Direction int

const (
	Push Direction = iota
	Pull
)

func (d Direction) String() string {
	if d == Push {
		return "push"
	}
	return "pull"
}

type State int

const (
	Idle State = iota
	Scheduled
	Running
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case Running:
		return "running"
	default:
		return "idle"
	}
}

// Runner performs the actual round trips.
type Runner interface {
	// Push sends a batch of pending pins. more reports that pins are still pending.
	Push(ctx context.Context) (more bool, err error)
	Pull(ctx context.Context) error
}

type Options struct {
	// PullInterval triggers a periodic pull. Zero disables it.
	PullInterval time.Duration
	// RunTimeout bounds a single run.
	RunTimeout time.Duration
	// Retry backoff after a failed run.
	BackoffBase time.Duration
	BackoffMax  time.Duration
	MaxRetries  uint64
}

func DefaultOptions() Options {
	return Options{
		PullInterval: time.Minute,
		RunTimeout:   10 * time.Second,
		BackoffBase:  time.Second,
		BackoffMax:   time.Minute,
		MaxRetries:   8,
	}
}

type lane struct {
	state   State
	again   bool
	backoff retry.Backoff
	timer   *time.Timer
	runs    int
}

type result struct {
	dir  Direction
	more bool
	err  error
}

type Scheduler struct {
	runner Runner
	log    logging.Logger
	opts   Options

	cmds    chan Direction
	results chan result

	mu    sync.Mutex
	lanes [2]*lane
}

func New(runner Runner, log logging.Logger, opts Options) *Scheduler {
	s := &Scheduler{
		runner:  runner,
		log:     log,
		opts:    opts,
		cmds:    make(chan Direction, 2),
		results: make(chan result, 2),
	}
	for i := range s.lanes {
		s.lanes[i] = &lane{backoff: s.newBackoff()}
	}
	return s
}

func (s *Scheduler) newBackoff() retry.Backoff {
	base := s.opts.BackoffBase
	if base <= 0 {
		base = time.Second
	}
	b := retry.NewExponential(base)
	if s.opts.BackoffMax > 0 {
		b = retry.WithCappedDuration(s.opts.BackoffMax, b)
	}
	b = retry.WithJitterPercent(10, b)
	if s.opts.MaxRetries > 0 {
		b = retry.WithMaxRetries(s.opts.MaxRetries, b)
	}
	return b
}

// Request asks for a run in direction d. It never blocks.
func (s *Scheduler) Request(d Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.lanes[d]
	switch l.state {
	case Idle:
		l.state = Scheduled
		// at most one queued command per direction, so the buffer never fills
		s.cmds <- d
	case Running:
		l.again = true
	}
}

// State reports the current state of direction d.
func (s *Scheduler) State(d Direction) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lanes[d].state
}

// Runs reports how many runs of direction d have completed.
func (s *Scheduler) Runs(d Direction) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lanes[d].runs
}

// Run drives the state machine until ctx is done. In-flight runs are
// cancelled and awaited before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if s.opts.PullInterval > 0 {
		t := time.NewTicker(s.opts.PullInterval)
		defer t.Stop()
		tick = t.C
	}

	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		s.stopTimers()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case d := <-s.cmds:
			s.start(ctx, &wg, d)

		case r := <-s.results:
			s.finish(ctx, r)

		case <-tick:
			s.Request(Pull)
		}
	}
}

func (s *Scheduler) start(ctx context.Context, wg *sync.WaitGroup, d Direction) {
	s.mu.Lock()
	s.lanes[d].state = Running
	s.mu.Unlock()

	s.log.Debug(ctx, "sync run started", "direction", d.String())

	wg.Add(1)
	go func() {
		defer wg.Done()

		rctx, cancel := s.runContext(ctx)
		defer cancel()

		r := result{dir: d}
		if d == Push {
			r.more, r.err = s.runner.Push(rctx)
		} else {
			r.err = s.runner.Pull(rctx)
		}
		s.results <- r
	}()
}

func (s *Scheduler) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.RunTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.RunTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Scheduler) finish(ctx context.Context, r result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.lanes[r.dir]
	l.runs++
	again := l.again
	l.again = false

	if r.err != nil {
		delay, stop := l.backoff.Next()
		if stop {
			s.log.Warn(ctx, "sync run failed, retries exhausted; waiting for next trigger",
				"direction", r.dir.String(), "error", r.err)
			l.backoff = s.newBackoff()
		} else {
			s.log.Warn(ctx, "sync run failed, retry scheduled",
				"direction", r.dir.String(), "error", r.err, "retry_in", delay.String())
			s.armRetry(l, r.dir, delay)
		}
	} else {
		l.backoff = s.newBackoff()
		if l.timer != nil {
			l.timer.Stop()
			l.timer = nil
		}
		if r.dir == Push && r.more {
			again = true
		}
	}

	if again {
		l.state = Scheduled
		s.cmds <- r.dir
		return
	}
	l.state = Idle
	s.log.Debug(ctx, "sync run finished", "direction", r.dir.String())
}

// armRetry must be called with s.mu held.
func (s *Scheduler) armRetry(l *lane, d Direction, delay time.Duration) {
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timer = time.AfterFunc(delay, func() { s.Request(d) })
}

func (s *Scheduler) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lanes {
		if l.timer != nil {
			l.timer.Stop()
			l.timer = nil
		}
	}
}
