package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/pinsync/internal/client/client"
	"github.com/dmitrijs2005/pinsync/internal/client/scheduler"
)

func openRepos(t *testing.T) *client.Repositories {
	t.Helper()
	repos, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "pins.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}

type recRequester struct {
	mu   sync.Mutex
	dirs []scheduler.Direction
}

func (r *recRequester) Request(d scheduler.Direction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirs = append(r.dirs, d)
}

func (r *recRequester) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dirs)
}

// stepClock returns a fixed time that only moves when told to.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(ms int64) *stepClock { return &stepClock{t: time.UnixMilli(ms)} }

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = time.UnixMilli(ms)
}
