// Package notifier fans accepted or merged pins out to every active local
// session. Delivery is best-effort and at most once per subscriber: a slow
// subscriber loses events and catches up on the next pull.
package notifier

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/pinsync/internal/logging"
	"github.com/dmitrijs2005/pinsync/internal/models"
)

const defaultBuffer = 16

type Notifier struct {
	log    logging.Logger
	buffer int

	mu     sync.RWMutex
	nextID int
	subs   map[int]chan models.Pin
}

func New(log logging.Logger, buffer int) *Notifier {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Notifier{log: log, buffer: buffer, subs: make(map[int]chan models.Pin)}
}

// Subscribe registers a session. The returned func unsubscribes and closes
// the channel; calling it more than once is safe.
func (n *Notifier) Subscribe() (<-chan models.Pin, func()) {
	ch := make(chan models.Pin, n.buffer)

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = ch
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
			close(ch)
		})
	}
}

// Publish never blocks.
func (n *Notifier) Publish(ctx context.Context, p models.Pin) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for id, ch := range n.subs {
		select {
		case ch <- p.Clone():
		default:
			n.log.Warn(ctx, "session buffer full, dropping pin event", "session", id, "id", p.ID)
		}
	}
}

// Sessions returns the number of active subscribers.
func (n *Notifier) Sessions() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}
