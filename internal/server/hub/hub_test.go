package hub

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/pinsync/internal/logging"
	"github.com/dmitrijs2005/pinsync/internal/models"
)

func startHub(t *testing.T, buffer int) (*Hub, string, context.CancelFunc) {
	t.Helper()
	h := New(logging.Discard(), buffer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(ctx)
	}()

	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		cancel()
		<-done
		srv.Close()
	})
	return h, "ws" + strings.TrimPrefix(srv.URL, "http"), cancel
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func samplePin(id string) models.Pin {
	return models.Pin{ID: id, Owner: "c1", Position: &models.LatLng{Lat: 3, Lng: 4}, Updated: 42, Visible: true}
}

func TestHub_BroadcastToAllSessions(t *testing.T) {
	h, url, _ := startHub(t, 8)

	conns := []*websocket.Conn{dial(t, url), dial(t, url), dial(t, url)}
	require.Eventually(t, func() bool { return h.Sessions() == 3 }, 2*time.Second, 10*time.Millisecond)

	h.Publish(context.Background(), samplePin("p1"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, c := range conns {
		var got models.Pin
		require.NoError(t, wsjson.Read(ctx, c, &got))
		assert.Equal(t, samplePin("p1"), got)
	}
}

func TestHub_DisconnectRemovesSession(t *testing.T) {
	h, url, _ := startHub(t, 8)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return h.Sessions() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool { return h.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond)

	// publishing with nobody listening is fine
	h.Publish(context.Background(), samplePin("p2"))
}

func TestHub_PublishDropsWhenFull(t *testing.T) {
	// Run is not started, so nothing drains the queue.
	h := New(logging.Discard(), 1)

	h.Publish(context.Background(), samplePin("a"))
	h.Publish(context.Background(), samplePin("b"))
	h.Publish(context.Background(), samplePin("c"))

	assert.Equal(t, int64(2), h.Dropped())
	assert.Len(t, h.broadcast, 1)
}

func TestHub_PublishCopiesPin(t *testing.T) {
	h := New(logging.Discard(), 1)
	p := samplePin("a")
	h.Publish(context.Background(), p)
	p.Position.Lat = 99

	got := <-h.broadcast
	assert.Equal(t, 3.0, got.Position.Lat)
}

func TestHub_ShutdownClosesSessions(t *testing.T) {
	h, url, cancel := startHub(t, 8)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return h.Sessions() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()

	ctx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_, _, err := conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
	assert.Equal(t, 0, h.Sessions())
}

func TestHub_StalledSessionDoesNotDelayOthers(t *testing.T) {
	h, url, _ := startHub(t, 8)

	healthy := dial(t, url)
	require.Eventually(t, func() bool { return h.Sessions() == 1 }, 2*time.Second, 10*time.Millisecond)

	// no writer drains this queue, so it behaves like a peer stuck mid-write
	stalled := &session{out: make(chan models.Pin), done: make(chan struct{})}
	h.clientsMu.Lock()
	h.clients[stalled] = struct{}{}
	h.clientsMu.Unlock()
	t.Cleanup(func() {
		h.clientsMu.Lock()
		delete(h.clients, stalled)
		h.clientsMu.Unlock()
	})

	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		h.Publish(context.Background(), samplePin(id))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, id := range ids {
		var got models.Pin
		require.NoError(t, wsjson.Read(ctx, healthy, &got))
		assert.Equal(t, id, got.ID)
	}
	assert.Equal(t, int64(len(ids)), h.Dropped())
}
