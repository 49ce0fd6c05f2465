package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/pinsync/internal/common"
	"github.com/dmitrijs2005/pinsync/internal/logging"
	"github.com/dmitrijs2005/pinsync/internal/models"
)

type fakeSync struct {
	mu       sync.Mutex
	upserted []models.Pin
	pins     []models.Pin
	err      error
}

func (f *fakeSync) Upsert(_ context.Context, p models.Pin) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, p)
	return nil
}

func (f *fakeSync) stored() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserted)
}

func (f *fakeSync) ListVisible(context.Context) ([]models.Pin, error) {
	return f.pins, f.err
}

func newTestServer(t *testing.T, f *fakeSync, ws http.Handler) *httptest.Server {
	t.Helper()
	s := NewHTTPServer("127.0.0.1:0", logging.Discard(), f, ws, time.Second)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+common.SyncPath, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(common.ClientIDHeaderName, "client-a")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHandleUpsert(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		svcErr   error
		wantCode int
		stored   int
	}{
		{
			name:     "accepted",
			body:     `{"id":"p1","owner":"c1","position":{"lat":1,"lng":2},"updated":100,"visible":true}`,
			wantCode: http.StatusNoContent,
			stored:   1,
		},
		{
			name:     "malformed json",
			body:     `{"id":`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing position",
			body:     `{"id":"p1","owner":"c1","updated":100,"visible":true}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing id",
			body:     `{"owner":"c1","position":{"lat":1,"lng":2}}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "storage failure",
			body:     `{"id":"p1","owner":"c1","position":{"lat":1,"lng":2},"updated":100,"visible":true}`,
			svcErr:   errors.New("disk full"),
			wantCode: http.StatusInternalServerError,
		},
		{
			name:     "service stopped",
			body:     `{"id":"p1","owner":"c1","position":{"lat":1,"lng":2},"updated":100,"visible":true}`,
			svcErr:   common.ErrServiceStopped,
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeSync{err: tt.svcErr}
			srv := newTestServer(t, f, nil)

			resp := post(t, srv.URL, tt.body)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Equal(t, tt.stored, f.stored())
		})
	}
}

func TestHandleList(t *testing.T) {
	pins := []models.Pin{
		{ID: "a", Owner: "c1", Position: &models.LatLng{Lat: 1, Lng: 2}, Updated: 1, Visible: true},
	}
	srv := newTestServer(t, &fakeSync{pins: pins}, nil)

	resp, err := http.Get(srv.URL + common.SyncPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got []models.Pin
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, pins, got)
}

func TestHandleList_EmptyIsArray(t *testing.T) {
	srv := newTestServer(t, &fakeSync{}, nil)

	resp, err := http.Get(srv.URL + common.SyncPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestHandleList_Error(t *testing.T) {
	srv := newTestServer(t, &fakeSync{err: errors.New("boom")}, nil)

	resp, err := http.Get(srv.URL + common.SyncPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealthAndRouting(t *testing.T) {
	var wsHits atomic.Int32
	ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wsHits.Add(1)
		w.WriteHeader(http.StatusTeapot)
	})
	srv := newTestServer(t, &fakeSync{}, ws)

	resp, err := http.Get(srv.URL + common.HealthPath)
	require.NoError(t, err)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	_ = resp.Body.Close()
	assert.Equal(t, "ok", body["status"])

	resp, err = http.Get(srv.URL + common.WSPath)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, int32(1), wsHits.Load())

	req, err := http.NewRequest(http.MethodDelete, srv.URL+common.SyncPath, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewHTTPServer(ln.Addr().String(), logging.Discard(), &fakeSync{}, nil, time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()

	url := fmt.Sprintf("http://%s%s", ln.Addr().String(), common.HealthPath)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_ListenError(t *testing.T) {
	s := NewHTTPServer("bad::addr::", logging.Discard(), &fakeSync{}, nil, 0)
	require.Error(t, s.Run(context.Background()))
}

func TestServe_ListenerFailureReleasesShutdownWatcher(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	before := runtime.NumGoroutine()
	s := NewHTTPServer(ln.Addr().String(), logging.Discard(), &fakeSync{}, nil, time.Second)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(context.Background(), ln) }()

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.NotErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return")
	}

	// ctx is never cancelled, yet nothing is left waiting on it
	assert.Eventually(t, func() bool { return runtime.NumGoroutine() <= before }, 2*time.Second, 10*time.Millisecond)
}
