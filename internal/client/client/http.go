package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/dmitrijs2005/pinsync/internal/common"
	"github.com/dmitrijs2005/pinsync/internal/models"
	"github.com/dmitrijs2005/pinsync/internal/netx"
)

type HTTPClient struct {
	baseURL  string
	clientID string
	http     *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the server at baseURL (http or https).
// timeout bounds every request; Subscribe is bounded by its ctx only.
func NewHTTPClient(baseURL, clientID string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) header() http.Header {
	h := http.Header{}
	if c.clientID != "" {
		h.Set(common.ClientIDHeaderName, c.clientID)
	}
	return h
}

func (c *HTTPClient) Push(ctx context.Context, p models.Pin) error {
	return c.mapError(netx.PostJSON(ctx, c.http, c.baseURL+common.SyncPath, p, c.header()))
}

func (c *HTTPClient) Pull(ctx context.Context) ([]models.Pin, error) {
	var out []models.Pin
	if err := netx.GetJSON(ctx, c.http, c.baseURL+common.SyncPath, &out, c.header()); err != nil {
		return nil, c.mapError(err)
	}
	return out, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var out map[string]any
	return c.mapError(netx.GetJSON(ctx, c.http, c.baseURL+common.HealthPath, &out, c.header()))
}

func (c *HTTPClient) Subscribe(ctx context.Context, fn func(models.Pin)) error {
	conn, _, err := websocket.Dial(ctx, c.wsURL(), &websocket.DialOptions{HTTPHeader: c.header()})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer conn.CloseNow()

	for {
		var p models.Pin
		if err := wsjson.Read(ctx, conn, &p); err != nil {
			if ctx.Err() != nil {
				_ = conn.Close(websocket.StatusNormalClosure, "")
				return ctx.Err()
			}
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		fn(p)
	}
}

func (c *HTTPClient) wsURL() string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + common.WSPath
}

// mapError turns 4xx into ErrRejected and everything else into ErrUnavailable.
func (c *HTTPClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	var se *netx.StatusError
	if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
