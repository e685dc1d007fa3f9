package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dweymouth/mediabridge/backend/bus"
	"github.com/r3labs/sse/v2"
	"gopkg.in/cenkalti/backoff.v1"
)

var ErrPingFail = errors.New("ping failed")

// reconnect attempts made by SubscribeControl before giving up
const maxStreamRetries = 3

type Client struct {
	httpC   *http.Client
	baseURL string
}

// Connect attempts to connect to the IPC socket as client.
func Connect() (*Client, error) {
	conn, err := Dial()
	if err != nil {
		return nil, err
	}
	conn.Close()

	client := newClient(&http.Client{
		Transport: &http.Transport{
			DialContext: func(_ context.Context, _, _ string) (net.Conn, error) {
				return Dial()
			},
		},
	}, baseURL)
	if err := client.Ping(); err != nil {
		slog.Debug("IPC ping failed", slog.String("stack", err.Error()))
		return nil, err
	}
	return client, nil
}

func newClient(httpC *http.Client, baseURL string) *Client {
	return &Client{httpC: httpC, baseURL: baseURL}
}

func (c *Client) Ping() error {
	if c.makeSimpleRequest(http.MethodGet, PingPath, nil) != nil {
		return ErrPingFail
	}
	return nil
}

// SendUpdate publishes u on the daemon's message bus.
func (c *Client) SendUpdate(u bus.UpdateMessage) error {
	b, err := bus.Encode(u)
	if err != nil {
		return err
	}
	return c.makeSimpleRequest(http.MethodPost, UpdatePath, b)
}

func (c *Client) Quit() error {
	return c.makeSimpleRequest(http.MethodPost, QuitPath, nil)
}

// SubscribeControl calls fn for every control event the daemon relays
// until ctx is done or the stream cannot be re-established.
func (c *Client) SubscribeControl(ctx context.Context, fn func(bus.ControlEvent)) error {
	sc := sse.NewClient(c.baseURL + EventsPath)
	sc.Connection = c.httpC
	sc.ReconnectStrategy = backoff.WithMaxTries(backoff.NewConstantBackOff(500*time.Millisecond), maxStreamRetries)

	err := sc.SubscribeWithContext(ctx, ControlStream, func(ev *sse.Event) {
		if len(ev.Data) == 0 {
			return
		}
		msg, err := bus.Decode(ev.Data)
		if err != nil {
			slog.Warn("Dropping malformed control event", slog.String("stack", err.Error()))
			return
		}
		if ce, ok := msg.(bus.ControlEvent); ok {
			fn(ce)
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (c *Client) makeSimpleRequest(method string, path string, body []byte) error {
	var resp *http.Response
	var err error
	switch method {
	case http.MethodGet:
		resp, err = c.httpC.Get(c.baseURL + path)
	case http.MethodPost:
		resp, err = c.httpC.Post(c.baseURL+path, "application/json", bytes.NewReader(body))
	default:
		return fmt.Errorf("unsupported method %s", method)
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var r Response
		json.NewDecoder(resp.Body).Decode(&r)
		if r.Error == "" {
			r.Error = resp.Status
		}
		return errors.New(r.Error)
	}
	return nil
}
