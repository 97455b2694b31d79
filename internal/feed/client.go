package feed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeWait = 10 * time.Second

// Handler receives decoded events in arrival order.
type Handler func(Event)

// Stats counts connection activity.
type Stats struct {
	Connects uint64 `json:"connects"`
	Events   uint64 `json:"events"`
	Dropped  uint64 `json:"dropped"`
	Pings    uint64 `json:"pings"`
}

// Client maintains a feed connection.
type Client struct {
	url       string
	reconnect time.Duration
	keepalive time.Duration
	dialer    *websocket.Dialer
	log       zerolog.Logger
	now       func() time.Time

	connects atomic.Uint64
	events   atomic.Uint64
	dropped  atomic.Uint64
	pings    atomic.Uint64
}

// SessionURL builds the feed endpoint for a session from the feed base URL.
func SessionURL(base, sessionID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse feed url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("feed url %q must use ws or wss", base)
	}
	if sessionID == "" {
		return "", fmt.Errorf("feed requires a session id")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/inspection/" + url.PathEscape(sessionID)
	return u.String(), nil
}

// NewClient returns a client for the given endpoint. Zero durations fall
// back to 2s reconnect delay and 30s keepalive.
func NewClient(endpoint string, reconnect, keepalive time.Duration, logger zerolog.Logger) *Client {
	if reconnect <= 0 {
		reconnect = 2 * time.Second
	}
	if keepalive <= 0 {
		keepalive = 30 * time.Second
	}
	return &Client{
		url:       endpoint,
		reconnect: reconnect,
		keepalive: keepalive,
		dialer:    websocket.DefaultDialer,
		log:       logger.With().Str("component", "feed").Logger(),
		now:       time.Now,
	}
}

// Stats returns a snapshot of the counters.
func (c *Client) Stats() Stats {
	return Stats{
		Connects: c.connects.Load(),
		Events:   c.events.Load(),
		Dropped:  c.dropped.Load(),
		Pings:    c.pings.Load(),
	}
}

// Run connects and delivers events to handle until ctx is cancelled. Every
// close or dial failure is followed by the reconnect delay and a new
// attempt. Run returns nil once ctx is done.
func (c *Client) Run(ctx context.Context, handle Handler) error {
	for {
		err := c.session(ctx, handle)
		if ctx.Err() != nil {
			return nil
		}
		c.log.Warn().Err(err).Dur("retry_in", c.reconnect).Msg("event feed disconnected")

		t := time.NewTimer(c.reconnect)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func (c *Client) session(ctx context.Context, handle Handler) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial feed: %w", err)
	}
	defer conn.Close()
	c.connects.Add(1)
	c.log.Info().Str("url", c.url).Msg("event feed connected")

	done := make(chan struct{})
	defer close(done)
	go c.keepAlive(ctx, conn, done)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.New("feed closed by server")
			}
			return fmt.Errorf("read feed: %w", err)
		}
		ev, ok := Decode(msg)
		if !ok {
			if s := strings.TrimSpace(string(msg)); s != Ping && s != Pong {
				c.dropped.Add(1)
				c.log.Debug().Int("bytes", len(msg)).Msg("dropped malformed feed frame")
			}
			continue
		}
		ev.Received = c.now()
		c.events.Add(1)
		handle(ev)
	}
}

// keepAlive sends a ping on every tick and closes the connection when ctx
// ends or a write fails, which unblocks the reader.
func (c *Client) keepAlive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.keepalive)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = conn.Close()
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(Ping)); err != nil {
				c.log.Debug().Err(err).Msg("keepalive write failed")
				_ = conn.Close()
				return
			}
			c.pings.Add(1)
		}
	}
}
