package streamlabs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/brockodle/twitchfollowergoal/internal/goal"
	"github.com/brockodle/twitchfollowergoal/internal/metrics"
)

const defaultSocketURL = "wss://sockets.streamlabs.com/socket.io/?token=%s&transport=websocket"

// ConnectionState describes the push feed connection lifecycle.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateClosing      ConnectionState = "closing"
)

// Conn is the subset of a websocket connection the socket client reads from.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer establishes socket connections. Swappable for tests.
type Dialer interface {
	DialContext(ctx context.Context, url string) (Conn, error)
}

type gorillaDialer struct{}

func (gorillaDialer) DialContext(ctx context.Context, rawURL string) (Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// UpdateSink consumes normalized follower updates. *goal.Counter satisfies it.
type UpdateSink interface {
	Apply(u goal.Update) (int, error)
}

// socketFrame is the recognized shape of an inbound event frame.
type socketFrame struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// SocketClient maintains the persistent Streamlabs socket subscription.
// It is a single-goroutine state machine: connect, read frames, and on
// closure schedule a reconnection after a fixed delay, retrying without
// bound. When no token can be obtained it does not connect at all and the
// system operates in poll-only mode.
type SocketClient struct {
	tokens         TokenSource
	sink           UpdateSink
	clock          clockwork.Clock
	dialer         Dialer
	socketURL      string
	reconnectDelay time.Duration

	mu    sync.RWMutex
	state ConnectionState
}

// NewSocketClient creates a socket client feeding the given sink.
func NewSocketClient(tokens TokenSource, sink UpdateSink, clock clockwork.Clock, reconnectDelay time.Duration) *SocketClient {
	return &SocketClient{
		tokens:         tokens,
		sink:           sink,
		clock:          clock,
		dialer:         gorillaDialer{},
		socketURL:      defaultSocketURL,
		reconnectDelay: reconnectDelay,
		state:          StateDisconnected,
	}
}

// State returns the current connection state.
func (c *SocketClient) State() ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *SocketClient) setState(s ConnectionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run drives the connection loop until ctx is cancelled. It blocks; callers
// run it in its own goroutine. Returns nil when skipping in degraded mode,
// otherwise the context error on shutdown.
func (c *SocketClient) Run(ctx context.Context) error {
	token, err := c.tokens.SocketToken(ctx)
	if err != nil {
		slog.Warn("No Streamlabs socket token available, skipping socket connection", "error", err)
		return nil
	}

	for {
		c.setState(StateConnecting)
		conn, err := c.dialer.DialContext(ctx, fmt.Sprintf(c.socketURL, token))
		if err != nil {
			slog.Error("Failed to connect to Streamlabs socket", "error", err)
			c.setState(StateDisconnected)
			if !c.waitReconnect(ctx) {
				return ctx.Err()
			}
			continue
		}

		slog.Info("Connected to Streamlabs socket")
		c.setState(StateConnected)
		metrics.SocketConnected.Set(1)

		c.readLoop(ctx, conn)

		metrics.SocketConnected.Set(0)
		if ctx.Err() != nil {
			c.setState(StateClosing)
			c.setState(StateDisconnected)
			return ctx.Err()
		}

		slog.Info("Streamlabs socket connection closed, scheduling reconnect", "delay", c.reconnectDelay)
		c.setState(StateDisconnected)
		if !c.waitReconnect(ctx) {
			return ctx.Err()
		}
	}
}

// waitReconnect sleeps for the reconnect delay. Returns false when ctx ended.
func (c *SocketClient) waitReconnect(ctx context.Context) bool {
	metrics.SocketReconnectsTotal.Inc()
	timer := c.clock.NewTimer(c.reconnectDelay)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return true
	case <-ctx.Done():
		return false
	}
}

// readLoop consumes frames until the connection drops or ctx is cancelled.
func (c *SocketClient) readLoop(ctx context.Context, conn Conn) {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return
		}
		c.handleFrame(data)
	}
}

// handleFrame parses one inbound frame. Frames that are not JSON (transport
// handshake noise) and unrecognized message kinds are ignored without error.
func (c *SocketClient) handleFrame(data []byte) {
	var frame socketFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		metrics.SocketFramesTotal.WithLabelValues("ignored").Inc()
		return
	}

	switch frame.Type {
	case "follow":
		count, _ := c.sink.Apply(goal.Update{
			Kind:      goal.KindIncrement,
			Source:    goal.SourcePush,
			Who:       frame.Name,
			Timestamp: c.clock.Now(),
		})
		metrics.SocketFramesTotal.WithLabelValues("follow").Inc()
		slog.Info("New follow detected", "follower", frame.Name, "count", count)
	case "unfollow":
		count, _ := c.sink.Apply(goal.Update{
			Kind:      goal.KindDecrement,
			Source:    goal.SourcePush,
			Who:       frame.Name,
			Timestamp: c.clock.Now(),
		})
		metrics.SocketFramesTotal.WithLabelValues("unfollow").Inc()
		slog.Info("Unfollow detected", "unfollower", frame.Name, "count", count)
	default:
		metrics.SocketFramesTotal.WithLabelValues("ignored").Inc()
	}
}
