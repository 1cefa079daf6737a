package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brockodle/twitchfollowergoal/internal/goal"
	"github.com/brockodle/twitchfollowergoal/internal/widget"
)

var _ widget.PresentationPort = (*termPort)(nil)

type capturePort struct {
	mu     sync.Mutex
	states []widget.ViewState
}

func (p *capturePort) Apply(v widget.ViewState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, v)
}

func (p *capturePort) ShowFetchError(string) {}
func (p *capturePort) ShowConnectPrompt()    {}
func (p *capturePort) HideConnectPrompt()    {}

func TestWsURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:3000/ws/widget", wsURL("http://localhost:3000"))
	assert.Equal(t, "wss://goal.example.com/ws/widget", wsURL("https://goal.example.com"))
}

func TestReadFeedInjectsSnapshots(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		msg := []byte(`{"current": 150, "target": 300, "ends_at": "2026-12-31", "percentage": 50}`)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, msg))
	}))
	defer server.Close()

	port := &capturePort{}
	counter := goal.NewCounter(0)
	rt := widget.NewRuntime(server.URL, counter, port, clockwork.NewRealClock(), time.Minute, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Returns once the server closes the connection after one snapshot.
	_ = readFeed(ctx, wsURL(server.URL), rt)

	assert.Equal(t, 150, counter.Current())
	port.mu.Lock()
	defer port.mu.Unlock()
	require.NotEmpty(t, port.states)
	last := port.states[len(port.states)-1]
	assert.Equal(t, "150", last.CurrentLabel)
	assert.Equal(t, "300", last.TargetLabel)
	assert.Equal(t, "Ends: 2026-12-31", last.EndDateLabel)
}
