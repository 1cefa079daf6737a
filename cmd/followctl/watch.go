package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/brockodle/twitchfollowergoal/internal/goal"
	"github.com/brockodle/twitchfollowergoal/internal/widget"
)

const (
	watchPollInterval = 30 * time.Second
	watchAuthInterval = 60 * time.Second
	watchRedialDelay  = 5 * time.Second
)

// termPort renders widget view state as terminal lines.
type termPort struct {
	mu sync.Mutex
}

func (p *termPort) Apply(v widget.ViewState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := fmt.Sprintf("%s  %s  %s/%s (%s)", v.Title, v.Subtitle, v.CurrentLabel, v.TargetLabel, v.PercentLabel)
	if v.EndDateLabel != "" {
		line += "  " + v.EndDateLabel
	}
	fmt.Println(line)
}

func (p *termPort) ShowFetchError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Println("! " + message)
}

func (p *termPort) ShowConnectPrompt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Println("! Streamlabs not connected: open /auth/streamlabs in a browser")
}

func (p *termPort) HideConnectPrompt() {}

// runWatch follows the goal live from the terminal: the widget runtime
// polls the backend while the websocket feed injects pushed snapshots.
func runWatch(baseURL string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	counter := goal.NewCounter(0)
	rt := widget.NewRuntime(baseURL, counter, &termPort{}, clockwork.NewRealClock(), watchPollInterval, watchAuthInterval)

	go watchFeed(ctx, wsURL(baseURL), rt)

	if err := rt.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func wsURL(baseURL string) string {
	url := baseURL
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + "/ws/widget"
}

// watchFeed consumes the backend's widget websocket and injects each
// pushed snapshot into the runtime, redialing on connection loss.
func watchFeed(ctx context.Context, url string, rt *widget.Runtime) {
	for {
		if err := readFeed(ctx, url, rt); err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Debug("Widget feed disconnected", "error", err)
		}

		select {
		case <-time.After(watchRedialDelay):
		case <-ctx.Done():
			return
		}
	}
}

func readFeed(ctx context.Context, url string, rt *widget.Runtime) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var snapshot struct {
			Current int    `json:"current"`
			Target  int    `json:"target"`
			EndsAt  string `json:"ends_at"`
		}
		if err := json.Unmarshal(data, &snapshot); err != nil {
			continue
		}

		var ev widget.GoalEvent
		ev.Amount.Current = snapshot.Current
		ev.Amount.Target = snapshot.Target
		ev.ToGo.EndsAt = snapshot.EndsAt
		if err := rt.InjectGoalEvent(ev); err != nil {
			slog.Warn("Rejected pushed goal snapshot", "error", err)
		}
	}
}
