package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// AuthGate tracks whether the widget has a valid upstream session. It never
// gates the counter pipeline: on failure it only shows a small connect
// affordance while the widget keeps rendering best-effort data.
type AuthGate struct {
	baseURL    string
	httpClient *http.Client
	port       PresentationPort
	clock      clockwork.Clock
	interval   time.Duration

	// onAuthenticated triggers a full data refresh of the counter pipeline.
	onAuthenticated func(ctx context.Context)

	mu            sync.Mutex
	authenticated bool
}

// NewAuthGate creates an auth gate polling baseURL every interval.
func NewAuthGate(baseURL string, port PresentationPort, clock clockwork.Clock, interval time.Duration, onAuthenticated func(ctx context.Context)) *AuthGate {
	return &AuthGate{
		baseURL:         baseURL,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		port:            port,
		clock:           clock,
		interval:        interval,
		onAuthenticated: onAuthenticated,
	}
}

// Authenticated reports the last known session state.
func (g *AuthGate) Authenticated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authenticated
}

// CheckSession fetches the session state once. Authenticated sessions
// trigger a refresh; anything else shows the connect affordance.
func (g *AuthGate) CheckSession(ctx context.Context) {
	authenticated, err := g.fetchStatus(ctx)
	if err != nil {
		slog.Warn("Auth status check failed", "error", err)
		g.setAuthenticated(ctx, false)
		return
	}
	g.setAuthenticated(ctx, authenticated)
}

// SignalAuthSuccess handles the out-of-band signal from a completed
// authorization flow: transition immediately without waiting for the next
// poll cycle.
func (g *AuthGate) SignalAuthSuccess(ctx context.Context) {
	g.setAuthenticated(ctx, true)
}

// Run re-checks the session on a background timer until ctx is cancelled.
func (g *AuthGate) Run(ctx context.Context) {
	ticker := g.clock.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			g.CheckSession(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (g *AuthGate) setAuthenticated(ctx context.Context, authenticated bool) {
	g.mu.Lock()
	was := g.authenticated
	g.authenticated = authenticated
	g.mu.Unlock()

	if authenticated {
		g.port.HideConnectPrompt()
		if !was && g.onAuthenticated != nil {
			g.onAuthenticated(ctx)
		}
		return
	}
	g.port.ShowConnectPrompt()
}

func (g *AuthGate) fetchStatus(ctx context.Context) (bool, error) {
	url := fmt.Sprintf("%s/api/auth-status?t=%d", g.baseURL, g.clock.Now().UnixMilli())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("auth status returned %d", resp.StatusCode)
	}

	var status struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false, err
	}

	return status.Authenticated, nil
}
