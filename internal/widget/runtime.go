package widget

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/brockodle/twitchfollowergoal/internal/goal"
)

// GoalEvent is a push-side goal notification carrying a full snapshot, as
// delivered by overlay hosts on load and on live goal changes.
type GoalEvent struct {
	Title  string `json:"title"`
	Amount struct {
		Current int `json:"current"`
		Target  int `json:"target"`
	} `json:"amount"`
	ToGo struct {
		EndsAt string `json:"ends_at"`
	} `json:"to_go"`
}

// Runtime wires the counter, poller, auth gate and renderer into the
// widget's update loop. All render paths funnel through the same projection
// so push, poll and event-driven updates cannot disagree on presentation.
type Runtime struct {
	counter  *goal.Counter
	poller   *Poller
	gate     *AuthGate
	renderer *Renderer
	port     PresentationPort
	clock    clockwork.Clock
	interval time.Duration

	mu     sync.Mutex
	target int
	endsAt string
}

// NewRuntime creates a widget runtime polling baseURL every pollInterval and
// re-checking the session every authInterval.
func NewRuntime(baseURL string, counter *goal.Counter, port PresentationPort, clock clockwork.Clock, pollInterval, authInterval time.Duration) *Runtime {
	r := &Runtime{
		counter:  counter,
		poller:   NewPoller(baseURL, counter, clock),
		renderer: NewRenderer(port),
		port:     port,
		clock:    clock,
		interval: pollInterval,
		target:   goal.DefaultTarget,
	}
	r.gate = NewAuthGate(baseURL, port, clock, authInterval, func(ctx context.Context) {
		r.refresh(ctx)
	})
	counter.Subscribe(func(count int) {
		r.render(count)
	})
	return r
}

// Run drives the widget until ctx is cancelled: an initial loading state,
// a session check, then periodic polling with the auth gate in the
// background.
func (r *Runtime) Run(ctx context.Context) error {
	r.renderer.RenderLoading(r.target)
	r.gate.CheckSession(ctx)
	r.refresh(ctx)

	go r.gate.Run(ctx)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			r.refresh(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// InjectGoalEvent applies a pushed goal snapshot: title, deadline and target
// replace the live ones and the absolute count runs through the counter so
// subscribers observe it like any other update.
func (r *Runtime) InjectGoalEvent(ev GoalEvent) error {
	r.mu.Lock()
	if ev.Amount.Target > 0 {
		r.target = ev.Amount.Target
	}
	r.endsAt = ev.ToGo.EndsAt
	r.mu.Unlock()

	_, err := r.counter.Apply(goal.Update{
		Kind:   goal.KindSetAbsolute,
		Value:  ev.Amount.Current,
		Source: goal.SourcePush,
	})
	return err
}

// SignalAuthSuccess forwards the out-of-band authorization signal.
func (r *Runtime) SignalAuthSuccess(ctx context.Context) {
	r.gate.SignalAuthSuccess(ctx)
}

func (r *Runtime) refresh(ctx context.Context) {
	projection, err := r.poller.Poll(ctx)
	if err != nil {
		if errors.Is(err, ErrStalePoll) {
			// A newer poll already rendered; nothing to show.
			return
		}
		if errors.Is(err, ErrFetchFailed) {
			r.renderer.RenderError("Failed to fetch followers")
			return
		}
		slog.Warn("Widget refresh failed", "error", err)
		return
	}

	r.mu.Lock()
	r.target = projection.Target
	endsAt := r.endsAt
	r.mu.Unlock()

	if endsAt != "" {
		projection.EndsAt = endsAt
	}
	r.renderer.Render(projection)
}

func (r *Runtime) render(count int) {
	r.mu.Lock()
	target := r.target
	endsAt := r.endsAt
	r.mu.Unlock()

	projection, err := goal.Project(count, target, endsAt)
	if err != nil {
		slog.Error("Projection failed", "error", err, "count", count, "target", target)
		return
	}
	r.renderer.Render(projection)
}
