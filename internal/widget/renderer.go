package widget

import (
	"fmt"
	"math"

	"github.com/brockodle/twitchfollowergoal/internal/goal"
)

// ViewState is everything the presentation layer needs to paint the widget.
// It is derived wholesale from a projection; no incremental diff state.
type ViewState struct {
	Title        string
	Subtitle     string
	ProgressPct  float64 // clamped to [0,100]
	PercentLabel string
	CurrentLabel string
	TargetLabel  string
	EndDateLabel string
	Completed    bool
}

// PresentationPort is the seam between the widget runtime and the host UI.
type PresentationPort interface {
	Apply(ViewState)
	ShowFetchError(message string)
	ShowConnectPrompt()
	HideConnectPrompt()
}

// Renderer turns projections into view state and applies them to the port.
// Rendering the same projection twice produces the same visible state.
type Renderer struct {
	port PresentationPort
}

// NewRenderer creates a renderer painting through the given port.
func NewRenderer(port PresentationPort) *Renderer {
	return &Renderer{port: port}
}

// Render applies a projection to the presentation port.
func (r *Renderer) Render(p goal.Projection) {
	r.port.Apply(viewState(p))
}

// RenderError shows a transient fetch error without touching the last
// rendered projection.
func (r *Renderer) RenderError(message string) {
	r.port.ShowFetchError(message)
}

// RenderLoading paints the initial placeholder before the first poll lands.
func (r *Renderer) RenderLoading(target int) {
	r.port.Apply(ViewState{
		Title:        "🎯 Loading...",
		Subtitle:     "Fetching your followers!",
		ProgressPct:  0,
		PercentLabel: "0%",
		CurrentLabel: "0",
		TargetLabel:  fmt.Sprintf("%d", target),
	})
}

func viewState(p goal.Projection) ViewState {
	pct := p.Percentage
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	v := ViewState{
		ProgressPct:  pct,
		PercentLabel: fmt.Sprintf("%d%%", int(math.Round(pct))),
		CurrentLabel: fmt.Sprintf("%d", p.Current),
		TargetLabel:  fmt.Sprintf("%d", p.Target),
		Completed:    p.Achieved,
	}

	if p.EndsAt != "" {
		v.EndDateLabel = fmt.Sprintf("Ends: %s", p.EndsAt)
	}

	switch p.Banner {
	case goal.BannerAchieved:
		v.Title = "🎉 GOAL ACHIEVED! 🎉"
		v.Subtitle = fmt.Sprintf("%d followers!", p.Current)
	case goal.BannerAlmostThere:
		v.Title = "🔥 SO CLOSE! 🔥"
		v.Subtitle = fmt.Sprintf("%d follows to go!", p.Remaining)
	case goal.BannerHalfway:
		v.Title = "⚡ Halfway There! ⚡"
		v.Subtitle = fmt.Sprintf("%d follows to go!", p.Remaining)
	default:
		v.Title = fmt.Sprintf("%s Follower Goal", tierEmoji(p.Tier))
		v.Subtitle = fmt.Sprintf("%d follows to go!", p.Remaining)
	}

	return v
}

func tierEmoji(t goal.Tier) string {
	switch t {
	case goal.TierUrgent:
		return "🔥"
	case goal.TierClose:
		return "⚡"
	default:
		return "🎯"
	}
}
