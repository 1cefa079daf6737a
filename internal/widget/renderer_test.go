package widget

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brockodle/twitchfollowergoal/internal/goal"
)

type recordingPort struct {
	mu          sync.Mutex
	states      []ViewState
	fetchErrors []string
	showCalls   int
	hideCalls   int
}

func (p *recordingPort) Apply(v ViewState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, v)
}

func (p *recordingPort) ShowFetchError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetchErrors = append(p.fetchErrors, message)
}

func (p *recordingPort) ShowConnectPrompt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.showCalls++
}

func (p *recordingPort) HideConnectPrompt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hideCalls++
}

func (p *recordingPort) lastState(t *testing.T) ViewState {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.states)
	return p.states[len(p.states)-1]
}

func TestRenderer_SameProjectionRendersSameState(t *testing.T) {
	port := &recordingPort{}
	renderer := NewRenderer(port)

	projection, err := goal.Project(120, 200, "")
	require.NoError(t, err)

	renderer.Render(projection)
	renderer.Render(projection)

	require.Len(t, port.states, 2)
	assert.Equal(t, port.states[0], port.states[1])
}

func TestRenderer_BannerTitles(t *testing.T) {
	tests := []struct {
		name    string
		current int
		title   string
	}{
		{"normal", 40, "🎯 Follower Goal"},
		{"halfway", 110, "⚡ Halfway There! ⚡"},
		{"almost there", 160, "🔥 SO CLOSE! 🔥"},
		{"achieved", 200, "🎉 GOAL ACHIEVED! 🎉"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := &recordingPort{}
			projection, err := goal.Project(tt.current, 200, "")
			require.NoError(t, err)

			NewRenderer(port).Render(projection)

			assert.Equal(t, tt.title, port.lastState(t).Title)
		})
	}
}

func TestRenderer_ProgressClampedOverGoal(t *testing.T) {
	port := &recordingPort{}
	projection, err := goal.Project(250, 200, "")
	require.NoError(t, err)

	NewRenderer(port).Render(projection)

	state := port.lastState(t)
	assert.Equal(t, 100.0, state.ProgressPct)
	assert.Equal(t, "100%", state.PercentLabel)
	assert.True(t, state.Completed)
}

func TestRenderer_EndDateLabel(t *testing.T) {
	port := &recordingPort{}
	projection, err := goal.Project(10, 200, "2026-12-31")
	require.NoError(t, err)

	NewRenderer(port).Render(projection)

	assert.Equal(t, "Ends: 2026-12-31", port.lastState(t).EndDateLabel)
}

func TestRenderer_ErrorDoesNotTouchState(t *testing.T) {
	port := &recordingPort{}
	renderer := NewRenderer(port)

	projection, err := goal.Project(120, 200, "")
	require.NoError(t, err)
	renderer.Render(projection)
	renderer.RenderError("Failed to fetch followers")

	require.Len(t, port.states, 1)
	assert.Equal(t, []string{"Failed to fetch followers"}, port.fetchErrors)
}
