package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/brockodle/twitchfollowergoal/internal/goal"
)

// ErrFetchFailed marks transient poll failures: the counter is left
// untouched and the previously rendered projection stays visible.
var ErrFetchFailed = errors.New("failed to fetch follower data")

// ErrStalePoll marks a response that completed after a newer poll already
// applied. The response is dropped; nothing is wrong upstream.
var ErrStalePoll = errors.New("stale poll response discarded")

// followersPayload is the wire shape of /api/current-followers. The count
// is a pointer so a missing field is distinguishable from zero.
type followersPayload struct {
	FollowerCount *int    `json:"follower_count"`
	Target        int     `json:"target"`
	Percentage    float64 `json:"percentage"`
}

// Poller issues cache-busted reads of the backend follower resource and
// feeds SetAbsolute updates into the counter. Responses that complete
// after a newer poll has already been applied are discarded.
type Poller struct {
	baseURL    string
	httpClient *http.Client
	counter    *goal.Counter
	clock      clockwork.Clock

	mu      sync.Mutex
	issued  uint64
	applied uint64
	target  int
}

// NewPoller creates a poller for the backend at baseURL.
func NewPoller(baseURL string, counter *goal.Counter, clock clockwork.Clock) *Poller {
	return &Poller{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		counter:    counter,
		clock:      clock,
		target:     goal.DefaultTarget,
	}
}

// Target returns the goal target from the most recent successful poll.
func (p *Poller) Target() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

// Poll fetches the current follower count once. On success it applies a
// SetAbsolute update and returns the resulting projection. On failure it
// returns an error wrapping ErrFetchFailed and mutates nothing.
func (p *Poller) Poll(ctx context.Context) (goal.Projection, error) {
	p.mu.Lock()
	p.issued++
	seq := p.issued
	p.mu.Unlock()

	payload, err := p.fetch(ctx)
	if err != nil {
		return goal.Projection{}, err
	}

	// The stale check and the counter write share one critical section, so
	// an older response cannot slip in after a newer one passed the check.
	p.mu.Lock()
	if seq < p.applied {
		p.mu.Unlock()
		return goal.Projection{}, ErrStalePoll
	}
	p.applied = seq
	if payload.Target > 0 {
		p.target = payload.Target
	}
	target := p.target
	current, err := p.counter.Apply(goal.Update{
		Kind:      goal.KindSetAbsolute,
		Value:     *payload.FollowerCount,
		Source:    goal.SourcePoll,
		Timestamp: p.clock.Now(),
	})
	p.mu.Unlock()
	if err != nil {
		return goal.Projection{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	return goal.Project(current, target, "")
}

func (p *Poller) fetch(ctx context.Context) (*followersPayload, error) {
	// Cache-busting query parameter plus explicit no-cache headers.
	url := fmt.Sprintf("%s/api/current-followers?t=%d", p.baseURL, p.clock.Now().UnixMilli())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: backend returned status %d", ErrFetchFailed, resp.StatusCode)
	}

	var payload followersPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: malformed payload: %v", ErrFetchFailed, err)
	}
	if payload.FollowerCount == nil {
		return nil, fmt.Errorf("%w: payload missing follower_count", ErrFetchFailed)
	}

	return &payload, nil
}
