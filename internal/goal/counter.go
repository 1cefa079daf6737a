package goal

import (
	"errors"
	"sync"
	"time"

	"github.com/brockodle/twitchfollowergoal/internal/metrics"
)

var (
	// ErrInvalidCount is returned by SetAbsolute for negative values.
	ErrInvalidCount = errors.New("invalid follower count")
	// ErrInvalidTarget is returned by Project for non-positive targets.
	ErrInvalidTarget = errors.New("invalid goal target")
)

// UpdateKind describes how a follower update mutates the counter.
type UpdateKind string

const (
	KindIncrement   UpdateKind = "increment"
	KindDecrement   UpdateKind = "decrement"
	KindSetAbsolute UpdateKind = "set_absolute"
)

// UpdateSource identifies which feed produced a follower update.
type UpdateSource string

const (
	SourcePoll   UpdateSource = "poll"
	SourcePush   UpdateSource = "push"
	SourceManual UpdateSource = "manual"
)

// Update is a normalized follower count event. Adapters produce one per
// upstream occurrence; the counter consumes it exactly once.
type Update struct {
	Kind      UpdateKind
	Value     int // only meaningful for KindSetAbsolute
	Source    UpdateSource
	Who       string // follower identity when the upstream provides one
	Timestamp time.Time
}

// Listener is notified with the new count after every successful mutation.
type Listener func(count int)

// Counter is the process-wide authoritative follower count. All mutations
// go through its three operations and are atomic; the count never drops
// below zero.
type Counter struct {
	mu        sync.Mutex
	count     int
	listeners []Listener
}

// NewCounter creates a counter seeded with the given initial count.
// Negative seeds are clamped to zero.
func NewCounter(initial int) *Counter {
	if initial < 0 {
		initial = 0
	}
	return &Counter{count: initial}
}

// Subscribe registers a listener invoked after every successful mutation.
// Listeners are called synchronously in registration order, outside the
// counter lock, so a listener may read the counter again.
func (c *Counter) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Current returns the current count.
func (c *Counter) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Increment adds one follower and returns the new count.
func (c *Counter) Increment() int {
	c.mu.Lock()
	c.count++
	count := c.count
	listeners := c.listeners
	c.mu.Unlock()

	notify(listeners, count)
	return count
}

// Decrement removes one follower, clamping at zero, and returns the new count.
func (c *Counter) Decrement() int {
	c.mu.Lock()
	if c.count > 0 {
		c.count--
	}
	count := c.count
	listeners := c.listeners
	c.mu.Unlock()

	notify(listeners, count)
	return count
}

// SetAbsolute replaces the count. Negative values are rejected with
// ErrInvalidCount and leave the prior count unchanged.
func (c *Counter) SetAbsolute(n int) (int, error) {
	if n < 0 {
		return 0, ErrInvalidCount
	}

	c.mu.Lock()
	c.count = n
	count := c.count
	listeners := c.listeners
	c.mu.Unlock()

	notify(listeners, count)
	return count, nil
}

// Apply dispatches a normalized update to the matching operation and
// records the mutation in the follower update metrics.
func (c *Counter) Apply(u Update) (int, error) {
	var (
		count int
		err   error
	)

	switch u.Kind {
	case KindIncrement:
		count = c.Increment()
	case KindDecrement:
		count = c.Decrement()
	case KindSetAbsolute:
		count, err = c.SetAbsolute(u.Value)
	default:
		return c.Current(), nil
	}

	if err != nil {
		return count, err
	}

	metrics.FollowerUpdatesTotal.WithLabelValues(string(u.Kind), string(u.Source)).Inc()
	return count, nil
}

func notify(listeners []Listener, count int) {
	for _, l := range listeners {
		l(count)
	}
}
