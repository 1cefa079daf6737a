package goal

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brockodle/twitchfollowergoal/internal/metrics"
)

func TestCounter_IncrementDecrement(t *testing.T) {
	c := NewCounter(0)

	assert.Equal(t, 1, c.Increment())
	assert.Equal(t, 2, c.Increment())
	assert.Equal(t, 1, c.Decrement())
	assert.Equal(t, 0, c.Decrement())
}

func TestCounter_DecrementNeverGoesNegative(t *testing.T) {
	c := NewCounter(0)

	assert.Equal(t, 0, c.Decrement())
	assert.Equal(t, 0, c.Decrement())
	assert.Equal(t, 0, c.Current())
}

func TestCounter_NegativeSeedClampedToZero(t *testing.T) {
	c := NewCounter(-5)
	assert.Equal(t, 0, c.Current())
}

func TestCounter_SetAbsolute(t *testing.T) {
	c := NewCounter(15)

	count, err := c.SetAbsolute(47)
	require.NoError(t, err)
	assert.Equal(t, 47, count)
	assert.Equal(t, 47, c.Current())
}

func TestCounter_SetAbsoluteRejectsNegative(t *testing.T) {
	c := NewCounter(15)

	_, err := c.SetAbsolute(-1)
	assert.ErrorIs(t, err, ErrInvalidCount)
	assert.Equal(t, 15, c.Current(), "failed set must leave prior count unchanged")
}

func TestCounter_NotifiesListenersInOrder(t *testing.T) {
	c := NewCounter(0)

	var seen []int
	c.Subscribe(func(count int) { seen = append(seen, count) })

	c.Increment()
	c.Increment()
	_, err := c.SetAbsolute(10)
	require.NoError(t, err)
	c.Decrement()

	assert.Equal(t, []int{1, 2, 10, 9}, seen)
}

func TestCounter_NoNotificationOnRejectedSet(t *testing.T) {
	c := NewCounter(5)

	notified := 0
	c.Subscribe(func(int) { notified++ })

	_, err := c.SetAbsolute(-3)
	require.Error(t, err)
	assert.Zero(t, notified)
}

func TestCounter_ApplyRecordsUpdateMetrics(t *testing.T) {
	c := NewCounter(0)

	before := testutil.ToFloat64(metrics.FollowerUpdatesTotal.WithLabelValues("increment", "push"))
	_, err := c.Apply(Update{Kind: KindIncrement, Source: SourcePush})
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.FollowerUpdatesTotal.WithLabelValues("increment", "push")))

	// Rejected mutations are not counted
	before = testutil.ToFloat64(metrics.FollowerUpdatesTotal.WithLabelValues("set_absolute", "manual"))
	_, err = c.Apply(Update{Kind: KindSetAbsolute, Value: -1, Source: SourceManual})
	require.ErrorIs(t, err, ErrInvalidCount)
	assert.Equal(t, before, testutil.ToFloat64(metrics.FollowerUpdatesTotal.WithLabelValues("set_absolute", "manual")))
}

func TestCounter_Apply(t *testing.T) {
	c := NewCounter(0)

	count, err := c.Apply(Update{Kind: KindIncrement, Source: SourcePush, Who: "viewer1"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = c.Apply(Update{Kind: KindSetAbsolute, Value: 42, Source: SourcePoll})
	require.NoError(t, err)
	assert.Equal(t, 42, count)

	count, err = c.Apply(Update{Kind: KindDecrement, Source: SourcePush})
	require.NoError(t, err)
	assert.Equal(t, 41, count)

	_, err = c.Apply(Update{Kind: KindSetAbsolute, Value: -1, Source: SourceManual})
	assert.ErrorIs(t, err, ErrInvalidCount)
	assert.Equal(t, 41, c.Current())
}
