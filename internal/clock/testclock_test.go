package clock_test

import (
	"testing"

	"github.com/rishav/algo-engine/internal/clock"
	"github.com/stretchr/testify/require"
)

func TestAdvanceTimeFiresInOrder(t *testing.T) {
	c := clock.NewTestClock()

	var fired []string
	c.SetTimeAlert("b", 200, func(name string, at int64) { fired = append(fired, name) })
	c.SetTimeAlert("a", 100, func(name string, at int64) { fired = append(fired, name) })
	c.SetTimeAlert("c", 200, func(name string, at int64) { fired = append(fired, name) })

	events := c.AdvanceTime(150)
	require.Len(t, events, 1)
	require.Equal(t, "a", events[0].Name)

	events = c.AdvanceTime(200)
	require.Len(t, events, 2)
	require.Equal(t, "b", events[0].Name)
	require.Equal(t, "c", events[1].Name)
	require.Equal(t, []string{"a", "b", "c"}, fired)
}

func TestAdvanceTimeNoNewTimersReturnsEmpty(t *testing.T) {
	c := clock.NewTestClock()
	c.SetTimeAlert("only", 10, func(string, int64) {})
	require.Len(t, c.AdvanceTime(10), 1)
	require.Empty(t, c.AdvanceTime(20))
	require.Empty(t, c.AdvanceTime(30))
}

func TestIntervalTimerRearms(t *testing.T) {
	c := clock.NewTestClock()
	count := 0
	c.SetTimer("heartbeat", 10, 10, 0, func(string, int64) { count++ })

	events := c.AdvanceTime(35)
	require.Equal(t, 3, count)
	require.Len(t, events, 3)
	for i, e := range events {
		require.Equal(t, int64(10*(i+1)), e.TriggerNs)
	}
}

func TestIntervalTimerRespectsStop(t *testing.T) {
	c := clock.NewTestClock()
	count := 0
	c.SetTimer("bounded", 10, 10, 20, func(string, int64) { count++ })

	c.AdvanceTime(100)
	require.Equal(t, 2, count)
}

func TestCancelTimerStopsFiring(t *testing.T) {
	c := clock.NewTestClock()
	count := 0
	c.SetTimer("cancellable", 10, 10, 0, func(string, int64) { count++ })
	c.AdvanceTime(10)
	require.Equal(t, 1, count)
	c.CancelTimer("cancellable")
	c.AdvanceTime(100)
	require.Equal(t, 1, count)
}
