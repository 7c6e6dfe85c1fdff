package throttler_test

import (
	"testing"

	"github.com/rishav/algo-engine/internal/clock"
	"github.com/rishav/algo-engine/internal/throttler"
	"github.com/stretchr/testify/require"
)

func TestThrottlerBurst(t *testing.T) {
	clk := clock.NewTestClock()
	var received []int
	th := throttler.New[int](throttler.Config{
		Name: "test", Limit: 5, IntervalNs: 1_000_000_000, Clock: clk,
	}, func(item int) { received = append(received, item) }, nil)

	for i := 1; i <= 6; i++ {
		th.Send(i)
	}

	require.Equal(t, []int{1, 2, 3, 4, 5}, received)
	require.Equal(t, 1, th.QSize())
	require.True(t, th.IsThrottling())
	require.True(t, th.IsActive())

	clk.AdvanceTime(1_000_000_000)

	require.Equal(t, []int{1, 2, 3, 4, 5, 6}, received)
	require.Equal(t, 0, th.QSize())
	require.False(t, th.IsThrottling())
}

func TestThrottlerNoDuplicatesOrDrops(t *testing.T) {
	clk := clock.NewTestClock()
	var received []int
	th := throttler.New[int](throttler.Config{
		Name: "t2", Limit: 2, IntervalNs: 10, Clock: clk,
	}, func(item int) { received = append(received, item) }, nil)

	for i := 1; i <= 9; i++ {
		th.Send(i)
	}
	for round := 0; round < 5 && len(received) < 9; round++ {
		clk.AdvanceTime(clk.TimestampNs() + 10)
	}

	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, received)
}

func TestThrottlerErrorPropagatesSynchronously(t *testing.T) {
	clk := clock.NewTestClock()
	th := throttler.New[int](throttler.Config{
		Name: "t3", Limit: 1, IntervalNs: 10, Clock: clk,
	}, func(item int) { panic(assertErr{}) }, nil)

	require.Panics(t, func() { th.Send(1) })
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
