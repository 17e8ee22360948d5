package harness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTransportsRunsInOrderWithCooldown(t *testing.T) {
	var order []string
	var times []time.Time
	cooldown := 30 * time.Millisecond
	start := time.Now()
	err := RunTransports(context.Background(), []string{"stdio", "sse", "streamable"}, cooldown,
		func(_ context.Context, target string) error {
			order = append(order, target)
			times = append(times, time.Now())
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"stdio", "sse", "streamable"}, order)
	assert.GreaterOrEqual(t, times[1].Sub(times[0]), cooldown)
	assert.GreaterOrEqual(t, times[2].Sub(times[1]), cooldown)
	// no pause after the last target
	assert.Less(t, time.Since(start), 3*cooldown+cooldown/2+time.Second/10)
}

func TestRunTransportsContinuesAfterFailure(t *testing.T) {
	var ran []string
	err := RunTransports(context.Background(), []string{"a", "b"}, 0, func(_ context.Context, target string) error {
		ran = append(ran, target)
		if target == "a" {
			return errors.New("a failed")
		}
		return nil
	})
	assert.EqualError(t, err, "a failed")
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestRunTransportsCancelDuringCooldown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ran []string
	start := time.Now()
	err := RunTransports(ctx, []string{"a", "b"}, time.Hour, func(_ context.Context, target string) error {
		ran = append(ran, target)
		cancel()
		return nil
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{"a"}, ran)
	assert.Less(t, time.Since(start), time.Second)
}
