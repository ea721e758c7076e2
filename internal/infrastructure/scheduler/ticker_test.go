package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobRunsOncePerInterval(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	ticks := make(chan struct{}, 8)

	s := NewTickerScheduler(5 * time.Millisecond)
	require.NoError(t, s.Start(context.Background(), func(time.Time) {
		fired.Add(1)
		ticks <- struct{}{}
	}))
	defer func() { _ = s.Stop(context.Background()) }()

	for i := 0; i < 3; i++ {
		select {
		case <-ticks:
		case <-time.After(time.Second):
			t.Fatal("job did not fire on schedule")
		}
	}
	assert.GreaterOrEqual(t, fired.Load(), int32(3))
}

func TestStopPreventsFurtherRuns(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32

	s := NewTickerScheduler(5 * time.Millisecond)
	require.NoError(t, s.Start(context.Background(), func(time.Time) {
		fired.Add(1)
	}))

	require.NoError(t, s.Stop(context.Background()))

	// A tick selected just before Stop may still be running; let it settle.
	time.Sleep(10 * time.Millisecond)
	settled := fired.Load()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, fired.Load(), "no tick may run past Stop")

	// Stopping twice is harmless.
	require.NoError(t, s.Stop(context.Background()))
}

func TestContextCancellationHaltsTicking(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	s := NewTickerScheduler(5 * time.Millisecond)
	require.NoError(t, s.Start(ctx, func(time.Time) {
		fired.Add(1)
	}))

	cancel()
	time.Sleep(10 * time.Millisecond)
	settled := fired.Load()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, fired.Load(), "no tick may run past context cancellation")
}
