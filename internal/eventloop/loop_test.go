package eventloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()

	loop := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return loop, cancel
}

func TestPostRunsInOrder(t *testing.T) {
	loop, _ := startLoop(t)

	var got []int
	for i := 0; i < 50; i++ {
		i := i
		require.True(t, loop.Post(func() { got = append(got, i) }))
	}
	require.NoError(t, loop.Do(context.Background(), func() {}))

	require.Len(t, got, 50)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestPostRejectedAfterShutdown(t *testing.T) {
	loop := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	require.NoError(t, loop.Do(context.Background(), func() {}))
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	require.False(t, loop.Post(func() {}))
	require.ErrorIs(t, loop.Do(context.Background(), func() {}), ErrStopped)
}

func TestRunTwiceFails(t *testing.T) {
	loop, _ := startLoop(t)
	require.NoError(t, loop.Do(context.Background(), func() {}))

	err := loop.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "already running")
}

func TestAfterFuncFiresOnLoop(t *testing.T) {
	loop, _ := startLoop(t)

	fired := make(chan struct{})
	loop.AfterFunc(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestTimerStopOnLoopPreventsRun(t *testing.T) {
	loop, _ := startLoop(t)

	var runs atomic.Int32
	var timer *Timer
	var stopped bool
	// The underlying timer expires while the loop is busy, so the task is
	// already queued when Stop runs.
	require.NoError(t, loop.Do(context.Background(), func() {
		timer = loop.AfterFunc(time.Millisecond, func() { runs.Add(1) })
		time.Sleep(20 * time.Millisecond)
		stopped = timer.Stop()
	}))
	require.True(t, stopped)
	require.NoError(t, loop.Do(context.Background(), func() {}))

	require.Equal(t, int32(0), runs.Load())
	require.False(t, timer.Stop())
}

func TestTimerStopAfterFireReportsFalse(t *testing.T) {
	loop, _ := startLoop(t)

	fired := make(chan struct{})
	timer := loop.AfterFunc(time.Millisecond, func() { close(fired) })
	<-fired
	require.NoError(t, loop.Do(context.Background(), func() {}))

	require.False(t, timer.Stop())
	var nilTimer *Timer
	require.False(t, nilTimer.Stop())
}
