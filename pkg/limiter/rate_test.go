package limiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/cccrawl/crawler/pkg/limiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestLimiter_AllowsBurstUpToCalls(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	l := limiter.New(limiter.Config{
		Calls:  3,
		Window: time.Second,
		Now:    clock.now,
		Sleeper: sleeperFunc(func(_ context.Context, d time.Duration) error {
			clock.advance(d)
			return nil
		}),
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
}

func TestLimiter_BlocksUntilWindowElapses(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	slept := time.Duration(0)
	l := limiter.New(limiter.Config{
		Calls:  1,
		Window: time.Second,
		Now:    clock.now,
		Sleeper: sleeperFunc(func(_ context.Context, d time.Duration) error {
			slept += d
			clock.advance(d)
			return nil
		}),
	})

	require.NoError(t, l.Wait(context.Background()))
	require.NoError(t, l.Wait(context.Background()))

	assert.GreaterOrEqual(t, slept, time.Second)
}

func TestLimiter_Unlimited(t *testing.T) {
	l := limiter.New(limiter.Config{Calls: 0})
	for i := 0; i < 1000; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
}

func TestLimiter_ContextCancellation(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	l := limiter.New(limiter.Config{
		Calls:  1,
		Window: time.Hour,
		Now:    clock.now,
		Sleeper: sleeperFunc(func(_ context.Context, d time.Duration) error {
			clock.advance(d)
			return nil
		}),
	})
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Wait(ctx)
	require.Error(t, err)
}

// TestLimiter_UnblocksPendingSleepOnCancellation exercises the real
// Sleeper (not a fake clock): a goroutine blocked inside Wait's sleep
// must return promptly once ctx is cancelled, not after the full
// window elapses. This is the defect the ctx-aware Sleeper contract
// exists to close.
func TestLimiter_UnblocksPendingSleepOnCancellation(t *testing.T) {
	l := limiter.New(limiter.Config{Calls: 1, Window: time.Hour})
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- l.Wait(ctx) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock within 1s of ctx cancellation, well under the 1h window")
	}
}

type sleeperFunc func(context.Context, time.Duration) error

func (f sleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }
