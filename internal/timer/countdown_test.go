package timer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type countdownRecorder struct {
	mu      sync.Mutex
	ticks   []int
	saves   int
	expires int
	done    chan struct{}
}

func newCountdownRecorder() *countdownRecorder {
	return &countdownRecorder{done: make(chan struct{})}
}

func (r *countdownRecorder) hooks() Hooks {
	return Hooks{
		OnTick: func(remaining int) {
			r.mu.Lock()
			r.ticks = append(r.ticks, remaining)
			r.mu.Unlock()
		},
		OnSave: func() {
			r.mu.Lock()
			r.saves++
			r.mu.Unlock()
		},
		OnExpire: func() {
			r.mu.Lock()
			r.expires++
			r.mu.Unlock()
			close(r.done)
		},
	}
}

func (r *countdownRecorder) waitExpiry(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not expire")
	}
}

func TestCountdownTicksDownAndExpiresOnce(t *testing.T) {
	rec := newCountdownRecorder()
	c := New(3, time.Millisecond, 10, rec.hooks(), zerolog.Nop())

	c.Start(context.Background())
	rec.waitExpiry(t)

	// Give any stray tick time to land; there must be none.
	time.Sleep(20 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Equal(t, []int{2, 1, 0}, rec.ticks)
	require.Equal(t, 1, rec.expires)
	require.Equal(t, 0, c.Remaining())
}

func TestCountdownRemainingIsMonotonic(t *testing.T) {
	rec := newCountdownRecorder()
	c := New(50, time.Millisecond, 10, rec.hooks(), zerolog.Nop())

	c.Start(context.Background())
	rec.waitExpiry(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.NotEmpty(t, rec.ticks)
	for i := 1; i < len(rec.ticks); i++ {
		require.Less(t, rec.ticks[i], rec.ticks[i-1])
	}
	require.Equal(t, 0, rec.ticks[len(rec.ticks)-1])
}

func TestCountdownSavesEveryNthTick(t *testing.T) {
	rec := newCountdownRecorder()
	c := New(25, time.Millisecond, 10, rec.hooks(), zerolog.Nop())

	c.Start(context.Background())
	rec.waitExpiry(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	// Ticks 10 and 20 out of 25.
	require.Equal(t, 2, rec.saves)
}

func TestCountdownZeroDurationExpiresImmediately(t *testing.T) {
	rec := newCountdownRecorder()
	c := New(0, time.Millisecond, 10, rec.hooks(), zerolog.Nop())

	c.Start(context.Background())
	rec.waitExpiry(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Empty(t, rec.ticks)
	require.Equal(t, 1, rec.expires)
}

func TestCountdownStopHaltsTicking(t *testing.T) {
	rec := newCountdownRecorder()
	c := New(10000, time.Millisecond, 10, rec.hooks(), zerolog.Nop())

	c.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	c.Stop()

	// One in-flight tick may still land after Stop; after that the
	// counter must hold still.
	time.Sleep(5 * time.Millisecond)
	first := c.Remaining()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, first, c.Remaining())
	require.Less(t, first, 10000)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Zero(t, rec.expires)
}

func TestCountdownDoubleStartIsNoop(t *testing.T) {
	rec := newCountdownRecorder()
	c := New(5, time.Millisecond, 10, rec.hooks(), zerolog.Nop())

	c.Start(context.Background())
	c.Start(context.Background())
	rec.waitExpiry(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	// A doubled loop would tick twice per interval and break the sequence.
	require.Equal(t, []int{4, 3, 2, 1, 0}, rec.ticks)
}
