// Package timer provides the cancellable exam countdown.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Hooks receive countdown callbacks. They are invoked from the countdown's
// own goroutine and must not call back into Stop.
type Hooks struct {
	// OnTick fires once per interval with the new remaining value.
	OnTick func(remaining int)
	// OnExpire fires exactly once, when remaining reaches zero.
	OnExpire func()
	// OnSave fires every Nth tick to request a checkpoint write.
	OnSave func()
}

// Countdown decrements a remaining-seconds counter once per interval and
// fires expiry exactly once, after which it stops ticking. A non-positive
// initial duration expires immediately.
type Countdown struct {
	interval  time.Duration
	saveEvery int
	hooks     Hooks
	log       zerolog.Logger

	mu        sync.Mutex
	remaining int
	expired   bool
	cancel    context.CancelFunc
}

// New builds a countdown for the given duration in seconds. interval is the
// tick period (one second in production) and saveEvery the checkpoint
// cadence in ticks.
func New(seconds int, interval time.Duration, saveEvery int, hooks Hooks, log zerolog.Logger) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	if saveEvery <= 0 {
		saveEvery = 10
	}
	return &Countdown{
		interval:  interval,
		saveEvery: saveEvery,
		hooks:     hooks,
		log:       log.With().Str("component", "countdown").Logger(),
		remaining: seconds,
	}
}

// Remaining returns the current counter value.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Start launches the tick loop. Starting an already-started or expired
// countdown is a no-op. Immediate expiry (non-positive duration) is
// delivered asynchronously so callers can Start while holding locks.
func (c *Countdown) Start(ctx context.Context) {
	c.mu.Lock()
	if c.cancel != nil || c.expired {
		c.mu.Unlock()
		return
	}
	if c.remaining <= 0 {
		c.remaining = 0
		c.expired = true
		c.mu.Unlock()
		if c.hooks.OnExpire != nil {
			go c.hooks.OnExpire()
		}
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(ctx)
}

// Stop cancels the tick loop. It does not wait for the loop goroutine: a
// tick already in flight may still be delivered once, so consumers guard
// tick handling on their own running state.
func (c *Countdown) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Countdown) run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ticks++

			c.mu.Lock()
			if c.expired {
				c.mu.Unlock()
				return
			}
			c.remaining--
			if c.remaining <= 0 {
				c.remaining = 0
				c.expired = true
			}
			remaining := c.remaining
			expired := c.expired
			c.mu.Unlock()

			if c.hooks.OnTick != nil {
				c.hooks.OnTick(remaining)
			}
			if ticks%c.saveEvery == 0 && c.hooks.OnSave != nil {
				c.hooks.OnSave()
			}
			if expired {
				c.log.Debug().Msg("Countdown expired")
				if c.hooks.OnExpire != nil {
					c.hooks.OnExpire()
				}
				return
			}
		}
	}
}
