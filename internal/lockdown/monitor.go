// Package lockdown classifies environmental signals during a proctored
// exam and escalates violations toward forced submission.
package lockdown

import (
	"sync"

	"github.com/rs/zerolog"
)

// Channel is an independently-tracked violation source.
type Channel string

const (
	ChannelFullscreen Channel = "fullscreen_exit"
	ChannelTabSwitch  Channel = "tab_switch"
)

const (
	fullscreenWarnNotice  = "Warning: you exited fullscreen mode! The test will be automatically submitted if you exit again."
	fullscreenForceNotice = "Test automatically submitted due to exiting fullscreen mode"
	tabSwitchWarnNotice   = "Warning: Tab switching detected! The test will be automatically submitted if you switch tabs again."
	tabSwitchForceNotice  = "Test submitted due to tab switching"
)

// Hooks are the monitor's outbound requests. The monitor never mutates
// session state directly; the controller acts on these. Hooks are invoked
// synchronously on the dispatching goroutine, without the monitor's lock
// held.
type Hooks struct {
	// Running is the phase guard; escalation only happens while it
	// reports true.
	Running func() bool
	// Warn surfaces the first violation on a channel.
	Warn func(ch Channel, notice string)
	// ForceSubmit fires on the second (and any later) violation.
	ForceSubmit func(ch Channel, notice string)
	// Notify surfaces non-fatal blocked-gesture notices.
	Notify func(notice string)
	// SaveNow requests an immediate checkpoint write.
	SaveNow func()
	// Online/Offline report network transitions.
	Online  func()
	Offline func()
	// Report feeds the optional proctor event stream.
	Report func(event string, ch Channel, count int)
}

// Monitor supervises fullscreen state, document visibility, window focus,
// input gestures and network status. Detection failures degrade to a
// disabled monitor, never a session failure.
type Monitor struct {
	hooks Hooks
	log   zerolog.Logger

	mu      sync.Mutex
	enabled bool
	counts  map[Channel]int
	warned  map[Channel]bool
}

func NewMonitor(hooks Hooks, log zerolog.Logger) *Monitor {
	return &Monitor{
		hooks:   hooks,
		log:     log.With().Str("component", "lockdown_monitor").Logger(),
		enabled: true,
		counts:  make(map[Channel]int),
		warned:  make(map[Channel]bool),
	}
}

// SetEnabled turns detection on or off. A host whose platform lacks the
// fullscreen or visibility APIs disables the monitor instead of failing.
func (m *Monitor) SetEnabled(enabled bool) {
	m.mu.Lock()
	m.enabled = enabled
	m.mu.Unlock()
	if !enabled {
		m.log.Warn().Msg("Lockdown monitor disabled")
	}
}

// Reset clears per-channel counters and warned flags. Called only when a
// new exam session starts, never mid-session.
func (m *Monitor) Reset() {
	m.mu.Lock()
	m.counts = make(map[Channel]int)
	m.warned = make(map[Channel]bool)
	m.mu.Unlock()
}

// Count returns the number of violations recorded on a channel.
func (m *Monitor) Count(ch Channel) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[ch]
}

// FullscreenChanged handles a fullscreen state transition. Leaving
// fullscreen while the exam runs is a violation.
func (m *Monitor) FullscreenChanged(active bool) {
	if active || !m.guard() {
		return
	}
	if m.hooks.SaveNow != nil {
		m.hooks.SaveNow()
	}
	m.violation(ChannelFullscreen, fullscreenWarnNotice, fullscreenForceNotice)
}

// VisibilityChanged handles the document becoming hidden or visible. Going
// hidden while the exam runs counts as a tab switch.
func (m *Monitor) VisibilityChanged(hidden bool) {
	if !hidden || !m.guard() {
		return
	}
	m.violation(ChannelTabSwitch, tabSwitchWarnNotice, tabSwitchForceNotice)
}

// FocusChanged is informational only: blur does not escalate.
func (m *Monitor) FocusChanged(focused bool) {
	if focused {
		m.log.Debug().Msg("Window gained focus")
		return
	}
	m.log.Debug().Msg("Window lost focus - possible tab switch")
}

// GesturePressed classifies an input gesture and reports whether the host
// must suppress it. Blocked gestures warn but never escalate.
func (m *Monitor) GesturePressed(g Gesture) bool {
	m.mu.Lock()
	enabled := m.enabled
	m.mu.Unlock()
	if !enabled {
		return false
	}

	blocked, notice := Blocked(g)
	if !blocked {
		return false
	}
	m.log.Debug().Str("kind", string(g.Kind)).Str("key", g.Key).Msg("Blocked gesture")
	if notice != "" && m.hooks.Notify != nil {
		m.hooks.Notify(notice)
	}
	if m.hooks.Report != nil {
		m.hooks.Report("blocked_gesture", "", 0)
	}
	return true
}

// NetworkChanged reports connectivity transitions to the controller.
func (m *Monitor) NetworkChanged(online bool) {
	if online {
		m.log.Info().Msg("Network restored")
		if m.hooks.Online != nil {
			m.hooks.Online()
		}
		return
	}
	m.log.Warn().Msg("Network lost")
	if m.hooks.Offline != nil {
		m.hooks.Offline()
	}
}

// guard reports whether violations may be recorded right now.
func (m *Monitor) guard() bool {
	m.mu.Lock()
	enabled := m.enabled
	m.mu.Unlock()
	if !enabled {
		return false
	}
	return m.hooks.Running == nil || m.hooks.Running()
}

func (m *Monitor) violation(ch Channel, warnNotice, forceNotice string) {
	m.mu.Lock()
	m.counts[ch]++
	count := m.counts[ch]
	first := !m.warned[ch]
	m.warned[ch] = true
	m.mu.Unlock()

	m.log.Warn().Str("channel", string(ch)).Int("count", count).Msg("Lockdown violation")
	if m.hooks.Report != nil {
		m.hooks.Report("violation", ch, count)
	}

	if first {
		if m.hooks.Warn != nil {
			m.hooks.Warn(ch, warnNotice)
		}
		return
	}
	if m.hooks.ForceSubmit != nil {
		m.hooks.ForceSubmit(ch, forceNotice)
	}
}
