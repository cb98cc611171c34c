package lockdown

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type hookRecorder struct {
	mu      sync.Mutex
	running bool

	warns    []Channel
	forces   []Channel
	notices  []string
	saves    int
	online   int
	offline  int
	reports  []string
}

func (r *hookRecorder) hooks() Hooks {
	return Hooks{
		Running: func() bool {
			r.mu.Lock()
			defer r.mu.Unlock()
			return r.running
		},
		Warn: func(ch Channel, notice string) {
			r.mu.Lock()
			r.warns = append(r.warns, ch)
			r.notices = append(r.notices, notice)
			r.mu.Unlock()
		},
		ForceSubmit: func(ch Channel, notice string) {
			r.mu.Lock()
			r.forces = append(r.forces, ch)
			r.notices = append(r.notices, notice)
			r.mu.Unlock()
		},
		Notify: func(notice string) {
			r.mu.Lock()
			r.notices = append(r.notices, notice)
			r.mu.Unlock()
		},
		SaveNow: func() {
			r.mu.Lock()
			r.saves++
			r.mu.Unlock()
		},
		Online: func() {
			r.mu.Lock()
			r.online++
			r.mu.Unlock()
		},
		Offline: func() {
			r.mu.Lock()
			r.offline++
			r.mu.Unlock()
		},
		Report: func(event string, ch Channel, count int) {
			r.mu.Lock()
			r.reports = append(r.reports, event)
			r.mu.Unlock()
		},
	}
}

func newTestMonitor(running bool) (*Monitor, *hookRecorder) {
	rec := &hookRecorder{running: running}
	return NewMonitor(rec.hooks(), zerolog.Nop()), rec
}

func TestMonitorWarnsThenForcesPerChannel(t *testing.T) {
	m, rec := newTestMonitor(true)

	m.VisibilityChanged(true)
	require.Equal(t, []Channel{ChannelTabSwitch}, rec.warns)
	require.Empty(t, rec.forces)
	require.Equal(t, 1, m.Count(ChannelTabSwitch))

	m.VisibilityChanged(true)
	require.Equal(t, []Channel{ChannelTabSwitch}, rec.warns)
	require.Equal(t, []Channel{ChannelTabSwitch}, rec.forces)
	require.Equal(t, 2, m.Count(ChannelTabSwitch))

	// Both violations went out on the proctor stream.
	require.Equal(t, []string{"violation", "violation"}, rec.reports)
}

func TestMonitorChannelsEscalateIndependently(t *testing.T) {
	m, rec := newTestMonitor(true)

	m.VisibilityChanged(true)
	m.FullscreenChanged(false)

	// One warning on each channel, no force yet.
	require.ElementsMatch(t, []Channel{ChannelTabSwitch, ChannelFullscreen}, rec.warns)
	require.Empty(t, rec.forces)

	m.FullscreenChanged(false)
	require.Equal(t, []Channel{ChannelFullscreen}, rec.forces)
	require.Equal(t, 2, m.Count(ChannelFullscreen))
	require.Equal(t, 1, m.Count(ChannelTabSwitch))
}

func TestMonitorFullscreenExitSavesFirst(t *testing.T) {
	m, rec := newTestMonitor(true)

	m.FullscreenChanged(false)
	require.Equal(t, 1, rec.saves)

	// Re-entering fullscreen is not a violation and saves nothing.
	m.FullscreenChanged(true)
	require.Equal(t, 1, rec.saves)
	require.Equal(t, 1, m.Count(ChannelFullscreen))
}

func TestMonitorBecomingVisibleIsNotAViolation(t *testing.T) {
	m, rec := newTestMonitor(true)

	m.VisibilityChanged(false)
	require.Empty(t, rec.warns)
	require.Zero(t, m.Count(ChannelTabSwitch))
}

func TestMonitorIgnoresViolationsWhenNotRunning(t *testing.T) {
	m, rec := newTestMonitor(false)

	m.VisibilityChanged(true)
	m.FullscreenChanged(false)
	require.Empty(t, rec.warns)
	require.Empty(t, rec.forces)
	require.Zero(t, rec.saves)
}

func TestMonitorDisabledIgnoresEverything(t *testing.T) {
	m, rec := newTestMonitor(true)
	m.SetEnabled(false)

	m.VisibilityChanged(true)
	m.FullscreenChanged(false)
	require.False(t, m.GesturePressed(Gesture{Kind: GestureKey, Key: "c", Ctrl: true}))
	require.Empty(t, rec.warns)
	require.Empty(t, rec.notices)
}

func TestMonitorResetClearsEscalation(t *testing.T) {
	m, rec := newTestMonitor(true)

	m.VisibilityChanged(true)
	m.Reset()
	m.VisibilityChanged(true)

	// Still only warnings; the second session starts from a clean slate.
	require.Equal(t, []Channel{ChannelTabSwitch, ChannelTabSwitch}, rec.warns)
	require.Empty(t, rec.forces)
	require.Equal(t, 1, m.Count(ChannelTabSwitch))
}

func TestMonitorFocusChangesNeverEscalate(t *testing.T) {
	m, rec := newTestMonitor(true)

	m.FocusChanged(false)
	m.FocusChanged(false)
	m.FocusChanged(true)
	require.Empty(t, rec.warns)
	require.Empty(t, rec.forces)
}

func TestMonitorNetworkTransitions(t *testing.T) {
	m, rec := newTestMonitor(true)

	m.NetworkChanged(false)
	m.NetworkChanged(true)
	require.Equal(t, 1, rec.offline)
	require.Equal(t, 1, rec.online)
}

func TestMonitorGestureSuppression(t *testing.T) {
	m, rec := newTestMonitor(true)

	cases := []struct {
		name    string
		g       Gesture
		blocked bool
		notice  string
	}{
		{"copy", Gesture{Kind: GestureKey, Key: "c", Ctrl: true}, true, "This action is not allowed during the test"},
		{"paste", Gesture{Kind: GestureKey, Key: "v", Ctrl: true}, true, "This action is not allowed during the test"},
		{"save", Gesture{Kind: GestureKey, Key: "s", Ctrl: true}, true, "This action is not allowed during the test"},
		{"devtools f12", Gesture{Kind: GestureKey, Key: "F12"}, true, "Developer tools are disabled during the test"},
		{"devtools inspect", Gesture{Kind: GestureKey, Key: "I", Ctrl: true, Shift: true}, true, "Developer tools are disabled during the test"},
		{"view source", Gesture{Kind: GestureKey, Key: "u", Ctrl: true}, true, "Developer tools are disabled during the test"},
		{"print screen", Gesture{Kind: GestureKey, Key: "PrintScreen"}, true, "Screenshots are not allowed during the test"},
		{"context menu", Gesture{Kind: GestureContextMenu}, true, "Right-click is disabled during the test"},
		{"select is silent", Gesture{Kind: GestureSelect}, true, ""},
		{"drag is silent", Gesture{Kind: GestureDrag}, true, ""},
		{"plain typing", Gesture{Kind: GestureKey, Key: "c"}, false, ""},
		{"ctrl+z allowed", Gesture{Kind: GestureKey, Key: "z", Ctrl: true}, false, ""},
		{"ctrl+shift+x allowed", Gesture{Kind: GestureKey, Key: "x", Ctrl: true, Shift: true}, false, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec.mu.Lock()
			rec.notices = nil
			rec.mu.Unlock()

			require.Equal(t, tc.blocked, m.GesturePressed(tc.g))

			rec.mu.Lock()
			defer rec.mu.Unlock()
			if tc.notice == "" {
				require.Empty(t, rec.notices)
			} else {
				require.Equal(t, []string{tc.notice}, rec.notices)
			}
		})
	}

	// Blocked gestures never escalate toward submission.
	require.Empty(t, rec.warns)
	require.Empty(t, rec.forces)
}
