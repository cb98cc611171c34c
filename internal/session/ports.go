package session

import "context"

// Environment abstracts the host shell's platform capabilities so the
// controller is testable without a real browser. Implementations must not
// block: EnterFullscreen is a request, with the eventual state change
// reported back through a FullscreenChanged event.
type Environment interface {
	EnterFullscreen(ctx context.Context) error
	ExitFullscreen()
}

// Notifier surfaces candidate-visible notices (toasts in the reference
// shell). Implementations must be cheap and non-blocking.
type Notifier interface {
	Info(msg string)
	Success(msg string)
	Warn(msg, detail string)
	Error(msg, detail string)
}

// NopEnvironment is for hosts that manage fullscreen themselves.
type NopEnvironment struct{}

func (NopEnvironment) EnterFullscreen(context.Context) error { return nil }
func (NopEnvironment) ExitFullscreen()                       {}

// NopNotifier discards notices; hosts that render from controller state
// instead of toasts use this.
type NopNotifier struct{}

func (NopNotifier) Info(string)          {}
func (NopNotifier) Success(string)       {}
func (NopNotifier) Warn(string, string)  {}
func (NopNotifier) Error(string, string) {}
