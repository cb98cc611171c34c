// Package session implements the proctored exam session controller: one
// stateful unit composing the countdown timer, lockdown monitor, checkpoint
// store and submission gate behind a single serialized dispatch loop.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prasanth-t0205/quiz-compiler/internal/checkpoint"
	"github.com/prasanth-t0205/quiz-compiler/internal/client"
	"github.com/prasanth-t0205/quiz-compiler/internal/config"
	"github.com/prasanth-t0205/quiz-compiler/internal/gate"
	"github.com/prasanth-t0205/quiz-compiler/internal/lockdown"
	"github.com/prasanth-t0205/quiz-compiler/internal/model"
	"github.com/prasanth-t0205/quiz-compiler/internal/reporter"
	"github.com/prasanth-t0205/quiz-compiler/internal/timer"
)

// Backend groups the API capabilities the controller consumes.
type Backend interface {
	FetchTestForTaking(ctx context.Context, testID string) (*model.Test, error)
	gate.Submitter
}

// Deps are the controller's constructor-injected collaborators.
type Deps struct {
	Backend     Backend
	Checkpoints checkpoint.Store
	Env         Environment
	Notifier    Notifier
	Reporter    *reporter.Reporter // optional
	Config      *config.Config
	Log         zerolog.Logger

	// UserAgent identifies the client in submissions.
	UserAgent string
	// TickInterval overrides the countdown tick period; zero means one
	// second. Tests use a short interval.
	TickInterval time.Duration
}

// Controller owns one ExamSession for the lifetime of an attempt. All
// mutation happens on the dispatching goroutine's behalf under one mutex,
// so events from the timer, the monitor and the host are serialized.
type Controller struct {
	mu   sync.Mutex
	deps Deps
	log  zerolog.Logger

	test      *model.Test
	sess      *model.ExamSession
	monitor   *lockdown.Monitor
	gate      *gate.Gate
	countdown *timer.Countdown

	runCancel context.CancelFunc
	grace     []*time.Timer
	online    bool
	receipt   *model.Receipt
}

// New builds a controller. Bootstrap must be called before dispatching.
func New(deps Deps) *Controller {
	if deps.Env == nil {
		deps.Env = NopEnvironment{}
	}
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}
	if deps.Checkpoints == nil {
		deps.Checkpoints = checkpoint.NewMemoryStore(nil)
	}
	if deps.Config == nil {
		deps.Config = config.Load()
	}
	if deps.TickInterval <= 0 {
		deps.TickInterval = time.Second
	}
	if deps.UserAgent == "" {
		deps.UserAgent = "quiz-compiler-client/1.0"
	}

	c := &Controller{
		deps:   deps,
		log:    deps.Log.With().Str("component", "session_controller").Logger(),
		online: true,
	}

	// Monitor hooks run on the dispatching goroutine with the controller
	// lock already held, so they read and mutate session state directly.
	c.monitor = lockdown.NewMonitor(lockdown.Hooks{
		Running:     func() bool { return c.sess != nil && c.sess.Phase == model.PhaseRunning },
		Warn:        c.onViolationWarn,
		ForceSubmit: c.onViolationForce,
		Notify:      func(notice string) { c.deps.Notifier.Error(notice, "") },
		SaveNow:     c.saveLocked,
		Online:      c.onOnline,
		Offline:     c.onOffline,
		Report:      c.reportViolation,
	}, deps.Log)

	return c
}

// Bootstrap fetches the test, restores any live checkpoint, and leaves the
// session in AwaitingFullscreen (fresh) or Running (resumed). Load failures
// are fatal: the session never starts.
func (c *Controller) Bootstrap(ctx context.Context, testID string) error {
	test, err := c.deps.Backend.FetchTestForTaking(ctx, testID)
	if err != nil {
		return fmt.Errorf("load test: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.test = test
	c.sess = model.NewExamSession(test)
	c.gate = gate.New(c.deps.Backend, c.deps.Config.SubmitTimeout, c.deps.Log)
	c.monitor.Reset()

	// The proctor stream outlives Running so terminal events still go
	// out; the host owns its final Stop.
	if c.deps.Reporter != nil {
		c.deps.Reporter.Start(context.Background())
	}

	snap, err := c.deps.Checkpoints.Load(ctx, testID)
	if err != nil {
		// A corrupt or unreadable checkpoint degrades to a fresh start.
		c.log.Warn().Err(err).Str("test_id", testID).Msg("Checkpoint unreadable, starting fresh")
		snap = nil
	}

	if snap.Live() {
		c.sess.Restore(snap)
		c.sess.Phase = model.PhaseRunning
		if err := c.deps.Env.EnterFullscreen(ctx); err != nil {
			c.log.Warn().Err(err).Msg("Fullscreen re-entry failed on resume")
		}
		c.startRunningLocked()
		c.deps.Notifier.Success("Test resumed")
		c.log.Info().
			Str("test_id", testID).
			Str("attempt_id", c.sess.AttemptID).
			Int("remaining", c.sess.RemainingSeconds).
			Msg("Session resumed from checkpoint")
		return nil
	}

	c.sess.Phase = model.PhaseAwaitingFullscreen
	c.log.Info().Str("test_id", testID).Msg("Session loaded, awaiting fullscreen")
	return nil
}

// Dispatch feeds one event into the state machine. Events that are not
// legal in the current phase are ignored.
func (c *Controller) Dispatch(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		c.log.Debug().Type("event", ev).Msg("Event before bootstrap ignored")
		return
	}
	// Once the attempt is acknowledged nothing legal remains: the timer,
	// grace timers and gate goroutine are all done.
	if c.sess.Phase.Terminal() {
		c.log.Debug().Type("event", ev).Msg("Event after submission ignored")
		return
	}

	switch ev := ev.(type) {
	case FullscreenGranted:
		c.handleFullscreenGranted()
	case StartConfirmed:
		c.handleStartConfirmed()
	case StartAborted:
		c.handleStartAborted()
	case AnswerChanged:
		c.handleAnswerChanged(ev)
	case AnswerCleared:
		c.handleAnswerCleared(ev)
	case ReviewToggled:
		c.handleReviewToggled(ev)
	case Navigated:
		c.handleNavigated(ev.Index)
	case NextQuestion:
		c.handleNavigated(c.sess.CurrentIndex + 1)
	case PrevQuestion:
		c.handleNavigated(c.sess.CurrentIndex - 1)
	case EndRequested:
		c.beginSubmitLocked("manual_end")
	case RetryRequested:
		if c.sess.Phase == model.PhaseSubmissionFailed {
			c.beginSubmitLocked("manual_retry")
		}
	case FullscreenChanged:
		c.monitor.FullscreenChanged(ev.Active)
	case VisibilityChanged:
		c.monitor.VisibilityChanged(ev.Hidden)
	case FocusChanged:
		c.monitor.FocusChanged(ev.Focused)
	case NetworkChanged:
		c.monitor.NetworkChanged(ev.Online)
	case tickEvent:
		c.handleTick(ev.remaining)
	case expiredEvent:
		c.handleExpired()
	case saveRequested:
		if c.sess.Phase == model.PhaseRunning {
			c.saveLocked()
		}
	case graceElapsed:
		c.beginSubmitLocked("violation_" + string(ev.channel))
	case submitFinished:
		c.handleSubmitFinished(ev)
	default:
		c.log.Debug().Type("event", ev).Msg("Unknown event ignored")
	}
}

// Gesture classifies a candidate input gesture and reports whether the host
// must suppress it. This is the one input that needs a synchronous answer,
// so it bypasses the event queue but still runs the monitor's policy.
func (c *Controller) Gesture(g lockdown.Gesture) bool {
	if !c.phaseIs(model.PhaseRunning) {
		return false
	}
	return c.monitor.GesturePressed(g)
}

// ShouldBlockUnload reports whether the host should block a page unload.
func (c *Controller) ShouldBlockUnload() bool {
	return c.phaseIs(model.PhaseRunning)
}

// Phase returns the current session phase.
func (c *Controller) Phase() model.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return model.PhaseNotStarted
	}
	return c.sess.Phase
}

// Session returns a deep copy of the session for rendering. Before
// Bootstrap completes there is no session yet and a zero NotStarted value
// is returned.
func (c *Controller) Session() model.ExamSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return model.ExamSession{Phase: model.PhaseNotStarted}
	}
	return c.sess.Clone()
}

// Receipt returns the submission receipt once the session is Submitted.
func (c *Controller) Receipt() *model.Receipt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receipt
}

// ─── Phase transitions ──────────────────────────────────────────────

func (c *Controller) handleFullscreenGranted() {
	if c.sess.Phase != model.PhaseAwaitingFullscreen {
		return
	}
	if err := c.deps.Env.EnterFullscreen(context.Background()); err != nil {
		c.log.Error().Err(err).Msg("Fullscreen entry failed")
		c.deps.Notifier.Error("Failed to enter fullscreen mode", "")
		return
	}
	c.sess.Phase = model.PhaseAwaitingStart
}

func (c *Controller) handleStartConfirmed() {
	if c.sess.Phase != model.PhaseAwaitingStart {
		return
	}
	c.sess.AttemptID = uuid.NewString()
	c.sess.StartedAt = time.Now()
	c.sess.Phase = model.PhaseRunning
	c.saveLocked() // first checkpoint anchors the attempt
	c.startRunningLocked()
	c.deps.Notifier.Success("Test started successfully!")
	c.log.Info().
		Str("test_id", c.sess.TestID).
		Str("attempt_id", c.sess.AttemptID).
		Int("duration", c.sess.RemainingSeconds).
		Msg("Attempt started")
}

func (c *Controller) handleStartAborted() {
	switch c.sess.Phase {
	case model.PhaseAwaitingFullscreen, model.PhaseAwaitingStart:
	default:
		return
	}
	c.deps.Env.ExitFullscreen()
	c.sess.Phase = model.PhaseNotStarted
}

// ─── Candidate actions (Running only) ───────────────────────────────

func (c *Controller) handleAnswerChanged(ev AnswerChanged) {
	if c.sess.Phase != model.PhaseRunning {
		return
	}
	if _, ok := c.sess.Question(ev.QuestionID); !ok {
		c.log.Warn().Str("question_id", ev.QuestionID).Msg("Answer for unknown question ignored")
		return
	}
	if ev.Answer.IsZero() {
		delete(c.sess.Answers, ev.QuestionID)
	} else {
		c.sess.Answers[ev.QuestionID] = ev.Answer
	}
	c.saveLocked()
}

func (c *Controller) handleAnswerCleared(ev AnswerCleared) {
	if c.sess.Phase != model.PhaseRunning {
		return
	}
	delete(c.sess.Answers, ev.QuestionID)
	c.saveLocked()
	c.deps.Notifier.Info("Answer Cleared")
}

func (c *Controller) handleReviewToggled(ev ReviewToggled) {
	if c.sess.Phase != model.PhaseRunning {
		return
	}
	if _, ok := c.sess.Question(ev.QuestionID); !ok {
		return
	}
	if c.sess.MarkedForReview[ev.QuestionID] {
		delete(c.sess.MarkedForReview, ev.QuestionID)
	} else {
		c.sess.MarkedForReview[ev.QuestionID] = true
	}
	c.saveLocked()
}

func (c *Controller) handleNavigated(index int) {
	if c.sess.Phase != model.PhaseRunning {
		return
	}
	if index < 0 || index >= len(c.sess.Questions) {
		return
	}
	c.sess.CurrentIndex = index
	c.saveLocked()
}

// ─── Timer ──────────────────────────────────────────────────────────

func (c *Controller) handleTick(remaining int) {
	if c.sess.Phase != model.PhaseRunning {
		return
	}
	c.sess.RemainingSeconds = remaining

	switch remaining {
	case 300:
		c.deps.Notifier.Warn("Time is running out!", "You have 5 minutes remaining.")
	case 60:
		c.deps.Notifier.Warn("Time is almost up!", "You have 1 minute remaining.")
	}
}

func (c *Controller) handleExpired() {
	if c.sess.Phase != model.PhaseRunning {
		return
	}
	c.sess.RemainingSeconds = 0
	c.sess.Phase = model.PhaseExpired
	c.deps.Notifier.Warn("Time is up!", "Your test is being submitted.")
	c.reportEvent("expired", "", 0)
	c.beginSubmitLocked("timer_expiry")
}

// ─── Violations ─────────────────────────────────────────────────────

func (c *Controller) onViolationWarn(ch lockdown.Channel, notice string) {
	c.mirrorViolationLocked(ch)
	c.deps.Notifier.Warn(notice, "")
}

func (c *Controller) onViolationForce(ch lockdown.Channel, notice string) {
	c.mirrorViolationLocked(ch)
	c.deps.Notifier.Error(notice, "")

	delay := c.deps.Config.ViolationGraceDelay
	if delay <= 0 {
		c.beginSubmitLocked("violation_" + string(ch))
		return
	}
	// Short user-visible pause before the forced submit; the elapsed
	// event re-checks the phase so a manual end racing the delay wins.
	t := time.AfterFunc(delay, func() {
		c.Dispatch(graceElapsed{channel: ch})
	})
	c.grace = append(c.grace, t)
}

func (c *Controller) mirrorViolationLocked(ch lockdown.Channel) {
	switch ch {
	case lockdown.ChannelFullscreen:
		c.sess.Violations.FullscreenExits = c.monitor.Count(ch)
	case lockdown.ChannelTabSwitch:
		c.sess.Violations.TabSwitches = c.monitor.Count(ch)
	}
}

func (c *Controller) onOnline() {
	c.online = true
	c.deps.Notifier.Success("You're back online")
	if c.sess.Phase == model.PhaseSubmissionFailed {
		c.beginSubmitLocked("network_restored")
	}
}

func (c *Controller) onOffline() {
	c.online = false
	c.deps.Notifier.Error("You're offline", "Your answers are being saved locally.")
}

// ─── Submission ─────────────────────────────────────────────────────

// beginSubmitLocked is the single funnel for every terminal trigger. The
// phase check-and-set happens here, under the controller lock and before
// any suspension point, so concurrent triggers collapse to one submission.
func (c *Controller) beginSubmitLocked(trigger string) {
	switch c.sess.Phase {
	case model.PhaseRunning, model.PhaseExpired, model.PhaseSubmissionFailed:
	default:
		c.log.Debug().Str("trigger", trigger).Str("phase", string(c.sess.Phase)).Msg("Submit trigger ignored")
		return
	}

	c.sess.Phase = model.PhaseSubmitting
	c.stopRunningLocked()
	c.log.Info().Str("trigger", trigger).Str("attempt_id", c.sess.AttemptID).Msg("Submitting attempt")

	req := gate.Request{
		TestCode:  c.test.TestCode,
		Session:   c.sess,
		StartedAt: c.sess.StartedAt,
		UserAgent: c.deps.UserAgent,
	}

	// The session is parked in Submitting, so handing the gate a direct
	// reference is safe: nothing mutates it until the result event.
	go func() {
		receipt, err := c.gate.Submit(context.Background(), req)
		c.Dispatch(submitFinished{receipt: receipt, err: err})
	}()
}

func (c *Controller) handleSubmitFinished(ev submitFinished) {
	if c.sess.Phase != model.PhaseSubmitting {
		c.log.Debug().Str("phase", string(c.sess.Phase)).Msg("Stray submit result ignored")
		return
	}

	if ev.err != nil {
		c.sess.Phase = model.PhaseSubmissionFailed
		c.reportEvent("submit_failed", "", 0)
		if apiErr, ok := client.AsAPIError(ev.err); ok && apiErr.Offline {
			c.deps.Notifier.Error("You're offline", "Your answers are saved locally and will be sent once you're back online.")
		} else {
			c.deps.Notifier.Error("Failed to submit test", "Your answers are saved. Please retry.")
		}
		c.log.Error().Err(ev.err).Str("attempt_id", c.sess.AttemptID).Msg("Submission failed, checkpoint retained")
		return
	}

	// Checkpoint is destroyed only on acknowledged submission.
	if err := c.deps.Checkpoints.Clear(context.Background(), c.sess.TestID); err != nil {
		c.log.Warn().Err(err).Msg("Checkpoint clear failed after submit")
	}
	c.deps.Env.ExitFullscreen()
	c.receipt = ev.receipt
	c.sess.Phase = model.PhaseSubmitted
	c.deps.Notifier.Success("Test submitted successfully!")
	c.reportEvent("submitted", "", 0)
	c.log.Info().Str("attempt_id", c.sess.AttemptID).Msg("Attempt submitted and acknowledged")
}

// ─── Running lifecycle ──────────────────────────────────────────────

func (c *Controller) startRunningLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	c.runCancel = cancel

	c.countdown = timer.New(
		c.sess.RemainingSeconds,
		c.deps.TickInterval,
		c.deps.Config.TickSaveEvery,
		timer.Hooks{
			OnTick:   func(remaining int) { c.Dispatch(tickEvent{remaining: remaining}) },
			OnExpire: func() { c.Dispatch(expiredEvent{}) },
			OnSave:   func() { c.Dispatch(saveRequested{reason: "timer"}) },
		},
		c.deps.Log,
	)
	c.countdown.Start(ctx)

	// Second line of defense behind the timer-driven save.
	go c.autosaveLoop(ctx)
}

// stopRunningLocked tears down the timer, the autosave loop and pending
// grace timers the moment the phase leaves Running. Callbacks already in
// flight are discarded by the phase guards.
func (c *Controller) stopRunningLocked() {
	if c.countdown != nil {
		c.countdown.Stop()
	}
	if c.runCancel != nil {
		c.runCancel()
		c.runCancel = nil
	}
	for _, t := range c.grace {
		t.Stop()
	}
	c.grace = nil
}

func (c *Controller) autosaveLoop(ctx context.Context) {
	ticker := time.NewTicker(c.deps.Config.AutosaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Dispatch(saveRequested{reason: "autosave"})
		}
	}
}

// saveLocked writes a checkpoint synchronously, in the same dispatch as the
// mutating event. Failures are logged and swallowed: a broken checkpoint
// must never block the exam.
func (c *Controller) saveLocked() {
	snap := c.sess.Snapshot(time.Now())
	if err := c.deps.Checkpoints.Save(context.Background(), c.sess.TestID, snap); err != nil {
		c.log.Error().Err(err).Str("test_id", c.sess.TestID).Msg("Checkpoint save failed")
	}
}

// Close releases the controller's background resources: the countdown, the
// autosave loop and pending grace timers. It never submits; the host calls
// it when tearing the session view down.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopRunningLocked()
}

// ─── Helpers ────────────────────────────────────────────────────────

func (c *Controller) phaseIs(p model.Phase) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil && c.sess.Phase == p
}

func (c *Controller) reportViolation(event string, ch lockdown.Channel, count int) {
	c.reportEvent(event, string(ch), count)
}

func (c *Controller) reportEvent(event, channel string, count int) {
	if c.deps.Reporter == nil {
		return
	}
	c.deps.Reporter.Report(reporter.ProctorEvent{
		Type:    event,
		Channel: channel,
		Count:   count,
	})
}
