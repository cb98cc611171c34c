package session

import (
	"github.com/prasanth-t0205/quiz-compiler/internal/lockdown"
	"github.com/prasanth-t0205/quiz-compiler/internal/model"
)

// Event is a message consumed by the controller's Dispatch entry point.
// User actions and environmental signals are both expressed as events so
// every state transition runs through one serialized reducer.
type Event interface{ isEvent() }

// ─── Candidate actions ──────────────────────────────────────────────

// FullscreenGranted: the candidate accepted the fullscreen entry dialog.
type FullscreenGranted struct{}

// StartConfirmed: the candidate confirmed the start dialog.
type StartConfirmed struct{}

// StartAborted: the candidate backed out before starting.
type StartAborted struct{}

// AnswerChanged records or replaces the answer to one question.
type AnswerChanged struct {
	QuestionID string
	Answer     model.Answer
}

// AnswerCleared removes the answer to one question.
type AnswerCleared struct{ QuestionID string }

// ReviewToggled flips the mark-for-review flag on one question.
type ReviewToggled struct{ QuestionID string }

// Navigated jumps the cursor to an absolute question index.
type Navigated struct{ Index int }

// NextQuestion and PrevQuestion move the cursor by one.
type NextQuestion struct{}
type PrevQuestion struct{}

// EndRequested: the candidate confirmed the end-test dialog.
type EndRequested struct{}

// RetryRequested: the candidate retries a failed submission.
type RetryRequested struct{}

// ─── Environmental signals ──────────────────────────────────────────

type FullscreenChanged struct{ Active bool }
type VisibilityChanged struct{ Hidden bool }
type FocusChanged struct{ Focused bool }
type NetworkChanged struct{ Online bool }

// ─── Internal events ────────────────────────────────────────────────

type tickEvent struct{ remaining int }
type expiredEvent struct{}
type saveRequested struct{ reason string }
type graceElapsed struct{ channel lockdown.Channel }
type submitFinished struct {
	receipt *model.Receipt
	err     error
}

func (FullscreenGranted) isEvent() {}
func (StartConfirmed) isEvent()    {}
func (StartAborted) isEvent()      {}
func (AnswerChanged) isEvent()     {}
func (AnswerCleared) isEvent()     {}
func (ReviewToggled) isEvent()     {}
func (Navigated) isEvent()         {}
func (NextQuestion) isEvent()      {}
func (PrevQuestion) isEvent()      {}
func (EndRequested) isEvent()      {}
func (RetryRequested) isEvent()    {}
func (FullscreenChanged) isEvent() {}
func (VisibilityChanged) isEvent() {}
func (FocusChanged) isEvent()      {}
func (NetworkChanged) isEvent()    {}
func (tickEvent) isEvent()         {}
func (expiredEvent) isEvent()      {}
func (saveRequested) isEvent()     {}
func (graceElapsed) isEvent()      {}
func (submitFinished) isEvent()    {}
