// Package gate guarantees the finished exam is transmitted to the backend
// at most once per attempt, no matter which trigger fires it.
package gate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prasanth-t0205/quiz-compiler/internal/model"
)

var (
	// ErrInFlight means a submission attempt is already executing; the
	// caller becomes a no-op.
	ErrInFlight = errors.New("gate: submission already in flight")
	// ErrAlreadySubmitted means the attempt was acknowledged earlier;
	// there is nothing left to send.
	ErrAlreadySubmitted = errors.New("gate: attempt already submitted")
)

// Submitter is the backend capability the gate drives.
type Submitter interface {
	SubmitAttempt(ctx context.Context, testCode string, sub *model.Submission) (*model.Receipt, error)
}

// Request carries everything needed to build the wire payload. Session must
// not be mutated while the request is in flight; the controller guarantees
// this by parking the session in the Submitting phase first.
type Request struct {
	TestCode  string
	Session   *model.ExamSession
	StartedAt time.Time
	EndedAt   time.Time
	UserAgent string
}

// Gate executes the submit call at most once concurrently per attempt and
// latches permanently after the first acknowledged success. Failed attempts
// may be retried.
type Gate struct {
	submitter Submitter
	timeout   time.Duration
	log       zerolog.Logger

	mu       sync.Mutex
	inFlight bool
	done     bool
}

func New(submitter Submitter, timeout time.Duration, log zerolog.Logger) *Gate {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gate{
		submitter: submitter,
		timeout:   timeout,
		log:       log.With().Str("component", "submission_gate").Logger(),
	}
}

// Submit serializes the collected answers and transmits them. Concurrent
// callers beyond the first receive ErrInFlight; callers after a success
// receive ErrAlreadySubmitted.
func (g *Gate) Submit(ctx context.Context, req Request) (*model.Receipt, error) {
	g.mu.Lock()
	if g.done {
		g.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	if g.inFlight {
		g.mu.Unlock()
		return nil, ErrInFlight
	}
	g.inFlight = true
	g.mu.Unlock()

	endedAt := req.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now()
	}
	sub := BuildSubmission(req.Session, req.StartedAt, endedAt, req.UserAgent)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	receipt, err := g.submitter.SubmitAttempt(ctx, req.TestCode, sub)

	g.mu.Lock()
	g.inFlight = false
	if err == nil {
		g.done = true
	}
	g.mu.Unlock()

	if err != nil {
		g.log.Error().Err(err).Str("test_code", req.TestCode).Msg("Submission failed")
		return nil, err
	}

	g.log.Info().
		Str("test_code", req.TestCode).
		Int("answers", len(sub.Answers)).
		Msg("Attempt submitted")

	if receipt != nil {
		receipt.TestID = req.Session.TestID
	}
	return receipt, nil
}

// BuildSubmission reduces collected answers to wire format, in question
// order so payloads are deterministic.
func BuildSubmission(sess *model.ExamSession, start, end time.Time, userAgent string) *model.Submission {
	answers := make([]model.SubmissionAnswer, 0, len(sess.Answers))
	for _, q := range sess.Questions {
		a, ok := sess.Answers[q.ID]
		if !ok || a.IsZero() {
			continue
		}
		answers = append(answers, model.SubmissionAnswer{
			QuestionID: q.ID,
			Answer:     a.Wire(),
		})
	}
	return &model.Submission{
		Answers:   answers,
		StartTime: start,
		EndTime:   end,
		UserAgent: userAgent,
	}
}
