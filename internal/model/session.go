package model

import "time"

// Phase enumerates exam session states.
type Phase string

const (
	PhaseNotStarted         Phase = "NOT_STARTED"
	PhaseAwaitingFullscreen Phase = "AWAITING_FULLSCREEN"
	PhaseAwaitingStart      Phase = "AWAITING_START"
	PhaseRunning            Phase = "RUNNING"
	PhaseSubmitting         Phase = "SUBMITTING"
	PhaseSubmitted          Phase = "SUBMITTED"
	PhaseExpired            Phase = "EXPIRED"
	PhaseSubmissionFailed   Phase = "SUBMISSION_FAILED"
)

// Terminal reports whether no further candidate interaction is possible.
func (p Phase) Terminal() bool {
	return p == PhaseSubmitted
}

// ViolationCounts tracks lockdown violations per channel for one attempt.
type ViolationCounts struct {
	FullscreenExits int `json:"fullscreenExits"`
	TabSwitches     int `json:"tabSwitches"`
}

// ExamSession is the root state of one exam attempt. It is owned and
// mutated exclusively by the session controller.
type ExamSession struct {
	TestID           string
	AttemptID        string
	Questions        []Question
	Answers          map[string]Answer
	MarkedForReview  map[string]bool
	CurrentIndex     int
	RemainingSeconds int
	StartedAt        time.Time
	Phase            Phase
	Violations       ViolationCounts
}

// NewExamSession builds a fresh, not-yet-started session for a loaded test.
func NewExamSession(test *Test) *ExamSession {
	return &ExamSession{
		TestID:           test.ID,
		Questions:        test.Questions,
		Answers:          make(map[string]Answer),
		MarkedForReview:  make(map[string]bool),
		RemainingSeconds: test.DurationMinutes * 60,
		Phase:            PhaseNotStarted,
	}
}

// Question returns the question with the given id, if the session has it.
func (s *ExamSession) Question(id string) (*Question, bool) {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i], true
		}
	}
	return nil, false
}

// AnsweredCount returns the number of questions with a non-empty answer.
func (s *ExamSession) AnsweredCount() int {
	n := 0
	for _, a := range s.Answers {
		if !a.IsZero() {
			n++
		}
	}
	return n
}

// Snapshot captures the durable fields of the session for checkpointing.
func (s *ExamSession) Snapshot(now time.Time) *Snapshot {
	return &Snapshot{
		AttemptID:            s.AttemptID,
		Answers:              CloneAnswers(s.Answers),
		MarkedForReview:      CloneMarks(s.MarkedForReview),
		CurrentQuestionIndex: s.CurrentIndex,
		RemainingSeconds:     s.RemainingSeconds,
		StartedAt:            s.StartedAt,
		TestStarted:          s.AttemptID != "",
		LastSaved:            now,
	}
}

// Restore rehydrates the session from a checkpoint. The phase is not part
// of the snapshot; the caller decides it from Snapshot.Live. Entries for
// question ids the test no longer has are dropped, so a stale or hand-edited
// record cannot smuggle unknown ids into the session.
func (s *ExamSession) Restore(snap *Snapshot) {
	s.AttemptID = snap.AttemptID
	if snap.Answers != nil {
		s.Answers = make(map[string]Answer, len(snap.Answers))
		for id, a := range snap.Answers {
			if _, ok := s.Question(id); ok {
				s.Answers[id] = a.clone()
			}
		}
	}
	if snap.MarkedForReview != nil {
		s.MarkedForReview = make(map[string]bool, len(snap.MarkedForReview))
		for id, m := range snap.MarkedForReview {
			if _, ok := s.Question(id); ok && m {
				s.MarkedForReview[id] = true
			}
		}
	}
	if snap.CurrentQuestionIndex >= 0 && snap.CurrentQuestionIndex < len(s.Questions) {
		s.CurrentIndex = snap.CurrentQuestionIndex
	}
	if snap.RemainingSeconds > 0 {
		s.RemainingSeconds = snap.RemainingSeconds
	}
	s.StartedAt = snap.StartedAt
}

// Clone returns a deep copy safe to hand outside the controller.
func (s *ExamSession) Clone() ExamSession {
	out := *s
	out.Answers = CloneAnswers(s.Answers)
	out.MarkedForReview = CloneMarks(s.MarkedForReview)
	return out
}
