package model

import "time"

// Snapshot is the durable checkpoint record for one test attempt. The field
// layout matches the record existing clients persist per test id.
type Snapshot struct {
	AttemptID            string            `json:"attemptId"`
	Answers              map[string]Answer `json:"answers"`
	MarkedForReview      map[string]bool   `json:"markedForReview"`
	CurrentQuestionIndex int               `json:"currentQuestionIndex"`
	RemainingSeconds     int               `json:"remainingSeconds"`
	StartedAt            time.Time         `json:"testStartTime"`
	TestStarted          bool              `json:"testStarted"`
	LastSaved            time.Time         `json:"lastSaved"`
}

// Live reports whether the snapshot represents a resumable attempt.
func (s *Snapshot) Live() bool {
	return s != nil && s.TestStarted && s.AttemptID != "" && s.RemainingSeconds > 0
}
