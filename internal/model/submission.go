package model

import (
	"encoding/json"
	"time"
)

// SubmissionAnswer is one collected answer in backend wire format. Answer
// is the scalar-or-list value produced by Answer.Wire.
type SubmissionAnswer struct {
	QuestionID string      `json:"questionId"`
	Answer     interface{} `json:"answer"`
	TimeSpent  int         `json:"timeSpent"`
}

// Submission is the payload sent to the submit endpoint, once per attempt.
type Submission struct {
	Answers   []SubmissionAnswer `json:"answers"`
	StartTime time.Time          `json:"startTime"`
	EndTime   time.Time          `json:"endTime"`
	UserAgent string             `json:"userAgent"`
}

// Receipt acknowledges a successful submission. Result is the backend's
// scoring payload, passed through untouched for the results view.
type Receipt struct {
	TestID string
	Result json.RawMessage
}
