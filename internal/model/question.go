package model

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple-choice"
	QuestionTypeMultipleSelect QuestionType = "multiple-select"
	QuestionTypeTrueFalse      QuestionType = "true-false"
	QuestionTypeShortAnswer    QuestionType = "short-answer"
)

// Option is a single selectable choice on a question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is one exam question as delivered by the take endpoint. The
// question list is immutable for the lifetime of a session.
type Question struct {
	ID      string       `json:"id" validate:"required"`
	Type    QuestionType `json:"type" validate:"required,oneof=multiple-choice multiple-select true-false short-answer"`
	Text    string       `json:"text" validate:"required"`
	Points  int          `json:"points" validate:"min=0"`
	Options []Option     `json:"options,omitempty"`
}

// HasOptions reports whether the question type carries an option list.
// True-false questions render fixed choices and ship none.
func (q *Question) HasOptions() bool {
	return q.Type == QuestionTypeMultipleChoice || q.Type == QuestionTypeMultipleSelect
}

// Test is the payload returned by the take endpoint.
type Test struct {
	ID              string     `json:"_id" validate:"required"`
	Title           string     `json:"title" validate:"required"`
	TestCode        string     `json:"testCode" validate:"required"`
	TestType        string     `json:"testType"`
	DurationMinutes int        `json:"duration" validate:"required,gt=0"`
	Questions       []Question `json:"questions" validate:"required,min=1,dive"`
}
