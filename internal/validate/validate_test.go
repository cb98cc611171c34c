package validate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prasanth-t0205/quiz-compiler/internal/model"
)

func TestStructAcceptsValidTest(t *testing.T) {
	test := &model.Test{
		ID:              "t1",
		Title:           "Sample",
		TestCode:        "ABC123",
		DurationMinutes: 30,
		Questions: []model.Question{
			{ID: "q1", Type: model.QuestionTypeMultipleChoice, Text: "Pick one"},
		},
	}
	require.Nil(t, Struct(test))
}

func TestStructReportsFieldsByJSONName(t *testing.T) {
	test := &model.Test{
		ID:       "t1",
		TestCode: "ABC123",
		Questions: []model.Question{
			{ID: "q1", Type: "essay", Text: "Write"},
		},
	}
	fields := Struct(test)
	require.NotNil(t, fields)
	require.Contains(t, fields, "Test.title")
	require.Contains(t, fields, "Test.duration")
	// The bogus question type surfaces under its nested json path.
	require.Contains(t, fields, "Test.questions[0].type")
}

func TestStructRejectsEmptyQuestionList(t *testing.T) {
	test := &model.Test{
		ID:              "t1",
		Title:           "Sample",
		TestCode:        "ABC123",
		DurationMinutes: 30,
	}
	fields := Struct(test)
	require.NotNil(t, fields)
	require.Contains(t, fields, "Test.questions")
}
