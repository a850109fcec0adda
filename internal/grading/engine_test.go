package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/quizgenix/internal/quiz"
)

func questions(correct ...int) []quiz.Question {
	qs := make([]quiz.Question, len(correct))
	for i, c := range correct {
		qs[i] = quiz.Question{
			ID: i + 1,
			Template: quiz.Template{
				Prompt:       "q",
				Options:      []string{"a", "b", "c", "d"},
				CorrectIndex: c,
				Explanation:  "because",
				References:   []quiz.Reference{{Title: "ref", URL: "https://example.org", Kind: "article"}},
			},
		}
	}
	return qs
}

func TestGradeThreeOfFiveWithTwoUnanswered(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := Input{
		SessionID:   "s1",
		UserID:      "u1",
		QuizID:      "q1",
		Questions:   questions(0, 1, 2, 3, 0),
		Answers:     map[int]int{1: 0, 2: 1, 3: 2},
		TimeTaken:   95 * time.Second,
		SubmittedAt: at,
	}
	res := NewEngine().Grade(in)

	assert.Equal(t, 3, res.Score)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 3, res.Answered)
	assert.Equal(t, 60.0, res.Percentage)
	assert.Equal(t, "D", res.Grade)
	assert.Equal(t, int64(95), res.TimeTakenSeconds)
	assert.Equal(t, at, res.SubmittedAt)

	require.Len(t, res.PerQuestion, 5)
	assert.Nil(t, res.PerQuestion[3].UserAnswer)
	assert.Nil(t, res.PerQuestion[4].UserAnswer)
	assert.False(t, res.PerQuestion[4].IsCorrect)
	require.NotNil(t, res.PerQuestion[0].UserAnswer)
	assert.Equal(t, 0, *res.PerQuestion[0].UserAnswer)
	assert.Equal(t, "because", res.PerQuestion[0].Explanation)
	assert.Len(t, res.PerQuestion[0].References, 1)
}

func TestGradeWrongAnswerIsDistinctFromUnanswered(t *testing.T) {
	res := NewEngine().Grade(Input{
		Questions: questions(2, 2),
		Answers:   map[int]int{1: 3},
	})
	require.NotNil(t, res.PerQuestion[0].UserAnswer)
	assert.Equal(t, 3, *res.PerQuestion[0].UserAnswer)
	assert.False(t, res.PerQuestion[0].IsCorrect)
	assert.Nil(t, res.PerQuestion[1].UserAnswer)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, "F", res.Grade)
}

func TestGradeIgnoresAnswersToUnknownQuestions(t *testing.T) {
	res := NewEngine().Grade(Input{
		Questions: questions(1),
		Answers:   map[int]int{1: 1, 42: 0},
	})
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, 1, res.Answered)
	assert.Equal(t, 100.0, res.Percentage)
}

func TestLetterThresholds(t *testing.T) {
	e := NewEngine()
	tests := []struct {
		pct  float64
		want string
	}{
		{100, "A"}, {90, "A"}, {89.9, "B"}, {80, "B"}, {79.9, "C"},
		{70, "C"}, {69.9, "D"}, {60, "D"}, {59.9, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.Letter(tt.pct), "pct %.1f", tt.pct)
	}
}

func TestWithScale(t *testing.T) {
	e := NewEngine(WithScale([]Band{{50, "PASS"}}, "FAIL"))
	assert.Equal(t, "PASS", e.Letter(50))
	assert.Equal(t, "FAIL", e.Letter(49.9))
}

func TestPercentageRounding(t *testing.T) {
	assert.Equal(t, 66.7, Percentage(2, 3))
	assert.Equal(t, 33.3, Percentage(1, 3))
	assert.Equal(t, 0.0, Percentage(0, 7))
	assert.Equal(t, 100.0, Percentage(7, 7))
}

func TestGradeIsDeterministic(t *testing.T) {
	in := Input{
		SessionID: "s",
		Questions: questions(0, 3, 1, 2),
		Answers:   map[int]int{1: 0, 2: 2, 4: 2},
		TimeTaken: time.Minute,
	}
	e := NewEngine()
	assert.Equal(t, e.Grade(in), e.Grade(in))
}

func TestGradeEmptyQuizPanics(t *testing.T) {
	assert.Panics(t, func() { NewEngine().Grade(Input{}) })
}

func TestGradeCarriesPerformanceAndResources(t *testing.T) {
	qs := questions(0, 1, 2)
	qs[1].References = []quiz.Reference{
		{Title: "ref", URL: "https://example.org", Kind: "article"},
		{Title: "docs", URL: "https://docs.example.org", Kind: "documentation"},
	}
	qs[2].References = nil

	res := NewEngine().Grade(Input{Questions: qs, Answers: map[int]int{1: 0, 2: 1, 3: 2}})
	assert.Equal(t, "A", res.Grade)
	assert.Equal(t, "Excellent", res.Performance)
	assert.Equal(t, []quiz.Reference{
		{Title: "ref", URL: "https://example.org", Kind: "article"},
		{Title: "docs", URL: "https://docs.example.org", Kind: "documentation"},
	}, res.StudyResources)

	res = NewEngine().Grade(Input{Questions: qs})
	assert.Equal(t, "Keep practicing", res.Performance)
	assert.Len(t, res.StudyResources, 2, "unanswered questions still point at material")
}

func TestPerformanceLabels(t *testing.T) {
	for grade, want := range map[string]string{
		"A": "Excellent", "B": "Good work", "C": "Satisfactory", "D": "Needs improvement", "F": "Keep practicing", "PASS": "",
	} {
		assert.Equal(t, want, Performance(grade), grade)
	}
}

func TestStudyResourcesEmpty(t *testing.T) {
	assert.Nil(t, StudyResources(nil))
	assert.Nil(t, StudyResources([]QuestionResult{{QuestionID: 1}}))
}
