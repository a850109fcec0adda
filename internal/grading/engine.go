package grading

import (
	"math"
	"time"

	"github.com/mind-engage/quizgenix/internal/quiz"
)

// Input is a submitted session together with its quiz's authoritative
// questions.
type Input struct {
	SessionID   string
	UserID      string
	QuizID      string
	Questions   []quiz.Question
	Answers     map[int]int // question id -> selected option
	TimeTaken   time.Duration
	SubmittedAt time.Time
}

// QuestionResult is the graded outcome of one question. UserAnswer is nil
// when the question was left unanswered.
type QuestionResult struct {
	QuestionID    int              `json:"question_id"`
	UserAnswer    *int             `json:"user_answer"`
	CorrectAnswer int              `json:"correct_answer"`
	IsCorrect     bool             `json:"is_correct"`
	Explanation   string           `json:"explanation"`
	References    []quiz.Reference `json:"references,omitempty"`
}

// Result is the immutable record of a graded attempt.
type Result struct {
	SessionID        string           `json:"session_id"`
	UserID           string           `json:"user_id"`
	QuizID           string           `json:"quiz_id"`
	PerQuestion      []QuestionResult `json:"per_question"`
	Score            int              `json:"score"`
	Total            int              `json:"total"`
	Answered         int              `json:"answered"`
	Percentage       float64          `json:"percentage"`
	Grade            string           `json:"grade"`
	Performance      string           `json:"performance"`
	StudyResources   []quiz.Reference `json:"study_resources,omitempty"`
	TimeTakenSeconds int64            `json:"time_taken_seconds"`
	SubmittedAt      time.Time        `json:"submitted_at"`
}

// Band maps a percentage lower bound (inclusive) to a letter.
type Band struct {
	Min   float64
	Grade string
}

// DefaultScale is A/B/C/D at 90/80/70/60, F below.
var DefaultScale = []Band{
	{90, "A"},
	{80, "B"},
	{70, "C"},
	{60, "D"},
}

// Engine options

type Option func(*config)

type config struct {
	scale    []Band // sorted by Min descending
	fallback string
}

func WithScale(bands []Band, fallback string) Option {
	return func(c *config) {
		c.scale = append([]Band(nil), bands...)
		c.fallback = fallback
	}
}

type Engine struct {
	cfg config
}

func NewEngine(opts ...Option) *Engine {
	cfg := config{scale: DefaultScale, fallback: "F"}
	for _, o := range opts {
		o(&cfg)
	}
	return &Engine{cfg: cfg}
}

// Grade scores in against the questions' correct indices. It is pure: the
// same input always yields the same Result. A quiz without questions is a
// programming error and panics.
func (e *Engine) Grade(in Input) Result {
	total := len(in.Questions)
	if total == 0 {
		panic("grading: quiz has no questions")
	}

	res := Result{
		SessionID:        in.SessionID,
		UserID:           in.UserID,
		QuizID:           in.QuizID,
		PerQuestion:      make([]QuestionResult, 0, total),
		Total:            total,
		TimeTakenSeconds: int64(in.TimeTaken / time.Second),
		SubmittedAt:      in.SubmittedAt,
	}
	for _, q := range in.Questions {
		qr := QuestionResult{
			QuestionID:    q.ID,
			CorrectAnswer: q.CorrectIndex,
			Explanation:   q.Explanation,
		}
		if len(q.References) > 0 {
			qr.References = append([]quiz.Reference(nil), q.References...)
		}
		if a, ok := in.Answers[q.ID]; ok {
			a := a
			qr.UserAnswer = &a
			qr.IsCorrect = a == q.CorrectIndex
			res.Answered++
		}
		if qr.IsCorrect {
			res.Score++
		}
		res.PerQuestion = append(res.PerQuestion, qr)
	}
	res.Percentage = Percentage(res.Score, total)
	res.Grade = e.Letter(res.Percentage)
	res.Performance = Performance(res.Grade)
	res.StudyResources = StudyResources(res.PerQuestion)
	return res
}

// Letter maps a percentage onto the engine's scale.
func (e *Engine) Letter(pct float64) string {
	for _, b := range e.cfg.scale {
		if pct >= b.Min {
			return b.Grade
		}
	}
	return e.cfg.fallback
}

var performance = map[string]string{
	"A": "Excellent",
	"B": "Good work",
	"C": "Satisfactory",
	"D": "Needs improvement",
	"F": "Keep practicing",
}

// Performance is the scorecard message for a letter grade. Letters outside
// A to F have no message.
func Performance(grade string) string {
	return performance[grade]
}

// StudyResources collects the references of every question, first
// occurrence first, without repeating a URL.
func StudyResources(per []QuestionResult) []quiz.Reference {
	var (
		out  []quiz.Reference
		seen = map[string]bool{}
	)
	for _, q := range per {
		for _, r := range q.References {
			key := r.URL
			if key == "" {
				key = r.Title
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, r)
		}
	}
	return out
}

// Percentage is 100*score/total rounded to one decimal place.
func Percentage(score, total int) float64 {
	return math.Round(1000*float64(score)/float64(total)) / 10
}
