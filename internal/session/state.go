package session

import (
	"time"

	"github.com/mind-engage/quizgenix/internal/apperr"
)

type State string

const (
	StateNew       State = "new" // never persisted
	StateActive    State = "active"
	StateSubmitted State = "submitted"
	StateExpired   State = "expired"
)

// DefaultTTL is how long a quiz session stays open.
const DefaultTTL = 2 * time.Hour

// Session is one user's attempt at one quiz. ID doubles as the session token.
type Session struct {
	ID               string      `json:"id"`
	UserID           string      `json:"user_id"`
	QuizID           string      `json:"quiz_id"`
	State            State       `json:"state"`
	StartedAt        time.Time   `json:"started_at"`
	ExpiresAt        time.Time   `json:"expires_at"`
	SubmittedAt      *time.Time  `json:"submitted_at,omitempty"`
	Answers          map[int]int `json:"answers"`
	LastQuestionSeen int         `json:"last_question_seen"`
}

// Live reports whether the session accepts answers at now.
func (s *Session) Live(now time.Time) bool {
	return s.State == StateActive && now.Before(s.ExpiresAt)
}

// Expire moves an active session past its deadline to expired and reports
// whether it changed.
func (s *Session) Expire(now time.Time) bool {
	if s.State == StateActive && !now.Before(s.ExpiresAt) {
		s.State = StateExpired
		return true
	}
	return false
}

// Answer records selected for questionID, overwriting an earlier answer.
func (s *Session) Answer(now time.Time, questionID, selected int) error {
	if err := s.checkLive(now); err != nil {
		return err
	}
	if s.Answers == nil {
		s.Answers = map[int]int{}
	}
	s.Answers[questionID] = selected
	if questionID > s.LastQuestionSeen {
		s.LastQuestionSeen = questionID
	}
	return nil
}

// Submit closes the session and returns the time taken.
func (s *Session) Submit(now time.Time) (time.Duration, error) {
	if err := s.checkLive(now); err != nil {
		return 0, err
	}
	s.State = StateSubmitted
	at := now
	s.SubmittedAt = &at
	return now.Sub(s.StartedAt), nil
}

func (s *Session) checkLive(now time.Time) error {
	switch {
	case s.State != StateActive:
		return apperr.InvalidSession("session is " + string(s.State))
	case !now.Before(s.ExpiresAt):
		return apperr.InvalidSession("session expired")
	}
	return nil
}
