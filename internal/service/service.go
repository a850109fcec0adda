// Package service implements the quiz operations exposed over HTTP: quiz
// creation, session lifecycle and grading.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/quizgenix/internal/apperr"
	"github.com/mind-engage/quizgenix/internal/events"
	"github.com/mind-engage/quizgenix/internal/grading"
	"github.com/mind-engage/quizgenix/internal/quiz"
	"github.com/mind-engage/quizgenix/internal/rbac"
	"github.com/mind-engage/quizgenix/internal/session"
)

// Synthesizer produces the questions of a new quiz.
type Synthesizer interface {
	Synthesize(topic, subject string, difficulty quiz.Difficulty, count int) ([]quiz.Question, error)
	KnowledgeVersion() string
}

type Service struct {
	quizzes  quiz.Store
	sessions session.Store
	synth    Synthesizer
	grader   *grading.Engine
	events   events.Recorder

	ttl time.Duration
	now func() time.Time
	log *slog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithSessionTTL(d time.Duration) Option { return func(s *Service) { s.ttl = d } }
func WithLogger(l *slog.Logger) Option      { return func(s *Service) { s.log = l } }
func WithEvents(r events.Recorder) Option   { return func(s *Service) { s.events = r } }
func WithGrader(e *grading.Engine) Option   { return func(s *Service) { s.grader = e } }

func New(quizzes quiz.Store, sessions session.Store, sy Synthesizer, opts ...Option) *Service {
	s := &Service{
		quizzes:  quizzes,
		sessions: sessions,
		synth:    sy,
		grader:   grading.NewEngine(),
		ttl:      session.DefaultTTL,
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Actor is the authenticated caller.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) owns(q quiz.Quiz) bool {
	return a.Role == rbac.RoleAdmin || q.CreatorID == a.UserID
}

type CreateQuizInput struct {
	CreatorID  string `json:"-"`
	Title      string `json:"title"`
	Subject    string `json:"subject"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

// CreateQuiz synthesizes and stores a new, active quiz.
func (s *Service) CreateQuiz(ctx context.Context, in CreateQuizInput) (quiz.Quiz, error) {
	topic := strings.TrimSpace(in.Topic)
	subject := strings.TrimSpace(in.Subject)
	if topic == "" {
		return quiz.Quiz{}, apperr.Validation("topic is required")
	}
	if in.CreatorID == "" {
		return quiz.Quiz{}, apperr.Validation("creator is required")
	}
	diff, err := quiz.ParseDifficulty(in.Difficulty)
	if err != nil {
		return quiz.Quiz{}, apperr.Validation("difficulty must be one of easy, medium, hard")
	}
	questions, err := s.synth.Synthesize(topic, subject, diff, in.Count)
	if err != nil {
		return quiz.Quiz{}, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = titleCase(topic) + " Quiz"
	}
	now := s.now().UTC().Truncate(time.Second)
	q := quiz.Quiz{
		ID:               uuid.NewString(),
		CreatorID:        in.CreatorID,
		Title:            title,
		Subject:          subject,
		Topic:            topic,
		Difficulty:       diff,
		Domain:           questions[0].Domain,
		Active:           true,
		KnowledgeVersion: s.synth.KnowledgeVersion(),
		Questions:        questions,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.quizzes.Create(ctx, q); err != nil {
		return quiz.Quiz{}, err
	}
	s.record(ctx, events.TypeQuizCreated, q.ID, map[string]any{
		"creator_id": q.CreatorID, "domain": q.Domain, "difficulty": q.Difficulty, "count": len(q.Questions),
	})
	s.log.Info("quiz created", "quiz_id", q.ID, "domain", q.Domain, "difficulty", q.Difficulty, "count", len(q.Questions))
	return q, nil
}

// SessionView is what a quiz taker gets back: questions without answers.
type SessionView struct {
	SessionToken string                `json:"session_token"`
	QuizID       string                `json:"quiz_id"`
	Title        string                `json:"title"`
	Questions    []quiz.PublicQuestion `json:"questions"`
	Answers      map[int]int           `json:"answers"`
	ExpiresAt    time.Time             `json:"expires_at"`
	Resumed      bool                  `json:"resumed"`
}

func sessionView(sess session.Session, q quiz.Quiz, resumed bool) SessionView {
	answers := sess.Answers
	if answers == nil {
		answers = map[int]int{}
	}
	return SessionView{
		SessionToken: sess.ID,
		QuizID:       q.ID,
		Title:        q.Title,
		Questions:    quiz.PublicQuestions(q.Questions),
		Answers:      answers,
		ExpiresAt:    sess.ExpiresAt,
		Resumed:      resumed,
	}
}

// StartSession opens a session on an active quiz, or returns the caller's
// live one unchanged.
func (s *Service) StartSession(ctx context.Context, userID, quizID string) (SessionView, error) {
	q, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return SessionView{}, err
	}
	if !q.Active {
		return SessionView{}, apperr.Validation("quiz is not active")
	}
	sess, created, err := s.sessions.Start(ctx, userID, q.ID, s.now(), s.ttl)
	if err != nil {
		return SessionView{}, err
	}
	if created {
		s.record(ctx, events.TypeSessionStarted, sess.ID, map[string]any{"user_id": userID, "quiz_id": q.ID})
	}
	return sessionView(sess, q, !created), nil
}

// ResumeSession returns a live session with its saved answers.
func (s *Service) ResumeSession(ctx context.Context, userID, token string) (SessionView, error) {
	sess, err := s.liveSession(ctx, userID, token)
	if err != nil {
		return SessionView{}, err
	}
	q, err := s.quizzes.Get(ctx, sess.QuizID)
	if err != nil {
		return SessionView{}, err
	}
	return sessionView(sess, q, true), nil
}

// SubmitAnswer records one answer; the latest answer to a question wins.
func (s *Service) SubmitAnswer(ctx context.Context, userID, token string, questionID, selected int) (bool, error) {
	if selected < 0 || selected >= quiz.OptionCount {
		return false, apperr.Validation("selected_index must be between 0 and %d", quiz.OptionCount-1)
	}
	sess, err := s.liveSession(ctx, userID, token)
	if err != nil {
		return false, err
	}
	q, err := s.quizzes.Get(ctx, sess.QuizID)
	if err != nil {
		return false, err
	}
	if !q.HasQuestion(questionID) {
		return false, apperr.Validation("question %d is not part of this quiz", questionID)
	}
	if err := s.sessions.RecordAnswer(ctx, token, userID, questionID, selected, s.now()); err != nil {
		return false, err
	}
	return true, nil
}

// FinishSession submits and grades the session.
func (s *Service) FinishSession(ctx context.Context, userID, token string) (grading.Result, error) {
	sess, err := s.liveSession(ctx, userID, token)
	if err != nil {
		return grading.Result{}, err
	}
	q, err := s.quizzes.Get(ctx, sess.QuizID)
	if err != nil {
		return grading.Result{}, err
	}
	res, err := s.sessions.Finish(ctx, token, userID, s.now(), func(done session.Session) (grading.Result, error) {
		return s.grader.Grade(grading.Input{
			SessionID:   done.ID,
			UserID:      done.UserID,
			QuizID:      done.QuizID,
			Questions:   q.Questions,
			Answers:     done.Answers,
			TimeTaken:   done.SubmittedAt.Sub(done.StartedAt),
			SubmittedAt: *done.SubmittedAt,
		}), nil
	})
	if err != nil {
		return grading.Result{}, err
	}
	s.record(ctx, events.TypeAttemptSubmitted, res.SessionID, map[string]any{
		"user_id": res.UserID, "quiz_id": res.QuizID, "score": res.Score, "total": res.Total, "grade": res.Grade,
	})
	s.log.Info("attempt graded", "session_id", res.SessionID, "quiz_id", res.QuizID, "score", res.Score, "total", res.Total)
	return res, nil
}

// AttemptHistory lists the user's graded attempts, most recent first.
func (s *Service) AttemptHistory(ctx context.Context, userID string) ([]grading.Result, error) {
	return s.sessions.History(ctx, userID)
}

// ListQuizzes shows lecturers their own quizzes, admins every quiz and
// everyone else the active ones.
func (s *Service) ListQuizzes(ctx context.Context, a Actor, opts quiz.ListOpts) ([]quiz.Summary, error) {
	switch a.Role {
	case rbac.RoleAdmin:
	case rbac.RoleLecturer:
		opts.CreatorID = a.UserID
	default:
		opts.CreatorID = ""
		opts.ActiveOnly = true
	}
	return s.quizzes.List(ctx, opts)
}

// QuizView is a quiz as seen by one caller. Owners get the full questions,
// others the public ones.
type QuizView struct {
	quiz.Summary
	KnowledgeVersion string                `json:"knowledge_version,omitempty"`
	UpdatedAt        time.Time             `json:"updated_at"`
	Questions        []quiz.Question       `json:"questions,omitempty"`
	PublicQuestions  []quiz.PublicQuestion `json:"public_questions,omitempty"`
}

func (s *Service) GetQuiz(ctx context.Context, a Actor, quizID string) (QuizView, error) {
	q, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return QuizView{}, err
	}
	v := QuizView{Summary: q.Summary(), UpdatedAt: q.UpdatedAt}
	switch {
	case a.owns(q):
		v.KnowledgeVersion = q.KnowledgeVersion
		v.Questions = q.Questions
	case q.Active:
		v.PublicQuestions = quiz.PublicQuestions(q.Questions)
	default:
		return QuizView{}, apperr.NotFound("quiz not found")
	}
	return v, nil
}

// UpdateQuiz changes title and/or active flag. Owner only.
func (s *Service) UpdateQuiz(ctx context.Context, a Actor, quizID string, upd quiz.MetaUpdate) (quiz.Quiz, error) {
	if _, err := s.ownedQuiz(ctx, a, quizID); err != nil {
		return quiz.Quiz{}, err
	}
	return s.quizzes.UpdateMeta(ctx, quizID, upd)
}

// QuizResults lists every graded attempt of a quiz. Owner only.
func (s *Service) QuizResults(ctx context.Context, a Actor, quizID string) ([]grading.Result, error) {
	if _, err := s.ownedQuiz(ctx, a, quizID); err != nil {
		return nil, err
	}
	return s.sessions.ResultsForQuiz(ctx, quizID)
}

// ExportQuiz returns the full quiz for a document exporter. Owner only.
func (s *Service) ExportQuiz(ctx context.Context, a Actor, quizID string) (quiz.Quiz, error) {
	return s.ownedQuiz(ctx, a, quizID)
}

func (s *Service) ownedQuiz(ctx context.Context, a Actor, quizID string) (quiz.Quiz, error) {
	q, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return quiz.Quiz{}, err
	}
	if !a.owns(q) {
		return quiz.Quiz{}, apperr.Forbidden("only the quiz owner may do this")
	}
	return q, nil
}

func (s *Service) liveSession(ctx context.Context, userID, token string) (session.Session, error) {
	now := s.now()
	sess, err := s.sessions.Get(ctx, token, userID, now)
	if err != nil {
		return session.Session{}, err
	}
	if !sess.Live(now) {
		if sess.State == session.StateActive || sess.State == session.StateExpired {
			return session.Session{}, apperr.InvalidSession("session expired")
		}
		return session.Session{}, apperr.InvalidSession("session is " + string(sess.State))
	}
	return sess, nil
}

// record appends an event; failures are logged, never returned.
func (s *Service) record(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(ctx, typ, key, data); err != nil {
		s.log.Warn("event not recorded", "type", typ, "key", key, "err", err)
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if r[0] >= 'a' && r[0] <= 'z' {
			r[0] -= 'a' - 'A'
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
