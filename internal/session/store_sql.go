package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/quizgenix/internal/apperr"
	"github.com/mind-engage/quizgenix/internal/db"
	"github.com/mind-engage/quizgenix/internal/grading"
)

// GradeFunc grades a session that has just been submitted.
type GradeFunc func(Session) (grading.Result, error)

type Store interface {
	Start(ctx context.Context, userID, quizID string, now time.Time, ttl time.Duration) (Session, bool, error)
	Get(ctx context.Context, token, userID string, now time.Time) (Session, error)
	RecordAnswer(ctx context.Context, token, userID string, questionID, selected int, now time.Time) error
	Finish(ctx context.Context, token, userID string, now time.Time, grade GradeFunc) (grading.Result, error)
	History(ctx context.Context, userID string) ([]grading.Result, error)
	ResultsForQuiz(ctx context.Context, quizID string) ([]grading.Result, error)
}

type SQLStore struct {
	db *db.DB
}

func NewSQLStore(d *db.DB) *SQLStore {
	return &SQLStore{db: d}
}

// Times are stored as Unix milliseconds.
const sessionCols = `id,user_id,quiz_id,state,started_at,expires_at,submitted_at,last_question_seen`

// startAttempts bounds retries when a concurrent start wins the insert race.
const startAttempts = 3

// Start returns the caller's live session for the quiz, or opens a new one.
// created reports whether a new session was inserted.
func (s *SQLStore) Start(ctx context.Context, userID, quizID string, now time.Time, ttl time.Duration) (Session, bool, error) {
	now = now.UTC().Truncate(time.Millisecond)
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	var lastErr error
	for i := 0; i < startAttempts; i++ {
		var (
			out     Session
			created bool
		)
		err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			row := tx.QueryRowContext(ctx, `SELECT `+sessionCols+` FROM sessions
				WHERE user_id=$1 AND quiz_id=$2 AND state='active'`+s.db.LockClause(), userID, quizID)
			cur, err := scanSession(row)
			switch {
			case errors.Is(err, sql.ErrNoRows):
			case err != nil:
				return err
			case cur.Expire(now):
				if err := setState(ctx, tx, cur.ID, StateExpired); err != nil {
					return err
				}
			default:
				if cur.Answers, err = loadAnswers(ctx, tx, cur.ID); err != nil {
					return err
				}
				out = cur
				return nil
			}

			out = Session{
				ID:        uuid.NewString(),
				UserID:    userID,
				QuizID:    quizID,
				State:     StateActive,
				StartedAt: now,
				ExpiresAt: now.Add(ttl),
				Answers:   map[int]int{},
			}
			_, err = tx.ExecContext(ctx, `INSERT INTO sessions (`+sessionCols+`)
				VALUES ($1,$2,$3,$4,$5,$6,NULL,0)`,
				out.ID, out.UserID, out.QuizID, string(out.State), out.StartedAt.UnixMilli(), out.ExpiresAt.UnixMilli())
			if err != nil {
				return err
			}
			created = true
			return nil
		})
		if err == nil {
			return out, created, nil
		}
		if !db.IsUniqueViolation(err) {
			return Session{}, false, err
		}
		lastErr = err
	}
	return Session{}, false, fmt.Errorf("start session: %w", lastErr)
}

// Get loads a session with its answers. An active session past its deadline
// is marked expired before it is returned.
func (s *SQLStore) Get(ctx context.Context, token, userID string, now time.Time) (Session, error) {
	now = now.UTC().Truncate(time.Millisecond)
	var out Session
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		sess, err := s.lockOwned(ctx, tx, token, userID)
		if err != nil {
			return err
		}
		if sess.Expire(now) {
			if err := setState(ctx, tx, sess.ID, StateExpired); err != nil {
				return err
			}
		}
		if sess.Answers, err = loadAnswers(ctx, tx, sess.ID); err != nil {
			return err
		}
		out = sess
		return nil
	})
	return out, err
}

// RecordAnswer upserts one answer; the latest write for a question wins.
func (s *SQLStore) RecordAnswer(ctx context.Context, token, userID string, questionID, selected int, now time.Time) error {
	now = now.UTC().Truncate(time.Millisecond)
	expired := false
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		sess, err := s.lockOwned(ctx, tx, token, userID)
		if err != nil {
			return err
		}
		if sess.Expire(now) {
			expired = true
			return setState(ctx, tx, sess.ID, StateExpired)
		}
		if err := sess.Answer(now, questionID, selected); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO session_answers (session_id,question_id,selected_index,answered_at)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (session_id,question_id) DO UPDATE SET selected_index=excluded.selected_index, answered_at=excluded.answered_at`,
			sess.ID, questionID, selected, now.UnixMilli()); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE sessions SET last_question_seen=$1 WHERE id=$2`, sess.LastQuestionSeen, sess.ID)
		return err
	})
	if err != nil {
		return err
	}
	if expired {
		return apperr.InvalidSession("session expired")
	}
	return nil
}

// Finish submits the session, grades it with grade and stores the result, all
// in one transaction.
func (s *SQLStore) Finish(ctx context.Context, token, userID string, now time.Time, grade GradeFunc) (grading.Result, error) {
	now = now.UTC().Truncate(time.Millisecond)
	var (
		res     grading.Result
		expired bool
	)
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		sess, err := s.lockOwned(ctx, tx, token, userID)
		if err != nil {
			return err
		}
		if sess.Expire(now) {
			expired = true
			return setState(ctx, tx, sess.ID, StateExpired)
		}
		if _, err := sess.Submit(now); err != nil {
			return err
		}
		if sess.Answers, err = loadAnswers(ctx, tx, sess.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE sessions SET state=$1, submitted_at=$2 WHERE id=$3`,
			string(StateSubmitted), now.UnixMilli(), sess.ID); err != nil {
			return err
		}

		res, err = grade(sess)
		if err != nil {
			return err
		}
		details, err := json.Marshal(res.PerQuestion)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO attempt_results
			(session_id,user_id,quiz_id,score,total,percentage,grade,time_taken_sec,details_json,submitted_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			res.SessionID, res.UserID, res.QuizID, res.Score, res.Total, res.Percentage, res.Grade,
			res.TimeTakenSeconds, string(details), res.SubmittedAt.UnixMilli())
		return err
	})
	if err != nil {
		return grading.Result{}, err
	}
	if expired {
		return grading.Result{}, apperr.InvalidSession("session expired")
	}
	return res, nil
}

// History lists a user's graded attempts, most recent first.
func (s *SQLStore) History(ctx context.Context, userID string) ([]grading.Result, error) {
	return s.queryResults(ctx, `WHERE user_id=$1`, userID)
}

// ResultsForQuiz lists every graded attempt of a quiz, most recent first.
func (s *SQLStore) ResultsForQuiz(ctx context.Context, quizID string) ([]grading.Result, error) {
	return s.queryResults(ctx, `WHERE quiz_id=$1`, quizID)
}

func (s *SQLStore) queryResults(ctx context.Context, where string, arg any) ([]grading.Result, error) {
	rows, err := s.db.SQL.QueryContext(ctx, `SELECT session_id,user_id,quiz_id,score,total,percentage,grade,
		time_taken_sec,details_json,submitted_at FROM attempt_results `+where+`
		ORDER BY submitted_at DESC, seq DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []grading.Result{}
	for rows.Next() {
		var (
			r           grading.Result
			details     string
			submittedAt int64
		)
		if err := rows.Scan(&r.SessionID, &r.UserID, &r.QuizID, &r.Score, &r.Total, &r.Percentage, &r.Grade,
			&r.TimeTakenSeconds, &details, &submittedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(details), &r.PerQuestion); err != nil {
			return nil, fmt.Errorf("decode result %s: %w", r.SessionID, err)
		}
		for _, q := range r.PerQuestion {
			if q.UserAnswer != nil {
				r.Answered++
			}
		}
		r.Performance = grading.Performance(r.Grade)
		r.StudyResources = grading.StudyResources(r.PerQuestion)
		r.SubmittedAt = time.UnixMilli(submittedAt).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// lockOwned loads and row-locks a session, checking its owner.
func (s *SQLStore) lockOwned(ctx context.Context, tx *sql.Tx, token, userID string) (Session, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+sessionCols+` FROM sessions WHERE id=$1`+s.db.LockClause(), token)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, apperr.InvalidSession("session not found")
	}
	if err != nil {
		return Session{}, err
	}
	if sess.UserID != userID {
		return Session{}, apperr.Forbidden("session belongs to another user")
	}
	return sess, nil
}

func setState(ctx context.Context, tx *sql.Tx, id string, st State) error {
	_, err := tx.ExecContext(ctx, `UPDATE sessions SET state=$1 WHERE id=$2`, string(st), id)
	return err
}

func loadAnswers(ctx context.Context, tx *sql.Tx, sessionID string) (map[int]int, error) {
	rows, err := tx.QueryContext(ctx, `SELECT question_id, selected_index FROM session_answers WHERE session_id=$1`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int]int{}
	for rows.Next() {
		var q, sel int
		if err := rows.Scan(&q, &sel); err != nil {
			return nil, err
		}
		out[q] = sel
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var (
		s                    Session
		state                string
		startedAt, expiresAt int64
		submittedAt          sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.QuizID, &state, &startedAt, &expiresAt, &submittedAt, &s.LastQuestionSeen); err != nil {
		return Session{}, err
	}
	s.State = State(state)
	s.StartedAt = time.UnixMilli(startedAt).UTC()
	s.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	if submittedAt.Valid {
		t := time.UnixMilli(submittedAt.Int64).UTC()
		s.SubmittedAt = &t
	}
	return s, nil
}
