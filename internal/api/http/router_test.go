package http

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/quizgenix/internal/auth"
	authmw "github.com/mind-engage/quizgenix/internal/auth/middleware"
	"github.com/mind-engage/quizgenix/internal/config"
	"github.com/mind-engage/quizgenix/internal/db/dbtest"
	"github.com/mind-engage/quizgenix/internal/events"
	"github.com/mind-engage/quizgenix/internal/grading"
	"github.com/mind-engage/quizgenix/internal/quiz"
	"github.com/mind-engage/quizgenix/internal/service"
	"github.com/mind-engage/quizgenix/internal/session"
	"github.com/mind-engage/quizgenix/internal/synth"
)

type testEnv struct {
	t   *testing.T
	h   http.Handler
	now time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	d := dbtest.Open(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cat, err := synth.DefaultCatalog()
	require.NoError(t, err)
	sy := synth.New(cat, synth.WithRand(rand.New(rand.NewPCG(1, 2))), synth.WithLogger(log))

	env := &testEnv{t: t, now: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	ev := events.NewLog(d, "test")
	svc := service.New(quiz.NewSQLStore(d), session.NewSQLStore(d), sy,
		service.WithClock(func() time.Time { return env.now }),
		service.WithEvents(ev),
		service.WithLogger(log))

	env.h = NewRouter(Deps{
		Config:  config.Config{EnableLocalAuth: true, EnableRegistration: true},
		DB:      d,
		Service: svc,
		Users:   auth.NewUsers(d).WithCost(bcrypt.MinCost),
		Auth:    authmw.NewAuthService("test-secret", time.Hour),
		Events:  ev,
		Logger:  log,
	})
	return env
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(username, role string) string {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/auth/register", "", map[string]string{
		"username": username, "password": "password123", "role": role,
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
	}
	decode(e.t, rec, &out)
	return out.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}
	decode(t, rec, &body)
	assert.NotEmpty(t, body.Error.Message)
	return body.Error.Kind
}

func (e *testEnv) createQuiz(token string, count int) quiz.Quiz {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/quizzes", token, map[string]any{
		"subject": "javascript", "topic": "closures", "difficulty": "medium", "count": count,
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var q quiz.Quiz
	decode(e.t, rec, &q)
	return q
}

func TestQuizLifecycle(t *testing.T) {
	env := newTestEnv(t)
	lecturer := env.register("lena", "lecturer")
	student := env.register("sam", "student")

	q := env.createQuiz(lecturer, 5)
	require.Len(t, q.Questions, 5)
	assert.Equal(t, "Closures Quiz", q.Title)
	assert.Equal(t, quiz.DomainJavaScript, q.Domain)
	assert.True(t, q.Active)

	// start twice: same token, second time 200
	rec := env.do(http.MethodPost, "/quizzes/"+q.ID+"/sessions", student, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), `"correct_index"`)
	assert.NotContains(t, rec.Body.String(), `"explanation"`)
	var first service.SessionView
	decode(t, rec, &first)
	require.Len(t, first.Questions, 5)
	assert.Equal(t, env.now.Add(2*time.Hour), first.ExpiresAt)

	rec = env.do(http.MethodPost, "/quizzes/"+q.ID+"/sessions", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var second service.SessionView
	decode(t, rec, &second)
	assert.Equal(t, first.SessionToken, second.SessionToken)
	assert.True(t, second.Resumed)

	// answer 3 correctly, leave 2 unanswered
	for _, qn := range q.Questions[:3] {
		rec = env.do(http.MethodPut, "/sessions/"+first.SessionToken+"/answers", student,
			map[string]int{"question_id": qn.ID, "selected_index": qn.CorrectIndex})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"accepted":true}`, rec.Body.String())
	}

	rec = env.do(http.MethodGet, "/sessions/"+first.SessionToken, student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resumed service.SessionView
	decode(t, rec, &resumed)
	assert.Len(t, resumed.Answers, 3)

	env.now = env.now.Add(4 * time.Minute)
	rec = env.do(http.MethodPost, "/sessions/"+first.SessionToken+"/finish", student, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res grading.Result
	decode(t, rec, &res)
	assert.Equal(t, 3, res.Score)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 60.0, res.Percentage)
	assert.Equal(t, "D", res.Grade)
	assert.Contains(t, rec.Body.String(), `"performance":"Needs improvement"`)
	assert.Equal(t, int64(240), res.TimeTakenSeconds)
	assert.Nil(t, res.PerQuestion[4].UserAnswer)

	// session is closed now
	rec = env.do(http.MethodPut, "/sessions/"+first.SessionToken+"/answers", student,
		map[string]int{"question_id": 4, "selected_index": 0})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_session", errorKind(t, rec))

	rec = env.do(http.MethodGet, "/attempts", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hist []grading.Result
	decode(t, rec, &hist)
	require.Len(t, hist, 1)
	assert.Equal(t, first.SessionToken, hist[0].SessionID)

	// lecturer views results
	rec = env.do(http.MethodGet, "/quizzes/"+q.ID+"/results?format=csv", lecturer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	recs, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "D", recs[1][7])

	rec = env.do(http.MethodGet, "/quizzes/"+q.ID+"/results", student, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAnswerAfterExpiry(t *testing.T) {
	env := newTestEnv(t)
	lecturer := env.register("lena", "lecturer")
	student := env.register("sam", "student")
	q := env.createQuiz(lecturer, 2)

	rec := env.do(http.MethodPost, "/quizzes/"+q.ID+"/sessions", student, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var v service.SessionView
	decode(t, rec, &v)

	env.now = v.ExpiresAt.Add(time.Second)
	rec = env.do(http.MethodPut, "/sessions/"+v.SessionToken+"/answers", student,
		map[string]int{"question_id": 1, "selected_index": 0})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_session", errorKind(t, rec))

	// a fresh start after expiry opens a new session
	rec = env.do(http.MethodPost, "/quizzes/"+q.ID+"/sessions", student, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var again service.SessionView
	decode(t, rec, &again)
	assert.NotEqual(t, v.SessionToken, again.SessionToken)
}

func TestValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	lecturer := env.register("lena", "lecturer")
	student := env.register("sam", "student")

	cases := []struct {
		name string
		body any
	}{
		{"zero count", map[string]any{"topic": "closures", "difficulty": "easy", "count": 0}},
		{"too many", map[string]any{"topic": "closures", "difficulty": "easy", "count": 51}},
		{"non numeric count", map[string]any{"topic": "closures", "difficulty": "easy", "count": "three"}},
		{"bad difficulty", map[string]any{"topic": "closures", "difficulty": "brutal", "count": 3}},
		{"missing topic", map[string]any{"difficulty": "easy", "count": 3}},
		{"unknown field", map[string]any{"topic": "x", "difficulty": "easy", "count": 1, "colour": "red"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/quizzes", lecturer, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "validation_error", errorKind(t, rec))
		})
	}

	q := env.createQuiz(lecturer, 3)
	rec := env.do(http.MethodPost, "/quizzes/"+q.ID+"/sessions", student, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var v service.SessionView
	decode(t, rec, &v)

	for _, body := range []any{
		map[string]int{"question_id": 1, "selected_index": 4},
		map[string]int{"question_id": 1, "selected_index": -1},
		map[string]int{"question_id": 99, "selected_index": 0},
		map[string]int{"question_id": 1},
	} {
		rec = env.do(http.MethodPut, "/sessions/"+v.SessionToken+"/answers", student, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%v", body)
	}
}

func TestAuthAndPermissions(t *testing.T) {
	env := newTestEnv(t)
	lecturer := env.register("lena", "lecturer")
	other := env.register("otto", "lecturer")
	student := env.register("sam", "student")

	rec := env.do(http.MethodGet, "/quizzes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "sam", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorKind(t, rec))

	rec = env.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "sam", "password": "password123"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/quizzes", student, map[string]any{"topic": "x", "difficulty": "easy", "count": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	q := env.createQuiz(lecturer, 2)

	rec = env.do(http.MethodPatch, "/quizzes/"+q.ID, other, map[string]any{"title": "Mine now"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", errorKind(t, rec))

	rec = env.do(http.MethodGet, "/quizzes/does-not-exist", student, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorKind(t, rec))

	// a student cannot touch someone else's session
	rec = env.do(http.MethodPost, "/quizzes/"+q.ID+"/sessions", lecturer, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var v service.SessionView
	decode(t, rec, &v)
	rec = env.do(http.MethodPost, "/sessions/"+v.SessionToken+"/finish", student, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/sessions/no-such-token", student, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/events", lecturer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestQuizViewsAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	lecturer := env.register("lena", "lecturer")
	student := env.register("sam", "student")
	q := env.createQuiz(lecturer, 2)

	rec := env.do(http.MethodGet, "/quizzes/"+q.ID, lecturer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"correct_index"`)

	rec = env.do(http.MethodGet, "/quizzes/"+q.ID, student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"correct_index"`)
	assert.Contains(t, rec.Body.String(), `"public_questions"`)

	rec = env.do(http.MethodPatch, "/quizzes/"+q.ID, lecturer, map[string]any{"title": "Week 3", "active": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sum quiz.Summary
	decode(t, rec, &sum)
	assert.Equal(t, "Week 3", sum.Title)
	assert.False(t, sum.Active)

	rec = env.do(http.MethodPost, "/quizzes/"+q.ID+"/sessions", student, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(http.MethodGet, "/quizzes/"+q.ID, student, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodGet, "/quizzes", student, nil)
	var list []quiz.Summary
	decode(t, rec, &list)
	assert.Empty(t, list)

	rec = env.do(http.MethodGet, "/quizzes?q=week", lecturer, nil)
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, q.ID, list[0].ID)
}

func TestExportQuiz(t *testing.T) {
	env := newTestEnv(t)
	lecturer := env.register("lena", "lecturer")
	q := env.createQuiz(lecturer, 3)

	rec := env.do(http.MethodGet, "/quizzes/"+q.ID+"/export", lecturer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "closures-quiz.zip")
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	assert.Len(t, zr.File, 4)

	rec = env.do(http.MethodGet, "/quizzes/"+q.ID+"/export?format=json", lecturer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got quiz.Quiz
	decode(t, rec, &got)
	assert.Equal(t, q.Questions, got.Questions)

	rec = env.do(http.MethodGet, "/quizzes/"+q.ID+"/export?format=pdf", lecturer, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/readyz", "", nil).Code)
}
