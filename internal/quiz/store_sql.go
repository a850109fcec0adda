package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/quizgenix/internal/apperr"
	"github.com/mind-engage/quizgenix/internal/db"
)

type SQLStore struct {
	db *db.DB
}

func NewSQLStore(d *db.DB) *SQLStore {
	return &SQLStore{db: d}
}

func (s *SQLStore) Create(ctx context.Context, q Quiz) error {
	if len(q.Questions) == 0 {
		return apperr.Validation("quiz must have at least one question")
	}
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = q.CreatedAt
	}
	_, err = s.db.SQL.ExecContext(ctx, `INSERT INTO quizzes
		(id,creator_id,title,subject,topic,difficulty,domain,is_active,knowledge_version,questions_json,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		q.ID, q.CreatorID, q.Title, q.Subject, q.Topic, string(q.Difficulty), string(q.Domain),
		boolToInt(q.Active), q.KnowledgeVersion, string(qj), q.CreatedAt.Unix(), q.UpdatedAt.Unix())
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("quiz id already exists")
	}
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Quiz, error) {
	row := s.db.SQL.QueryRowContext(ctx, `SELECT id,creator_id,title,subject,topic,difficulty,domain,is_active,
		knowledge_version,questions_json,created_at,updated_at FROM quizzes WHERE id=$1`, id)
	return scanQuiz(row)
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Summary, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if opts.CreatorID != "" {
		where = append(where, "creator_id="+arg(opts.CreatorID))
	}
	if opts.ActiveOnly {
		where = append(where, "is_active=1")
	}
	if q := strings.TrimSpace(opts.Q); q != "" {
		p := arg("%" + strings.ToLower(q) + "%")
		where = append(where, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(topic) LIKE %s OR LOWER(subject) LIKE %s)", p, p, p))
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id,creator_id,title,subject,topic,difficulty,domain,is_active,
		knowledge_version,questions_json,created_at,updated_at FROM quizzes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows, err := s.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q.Summary())
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateMeta(ctx context.Context, id string, upd MetaUpdate) (Quiz, error) {
	var out Quiz
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT id,creator_id,title,subject,topic,difficulty,domain,is_active,
			knowledge_version,questions_json,created_at,updated_at FROM quizzes WHERE id=$1`+s.db.LockClause(), id)
		q, err := scanQuiz(row)
		if err != nil {
			return err
		}
		if upd.Title != nil {
			title := strings.TrimSpace(*upd.Title)
			if title == "" {
				return apperr.Validation("title must not be empty")
			}
			q.Title = title
		}
		if upd.Active != nil {
			q.Active = *upd.Active
		}
		q.UpdatedAt = time.Now()
		if _, err := tx.ExecContext(ctx, `UPDATE quizzes SET title=$1, is_active=$2, updated_at=$3 WHERE id=$4`,
			q.Title, boolToInt(q.Active), q.UpdatedAt.Unix(), id); err != nil {
			return err
		}
		out = q
		return nil
	})
	return out, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuiz(row scanner) (Quiz, error) {
	var (
		q                    Quiz
		difficulty, domain   string
		active               int
		qjson                string
		createdAt, updatedAt int64
	)
	err := row.Scan(&q.ID, &q.CreatorID, &q.Title, &q.Subject, &q.Topic, &difficulty, &domain,
		&active, &q.KnowledgeVersion, &qjson, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, apperr.NotFound("quiz not found")
		}
		return Quiz{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
		return Quiz{}, fmt.Errorf("decode questions of quiz %s: %w", q.ID, err)
	}
	q.Difficulty = Difficulty(difficulty)
	q.Domain = Domain(domain)
	q.Active = active != 0
	q.CreatedAt = time.Unix(createdAt, 0).UTC()
	q.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return q, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
