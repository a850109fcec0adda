// Package events keeps an append-only log of domain events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mind-engage/quizgenix/internal/db"
)

const (
	TypeQuizCreated      = "QuizCreated"
	TypeSessionStarted   = "SessionStarted"
	TypeAttemptSubmitted = "AttemptSubmitted"
)

type Event struct {
	Seq       int64           `json:"seq"`
	SiteID    string          `json:"site_id"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// Recorder is the write side the service depends on.
type Recorder interface {
	Record(ctx context.Context, typ, key string, data any) error
}

type Log struct {
	db     *db.DB
	siteID string
	now    func() time.Time
}

func NewLog(d *db.DB, siteID string) *Log {
	if siteID == "" {
		siteID = "local"
	}
	return &Log{db: d, siteID: siteID, now: time.Now}
}

// Record marshals data and appends it as one event.
func (l *Log) Record(ctx context.Context, typ, key string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("event %s: %w", typ, err)
	}
	return l.Append(ctx, Event{Type: typ, Key: key, Data: b})
}

func (l *Log) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = l.siteID
	}
	if len(e.Data) == 0 {
		e.Data = json.RawMessage("{}")
	}
	_, err := l.db.SQL.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, string(e.Data), l.now().Unix())
	return err
}

// List returns events with seq greater than after, oldest first.
func (l *Log) List(ctx context.Context, after int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := l.db.SQL.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log
		 WHERE seq > $1 ORDER BY seq LIMIT $2`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var (
			e       Event
			data    string
			created int64
		)
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &data, &created); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		e.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
