package quiz

import "context"

type ListOpts struct {
	Q          string
	CreatorID  string // only quizzes created by this user
	ActiveOnly bool
	Limit      int
	Offset     int
}

// MetaUpdate carries the fields of a quiz that may change after creation.
// Nil fields are left untouched.
type MetaUpdate struct {
	Title  *string `json:"title,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

type Store interface {
	Create(ctx context.Context, q Quiz) error
	Get(ctx context.Context, id string) (Quiz, error) // full quiz, answers included
	List(ctx context.Context, opts ListOpts) ([]Summary, error)
	UpdateMeta(ctx context.Context, id string, upd MetaUpdate) (Quiz, error)
}
