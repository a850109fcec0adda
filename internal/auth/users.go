// Package auth keeps local accounts: bcrypt password hashes in the users
// table.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/quizgenix/internal/apperr"
	"github.com/mind-engage/quizgenix/internal/db"
	"github.com/mind-engage/quizgenix/internal/rbac"
)

const (
	minPasswordLen = 8
	// bcrypt only hashes the first 72 bytes and rejects longer input.
	maxPasswordBytes = 72
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Users struct {
	db   *db.DB
	cost int
}

func NewUsers(d *db.DB) *Users {
	return &Users{db: d, cost: 12}
}

// WithCost returns a copy hashing with the given bcrypt cost; tests use
// bcrypt.MinCost.
func (u *Users) WithCost(cost int) *Users {
	cp := *u
	cp.cost = cost
	return &cp
}

// Register creates an account. Only students and lecturers may self-register.
func (u *Users) Register(ctx context.Context, username, password, role string) (User, error) {
	username = strings.TrimSpace(username)
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = rbac.RoleStudent
	}
	if username == "" {
		return User{}, apperr.Validation("username is required")
	}
	if err := checkPassword(password); err != nil {
		return User{}, err
	}
	if role != rbac.RoleStudent && role != rbac.RoleLecturer {
		return User{}, apperr.Validation("role must be student or lecturer")
	}
	return u.create(ctx, username, password, role)
}

// EnsureAdmin creates the admin account if no user has that name yet.
func (u *Users) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if len(password) > maxPasswordBytes {
		return apperr.Validation("password must be at most %d bytes", maxPasswordBytes)
	}
	_, err := u.create(ctx, username, password, rbac.RoleAdmin)
	if errors.Is(err, apperr.ErrConflict) {
		return nil
	}
	return err
}

func checkPassword(p string) error {
	switch {
	case len(p) < minPasswordLen:
		return apperr.Validation("password must be at least %d characters", minPasswordLen)
	case len(p) > maxPasswordBytes:
		return apperr.Validation("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

func (u *Users) create(ctx context.Context, username, password, role string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return User{}, err
	}
	usr := User{
		ID:        uuid.NewString(),
		Username:  username,
		Role:      role,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	_, err = u.db.SQL.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
		usr.ID, usr.Username, string(hash), usr.Role, usr.CreatedAt.Unix())
	if db.IsUniqueViolation(err) {
		return User{}, apperr.Conflict("username already taken")
	}
	if err != nil {
		return User{}, err
	}
	return usr, nil
}

// Authenticate checks username and password.
func (u *Users) Authenticate(ctx context.Context, username, password string) (User, error) {
	var (
		usr     User
		hash    string
		created int64
	)
	err := u.db.SQL.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users WHERE username=$1`,
		strings.TrimSpace(username)).Scan(&usr.ID, &usr.Username, &hash, &usr.Role, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, apperr.Unauthorized("invalid credentials")
	}
	usr.CreatedAt = time.Unix(created, 0).UTC()
	return usr, nil
}

// ChangePassword replaces the password after checking the old one.
func (u *Users) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	var stored string
	err := u.db.SQL.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id=$1`, userID).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("user not found")
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte(oldPassword)) != nil {
		return apperr.Forbidden("incorrect old password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), u.cost)
	if err != nil {
		return err
	}
	_, err = u.db.SQL.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, string(hash), userID)
	return err
}

// Role returns the stored role of a user id.
func (u *Users) Role(ctx context.Context, userID string) (string, error) {
	var role string
	err := u.db.SQL.QueryRowContext(ctx, `SELECT role FROM users WHERE id=$1`, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.Unauthorized("unknown user")
	}
	return role, err
}
