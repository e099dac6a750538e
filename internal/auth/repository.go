// Package auth handles admin login, JWT issuance and password management.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Admin is a back-office account.
type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ErrNotFound is returned when an admin does not exist.
var ErrNotFound = errors.New("admin not found")

// ErrAlreadyExists is returned when a username is already taken.
var ErrAlreadyExists = errors.New("admin already exists")

// Repository handles admin persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new auth Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new admin.
func (r *Repository) Create(ctx context.Context, a *Admin) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO admins (id, username, name, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		a.ID, a.Username, a.Name, a.PasswordHash,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// GetByUsername fetches an admin by username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Admin, error) {
	return r.getOne(ctx, `WHERE username = $1`, username)
}

// GetByID fetches an admin by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Admin, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *Repository) getOne(ctx context.Context, where string, arg string) (*Admin, error) {
	a := &Admin{}
	err := r.db.QueryRow(ctx,
		`SELECT id, username, name, password_hash, created_at, updated_at
		 FROM admins `+where,
		arg,
	).Scan(&a.ID, &a.Username, &a.Name, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return a, nil
}

// UpdatePassword replaces the stored password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE admins SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation checks for PostgreSQL unique constraint errors (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
