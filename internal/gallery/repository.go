// Package gallery manages the village photo gallery.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DateLayout is the wire format of ReleaseDate.
const DateLayout = "2006-01-02"

// Gallery is a published gallery image.
type Gallery struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageURL"`
	ReleaseDate string    `json:"releaseDate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ErrNotFound is returned when a gallery entry does not exist.
var ErrNotFound = errors.New("gallery not found")

const galleryColumns = `id, name, description, image_url, release_date, created_at, updated_at`

// Repository handles gallery persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new gallery Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// List returns entries newest first, optionally filtered by a
// case-insensitive match on name or description.
func (r *Repository) List(ctx context.Context, search string) ([]Gallery, error) {
	query := `SELECT ` + galleryColumns + ` FROM galleries`
	var args []interface{}
	if s := strings.TrimSpace(search); s != "" {
		query += ` WHERE name ILIKE $1 OR description ILIKE $1`
		args = append(args, likePattern(s))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list galleries: %w", err)
	}
	defer rows.Close()

	galleries := []Gallery{}
	for rows.Next() {
		g, err := scanGallery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan gallery: %w", err)
		}
		galleries = append(galleries, *g)
	}
	return galleries, rows.Err()
}

// GetByID fetches a gallery entry by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Gallery, error) {
	g, err := scanGallery(r.db.QueryRow(ctx,
		`SELECT `+galleryColumns+` FROM galleries WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get gallery: %w", err)
	}
	return g, nil
}

// Create inserts g and fills its timestamps.
func (r *Repository) Create(ctx context.Context, g *Gallery) error {
	release, err := time.Parse(DateLayout, g.ReleaseDate)
	if err != nil {
		return fmt.Errorf("parse release date: %w", err)
	}
	err = r.db.QueryRow(ctx,
		`INSERT INTO galleries (id, name, description, image_url, release_date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		g.ID, g.Name, g.Description, g.ImageURL, release,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create gallery: %w", err)
	}
	return nil
}

// Update overwrites every editable field of g.
func (r *Repository) Update(ctx context.Context, g *Gallery) error {
	release, err := time.Parse(DateLayout, g.ReleaseDate)
	if err != nil {
		return fmt.Errorf("parse release date: %w", err)
	}
	err = r.db.QueryRow(ctx,
		`UPDATE galleries
		 SET name = $2, description = $3, image_url = $4, release_date = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING created_at, updated_at`,
		g.ID, g.Name, g.Description, g.ImageURL, release,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update gallery: %w", err)
	}
	return nil
}

// Delete removes a gallery entry.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM galleries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete gallery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanGallery(row pgx.Row) (*Gallery, error) {
	g := &Gallery{}
	var release time.Time
	if err := row.Scan(&g.ID, &g.Name, &g.Description, &g.ImageURL, &release, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.ReleaseDate = release.Format(DateLayout)
	return g, nil
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
