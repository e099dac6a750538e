// Package product manages the storefront catalogue.
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Product is a catalogue item. Price is in whole rupiah.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	ThumbnailURL string    `json:"thumbnailURL"`
	ImageURLs    []string  `json:"imageURL"`
	Price        int64     `json:"price"`
	StockStatus  bool      `json:"stockStatus"`
	StockAmount  int       `json:"stockAmount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ListParams filters and paginates List. Page is 1-based.
type ListParams struct {
	Search   string
	Category string
	Page     int
	Max      int
}

// ErrNotFound is returned when a product does not exist.
var ErrNotFound = errors.New("product not found")

const productColumns = `id, name, description, category, thumbnail_url, image_urls,
	price, stock_status, stock_amount, created_at, updated_at`

// Repository handles product persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new product Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// List returns one page of products, newest first, and the total match count.
// Search matches name, description or category case-insensitively.
func (r *Repository) List(ctx context.Context, p ListParams) ([]Product, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if s := strings.TrimSpace(p.Search); s != "" {
		args = append(args, likePattern(s))
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d OR category ILIKE $%d)", n, n, n))
	}
	if c := strings.TrimSpace(p.Category); c != "" {
		args = append(args, likePattern(c))
		conds = append(conds, fmt.Sprintf("category ILIKE $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	args = append(args, p.Max, (p.Page-1)*p.Max)
	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM products%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
			productColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

// GetByID fetches a product by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Create inserts p and fills its timestamps.
func (r *Repository) Create(ctx context.Context, p *Product) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO products (id, name, description, category, thumbnail_url, image_urls,
		                       price, stock_status, stock_amount)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Description, p.Category, p.ThumbnailURL, nonNil(p.ImageURLs),
		p.Price, p.StockStatus, p.StockAmount,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// Update overwrites every editable field of p.
func (r *Repository) Update(ctx context.Context, p *Product) error {
	err := r.db.QueryRow(ctx,
		`UPDATE products
		 SET name = $2, description = $3, category = $4, thumbnail_url = $5, image_urls = $6,
		     price = $7, stock_status = $8, stock_amount = $9, updated_at = NOW()
		 WHERE id = $1
		 RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Description, p.Category, p.ThumbnailURL, nonNil(p.ImageURLs),
		p.Price, p.StockStatus, p.StockAmount,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// Delete removes a product.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	p := &Product{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.ThumbnailURL, &p.ImageURLs,
		&p.Price, &p.StockStatus, &p.StockAmount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// likePattern wraps s for a substring ILIKE match with wildcards escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
