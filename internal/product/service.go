package product

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/farzalfian/bumdes/internal/upload"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ErrInvalidInput wraps every rejected create or update payload.
var ErrInvalidInput = errors.New("invalid input")

// Store is the product persistence used by Service.
type Store interface {
	List(ctx context.Context, p ListParams) ([]Product, int, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}

// ImageSaver stores inline base64 images and returns their public URL.
type ImageSaver interface {
	SaveDataURL(ctx context.Context, dataURL, name string) (string, error)
}

// Input is the editable part of a product.
type Input struct {
	Name         string   `json:"name"         example:"Keripik Singkong"`
	Description  string   `json:"description"  example:"Keripik singkong pedas khas desa"`
	Category     string   `json:"category"     example:"Makanan"`
	ThumbnailURL string   `json:"thumbnailURL" example:"/uploads/2025/03/keripik_1741343400000_1a2b3c4d.webp"`
	ImageURLs    []string `json:"imageURL"`
	Price        int64    `json:"price"        example:"15000"`
	StockStatus  bool     `json:"stockStatus"  example:"true"`
	StockAmount  int      `json:"stockAmount"  example:"25"`
}

// Page is one page of List results.
type Page struct {
	Data  []Product `json:"data"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Max   int       `json:"max"`
}

// Service contains the catalogue logic.
type Service struct {
	repo   Store
	images ImageSaver
	logger *slog.Logger
}

// NewService creates a new product Service.
func NewService(repo Store, images ImageSaver, logger *slog.Logger) *Service {
	return &Service{repo: repo, images: images, logger: logger.With("component", "product_service")}
}

// List returns a page of products. Page < 1 becomes 1; Max outside 1..100 becomes 10.
func (s *Service) List(ctx context.Context, p ListParams) (*Page, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Max < 1 || p.Max > maxPageSize {
		p.Max = defaultPageSize
	}

	products, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}
	return &Page{Data: products, Total: total, Page: p.Page, Max: p.Max}, nil
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates in, stores any inline images and persists a new product.
func (s *Service) Create(ctx context.Context, in Input) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.storeImages(ctx, &in); err != nil {
		return nil, err
	}

	p := in.toProduct("prod_" + uuid.NewString())
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("product created", "product_id", p.ID)
	return p, nil
}

// Update validates in, stores any inline images and overwrites product id.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.storeImages(ctx, &in); err != nil {
		return nil, err
	}

	p := in.toProduct(id)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("product updated", "product_id", id)
	return p, nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", "product_id", id)
	return nil
}

func (s *Service) storeImages(ctx context.Context, in *Input) error {
	if upload.IsDataURL(in.ThumbnailURL) {
		url, err := s.saveImage(ctx, in.ThumbnailURL, "thumbnail")
		if err != nil {
			return err
		}
		in.ThumbnailURL = url
	}

	for i, img := range in.ImageURLs {
		if !upload.IsDataURL(img) {
			continue
		}
		url, err := s.saveImage(ctx, img, fmt.Sprintf("product_%d", i))
		if err != nil {
			return err
		}
		in.ImageURLs[i] = url
	}
	return nil
}

func (s *Service) saveImage(ctx context.Context, dataURL, name string) (string, error) {
	url, err := s.images.SaveDataURL(ctx, dataURL, name)
	var verr *upload.ValidationError
	switch {
	case errors.As(err, &verr):
		return "", fmt.Errorf("%w: %s: %s", ErrInvalidInput, name, verr.Reason)
	case errors.Is(err, upload.ErrInvalidDataURL):
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidInput, name, err)
	case err != nil:
		return "", err
	}
	return url, nil
}

func (in *Input) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)

	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case in.Category == "":
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	case in.ThumbnailURL == "":
		return fmt.Errorf("%w: thumbnailURL is required", ErrInvalidInput)
	case in.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	case in.StockAmount < 0:
		return fmt.Errorf("%w: stockAmount must not be negative", ErrInvalidInput)
	}
	return nil
}

func (in Input) toProduct(id string) *Product {
	images := in.ImageURLs
	if images == nil {
		images = []string{}
	}
	return &Product{
		ID:           id,
		Name:         in.Name,
		Description:  in.Description,
		Category:     in.Category,
		ThumbnailURL: in.ThumbnailURL,
		ImageURLs:    images,
		Price:        in.Price,
		StockStatus:  in.StockStatus,
		StockAmount:  in.StockAmount,
	}
}
