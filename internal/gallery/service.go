package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/farzalfian/bumdes/internal/upload"
)

// ErrInvalidInput wraps every rejected create or update payload.
var ErrInvalidInput = errors.New("invalid input")

// Store is the gallery persistence used by Service.
type Store interface {
	List(ctx context.Context, search string) ([]Gallery, error)
	GetByID(ctx context.Context, id string) (*Gallery, error)
	Create(ctx context.Context, g *Gallery) error
	Update(ctx context.Context, g *Gallery) error
	Delete(ctx context.Context, id string) error
}

// ImageSaver stores inline base64 images and returns their public URL.
type ImageSaver interface {
	SaveDataURL(ctx context.Context, dataURL, name string) (string, error)
}

// Input is the editable part of a gallery entry.
type Input struct {
	Name        string `json:"name"        example:"Panen Raya 2025"`
	Description string `json:"description" example:"Dokumentasi panen raya padi"`
	ImageURL    string `json:"imageURL"    example:"/uploads/2025/03/panen_1741343400000_1a2b3c4d.webp"`
	ReleaseDate string `json:"releaseDate" example:"2025-03-07"`
}

// Service contains the gallery logic.
type Service struct {
	repo   Store
	images ImageSaver
	logger *slog.Logger
}

// NewService creates a new gallery Service.
func NewService(repo Store, images ImageSaver, logger *slog.Logger) *Service {
	return &Service{repo: repo, images: images, logger: logger.With("component", "gallery_service")}
}

// List returns every entry matching search, newest first.
func (s *Service) List(ctx context.Context, search string) ([]Gallery, error) {
	galleries, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, err
	}
	if galleries == nil {
		galleries = []Gallery{}
	}
	return galleries, nil
}

// Get returns a single entry.
func (s *Service) Get(ctx context.Context, id string) (*Gallery, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates in, stores an inline image and persists a new entry.
func (s *Service) Create(ctx context.Context, in Input) (*Gallery, error) {
	if err := s.prepare(ctx, &in); err != nil {
		return nil, err
	}

	g := in.toGallery("gal_" + uuid.NewString())
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, err
	}
	s.logger.Info("gallery created", "gallery_id", g.ID)
	return g, nil
}

// Update validates in, stores an inline image and overwrites entry id.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Gallery, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.prepare(ctx, &in); err != nil {
		return nil, err
	}

	g := in.toGallery(id)
	if err := s.repo.Update(ctx, g); err != nil {
		return nil, err
	}
	s.logger.Info("gallery updated", "gallery_id", id)
	return g, nil
}

// Delete removes an entry.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("gallery deleted", "gallery_id", id)
	return nil
}

func (s *Service) prepare(ctx context.Context, in *Input) error {
	in.Name = strings.TrimSpace(in.Name)
	in.ReleaseDate = strings.TrimSpace(in.ReleaseDate)

	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case in.ImageURL == "":
		return fmt.Errorf("%w: imageURL is required", ErrInvalidInput)
	}
	if _, err := time.Parse(DateLayout, in.ReleaseDate); err != nil {
		return fmt.Errorf("%w: releaseDate must be YYYY-MM-DD", ErrInvalidInput)
	}

	if !upload.IsDataURL(in.ImageURL) {
		return nil
	}
	url, err := s.images.SaveDataURL(ctx, in.ImageURL, "gallery")
	var verr *upload.ValidationError
	switch {
	case errors.As(err, &verr):
		return fmt.Errorf("%w: imageURL: %s", ErrInvalidInput, verr.Reason)
	case errors.Is(err, upload.ErrInvalidDataURL):
		return fmt.Errorf("%w: imageURL: %v", ErrInvalidInput, err)
	case err != nil:
		return err
	}
	in.ImageURL = url
	return nil
}

func (in Input) toGallery(id string) *Gallery {
	return &Gallery{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		ReleaseDate: in.ReleaseDate,
	}
}
