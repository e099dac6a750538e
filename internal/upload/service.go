package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/farzalfian/bumdes/internal/metrics"
	"github.com/farzalfian/bumdes/internal/storage"
)

// MaxFilesPerUpload caps a multi-file request.
const MaxFilesPerUpload = 10

var (
	// ErrNoFiles is returned for an empty batch.
	ErrNoFiles = errors.New("no files provided")
	// ErrTooManyFiles is returned when a batch exceeds MaxFilesPerUpload.
	ErrTooManyFiles = errors.New("too many files")
	// ErrSaveFailed wraps transcoding and storage failures.
	ErrSaveFailed = errors.New("failed to save image as webp")
	// ErrInvalidDataURL is returned for malformed base64 data URLs.
	ErrInvalidDataURL = errors.New("invalid image data url")
)

// BatchRejectedError is returned when every file of a batch failed validation.
type BatchRejectedError struct {
	Warnings []string
}

func (e *BatchRejectedError) Error() string {
	return "All files failed validation: " + strings.Join(e.Warnings, ", ")
}

// Transcoder converts image bytes to WebP.
type Transcoder interface {
	Transcode(data []byte) ([]byte, error)
}

// Part is an uploaded file whose content is only read after its metadata passed validation.
type Part struct {
	FileInfo
	Open func() (io.ReadCloser, error)
}

// BatchResult lists the stored URLs in request order and one warning per rejected file.
type BatchResult struct {
	URLs     []string
	Warnings []string
}

// Service validates uploads, transcodes them to WebP and stores them.
type Service struct {
	transcoder Transcoder
	store      storage.Storage
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewService creates an upload Service.
func NewService(transcoder Transcoder, store storage.Storage, clock clockwork.Clock, logger *slog.Logger) *Service {
	return &Service{
		transcoder: transcoder,
		store:      store,
		clock:      clock,
		logger:     logger.With("component", "upload_service"),
	}
}

// Load runs metadata validation, reads the content and runs signature validation.
// A negative Result means the part was rejected; err reports read failures only.
func (s *Service) Load(p Part) (File, Result, error) {
	if res := ValidateFile(p.FileInfo); !res.Valid {
		metrics.ValidationRejections.WithLabelValues("metadata").Inc()
		return File{}, res, nil
	}

	data, err := readPart(p)
	if err != nil {
		return File{}, Result{}, fmt.Errorf("read %q: %w", p.Name, err)
	}

	if res := ValidateMagicBytes(data); !res.Valid {
		metrics.ValidationRejections.WithLabelValues("signature").Inc()
		return File{}, res, nil
	}

	return File{FileInfo: p.FileInfo, Data: data}, Result{Valid: true}, nil
}

// UploadOne validates and stores a single file. A validation failure is
// returned as a *ValidationError.
func (s *Service) UploadOne(ctx context.Context, p Part) (string, error) {
	f, res, err := s.Load(p)
	if err != nil {
		return "", err
	}
	if !res.Valid {
		return "", res.Err()
	}
	return s.SaveImageAsWebP(ctx, f.Data, f.Name)
}

// UploadBatch validates every part, collects "<name>: <reason>" warnings for
// rejected ones and stores the rest in order. When every part is rejected a
// *BatchRejectedError is returned and nothing is stored.
func (s *Service) UploadBatch(ctx context.Context, parts []Part) (*BatchResult, error) {
	if len(parts) == 0 {
		return nil, ErrNoFiles
	}
	if len(parts) > MaxFilesPerUpload {
		return nil, ErrTooManyFiles
	}

	var accepted []File
	warnings := []string{}
	for _, p := range parts {
		f, res, err := s.Load(p)
		if err != nil {
			s.logger.Warn("upload part unreadable", "file", p.Name, "error", err)
			warnings = append(warnings, fmt.Sprintf("%s: File could not be read", p.Name))
			continue
		}
		if !res.Valid {
			warnings = append(warnings, fmt.Sprintf("%s: %s", p.Name, res.Reason))
			continue
		}
		accepted = append(accepted, f)
	}

	if len(accepted) == 0 {
		return nil, &BatchRejectedError{Warnings: warnings}
	}

	urls := make([]string, 0, len(accepted))
	keys := make([]string, 0, len(accepted))
	for _, f := range accepted {
		key, err := s.save(ctx, f.Data, f.Name)
		if err != nil {
			s.cleanup(keys)
			return nil, err
		}
		keys = append(keys, key)
		urls = append(urls, s.store.PublicURL(key))
	}

	return &BatchResult{URLs: urls, Warnings: warnings}, nil
}

// SaveImageAsWebP transcodes data to WebP, stores it under a
// year/month key and returns its public URL.
func (s *Service) SaveImageAsWebP(ctx context.Context, data []byte, originalName string) (string, error) {
	key, err := s.save(ctx, data, originalName)
	if err != nil {
		return "", err
	}
	return s.store.PublicURL(key), nil
}

// SaveDataURL stores a "data:image/...;base64," payload as WebP. The decoded
// bytes must satisfy the size limits and signature check.
func (s *Service) SaveDataURL(ctx context.Context, dataURL, name string) (string, error) {
	data, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}

	switch {
	case len(data) < MinFileSize:
		return "", &ValidationError{Reason: "File is too small"}
	case len(data) > MaxFileSize:
		return "", &ValidationError{Reason: "File exceeds maximum size of 50MB"}
	}
	if res := ValidateMagicBytes(data); !res.Valid {
		metrics.ValidationRejections.WithLabelValues("signature").Inc()
		return "", res.Err()
	}

	return s.SaveImageAsWebP(ctx, data, name)
}

// IsDataURL reports whether s is an inline data URL rather than a stored image path.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

func (s *Service) save(ctx context.Context, data []byte, originalName string) (string, error) {
	webp, err := s.transcoder.Transcode(data)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		s.logger.Error("transcode failed", "file", originalName, "error", err)
		return "", fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	key := s.objectKey(originalName)
	if err := s.store.Upload(ctx, key, bytes.NewReader(webp), int64(len(webp)), "image/webp"); err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		s.logger.Error("store failed", "file", originalName, "key", key, "error", err)
		return "", fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	metrics.UploadsTotal.WithLabelValues("stored").Inc()
	s.logger.Info("image stored", "file", originalName, "key", key, "bytes", len(webp))
	return key, nil
}

func (s *Service) cleanup(keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(context.Background(), key); err != nil {
			s.logger.Warn("cleanup of stored image failed", "key", key, "error", err)
		}
	}
}

// objectKey builds "YYYY/MM/<name>_<unix millis>_<8 hex>.webp".
func (s *Service) objectKey(originalName string) string {
	now := s.clock.Now()
	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	return fmt.Sprintf("%04d/%02d/%s_%d_%s.webp",
		now.Year(), int(now.Month()), sanitize(base), now.UnixMilli(), uuid.NewString()[:8])
}

// sanitize keeps letters, digits, '-' and '_' and caps the name at 50 runes.
func sanitize(name string) string {
	var b strings.Builder
	n := 0
	for _, r := range name {
		if n == 50 {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
			n++
		}
	}
	if b.Len() == 0 {
		return "image"
	}
	return b.String()
}

func readPart(p Part) ([]byte, error) {
	if p.Open == nil {
		return nil, errors.New("part has no content")
	}
	rc, err := p.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, MaxFileSize+1))
}

func decodeDataURL(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, "data:image/") {
		return nil, ErrInvalidDataURL
	}
	i := strings.Index(dataURL, ";base64,")
	if i < 0 {
		return nil, ErrInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(dataURL[i+len(";base64,"):])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return data, nil
}
