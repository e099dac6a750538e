// Package upload validates, rate-limits and stores admin image uploads.
package upload

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	// MinFileSize rejects empty or truncated uploads.
	MinFileSize = 100
	// MaxFileSize is the largest accepted upload (50 MiB).
	MaxFileSize = 50 * 1024 * 1024
)

// AllowedMIMETypes lists the declared content types accepted at the metadata layer.
var AllowedMIMETypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

// AllowedExtensions lists the lower-cased filename extensions accepted at the metadata layer.
var AllowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

var (
	sigJPEG = []byte{0xFF, 0xD8, 0xFF}
	sigPNG  = []byte{0x89, 0x50, 0x4E, 0x47}
	sigGIF  = []byte{0x47, 0x49, 0x46, 0x38}
	sigRIFF = []byte("RIFF")
	sigWEBP = []byte("WEBP")
)

// FileInfo is the declared metadata of an uploaded file.
type FileInfo struct {
	Name        string
	ContentType string
	Size        int64
}

// File is an uploaded file with its content fully read into memory.
type File struct {
	FileInfo
	Data []byte
}

// Result is the outcome of a validation step. Reason is set iff Valid is false.
type Result struct {
	Valid  bool
	Reason string
}

// ValidationError carries a rejection reason through error-returning code paths.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Err returns nil for a valid result and a *ValidationError otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Reason: r.Reason}
}

func valid() Result {
	return Result{Valid: true}
}

func invalid(reason string) Result {
	return Result{Reason: reason}
}

// ValidateFile checks declared size, MIME type, extension and filename.
// Checks run in that order and stop at the first failure.
func ValidateFile(f FileInfo) Result {
	if f.Size < MinFileSize {
		return invalid("File is too small")
	}
	if f.Size > MaxFileSize {
		return invalid("File exceeds maximum size of 50MB")
	}
	if !AllowedMIMETypes[f.ContentType] {
		return invalid(fmt.Sprintf("File type %s is not allowed", f.ContentType))
	}

	ext := extension(f.Name)
	if !AllowedExtensions[ext] {
		return invalid(fmt.Sprintf("File extension %s is not allowed", ext))
	}

	if hasSuspiciousPatterns(f.Name) {
		return invalid("Filename contains suspicious characters")
	}

	return valid()
}

// ValidateMagicBytes checks the leading bytes of the content against the
// JPEG, PNG, GIF and WebP signatures. Declared metadata is ignored.
func ValidateMagicBytes(data []byte) Result {
	if len(data) < 4 {
		return invalid("File is too small to validate")
	}

	switch {
	case bytes.HasPrefix(data, sigJPEG):
		return valid()
	case bytes.HasPrefix(data, sigPNG):
		return valid()
	case bytes.HasPrefix(data, sigGIF):
		return valid()
	case len(data) >= 12 && bytes.Equal(data[0:4], sigRIFF) && bytes.Equal(data[8:12], sigWEBP):
		return valid()
	}

	return invalid("File signature does not match allowed image formats")
}

// extension returns the lower-cased suffix starting at the last dot.
// A name without a dot is returned whole so it never matches an allowed extension.
func extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return strings.ToLower(name)
	}
	return strings.ToLower(name[i:])
}

// hasSuspiciousPatterns reports path traversal sequences, separators,
// shell/header metacharacters and ASCII control codes.
func hasSuspiciousPatterns(name string) bool {
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return true
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c <= 0x1F {
			return true
		}
		switch c {
		case '<', '>', ':', '"', '|', '?', '*':
			return true
		}
	}
	return false
}
