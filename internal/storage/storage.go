// Package storage persists transcoded images and maps their keys to public URLs.
//
// Keys are slash-separated and relative, e.g. "2026/10/keripik_1760700000000_ab12cd34.webp".
// FileSystem serves a single instance from local disk; MinioStorage works with
// any S3-compatible bucket and suits multi-instance deployments.
package storage

import (
	"context"
	"io"
)

// Storage is where uploaded images are written.
type Storage interface {
	// Upload writes the object under key, replacing any previous content.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// Delete removes the object. Deleting a missing key succeeds.
	Delete(ctx context.Context, key string) error
	// PublicURL returns the URL browsers use to fetch key.
	PublicURL(key string) string
}
