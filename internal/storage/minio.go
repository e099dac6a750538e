package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOptions configures the S3-compatible image store.
type MinioOptions struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	Prefix     string // object name prefix inside the bucket, e.g. "images"
	PublicBase string // browser-accessible bucket URL, e.g. "http://localhost:9000/uploads"
	UseSSL     bool
}

// MinioStorage implements Storage on a MinIO or other S3-compatible bucket.
// Keys are stored as prefix/key.
type MinioStorage struct {
	client     *minio.Client
	bucket     string
	prefix     string
	publicBase string
	logger     *slog.Logger
}

// NewMinioStorage connects to the bucket, creating it when missing, and
// grants anonymous read on the image prefix.
func NewMinioStorage(ctx context.Context, opts MinioOptions, logger *slog.Logger) (*MinioStorage, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	s := &MinioStorage{
		client:     client,
		bucket:     opts.Bucket,
		prefix:     strings.Trim(opts.Prefix, "/"),
		publicBase: strings.TrimRight(opts.PublicBase, "/"),
		logger:     logger.With("component", "minio_storage", "bucket", opts.Bucket),
	}

	exists, err := client.BucketExists(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", s.bucket, err)
		}
		s.logger.Info("storage bucket created")
	}

	if err := client.SetBucketPolicy(ctx, s.bucket, publicReadPolicy(s.bucket, s.prefix)); err != nil {
		return nil, fmt.Errorf("set bucket policy: %w", err)
	}
	return s, nil
}

// Upload stores a WebP image under key. Objects are immutable, so they are
// served with a long cache lifetime.
func (s *MinioStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.objectName(key), reader, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// Delete removes the object at key. A missing object is not an error.
func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.objectName(key), minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}

func (s *MinioStorage) PublicURL(key string) string {
	return s.publicBase + "/" + s.objectName(key)
}

func (s *MinioStorage) objectName(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// publicReadPolicy allows anonymous GET on every object under prefix.
func publicReadPolicy(bucket, prefix string) string {
	resource := "arn:aws:s3:::" + bucket + "/*"
	if prefix != "" {
		resource = "arn:aws:s3:::" + bucket + "/" + prefix + "/*"
	}

	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": map[string][]string{"AWS": {"*"}},
				"Action":    []string{"s3:GetObject"},
				"Resource":  []string{resource},
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
