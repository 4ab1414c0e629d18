// Package upload stores user images in S3-compatible object storage.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxSize is the upload size cap.
const MaxSize = 5 << 20 // 5MB

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var (
	ErrTooLarge        = errors.New("file exceeds the 5MB limit")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrNotConfigured   = errors.New("uploads not configured")
)

// Config holds object storage settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// Service uploads images to a MinIO bucket.
type Service struct {
	client *minio.Client
	config Config
}

// NewService connects to object storage and ensures the bucket exists.
// An empty endpoint returns a service that rejects uploads.
func NewService(ctx context.Context, config Config) (*Service, error) {
	if config.Endpoint == "" {
		return &Service{config: config}, nil
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	exists, err := client.BucketExists(ctx, config.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, config.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &Service{client: client, config: config}, nil
}

// IsConfigured reports whether uploads can be accepted.
func (s *Service) IsConfigured() bool {
	return s.client != nil
}

// Upload stores the file under <userID>/<timestamp>-<name> and returns
// its public URL. Size and content type are checked before any bytes
// move.
func (s *Service) Upload(ctx context.Context, userID, filename, contentType string, size int64, r io.Reader) (string, error) {
	if s.client == nil {
		return "", ErrNotConfigured
	}
	if size > MaxSize {
		return "", ErrTooLarge
	}
	if !allowedTypes[strings.ToLower(contentType)] {
		return "", ErrUnsupportedType
	}

	object := fmt.Sprintf("%s/%d-%s", userID, time.Now().UnixMilli(), sanitizeFilename(filename))
	_, err := s.client.PutObject(ctx, s.config.Bucket, object, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return s.publicURL(object), nil
}

func (s *Service) publicURL(object string) string {
	if s.config.PublicURL != "" {
		return strings.TrimRight(s.config.PublicURL, "/") + "/" + s.config.Bucket + "/" + object
	}
	scheme := "http"
	if s.config.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.config.Endpoint, s.config.Bucket, object)
}

// sanitizeFilename keeps object keys portable.
func sanitizeFilename(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "file"
	}
	return sb.String()
}
