// Package storage provides object storage for generated documents,
// backed by MinIO. The billing module uses it to archive invoice PDFs
// and to presign download links for them.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"leadmarket_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is the expiration time for presigned download URLs.
const PresignedURLTTL = 15 * time.Minute

// DocumentStore is the interface the billing module depends on.
type DocumentStore interface {
	EnsureBucket(ctx context.Context, bucket string) error
	Upload(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
	PresignDownload(ctx context.Context, bucket, fileKey string) (string, time.Time, error)
}

// MinIOStore implements DocumentStore using MinIO.
type MinIOStore struct {
	client      *minio.Client
	maxFileSize int64
}

var _ DocumentStore = (*MinIOStore)(nil)

// NewMinIOStore creates a new MinIO-backed document store.
func NewMinIOStore(cfg config.MinIOConfig) (*MinIOStore, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOStore{
		client:      client,
		maxFileSize: cfg.GetMinIOMaxFileSize(),
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *MinIOStore) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// Upload stores a document and returns its file key. A short UUID suffix
// keeps distinct uploads with the same name from overwriting each other.
func (s *MinIOStore) Upload(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	if size > s.maxFileSize {
		return "", fmt.Errorf("file size %d exceeds maximum of %d bytes", size, s.maxFileSize)
	}

	dot := strings.LastIndex(fileName, ".")
	base, ext := fileName, ""
	if dot > 0 {
		base, ext = fileName[:dot], fileName[dot:]
	}
	fileKey := fmt.Sprintf("%s/%s_%s%s", folder, base, uuid.New().String()[:8], ext)

	_, err := s.client.PutObject(ctx, bucket, fileKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", fileKey, err)
	}
	return fileKey, nil
}

// PresignDownload creates a time-limited download URL for a stored document.
func (s *MinIOStore) PresignDownload(ctx context.Context, bucket, fileKey string) (string, time.Time, error) {
	expiresAt := time.Now().Add(PresignedURLTTL)
	presignedURL, err := s.client.PresignedGetObject(ctx, bucket, fileKey, PresignedURLTTL, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign download for %s: %w", fileKey, err)
	}
	return presignedURL.String(), expiresAt, nil
}
