package media

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"fieldtech_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is the expiration time for download URLs served to the app.
const PresignedURLTTL = 15 * time.Minute

const metaCapturedAt = "Captured-At"

// StoredObject is one object as returned by the store listing.
type StoredObject struct {
	Key        string
	URL        string
	CapturedAt string
}

// ObjectStore abstracts the S3-compatible backend so the service layer can
// be tested without MinIO.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte, capturedAt string) (url string, err error)
	Remove(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]StoredObject, error)
}

// MinIOStore implements ObjectStore using MinIO.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOStore creates the store from configuration.
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

	return &MinIOStore{client: client, bucket: cfg.GetMinioBucketJobMedia()}, nil
}

// EnsureBucketExists creates the media bucket if it doesn't exist.
func (s *MinIOStore) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Put uploads an object and returns a presigned download URL.
func (s *MinIOStore) Put(ctx context.Context, key, contentType string, data []byte, capturedAt string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if capturedAt != "" {
		opts.UserMetadata = map[string]string{metaCapturedAt: capturedAt}
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	return s.presign(ctx, key)
}

// Remove deletes an object.
func (s *MinIOStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// List returns all objects under a key prefix with presigned URLs.
func (s *MinIOStore) List(ctx context.Context, prefix string) ([]StoredObject, error) {
	var objects []StoredObject

	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:       prefix,
		Recursive:    true,
		WithMetadata: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, info.Err)
		}

		downloadURL, err := s.presign(ctx, info.Key)
		if err != nil {
			return nil, err
		}

		objects = append(objects, StoredObject{
			Key:        info.Key,
			URL:        downloadURL,
			CapturedAt: info.UserMetadata["X-Amz-Meta-"+metaCapturedAt],
		})
	}

	return objects, nil
}

func (s *MinIOStore) presign(ctx context.Context, key string) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, PresignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return presigned.String(), nil
}
