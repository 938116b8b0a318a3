// Package storage provides object storage for portal file attachments.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/acecpas/workbench/internal/config"
)

// ObjectStore abstracts the bucket operations the portal needs
type ObjectStore interface {
	// Put writes the object and returns its storage URL
	Put(ctx context.Context, objectKey, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, objectKey string) error
	Close() error
}

// GCSStore implements ObjectStore on Google Cloud Storage
type GCSStore struct {
	client     *storage.Client
	bucket     string
	pathPrefix string
}

// NewGCSStore creates a GCS-backed object store and verifies the bucket is reachable.
// Credentials come from explicit JSON when configured, otherwise Application
// Default Credentials.
func NewGCSStore(ctx context.Context, cfg *config.StorageConfig) (*GCSStore, error) {
	var client *storage.Client
	var err error
	if strings.TrimSpace(cfg.CredentialsJSON) != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}

	if _, err := client.Bucket(cfg.Bucket).Attrs(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("gcs bucket %q not found or not accessible: %w", cfg.Bucket, err)
	}

	return &GCSStore{
		client:     client,
		bucket:     cfg.Bucket,
		pathPrefix: strings.Trim(cfg.PathPrefix, "/"),
	}, nil
}

// Put streams the body into the bucket under the configured prefix
func (s *GCSStore) Put(ctx context.Context, objectKey, contentType string, body io.Reader) (string, error) {
	key := s.objectKey(objectKey)

	wc := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := io.Copy(wc, body); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", key, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key), nil
}

// Delete removes the object; a missing object is not an error
func (s *GCSStore) Delete(ctx context.Context, objectKey string) error {
	key := s.objectKey(objectKey)
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return nil
		}
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) objectKey(objectKey string) string {
	if s.pathPrefix == "" {
		return objectKey
	}
	return s.pathPrefix + "/" + objectKey
}
