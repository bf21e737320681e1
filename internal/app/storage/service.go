package storage

import (
	"context"
	"io"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// StorageService defines the public interface for the avatar object store.
type StorageService interface {
	// Upload stores an object under the given key with the given content type.
	Upload(ctx context.Context, key string, mimeType string, body io.Reader) error

	// Delete removes the object specified by the given key.
	Delete(ctx context.Context, key string) error
}

// NewStorageService is the factory function for StorageService.
// It initializes and returns a concrete implementation based on the provided configuration.
func NewStorageService(cfg ServiceConfig) (StorageService, error) {
	// Currently, only S3 compatible implementations are supported.
	return newS3Client(cfg)
}
