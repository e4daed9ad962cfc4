/*
Package storage handles media persistence for chat images and avatars on
S3-compatible object storage.
*/
package storage

import (
	"context"
	"io"
)

// ServiceConfig holds the settings required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// StorageService is the public interface of the media store.
type StorageService interface {
	// Upload streams an object's bytes to the bucket under the given key.
	Upload(ctx context.Context, key string, mimeType string, body io.Reader) error

	// Delete removes the object stored under the given key.
	Delete(ctx context.Context, key string) error
}

// NewStorageService initializes a StorageService from the configuration.
// Only S3-compatible backends are supported.
func NewStorageService(cfg ServiceConfig) (StorageService, error) {
	return newS3Client(cfg)
}
