// Package storage holds avatar image bytes on local disk or in MinIO.
package storage

import (
	"context"
	"fmt"

	"messenger/internal/config"
)

// ImageStore persists image objects under a key and serves them by URL.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by IMAGE_STORE.
func New(ctx context.Context, cfg *config.Config) (ImageStore, error) {
	switch cfg.ImageStore {
	case "minio":
		return NewMinioStore(ctx, MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			BaseURL:   cfg.ImageBaseURL,
		})
	case "disk", "":
		return NewDiskStore(cfg.ImageUploadDir, cfg.ImageBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported IMAGE_STORE %q", cfg.ImageStore)
	}
}
