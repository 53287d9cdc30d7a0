package storage

import (
	"context"

	"github.com/kanva-ao/kanva-server/internal/config"
)

// FromConfig builds the backend selected by the storage configuration.
func FromConfig(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	if cfg.Backend == "s3" {
		return NewS3Backend(ctx, cfg.S3)
	}
	return NewFilesystemBackend(cfg.DataDir)
}
