package storage

import (
	"fmt"

	"github.com/hyeonwoo/ledgerflow/internal/config"
)

// NewStore creates a FileStore from configuration.
// Parameters:
//   - cfg: storage configuration including type and backend settings.
// Returns:
//   - FileStore: initialized store implementation.
//   - error: non-nil if the store cannot be created.
func NewStore(cfg *config.StorageConfig) (FileStore, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStore(cfg.UploadDir)
	case "s3":
		return NewS3Store(&S3Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
