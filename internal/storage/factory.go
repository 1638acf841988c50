package storage

import (
	"context"

	"github.com/Kyz7/pixelarts/internal/config"
	"github.com/Kyz7/pixelarts/internal/logger"
)

// New builds the provider named by cfg.Driver. A remote provider that fails
// to initialize is replaced by local disk storage so uploads keep working.
func New(ctx context.Context, cfg config.StorageConfig) (Provider, error) {
	var (
		p   Provider
		err error
	)

	switch cfg.Driver {
	case "cloudinary":
		p, err = NewCloudinary(cfg)
	case "s3":
		p, err = NewS3(cfg)
	case "minio":
		p, err = NewMinIO(ctx, cfg)
	default:
		return NewLocal(cfg.UploadDir)
	}

	if err != nil {
		logger.L().Warnf("⚠️  %s storage unavailable, falling back to local storage: %v", cfg.Driver, err)
		return NewLocal(cfg.UploadDir)
	}

	logger.L().Infof("✅ Using %s storage", p.Name())
	return p, nil
}
