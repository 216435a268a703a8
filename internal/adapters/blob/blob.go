// Package blob implements ports.BlobStore on a local filesystem or an S3 bucket.
package blob

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/remindly/core/internal/infrastructure/config"
	"github.com/remindly/core/internal/ports"
)

var (
	_ ports.BlobStore = (*LocalStore)(nil)
	_ ports.BlobStore = (*S3Store)(nil)
)

// New returns the store selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig) (ports.BlobStore, error) {
	switch cfg.Driver {
	case config.StorageDriverLocal:
		return NewLocalStore(afero.NewOsFs(), cfg.RootDir), nil
	case config.StorageDriverS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
