// AngelaMos | 2026
// storage.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/devassets/assets-api/internal/config"
)

var ErrInvalidName = errors.New("invalid object name")

// Storage persists uploaded files under flat object names.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case config.StorageLocal:
		return NewLocal(cfg.LocalDir, cfg.PublicPath)
	case config.StorageMinio:
		return NewMinio(ctx, cfg.Minio)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func validateName(name string) error {
	if name == "" ||
		name != path.Base(name) ||
		strings.ContainsAny(name, `/\`) ||
		name == "." || name == ".." {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}
