package rawstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/weedwatch/weedwatch/internal/config"
)

// RawObject identifies one stored payload.
type RawObject struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// Store keeps a verbatim copy of every accepted payload. Put allocates the
// object name itself and never overwrites an existing object.
type Store interface {
	Put(ctx context.Context, payload []byte) (RawObject, error)
}

// NewName returns a collision-free, time-ordered name such as
// data-01929a3e-....json.
func NewName() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate object name: %w", err)
	}
	return "data-" + id.String() + ".json", nil
}

// Open builds the configured backend.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.RawDir)
	case "s3":
		s, err := NewS3Store(cfg.S3)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
