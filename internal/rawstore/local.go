package rawstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore writes one file per payload into a directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("raw directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create raw directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

// Put writes payload to a new file. O_EXCL makes a name clash an error
// instead of a silent overwrite.
func (s *LocalStore) Put(_ context.Context, payload []byte) (RawObject, error) {
	name, err := NewName()
	if err != nil {
		return RawObject{}, err
	}
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return RawObject{}, fmt.Errorf("create %s: %w", name, err)
	}
	n, err := f.Write(payload)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return RawObject{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return RawObject{}, fmt.Errorf("close %s: %w", name, err)
	}
	return RawObject{Key: name, Size: int64(n)}, nil
}
