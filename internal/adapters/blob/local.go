package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/remindly/core/internal/domain/entities"
	"github.com/remindly/core/internal/ports"
)

// LocalStore keeps blobs on a filesystem under root, one directory per namespace
type LocalStore struct {
	fs   afero.Fs
	root string
}

// NewLocalStore creates a store rooted at root on fs
func NewLocalStore(fs afero.Fs, root string) *LocalStore {
	return &LocalStore{fs: fs, root: filepath.Clean(root)}
}

// Store writes data to a new uniquely named file
func (s *LocalStore) Store(ctx context.Context, ns ports.BlobNamespace, data []byte, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !ports.KnownNamespace(ns) {
		return "", fmt.Errorf("unknown blob namespace %q", ns)
	}

	filename, err := newFilename(ext)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, string(ns))
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	if err := afero.WriteFile(s.fs, filepath.Join(dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}

	return ports.BlobPath(ns, filename), nil
}

// Open reads a stored file
func (s *LocalStore) Open(ctx context.Context, relPath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, entities.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes a stored file. A missing file reports ErrBlobNotFound.
func (s *LocalStore) Delete(ctx context.Context, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}

	err = s.fs.Remove(full)
	if errors.Is(err, fs.ErrNotExist) {
		return entities.ErrBlobNotFound
	}
	if err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// resolve maps a server-relative path to a file below root, refusing anything else
func (s *LocalStore) resolve(relPath string) (string, error) {
	ns, file, ok := ports.SplitBlobPath(relPath)
	if !ok {
		return "", fmt.Errorf("%w: %q", entities.ErrBlobNotFound, relPath)
	}
	return filepath.Join(s.root, string(ns), file), nil
}

func newFilename(ext string) (string, error) {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" || strings.ContainsAny(ext, `/\.`) {
		return "", fmt.Errorf("invalid blob extension %q", ext)
	}
	return uuid.NewString() + "." + ext, nil
}
