package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

// LocalStore keeps uploaded import files on the local disk until a worker
// has processed them.
type LocalStore struct {
	BaseDir string
}

func NewLocalStore(baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = "."
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", baseDir, err)
	}
	return &LocalStore{BaseDir: baseDir}, nil
}

func (s *LocalStore) resolve(sourcePath string) string {
	if filepath.IsAbs(sourcePath) {
		return sourcePath
	}
	return filepath.Join(s.BaseDir, sourcePath)
}

func (s *LocalStore) Open(ctx context.Context, sourcePath string) (io.ReadCloser, error) {
	_ = ctx

	path := s.resolve(sourcePath)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}
	return file, nil
}

// Save writes r under name and returns the path later passed to Open.
func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	path := filepath.Join(s.BaseDir, filepath.Base(name))

	tmp, err := os.CreateTemp(s.BaseDir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, readerWithContext(ctx, r)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move upload into place: %w", err)
	}
	return path, nil
}

func (s *LocalStore) Delete(ctx context.Context, sourcePath string) error {
	_ = ctx

	path := s.resolve(sourcePath)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrSourceNotFound, path)
		}
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
