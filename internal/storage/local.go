package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/persistence"
)

// Local stores objects below a directory and serves them from baseURL.
type Local struct {
	root    string
	baseURL string
}

var _ application.ObjectStore = (*Local)(nil)

// NewLocal creates root when needed.
func NewLocal(root, baseURL string) (*Local, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("storage: local root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create upload dir: %w", err)
	}
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root is the directory objects are written to.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) path(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(key, "/")))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return filepath.Join(l.root, cleaned), nil
}

// Put writes body to a temporary file and renames it into place.
func (l *Local) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	target, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("storage: create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("storage: write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage: close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("storage: store object: %w", err)
	}
	return l.baseURL + "/uploads/" + strings.TrimPrefix(filepath.ToSlash(key), "/"), nil
}

// Delete removes key.
func (l *Local) Delete(ctx context.Context, key string) error {
	target, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", persistence.ErrNotFound, key)
		}
		return fmt.Errorf("storage: delete object: %w", err)
	}
	return nil
}

// Health verifies the upload directory is present.
func (l *Local) Health(ctx context.Context) error {
	info, err := os.Stat(l.root)
	if err != nil {
		return fmt.Errorf("storage: stat upload dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage: %s is not a directory", l.root)
	}
	return nil
}
