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
)

// Local stores photos as files in one directory.
type Local struct {
	dir    string
	prefix string
}

var _ PhotoStorage = (*Local)(nil)

// NewLocal creates dir if needed. URLs are prefix + "/" + filename.
func NewLocal(dir, prefix string) (*Local, error) {
	if dir == "" {
		return nil, errors.New("storage: local directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create upload directory: %w", err)
	}

	return &Local{dir: dir, prefix: strings.TrimSuffix(prefix, "/")}, nil
}

func (l *Local) Save(_ context.Context, filename, _ string, body io.Reader) (string, error) {
	if !safeName(filename) {
		return "", fmt.Errorf("storage: invalid filename %q", filename)
	}

	path := filepath.Join(l.dir, filename)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: create %s: %w", filename, err)
	}

	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("storage: write %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("storage: close %s: %w", filename, err)
	}

	return l.prefix + "/" + filename, nil
}

func (l *Local) Delete(_ context.Context, url string) error {
	if !l.OwnsURL(url) {
		return ErrNotOwned
	}

	name := strings.TrimPrefix(url, l.prefix+"/")
	err := os.Remove(filepath.Join(l.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remove %s: %w", name, err)
	}
	return nil
}

func (l *Local) OwnsURL(url string) bool {
	name, ok := strings.CutPrefix(url, l.prefix+"/")
	return ok && safeName(name)
}

// safeName accepts a single path element.
func safeName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
