/*
Package storage persists uploaded profile photos and turns them into public URLs.

Two backends implement PhotoStorage: a local directory served by the HTTP server and an
S3-compatible bucket.
*/
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

// ErrNotOwned is returned by Delete for a URL the backend did not issue.
var ErrNotOwned = errors.New("storage: url not owned by this backend")

// Config selects and configures a backend.
type Config struct {
	Driver string

	// local backend
	LocalDir  string
	URLPrefix string

	// s3 backend
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicBaseURL   string
}

// PhotoStorage stores photo objects by filename.
type PhotoStorage interface {
	// Save writes body under filename and returns its public URL.
	Save(ctx context.Context, filename, contentType string, body io.Reader) (string, error)

	// Delete removes the object behind a URL previously returned by Save.
	// A missing object is not an error.
	Delete(ctx context.Context, url string) error

	// OwnsURL reports whether url was issued by this backend.
	OwnsURL(url string) bool
}

// New returns the backend named by cfg.Driver.
func New(ctx context.Context, cfg Config) (PhotoStorage, error) {
	switch cfg.Driver {
	case DriverLocal, "":
		return NewLocal(cfg.LocalDir, cfg.URLPrefix)
	case DriverS3:
		return newS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
