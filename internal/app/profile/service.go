/*
Package profile manages account profile photos: upload, removal and lookup.
*/
package profile

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"

	"aqimonitor/internal/app/storage"
	"aqimonitor/internal/app/user"
	"aqimonitor/internal/pkg/errs"
	"aqimonitor/internal/pkg/logx"
	"aqimonitor/internal/pkg/randx"
)

// cleanupTimeout bounds the best-effort deletion of a replaced photo.
const cleanupTimeout = 10 * time.Second

// UploadResult describes a stored photo.
type UploadResult struct {
	ImageURL string `json:"imageUrl"`
	Filename string `json:"filename"`
}

// Service owns the photo lifecycle of accounts.
type Service struct {
	users user.Repository
	store storage.PhotoStorage
}

// NewService constructs a Service.
func NewService(users user.Repository, store storage.PhotoStorage) *Service {
	return &Service{users: users, store: store}
}

// Upload stores body as the new photo of username and points the account at it.
// The previous photo, if any, is deleted afterwards.
func (s *Service) Upload(ctx context.Context, username, filename string, body io.Reader) (*UploadResult, *errs.CustomError) {
	ext, mime, customErr := photoType(filename)
	if customErr != nil {
		return nil, customErr
	}

	buffered := bufio.NewReaderSize(body, sniffLen)
	if customErr := sniffContent(buffered, mime); customErr != nil {
		return nil, customErr
	}

	name := randx.PhotoFilename(username, ext)
	url, err := s.store.Save(ctx, name, mime, buffered)
	if err != nil {
		logx.Error(err, "upload_photo: storage write failed", "username", username)
		return nil, errs.NewError(errs.ErrPhotoStorageFailed)
	}

	previous, err := s.users.SwapProfilePhoto(ctx, username, &url)
	if err != nil {
		s.discard(url)
		return nil, accountFailure(err)
	}

	if previous != nil && *previous != url {
		s.discard(*previous)
	}

	logx.Info("upload_photo: profile photo updated", "username", username, "filename", name)
	return &UploadResult{ImageURL: url, Filename: name}, nil
}

// Remove deletes the photo of username and clears the reference.
func (s *Service) Remove(ctx context.Context, username string) *errs.CustomError {
	previous, err := s.users.SwapProfilePhoto(ctx, username, nil)
	if err != nil {
		return accountFailure(err)
	}

	if previous != nil {
		s.discard(*previous)
	}
	return nil
}

// Photo returns the photo URL of username, nil when unset or unavailable.
func (s *Service) Photo(ctx context.Context, username string) *string {
	url, err := s.users.ProfilePhoto(ctx, username)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			logx.Warn("get_profile_photo: lookup failed", "username", username, "error", err)
		}
		return nil
	}
	return url
}

// discard deletes url from storage when this backend issued it. Failures are logged only.
func (s *Service) discard(url string) {
	if !s.store.OwnsURL(url) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if err := s.store.Delete(ctx, url); err != nil {
		logx.Warn("profile photo cleanup failed", "url", url, "error", err)
	}
}

func accountFailure(err error) *errs.CustomError {
	if errors.Is(err, user.ErrNotFound) {
		return errs.NewError(errs.ErrNotFound)
	}
	return errs.NewError(errs.ErrStoreUnavailable, err)
}
