/*
Package user defines the account record and the persistence port the account and
profile services depend on.

Uniqueness of username and email is enforced by the store; ErrDuplicateUsername and
ErrDuplicateEmail are reported from the violated constraint, never from a prior read.
*/
package user

import (
	"context"
	"errors"
	"time"
)

// DefaultCity is assigned to accounts registered without a city.
const DefaultCity = "Delhi"

var (
	// ErrNotFound indicates that no account matched the lookup or update.
	ErrNotFound = errors.New("user: not found")

	// ErrDuplicateUsername indicates that the username is already taken.
	ErrDuplicateUsername = errors.New("user: duplicate username")

	// ErrDuplicateEmail indicates that the email is already taken.
	ErrDuplicateEmail = errors.New("user: duplicate email")

	// ErrStoreUnavailable indicates that the backing store could not be reached.
	ErrStoreUnavailable = errors.New("user: store unavailable")
)

// User is a registered account. PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        *string   `json:"email"`
	City         string    `json:"city"`
	ProfilePhoto *string   `json:"profile_photo"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser holds the fields supplied at registration.
type NewUser struct {
	Username     string
	PasswordHash string
	Email        *string
	City         string
}

// Repository is the account persistence port.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Create inserts the account and returns its id.
	Create(ctx context.Context, u NewUser) (int64, error)

	UpdateCity(ctx context.Context, id int64, city string) error

	// SwapProfilePhoto sets or, with a nil url, clears the photo reference and returns
	// the reference it replaced. Concurrent swaps each see a distinct previous value.
	SwapProfilePhoto(ctx context.Context, username string, url *string) (previous *string, err error)

	// ProfilePhoto returns the stored photo reference, nil when unset.
	ProfilePhoto(ctx context.Context, username string) (*string, error)
}

// UnavailableRepository is injected when the store could not be reached at startup.
// Every call fails with ErrStoreUnavailable.
type UnavailableRepository struct{}

var _ Repository = UnavailableRepository{}

func (UnavailableRepository) FindByID(context.Context, int64) (*User, error) {
	return nil, ErrStoreUnavailable
}

func (UnavailableRepository) FindByUsername(context.Context, string) (*User, error) {
	return nil, ErrStoreUnavailable
}

func (UnavailableRepository) FindByEmail(context.Context, string) (*User, error) {
	return nil, ErrStoreUnavailable
}

func (UnavailableRepository) Create(context.Context, NewUser) (int64, error) {
	return 0, ErrStoreUnavailable
}

func (UnavailableRepository) UpdateCity(context.Context, int64, string) error {
	return ErrStoreUnavailable
}

func (UnavailableRepository) SwapProfilePhoto(context.Context, string, *string) (*string, error) {
	return nil, ErrStoreUnavailable
}

func (UnavailableRepository) ProfilePhoto(context.Context, string) (*string, error) {
	return nil, ErrStoreUnavailable
}
