package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aqimonitor/internal/app/user"
)

// UserStore implements user.Repository on PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

var _ user.Repository = (*UserStore)(nil)

// NewUserStore constructs a UserStore.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userColumns = `id, username, password_hash, email, city, profile_photo, created_at`

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.City, &u.ProfilePhoto, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, unavailable(err)
	}
	return &u, nil
}

// unavailable tags a driver failure so services can classify it without seeing driver types.
func unavailable(err error) error {
	return fmt.Errorf("%w: %v", user.ErrStoreUnavailable, err)
}

// FindByID fetches an account by id.
func (s *UserStore) FindByID(ctx context.Context, id int64) (*user.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// FindByUsername fetches an account by username.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(s.pool.QueryRow(ctx, query, username))
}

// FindByEmail fetches an account by email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// Create inserts an account. The unique constraints decide duplicates.
func (s *UserStore) Create(ctx context.Context, nu user.NewUser) (int64, error) {
	const query = `INSERT INTO users (username, password_hash, email, city)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, query, nu.Username, nu.PasswordHash, nu.Email, nu.City).Scan(&id)
	if err != nil {
		switch violatedConstraint(err) {
		case usersUsernameKey:
			return 0, user.ErrDuplicateUsername
		case usersEmailKey:
			return 0, user.ErrDuplicateEmail
		}
		return 0, unavailable(err)
	}
	return id, nil
}

// UpdateCity sets the city of account id.
func (s *UserStore) UpdateCity(ctx context.Context, id int64, city string) error {
	const query = `UPDATE users SET city = $1 WHERE id = $2`

	tag, err := s.pool.Exec(ctx, query, city, id)
	if err != nil {
		return unavailable(err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// SwapProfilePhoto sets or clears the photo reference of username and returns the old one.
// The row lock taken by the sub-select serializes concurrent swaps of the same account.
func (s *UserStore) SwapProfilePhoto(ctx context.Context, username string, url *string) (*string, error) {
	const query = `UPDATE users AS u SET profile_photo = $1
		FROM (SELECT id, profile_photo FROM users WHERE username = $2 FOR UPDATE) AS old
		WHERE u.id = old.id
		RETURNING old.profile_photo`

	var previous *string
	if err := s.pool.QueryRow(ctx, query, url, username).Scan(&previous); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, unavailable(err)
	}
	return previous, nil
}

// ProfilePhoto returns the photo reference of username.
func (s *UserStore) ProfilePhoto(ctx context.Context, username string) (*string, error) {
	const query = `SELECT profile_photo FROM users WHERE username = $1`

	var url *string
	if err := s.pool.QueryRow(ctx, query, username).Scan(&url); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, unavailable(err)
	}
	return url, nil
}
