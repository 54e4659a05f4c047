package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// Unique constraint names declared in migrations/00001_create_users.sql.
const (
	usersUsernameKey = "users_username_key"
	usersEmailKey    = "users_email_key"
)

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint violation (23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return false
}

// violatedConstraint returns the constraint named by a unique violation, or "".
func violatedConstraint(err error) string {
	if !IsUniqueViolation(err) {
		return ""
	}
	var pgErr *pgconn.PgError
	errors.As(err, &pgErr)
	return pgErr.ConstraintName
}
