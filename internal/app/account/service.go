/*
Package account implements registration, login and the city preference update on top
of the user repository and the access token issuer.

Every method returns a *errs.CustomError; repository and driver errors are logged here
and never reach the caller.
*/
package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"

	"aqimonitor/internal/app/user"
	"aqimonitor/internal/pkg/auth/jwt"
	"aqimonitor/internal/pkg/auth/password"
	"aqimonitor/internal/pkg/errs"
	"aqimonitor/internal/pkg/logx"
	"aqimonitor/internal/pkg/metrics"
)

const (
	actionRegister = "register"
	actionLogin    = "login"
)

// RegisterInput is the registration request. All fields are trimmed before validation.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Email    string `json:"email" validate:"omitempty,email,max=100"`
	City     string `json:"city" validate:"omitempty,max=100"`
}

// LoginInput is the login request.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CityInput is the city update request.
type CityInput struct {
	City string `json:"city" validate:"required,max=100"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	User        jwt.Identity `json:"user"`
}

// Service holds the account use cases.
type Service struct {
	users  user.Repository
	issuer *jwt.Issuer

	degraded *degradedLogin
}

type degradedLogin struct {
	username string
	password string
}

// Option configures a Service.
type Option func(*Service)

// WithDegradedLogin lets exactly one configured credential pair log in while the
// repository is unavailable. The issued identity has no id and the default city.
func WithDegradedLogin(username, password string) Option {
	return func(s *Service) {
		if username == "" || password == "" {
			return
		}
		s.degraded = &degradedLogin{username: username, password: password}
	}
}

// NewService constructs a Service.
func NewService(users user.Repository, issuer *jwt.Issuer, opts ...Option) *Service {
	s := &Service{users: users, issuer: issuer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account. It does not log the caller in.
func (s *Service) Register(ctx context.Context, in RegisterInput) *errs.CustomError {
	in.Username = strings.TrimSpace(in.Username)
	in.Password = strings.TrimSpace(in.Password)
	in.Email = strings.TrimSpace(in.Email)
	in.City = strings.TrimSpace(in.City)

	if msg := validationMessage(in); msg != "" {
		metrics.RecordAuth(actionRegister, metrics.OutcomeRejected)
		return errs.NewError(errs.ErrInvalidInput, msg)
	}

	// The lookups only give an early answer; the insert below stays authoritative.
	if customErr := s.ensureAvailable(ctx, in.Username, in.Email); customErr != nil {
		return customErr
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		logx.Error(err, "register: password hashing failed")
		return errs.NewError(errs.ErrUnknown, err)
	}

	nu := user.NewUser{
		Username:     in.Username,
		PasswordHash: hash,
		City:         in.City,
	}
	if nu.City == "" {
		nu.City = user.DefaultCity
	}
	if in.Email != "" {
		email := in.Email
		nu.Email = &email
	}

	id, err := s.users.Create(ctx, nu)
	if err != nil {
		return s.registerFailure(err, in.Username)
	}

	metrics.RecordAuth(actionRegister, metrics.OutcomeSuccess)
	logx.Info("register: account created", "user_id", id)
	return nil
}

func (s *Service) ensureAvailable(ctx context.Context, username, email string) *errs.CustomError {
	_, err := s.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return s.registerFailure(user.ErrDuplicateUsername, username)
	case !errors.Is(err, user.ErrNotFound):
		return s.registerFailure(err, username)
	}

	if email == "" {
		return nil
	}

	_, err = s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return s.registerFailure(user.ErrDuplicateEmail, username)
	case !errors.Is(err, user.ErrNotFound):
		return s.registerFailure(err, username)
	}
	return nil
}

func (s *Service) registerFailure(err error, username string) *errs.CustomError {
	switch {
	case errors.Is(err, user.ErrDuplicateUsername):
		metrics.RecordAuth(actionRegister, metrics.OutcomeDuplicate)
		logx.Warn("register: username already exists", "username", username)
		return errs.NewError(errs.ErrDuplicateUsername)
	case errors.Is(err, user.ErrDuplicateEmail):
		metrics.RecordAuth(actionRegister, metrics.OutcomeDuplicate)
		logx.Warn("register: email already exists", "username", username)
		return errs.NewError(errs.ErrDuplicateEmail)
	default:
		metrics.RecordAuth(actionRegister, metrics.OutcomeUnavailable)
		return errs.NewError(errs.ErrStoreUnavailable, err)
	}
}

// Login verifies the credentials and issues an access token for the account.
// An unknown username and a wrong password fail identically.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, *errs.CustomError) {
	in.Username = strings.TrimSpace(in.Username)
	in.Password = strings.TrimSpace(in.Password)

	if msg := validationMessage(in); msg != "" {
		metrics.RecordAuth(actionLogin, metrics.OutcomeRejected)
		return nil, errs.NewError(errs.ErrInvalidInput, msg)
	}

	u, err := s.users.FindByUsername(ctx, in.Username)
	switch {
	case errors.Is(err, user.ErrNotFound):
		password.Verify(in.Password, decoyHash())
		metrics.RecordAuth(actionLogin, metrics.OutcomeRejected)
		logx.Warn("login: unknown username", "username", in.Username)
		return nil, errs.NewError(errs.ErrInvalidCredentials)
	case errors.Is(err, user.ErrStoreUnavailable) && s.degraded != nil:
		return s.degradedLogin(in)
	case err != nil:
		metrics.RecordAuth(actionLogin, metrics.OutcomeUnavailable)
		return nil, errs.NewError(errs.ErrStoreUnavailable, err)
	}

	if !password.Verify(in.Password, u.PasswordHash) {
		metrics.RecordAuth(actionLogin, metrics.OutcomeRejected)
		logx.Warn("login: password mismatch", "username", in.Username)
		return nil, errs.NewError(errs.ErrInvalidCredentials)
	}

	return s.issue(jwt.Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		City:     u.City,
	}, metrics.OutcomeSuccess)
}

func (s *Service) degradedLogin(in LoginInput) (*LoginResult, *errs.CustomError) {
	userOK := subtle.ConstantTimeCompare([]byte(in.Username), []byte(s.degraded.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(in.Password), []byte(s.degraded.password)) == 1
	if !userOK || !passOK {
		metrics.RecordAuth(actionLogin, metrics.OutcomeRejected)
		return nil, errs.NewError(errs.ErrInvalidCredentials)
	}

	logx.Warn("login: store unavailable, issuing degraded identity", "username", in.Username)
	return s.issue(jwt.Identity{Username: s.degraded.username, City: user.DefaultCity}, metrics.OutcomeDegraded)
}

func (s *Service) issue(identity jwt.Identity, outcome string) (*LoginResult, *errs.CustomError) {
	token, err := s.issuer.Issue(identity)
	if err != nil {
		logx.Error(err, "login: token generation failed", "username", identity.Username)
		return nil, errs.NewError(errs.ErrUnknown, err)
	}

	metrics.RecordAuth(actionLogin, outcome)
	return &LoginResult{AccessToken: token, User: identity}, nil
}

// UpdateCity stores a new city for the account named by identity and returns it.
// The account is resolved by id when the token carries one, by username otherwise.
func (s *Service) UpdateCity(ctx context.Context, identity *jwt.Identity, in CityInput) (string, *errs.CustomError) {
	if identity == nil {
		return "", errs.NewError(errs.ErrUnauthorized)
	}

	in.City = strings.TrimSpace(in.City)
	if msg := validationMessage(in); msg != "" {
		return "", errs.NewError(errs.ErrInvalidInput, msg)
	}

	u, err := s.resolve(ctx, identity)
	if err != nil {
		return "", accountFailure(err)
	}

	if err := s.users.UpdateCity(ctx, u.ID, in.City); err != nil {
		return "", accountFailure(err)
	}

	return in.City, nil
}

func (s *Service) resolve(ctx context.Context, identity *jwt.Identity) (*user.User, error) {
	if identity.ID > 0 {
		return s.users.FindByID(ctx, identity.ID)
	}
	if identity.Username != "" {
		return s.users.FindByUsername(ctx, identity.Username)
	}
	return nil, user.ErrNotFound
}

func accountFailure(err error) *errs.CustomError {
	if errors.Is(err, user.ErrNotFound) {
		return errs.NewError(errs.ErrNotFound)
	}
	return errs.NewError(errs.ErrStoreUnavailable, err)
}

var (
	decoyOnce sync.Once
	decoy     string
)

// decoyHash is verified against for unknown usernames.
func decoyHash() string {
	decoyOnce.Do(func() {
		var err error
		if decoy, err = password.Hash("decoy-credential"); err != nil {
			logx.Error(err, "login: decoy hash generation failed")
		}
	})
	return decoy
}
