package account

import (
	"context"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqimonitor/internal/app/user"
	"aqimonitor/internal/app/user/usertest"
	"aqimonitor/internal/pkg/auth/jwt"
	"aqimonitor/internal/pkg/auth/password"
	"aqimonitor/internal/pkg/errs"
	"aqimonitor/internal/pkg/logx"
)

func TestMain(m *testing.M) {
	logx.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newService(t *testing.T, opts ...Option) (*Service, *usertest.Memory, *jwt.Issuer) {
	t.Helper()
	repo := usertest.NewMemory()
	issuer := jwt.NewIssuer("test-secret", time.Minute)
	return NewService(repo, issuer, opts...), repo, issuer
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t)

	require.Nil(t, svc.Register(ctx, RegisterInput{Username: "  alice123 ", Password: " secret1 "}))

	stored, err := repo.FindByUsername(ctx, "alice123")
	require.NoError(t, err)
	assert.Equal(t, user.DefaultCity, stored.City)
	assert.Nil(t, stored.Email)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.True(t, password.Verify("secret1", stored.PasswordHash))
}

func TestRegisterKeepsEmailAndCity(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t)

	require.Nil(t, svc.Register(ctx, RegisterInput{
		Username: "bob",
		Password: "hunter22",
		Email:    "bob@example.com",
		City:     "Pune",
	}))

	stored, err := repo.FindByUsername(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, stored.Email)
	assert.Equal(t, "bob@example.com", *stored.Email)
	assert.Equal(t, "Pune", stored.City)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   RegisterInput
		message string
	}{
		{"missing username", RegisterInput{Password: "secret1"}, "Username and password are required"},
		{"missing password", RegisterInput{Username: "alice"}, "Username and password are required"},
		{"blank after trim", RegisterInput{Username: "   ", Password: "secret1"}, "Username and password are required"},
		{"short username with missing password", RegisterInput{Username: "al"}, "Username and password are required"},
		{"short username", RegisterInput{Username: "al", Password: "secret1"}, "Username must be at least 3 characters"},
		{"short password", RegisterInput{Username: "alice", Password: "12345"}, "Password must be at least 6 characters"},
		{"password padded to length", RegisterInput{Username: "alice", Password: "  1234  "}, "Password must be at least 6 characters"},
		{"malformed email", RegisterInput{Username: "alice", Password: "secret1", Email: "not-an-email"}, "Invalid email format"},
		{"slash in username", RegisterInput{Username: "ali/ce", Password: "secret1"}, "Username may only contain letters, digits, '_', '.' and '-'"},
		{"backslash in username", RegisterInput{Username: `ali\ce`, Password: "secret1"}, "Username may only contain letters, digits, '_', '.' and '-'"},
		{"space in username", RegisterInput{Username: "ali ce", Password: "secret1"}, "Username may only contain letters, digits, '_', '.' and '-'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newService(t)

			customErr := svc.Register(context.Background(), tt.input)

			require.NotNil(t, customErr)
			assert.Equal(t, errs.ErrInvalidInput, customErr.Code)
			assert.Equal(t, http.StatusBadRequest, customErr.Status)
			assert.Equal(t, tt.message, customErr.Message)
			assert.Zero(t, repo.Len())
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t)

	require.Nil(t, svc.Register(ctx, RegisterInput{Username: "alice123", Password: "secret1", City: "Pune"}))
	first, err := repo.FindByUsername(ctx, "alice123")
	require.NoError(t, err)

	customErr := svc.Register(ctx, RegisterInput{Username: "alice123", Password: "other-pass", City: "Goa"})

	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrDuplicateUsername, customErr.Code)
	assert.Equal(t, "Username already exists", customErr.Message)
	assert.Equal(t, http.StatusBadRequest, customErr.Status)

	after, err := repo.FindByUsername(ctx, "alice123")
	require.NoError(t, err)
	assert.Equal(t, *first, *after)
	assert.Equal(t, 1, repo.Len())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	require.Nil(t, svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret1", Email: "a@example.com"}))

	customErr := svc.Register(ctx, RegisterInput{Username: "alice2", Password: "secret1", Email: "a@example.com"})

	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrDuplicateEmail, customErr.Code)
	assert.Equal(t, "Email already exists", customErr.Message)
}

func TestRegisterAccountsWithoutEmailCoexist(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t)

	require.Nil(t, svc.Register(ctx, RegisterInput{Username: "first", Password: "secret1"}))
	require.Nil(t, svc.Register(ctx, RegisterInput{Username: "second", Password: "secret1"}))
	assert.Equal(t, 2, repo.Len())
}

func TestRegisterInsertRaceReportsDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t)

	// Another registration wins between the pre-check and the insert.
	repo.BeforeCreate = func(nu user.NewUser) {
		repo.BeforeCreate = nil
		_, err := repo.Create(ctx, user.NewUser{Username: nu.Username, PasswordHash: "x:y", City: "Goa"})
		require.NoError(t, err)
	}

	customErr := svc.Register(ctx, RegisterInput{Username: "racer", Password: "secret1"})

	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrDuplicateUsername, customErr.Code)

	winner, err := repo.FindByUsername(ctx, "racer")
	require.NoError(t, err)
	assert.Equal(t, "Goa", winner.City)
}

func TestRegisterStoreUnavailable(t *testing.T) {
	svc := NewService(user.UnavailableRepository{}, jwt.NewIssuer("test-secret", time.Minute))

	customErr := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "secret1"})

	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrStoreUnavailable, customErr.Code)
	assert.Equal(t, http.StatusInternalServerError, customErr.Status)
	assert.Equal(t, "Database not available", customErr.Message)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, _, issuer := newService(t)
	require.Nil(t, svc.Register(ctx, RegisterInput{Username: "alice123", Password: "secret1", Email: "alice@example.com"}))

	result, customErr := svc.Login(ctx, LoginInput{Username: " alice123", Password: "secret1 "})
	require.Nil(t, customErr)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.AccessToken)
	assert.Positive(t, result.User.ID)
	assert.Equal(t, "alice123", result.User.Username)
	assert.Equal(t, user.DefaultCity, result.User.City)
	require.NotNil(t, result.User.Email)
	assert.Equal(t, "alice@example.com", *result.User.Email)

	claimed, err := issuer.Verify(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User, *claimed)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	require.Nil(t, svc.Register(ctx, RegisterInput{Username: "realuser", Password: "secret1"}))

	_, unknown := svc.Login(ctx, LoginInput{Username: "nouser", Password: "whatever"})
	_, wrong := svc.Login(ctx, LoginInput{Username: "realuser", Password: "wrongpass"})

	require.NotNil(t, unknown)
	require.NotNil(t, wrong)
	assert.Equal(t, errs.ErrInvalidCredentials, unknown.Code)
	assert.Equal(t, *unknown, *wrong)
	assert.Equal(t, http.StatusUnauthorized, wrong.Status)
}

func TestLoginRequiresBothFields(t *testing.T) {
	svc, _, _ := newService(t)

	for _, in := range []LoginInput{{Username: "alice"}, {Password: "secret1"}, {Username: " ", Password: " "}} {
		_, customErr := svc.Login(context.Background(), in)
		require.NotNil(t, customErr)
		assert.Equal(t, errs.ErrInvalidInput, customErr.Code)
		assert.Equal(t, "Username and password are required", customErr.Message)
	}
}

func TestLoginStoreUnavailable(t *testing.T) {
	issuer := jwt.NewIssuer("test-secret", time.Minute)

	t.Run("without degraded login", func(t *testing.T) {
		svc := NewService(user.UnavailableRepository{}, issuer)

		_, customErr := svc.Login(context.Background(), LoginInput{Username: "admin", Password: "pass"})

		require.NotNil(t, customErr)
		assert.Equal(t, errs.ErrStoreUnavailable, customErr.Code)
	})

	t.Run("with degraded login", func(t *testing.T) {
		svc := NewService(user.UnavailableRepository{}, issuer, WithDegradedLogin("operator", "fallback-pass"))

		result, customErr := svc.Login(context.Background(), LoginInput{Username: "operator", Password: "fallback-pass"})
		require.Nil(t, customErr)
		assert.Equal(t, jwt.Identity{Username: "operator", City: user.DefaultCity}, result.User)

		_, customErr = svc.Login(context.Background(), LoginInput{Username: "operator", Password: "guess"})
		require.NotNil(t, customErr)
		assert.Equal(t, errs.ErrInvalidCredentials, customErr.Code)
	})

	t.Run("degraded login needs both credentials", func(t *testing.T) {
		svc := NewService(user.UnavailableRepository{}, issuer, WithDegradedLogin("operator", ""))

		_, customErr := svc.Login(context.Background(), LoginInput{Username: "operator", Password: "anything"})

		require.NotNil(t, customErr)
		assert.Equal(t, errs.ErrStoreUnavailable, customErr.Code)
	})
}

func TestUpdateCity(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t)
	require.Nil(t, svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret1"}))
	require.Nil(t, svc.Register(ctx, RegisterInput{Username: "bob", Password: "secret1", City: "Pune"}))

	alice, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)

	city, customErr := svc.UpdateCity(ctx, &jwt.Identity{ID: alice.ID, Username: "alice"}, CityInput{City: "  Mumbai "})
	require.Nil(t, customErr)
	assert.Equal(t, "Mumbai", city)

	updated, ok := repo.Get(alice.ID)
	require.True(t, ok)
	assert.Equal(t, "Mumbai", updated.City)

	bob, err := repo.FindByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "Pune", bob.City)
}

func TestUpdateCityResolvesByUsernameWithoutID(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t)
	require.Nil(t, svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret1"}))

	_, customErr := svc.UpdateCity(ctx, &jwt.Identity{Username: "alice"}, CityInput{City: "Chennai"})
	require.Nil(t, customErr)

	alice, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Chennai", alice.City)
}

func TestUpdateCityFailures(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	tests := []struct {
		name     string
		identity *jwt.Identity
		city     string
		code     int
		status   int
	}{
		{"no identity", nil, "Mumbai", errs.ErrUnauthorized, http.StatusUnauthorized},
		{"empty city", &jwt.Identity{ID: 1, Username: "alice"}, "   ", errs.ErrInvalidInput, http.StatusBadRequest},
		{"unknown id", &jwt.Identity{ID: 42, Username: "ghost"}, "Mumbai", errs.ErrNotFound, http.StatusBadRequest},
		{"unknown username", &jwt.Identity{Username: "ghost"}, "Mumbai", errs.ErrNotFound, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, customErr := svc.UpdateCity(ctx, tt.identity, CityInput{City: tt.city})

			require.NotNil(t, customErr)
			assert.Equal(t, tt.code, customErr.Code)
			assert.Equal(t, tt.status, customErr.Status)
		})
	}
}

func TestUpdateCityStoreUnavailable(t *testing.T) {
	svc := NewService(user.UnavailableRepository{}, jwt.NewIssuer("test-secret", time.Minute))

	_, customErr := svc.UpdateCity(context.Background(), &jwt.Identity{ID: 1, Username: "alice"}, CityInput{City: "Mumbai"})

	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrStoreUnavailable, customErr.Code)
}

func TestCityChangeReflectedInNextLogin(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	require.Nil(t, svc.Register(ctx, RegisterInput{Username: "alice123", Password: "secret1"}))

	first, customErr := svc.Login(ctx, LoginInput{Username: "alice123", Password: "secret1"})
	require.Nil(t, customErr)

	_, customErr = svc.UpdateCity(ctx, &first.User, CityInput{City: "Mumbai"})
	require.Nil(t, customErr)

	second, customErr := svc.Login(ctx, LoginInput{Username: "alice123", Password: "secret1"})
	require.Nil(t, customErr)
	assert.Equal(t, "Mumbai", second.User.City)
}
