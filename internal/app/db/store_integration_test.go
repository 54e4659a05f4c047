//go:build integration

package db

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"aqimonitor/internal/app/user"
	"aqimonitor/internal/pkg/logx"
)

func skipIfNoDocker(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	skipIfNoDocker(t)
	logx.SetOutput(io.Discard)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "aqi",
				"POSTGRES_PASSWORD": "aqi",
				"POSTGRES_DB":       "aqi_data",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://aqi:aqi@%s:%s/aqi_data?sslmode=disable", host, port.Port())
	pool, err := NewPool(ctx, dsn, 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func strPtr(s string) *string { return &s }

func TestUserStoreIntegration(t *testing.T) {
	pool := startPostgres(t)
	store := NewUserStore(pool)
	ctx := context.Background()

	id, err := store.Create(ctx, user.NewUser{Username: "alice123", PasswordHash: "salt:hash", Email: strPtr("alice@example.com"), City: user.DefaultCity})
	require.NoError(t, err)

	t.Run("lookups", func(t *testing.T) {
		byName, err := store.FindByUsername(ctx, "alice123")
		require.NoError(t, err)
		assert.Equal(t, id, byName.ID)
		assert.Equal(t, "Delhi", byName.City)
		assert.Nil(t, byName.ProfilePhoto)

		byEmail, err := store.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, byEmail.ID)

		_, err = store.FindByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, user.ErrNotFound)
	})

	t.Run("duplicates come from constraints", func(t *testing.T) {
		_, err := store.Create(ctx, user.NewUser{Username: "alice123", PasswordHash: "x:y", City: "Pune"})
		assert.ErrorIs(t, err, user.ErrDuplicateUsername)

		_, err = store.Create(ctx, user.NewUser{Username: "alice456", PasswordHash: "x:y", Email: strPtr("alice@example.com"), City: "Pune"})
		assert.ErrorIs(t, err, user.ErrDuplicateEmail)

		original, err := store.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "salt:hash", original.PasswordHash)
	})

	t.Run("absent emails do not collide", func(t *testing.T) {
		_, err := store.Create(ctx, user.NewUser{Username: "noemail1", PasswordHash: "x:y", City: "Pune"})
		require.NoError(t, err)
		_, err = store.Create(ctx, user.NewUser{Username: "noemail2", PasswordHash: "x:y", City: "Pune"})
		require.NoError(t, err)
	})

	t.Run("concurrent registration of one username", func(t *testing.T) {
		const workers = 8
		var wg sync.WaitGroup
		results := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Create(ctx, user.NewUser{Username: "racer", PasswordHash: "x:y", City: "Pune"})
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, user.ErrDuplicateUsername)
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("updates", func(t *testing.T) {
		require.NoError(t, store.UpdateCity(ctx, id, "Mumbai"))
		assert.ErrorIs(t, store.UpdateCity(ctx, 999999, "Mumbai"), user.ErrNotFound)

		previous, err := store.SwapProfilePhoto(ctx, "alice123", strPtr("/static/uploads/a.png"))
		require.NoError(t, err)
		assert.Nil(t, previous)
		photo, err := store.ProfilePhoto(ctx, "alice123")
		require.NoError(t, err)
		require.NotNil(t, photo)
		assert.Equal(t, "/static/uploads/a.png", *photo)

		previous, err = store.SwapProfilePhoto(ctx, "alice123", nil)
		require.NoError(t, err)
		require.NotNil(t, previous)
		assert.Equal(t, "/static/uploads/a.png", *previous)
		photo, err = store.ProfilePhoto(ctx, "alice123")
		require.NoError(t, err)
		assert.Nil(t, photo)

		_, err = store.SwapProfilePhoto(ctx, "nobody", nil)
		assert.ErrorIs(t, err, user.ErrNotFound)

		got, err := store.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Mumbai", got.City)
	})
}

func TestReadingStoreIntegration(t *testing.T) {
	pool := startPostgres(t)
	store := NewReadingStore(pool)
	ctx := context.Background()

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = pool.Exec(ctx, `INSERT INTO sensor_readings (pm10, pm25, co2, humidity, temperature, username, "timestamp") VALUES
		(30, 10, 400, 60, 24, 'esp32', '2026-01-01 10:00:00'),
		(31, 11, NULL, 61, 25, NULL, '2026-01-01 10:05:00')`)
	require.NoError(t, err)

	latest, err = store.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.NotNil(t, latest.PM25)
	assert.Equal(t, 11.0, *latest.PM25)
	assert.Nil(t, latest.CO2)
	assert.Nil(t, latest.Username)

	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].Timestamp.After(recent[1].Timestamp))
}
