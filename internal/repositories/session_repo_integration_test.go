//go:build integration

package repositories

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/espe-ciber/sentinel-console/internal/database"
	"github.com/espe-ciber/sentinel-console/internal/models"
)

func setupPostgres(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("console"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return database.Wrap(pool, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSessionRepository_Postgres(t *testing.T) {
	db := setupPostgres(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	live := &models.Session{
		ID:        uuid.NewString(),
		Username:  "alice",
		Email:     "alice@example.org",
		Role:      models.RoleAdmin,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	expired := &models.Session{
		ID:        uuid.NewString(),
		Username:  "bob",
		Role:      models.RoleUser,
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	require.NoError(t, repo.Save(ctx, live))
	require.NoError(t, repo.Save(ctx, expired))

	loaded, err := repo.Load(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, live.Username, loaded.Username)
	assert.Equal(t, live.Role, loaded.Role)
	assert.True(t, live.ExpiresAt.Equal(loaded.ExpiresAt))

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	require.NoError(t, repo.Delete(ctx, live.ID))
	_, err = repo.Load(ctx, live.ID)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	assert.NoError(t, db.HealthCheck(ctx))
}

func TestSessionRepository_Postgres_RejectsUnknownRole(t *testing.T) {
	db := setupPostgres(t)
	repo := NewSessionRepository(db)

	err := repo.Save(context.Background(), &models.Session{
		ID:        uuid.NewString(),
		Username:  "eve",
		Role:      "superuser",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	})

	assert.True(t, errors.Is(err, models.ErrBadRequest))
}
