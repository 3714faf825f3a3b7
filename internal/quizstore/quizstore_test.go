package quizstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"quizhost/internal/database/migrations"
	"quizhost/internal/quiz"
	"quizhost/internal/quizstore"
)

func setupTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres-backed test in -short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	connStr := stdlib.RegisterConnConfig(pool.Config().ConnConfig)
	sqlDB, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(sqlDB, "."), fmt.Sprintf("running migrations"))

	return pool
}

func sampleQuiz() quiz.Quiz {
	return quiz.Quiz{
		Title: "Capitals",
		Questions: []quiz.Question{
			{Id: "q1", Text: "Capital of Japan?", Answers: [4]string{"Tokyo", "Osaka", "Kyoto", "Nagoya"}, CorrectIndices: []int{0}, TimerSeconds: 10},
		},
	}
}

func TestStore_CreateThenGetRoundTrips(t *testing.T) {
	pool := setupTestPool(t)
	store := quizstore.New(pool)

	created, err := store.Create(context.Background(), sampleQuiz())
	require.NoError(t, err)
	require.NotEmpty(t, created.Id)

	loaded, err := store.Get(context.Background(), created.Id)
	require.NoError(t, err)
	require.Equal(t, created.Title, loaded.Title)
	require.Len(t, loaded.Questions, 1)
}

func TestStore_CreateRejectsInvalidQuiz(t *testing.T) {
	pool := setupTestPool(t)
	store := quizstore.New(pool)

	_, err := store.Create(context.Background(), quiz.Quiz{Title: "Empty"})
	require.Error(t, err)
}

func TestStore_GetMissingReturnsErrNotFound(t *testing.T) {
	pool := setupTestPool(t)
	store := quizstore.New(pool)

	_, err := store.Get(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, quizstore.ErrNotFound)
}
