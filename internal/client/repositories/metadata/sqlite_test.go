package metadata

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/iobis/edna-sample-app/internal/client/migrations"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	goose.SetLogger(goose.NopLogger())
	require.NoError(t, goose.Up(db, "."))
	return db
}

func factories() map[string]func(t *testing.T) Repository {
	return map[string]func(t *testing.T) Repository{
		"sqlite": func(t *testing.T) Repository { return NewSQLiteRepository(setupDB(t)) },
		"memory": func(t *testing.T) Repository { return NewMemoryRepository() },
	}
}

func TestRepository_SetGetOverwrite(t *testing.T) {
	for name, newRepo := range factories() {
		t.Run(name, func(t *testing.T) {
			r := newRepo(t)
			ctx := context.Background()

			_, ok, err := r.Get(ctx, KeyLastSyncAt)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, r.Set(ctx, KeyLastSyncAt, "old"))
			require.NoError(t, r.Set(ctx, KeyLastSyncAt, "new"))

			v, ok, err := r.Get(ctx, KeyLastSyncAt)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "new", v)
		})
	}
}

func TestRepository_ListDeleteClear(t *testing.T) {
	for name, newRepo := range factories() {
		t.Run(name, func(t *testing.T) {
			r := newRepo(t)
			ctx := context.Background()

			require.NoError(t, r.Set(ctx, "a", "1"))
			require.NoError(t, r.Set(ctx, "b", "2"))

			m, err := r.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"a": "1", "b": "2"}, m)

			require.NoError(t, r.Delete(ctx, "a"))
			require.NoError(t, r.Delete(ctx, "a"))
			m, err = r.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"b": "2"}, m)

			require.NoError(t, r.Clear(ctx))
			m, err = r.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, m)
		})
	}
}

func TestRepository_Lease(t *testing.T) {
	t0 := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	for name, newRepo := range factories() {
		t.Run(name, func(t *testing.T) {
			r := newRepo(t)
			ctx := context.Background()

			ok, err := r.TryLease(ctx, LeaseSync, "a", t0, t0.Add(time.Minute))
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = r.TryLease(ctx, LeaseSync, "b", t0.Add(time.Second), t0.Add(time.Minute))
			require.NoError(t, err)
			assert.False(t, ok, "held by another owner")

			ok, err = r.TryLease(ctx, LeaseSync, "a", t0.Add(30*time.Second), t0.Add(2*time.Minute))
			require.NoError(t, err)
			assert.True(t, ok, "owner extends its own lease")

			ok, err = r.TryLease(ctx, LeaseSync, "b", t0.Add(90*time.Second), t0.Add(3*time.Minute))
			require.NoError(t, err)
			assert.False(t, ok, "extension still running")

			ok, err = r.TryLease(ctx, LeaseSync, "b", t0.Add(2*time.Minute), t0.Add(3*time.Minute))
			require.NoError(t, err)
			assert.True(t, ok, "expired lease is taken over")

			require.NoError(t, r.ReleaseLease(ctx, LeaseSync, "a"))
			ok, err = r.TryLease(ctx, LeaseSync, "c", t0.Add(2*time.Minute), t0.Add(3*time.Minute))
			require.NoError(t, err)
			assert.False(t, ok, "release by a non-owner is ignored")

			require.NoError(t, r.ReleaseLease(ctx, LeaseSync, "b"))
			ok, err = r.TryLease(ctx, LeaseSync, "c", t0.Add(2*time.Minute), t0.Add(3*time.Minute))
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}
