package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iobis/edna-sample-app/internal/client/migrations"
	"github.com/iobis/edna-sample-app/internal/client/repositories/images"
	"github.com/iobis/edna-sample-app/internal/client/repositories/metadata"
	"github.com/iobis/edna-sample-app/internal/client/repositories/samples"
	"github.com/iobis/edna-sample-app/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Store bundles the local repositories over one SQLite database.
type Store struct {
	DB       *sql.DB
	Samples  samples.Repository
	Images   images.Repository
	Metadata metadata.Repository
}

// SQLiteDSN builds a modernc.org/sqlite DSN for the database file at path.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

// RunMigrations applies all pending embedded migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// SchemaVersion returns the current migration version of db.
func SchemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db)
}

// InitDatabase opens the database at dsn and migrates it.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; one connection also keeps :memory:
	// databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// OpenStore opens the database at dsn and returns its repositories.
func OpenStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// NewStore wraps an already migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:       db,
		Samples:  samples.NewSQLiteRepository(db),
		Images:   images.NewSQLiteRepository(db),
		Metadata: metadata.NewSQLiteRepository(db),
	}
}

// Reset removes every sample, image and bookkeeping entry in one
// transaction.
func (s *Store) Reset(ctx context.Context) error {
	return dbx.WithTx(ctx, s.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := images.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		if err := samples.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		return metadata.NewSQLiteRepository(tx).Clear(ctx)
	})
}

func (s *Store) Close() error {
	return s.DB.Close()
}
