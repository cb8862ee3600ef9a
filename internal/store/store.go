package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"autoblog/internal/store/migrations"
)

// Store bundles the SQLite handle and the typed repositories over it.
// The application is single-process and writes are human-paced, so a
// plain *sql.DB with a busy timeout is all the coordination needed.
type Store struct {
	db *sql.DB

	Users    *UserRepository
	Settings *SettingsRepository
	Posts    *PostRepository
	History  *HistoryRepository
	Licenses *LicenseRepository
}

// Open opens (or creates) the database file, applies pending
// migrations, and returns the ready Store.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; concurrent connections only cause lock contention.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.InfoContext(ctx, "database ready", slog.String("path", path))

	return &Store{
		db:       db,
		Users:    &UserRepository{db: db},
		Settings: &SettingsRepository{db: db},
		Posts:    &PostRepository{db: db},
		History:  &HistoryRepository{db: db},
		Licenses: &LicenseRepository{db: db},
	}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Ping verifies the database handle is still usable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database handle
func (s *Store) Close() error {
	return s.db.Close()
}
