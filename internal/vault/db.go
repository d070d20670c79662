package vault

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/credvault/credvault/internal/migrations"
	"github.com/gofrs/flock"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		log.Fatal("failed to set goose dialect:", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Store bundles the opened vault database with the process-exclusive file
// lock guarding it.
type Store struct {
	DB   *sql.DB
	lock *flock.Flock
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// OpenStore opens (or creates) the vault database at dsn, acquires an
// exclusive file lock so a second process cannot write the same vault, and
// applies migrations. In-memory databases skip the lock.
func OpenStore(ctx context.Context, dsn string) (*Store, error) {
	var lock *flock.Flock
	if !isMemoryDSN(dsn) {
		lock = flock.New(dsn + ".lock")
		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("error acquiring vault lock: %w", err)
		}
		if !locked {
			return nil, fmt.Errorf("vault database %s is in use by another process", dsn)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, fmt.Errorf("error enabling foreign keys: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &Store{DB: db, lock: lock}, nil
}

// Close closes the database and releases the file lock.
func (s *Store) Close() error {
	err := s.DB.Close()
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
	return err
}
