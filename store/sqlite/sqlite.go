/*
Package sqlite provides a SQLite-backed store for rate tables and preferences.

PURPOSE:
  Persists the two things the calculator keeps between sessions:
  - Rate tables: versioned JSON documents parsed by the factory package
  - Preferences: theme and last selected rank

  Calculation results are never stored.

INTERFACES IMPLEMENTED:
  preference.Store: GetPreference, SetPreference, ListPreferences

KEY TABLES:
  rate_tables:  id, name, version (document version), revision (bumped on
                every overwrite), config_json
  preferences:  key, value

MIGRATIONS:
  Schema lives in migrations/*.sql, embedded and applied with
  golang-migrate on New().

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In-memory databases are pinned to a
  single connection so every query sees the same database.

USAGE:
  store, err := sqlite.New("./data/overtime.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - factory/ratetable.go: Document format stored in config_json
  - preference/preference.go: Validation on top of this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements rate-table and preference storage using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and applies migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if isMemory(dbPath) {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate applies the embedded migrations. The migrate instance is not
// closed: closing it would close the shared *sql.DB.
func (s *Store) migrate() error {
	driver, err := migratesqlite3.WithInstance(s.db, &migratesqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func isMemory(dbPath string) bool {
	return dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
}

// =============================================================================
// RATE TABLES
// =============================================================================

// RateTableRecord is a stored rate-table document.
type RateTableRecord struct {
	ID         string
	Name       string
	Version    int
	Revision   int
	ConfigJSON string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SaveRateTable inserts a rate table or overwrites it, bumping its revision.
func (s *Store) SaveRateTable(ctx context.Context, rt RateTableRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO rate_tables (id, name, version, revision, config_json, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			config_json = excluded.config_json,
			revision = rate_tables.revision + 1,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query, rt.ID, rt.Name, rt.Version, rt.ConfigJSON, now, now)
	return err
}

// GetRateTable retrieves a rate table by ID. It returns nil, nil when absent.
func (s *Store) GetRateTable(ctx context.Context, id string) (*RateTableRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, version, revision, config_json, created_at, updated_at FROM rate_tables WHERE id = ?",
		id,
	)
	rt, err := scanRateTable(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// ListRateTables returns all rate tables ordered by version, then id.
func (s *Store) ListRateTables(ctx context.Context) ([]RateTableRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, version, revision, config_json, created_at, updated_at FROM rate_tables ORDER BY version, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RateTableRecord
	for rows.Next() {
		rt, err := scanRateTable(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rt)
	}
	return records, rows.Err()
}

// DeleteRateTable removes a rate table. Deleting a missing id is not an error.
func (s *Store) DeleteRateTable(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM rate_tables WHERE id = ?", id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRateTable(row scanner) (RateTableRecord, error) {
	var rt RateTableRecord
	var createdAt, updatedAt string
	if err := row.Scan(&rt.ID, &rt.Name, &rt.Version, &rt.Revision, &rt.ConfigJSON, &createdAt, &updatedAt); err != nil {
		return RateTableRecord{}, err
	}
	rt.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rt.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return rt, nil
}

// =============================================================================
// PREFERENCES
// =============================================================================

// GetPreference returns the stored value and whether the key was set.
func (s *Store) GetPreference(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetPreference upserts a preference value.
func (s *Store) SetPreference(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	return err
}

// ListPreferences returns every stored preference.
func (s *Store) ListPreferences(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM preferences")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		prefs[k] = v
	}
	return prefs, rows.Err()
}
