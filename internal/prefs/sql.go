package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const dbTimeout = 2 * time.Second

// Supported database/sql drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

var schema = map[string]string{
	DriverSQLite: `CREATE TABLE IF NOT EXISTS preferences (
		pref_key   TEXT PRIMARY KEY,
		pref_value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	DriverMySQL: `CREATE TABLE IF NOT EXISTS preferences (
		pref_key   VARCHAR(191) PRIMARY KEY,
		pref_value MEDIUMTEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
}

var upsert = map[string]string{
	DriverSQLite: `INSERT INTO preferences (pref_key, pref_value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(pref_key) DO UPDATE SET pref_value = excluded.pref_value, updated_at = excluded.updated_at`,
	DriverMySQL: `INSERT INTO preferences (pref_key, pref_value, updated_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE pref_value = VALUES(pref_value), updated_at = VALUES(updated_at)`,
}

// OpenDB opens and pings a database for the preference store. For sqlite
// the dsn is a file path whose directory is created when missing.
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if _, ok := schema[driver]; !ok {
		return nil, fmt.Errorf("prefs: unsupported driver %q", driver)
	}
	if driver == DriverSQLite && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("prefs: create data directory: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("prefs: open %s: %w", driver, err)
	}

	switch driver {
	case DriverSQLite:
		// One writer at a time avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	case DriverMySQL:
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(5)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("prefs: ping %s: %w", driver, err)
	}
	return db, nil
}

// SQLStore implements Store on a preferences table using prepared
// statements and per-call timeouts. The caller owns the *sql.DB lifetime.
type SQLStore struct {
	db       *sql.DB
	stmtLoad *sql.Stmt
	stmtSave *sql.Stmt
}

// NewSQLStore creates the table if needed and prepares all statements.
func NewSQLStore(ctx context.Context, db *sql.DB, driver string) (*SQLStore, error) {
	ddl, ok := schema[driver]
	if !ok {
		return nil, fmt.Errorf("prefs: unsupported driver %q", driver)
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("prefs: create table: %w", err)
	}

	stmtLoad, err := db.PrepareContext(ctx, "SELECT pref_value FROM preferences WHERE pref_key = ?")
	if err != nil {
		return nil, fmt.Errorf("prefs: prepare load: %w", err)
	}
	stmtSave, err := db.PrepareContext(ctx, upsert[driver])
	if err != nil {
		stmtLoad.Close()
		return nil, fmt.Errorf("prefs: prepare save: %w", err)
	}

	return &SQLStore{db: db, stmtLoad: stmtLoad, stmtSave: stmtSave}, nil
}

// Load reads one preference.
func (s *SQLStore) Load(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var value string
	err := s.stmtLoad.QueryRowContext(ctx, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("prefs: load %s: %w", key, err)
	}
	return value, true, nil
}

// Save upserts one preference.
func (s *SQLStore) Save(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.stmtSave.ExecContext(ctx, key, value, time.Now().Unix()); err != nil {
		return fmt.Errorf("prefs: save %s: %w", key, err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the prepared statements.
func (s *SQLStore) Close() error {
	for _, st := range []*sql.Stmt{s.stmtLoad, s.stmtSave} {
		if st != nil {
			st.Close()
		}
	}
	return nil
}
