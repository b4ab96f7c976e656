package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// KV is the persistence boundary: one named slot per collection, each holding
// that collection's full serialized form. SaveAll replaces every given slot in
// one transaction so the boundary never holds a half-written collection set.
type KV interface {
	Load(ctx context.Context, slot string) ([]byte, bool, error)
	SaveAll(ctx context.Context, slots map[string][]byte) error
	Close() error
}

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current slot-table schema version. Bump this when the
// schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLiteKV stores slots in a SQLite database.
type SQLiteKV struct {
	db   *sql.DB
	path string
}

// OpenKV initializes or connects to the slot database at path.
func OpenKV(path string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	kv := &SQLiteKV{db: db, path: path}
	if err := kv.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

// Path returns the database file path.
func (kv *SQLiteKV) Path() string {
	return kv.path
}

// Close closes the underlying database connection.
func (kv *SQLiteKV) Close() error {
	if kv == nil || kv.db == nil {
		return nil
	}
	return kv.db.Close()
}

// Load returns the payload stored in the named slot, if any.
func (kv *SQLiteKV) Load(ctx context.Context, slot string) ([]byte, bool, error) {
	ctx = ensureContext(ctx)
	var payload string
	err := kv.db.QueryRowContext(ctx, `SELECT payload FROM slots WHERE name = ?`, slot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load slot %q: %w", slot, err)
	}
	return []byte(payload), true, nil
}

// SaveAll replaces every provided slot in a single transaction.
func (kv *SQLiteKV) SaveAll(ctx context.Context, slots map[string][]byte) error {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return retryOnBusy(ctx, func() error {
		tx, err := kv.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin slot tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		for name, payload := range slots {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO slots (name, payload, updated_at) VALUES (?, ?, ?)
                 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
				name, string(payload), now,
			); err != nil {
				return fmt.Errorf("save slot %q: %w", name, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit slots: %w", err)
		}
		return nil
	})
}

func (kv *SQLiteKV) initSchema(ctx context.Context) error {
	var tableExists int
	err := kv.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return kv.createSchema(ctx)
	}

	var version int
	err = kv.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (kv *SQLiteKV) createSchema(ctx context.Context) error {
	tx, err := kv.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
