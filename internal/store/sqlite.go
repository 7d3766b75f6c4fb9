package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/memtier/internal/model"
)

// SQLiteBackend keeps documents in SQLite. Every write adds a new version;
// reads return the latest one.
type SQLiteBackend struct {
	db *sql.DB

	mu      sync.Mutex // guards entropy
	entropy *rand.Rand
}

// Version describes one stored revision of a document.
type Version struct {
	ID        string `json:"id"`
	Identity  string `json:"identity"`
	Version   int    `json:"version"`
	Size      int    `json:"size"`
	CreatedAt string `json:"created_at"`
}

// NewSQLiteBackend opens or creates a SQLite database at the given path.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	b := &SQLiteBackend{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return b, nil
}

func (b *SQLiteBackend) newID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), b.entropy).String()
}

func (b *SQLiteBackend) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memory_documents (
		id          TEXT PRIMARY KEY,
		identity    TEXT NOT NULL,
		version     INTEGER NOT NULL,
		body        BLOB NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_identity_version ON memory_documents(identity, version);
	`
	_, err := b.db.Exec(schema)
	return err
}

func (b *SQLiteBackend) Read(ctx context.Context, identity string) ([]byte, error) {
	if err := ValidateIdentity(identity); err != nil {
		return nil, err
	}
	var body []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT body FROM memory_documents
		 WHERE identity = ?
		 ORDER BY version DESC LIMIT 1`, identity).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, identity)
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (b *SQLiteBackend) Write(ctx context.Context, identity string, data []byte) error {
	if err := ValidateIdentity(identity); err != nil {
		return err
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var prev int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM memory_documents WHERE identity = ?`, identity).Scan(&prev)
	if err != nil {
		return fmt.Errorf("latest version: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO memory_documents (id, identity, version, body, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		b.newID(), identity, prev+1, data, model.FormatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	return tx.Commit()
}

// Remove deletes every version of identity's document.
func (b *SQLiteBackend) Remove(ctx context.Context, identity string) error {
	if err := ValidateIdentity(identity); err != nil {
		return err
	}
	_, err := b.db.ExecContext(ctx, `DELETE FROM memory_documents WHERE identity = ?`, identity)
	return err
}

// History lists stored versions, newest first.
func (b *SQLiteBackend) History(ctx context.Context, identity string) ([]Version, error) {
	if err := ValidateIdentity(identity); err != nil {
		return nil, err
	}
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, identity, version, LENGTH(body), created_at
		 FROM memory_documents WHERE identity = ?
		 ORDER BY version DESC`, identity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		var v Version
		if err := rows.Scan(&v.ID, &v.Identity, &v.Version, &v.Size, &v.CreatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// ReadVersion returns a specific stored version.
func (b *SQLiteBackend) ReadVersion(ctx context.Context, identity string, version int) ([]byte, error) {
	var body []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT body FROM memory_documents WHERE identity = ? AND version = ?`,
		identity, version).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s@%d", ErrNotExist, identity, version)
	}
	return body, err
}

// Identities lists every identity with at least one stored version.
func (b *SQLiteBackend) Identities(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT DISTINCT identity FROM memory_documents ORDER BY identity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
