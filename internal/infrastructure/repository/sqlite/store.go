package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	_ "modernc.org/sqlite"
)

// Store persists whole-document envelopes in a single key/blob table.
// Payloads are snapshots replaced in full; nothing is indexed inside the
// document, which keeps refresh semantics identical to the in-memory
// repositories.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	const schema = `CREATE TABLE IF NOT EXISTS envelopes (
		key        TEXT PRIMARY KEY,
		payload    BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) getRaw(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM envelopes WHERE key = ?", key).Scan(&payload)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read envelope key=%s: %w", key, err)
	}
	return payload, true, nil
}

func (s *Store) setRaw(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO envelopes (key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write envelope key=%s: %w", key, err)
	}
	return nil
}

func getDocument[T any](ctx context.Context, s *Store, key string) (T, bool, error) {
	var zero T
	raw, ok, err := s.getRaw(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}

	var doc T
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return zero, false, fmt.Errorf("decode envelope key=%s: %w", key, err)
	}
	return doc, true, nil
}

func setDocument[T any](ctx context.Context, s *Store, key string, doc T) error {
	raw, err := sonic.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode envelope key=%s: %w", key, err)
	}
	return s.setRaw(ctx, key, raw)
}
