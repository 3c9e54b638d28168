package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

const sqliteSchema = `
create table if not exists records (
	key        text primary key,
	payload    text not null,
	expires_at integer not null
);
create index if not exists records_expires_at on records (expires_at);
`

// NewSQLite opens (and migrates) a sqlite-backed Store at path. Records
// survive restarts until their ttl lapses.
func NewSQLite(path string) (Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}

	return &sqliteStore{db: db, now: time.Now}, nil
}

func (s *sqliteStore) Put(ctx context.Context, id string, rec Record, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return s.upsert(ctx, recordKey(id), string(payload), ttl)
}

func (s *sqliteStore) Get(ctx context.Context, id string) (Record, error) {
	payload, err := s.fetch(ctx, recordKey(id))
	if err != nil {
		return Record{}, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}

func (s *sqliteStore) PutAlias(ctx context.Context, key, id string, ttl time.Duration) error {
	return s.upsert(ctx, key, id, ttl)
}

func (s *sqliteStore) GetAlias(ctx context.Context, key string) (string, error) {
	return s.fetch(ctx, key)
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) upsert(ctx context.Context, key, payload string, ttl time.Duration) error {
	expiresAt := s.now().Add(ttl).Unix()

	_, err := s.db.ExecContext(ctx, `
		insert into records (key, payload, expires_at) values ($1, $2, $3)
		on conflict (key) do update set payload = $2, expires_at = $3
	`, key, payload, expiresAt)
	if err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

func (s *sqliteStore) fetch(ctx context.Context, key string) (string, error) {
	var payload string
	var expiresAt int64

	err := s.db.
		QueryRowContext(ctx, "select payload, expires_at from records where key = $1", key).
		Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", key, err)
	}

	if s.now().Unix() >= expiresAt {
		// Lazy expiry: delete on read rather than with a background sweeper
		if _, err := s.db.ExecContext(ctx, "delete from records where key = $1", key); err != nil {
			return "", fmt.Errorf("expire %s: %w", key, err)
		}
		return "", ErrNotFound
	}

	return payload, nil
}
