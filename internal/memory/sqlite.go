package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists visitor profiles in a local SQLite file. The
// profile body is stored as one JSON document so schema churn stays
// out of the table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS user_memories (
		user_id    TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate memory: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, userID string) (UserMemory, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM user_memories WHERE user_id = ?`, userID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return UserMemory{}, false, nil
	}
	if err != nil {
		return UserMemory{}, false, fmt.Errorf("load memory: %w", err)
	}

	var mem UserMemory
	if err := json.Unmarshal([]byte(data), &mem); err != nil {
		return UserMemory{}, false, fmt.Errorf("decode memory: %w", err)
	}
	return mem, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, mem UserMemory) error {
	data, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("encode memory: %w", err)
	}

	const layout = time.RFC3339Nano
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_memories (user_id, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		mem.UserID, string(data), mem.CreatedAt.Format(layout), mem.UpdatedAt.Format(layout),
	)
	if err != nil {
		return fmt.Errorf("save memory: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
