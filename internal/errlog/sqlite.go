package errlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteAppender persists failure records to an append-only SQLite
// table keyed by the ULID, which sorts by timestamp.
type SQLiteAppender struct {
	db *sql.DB
}

func NewSQLiteAppender(dbPath string) (*SQLiteAppender, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create errlog dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open errlog db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS gateway_errors (
		id         TEXT PRIMARY KEY,
		at         TEXT NOT NULL,
		category   TEXT NOT NULL,
		key_index  INTEGER NOT NULL,
		message    TEXT NOT NULL,
		action     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_gateway_errors_at ON gateway_errors(at DESC);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate errlog: %w", err)
	}

	return &SQLiteAppender{db: db}, nil
}

func (a *SQLiteAppender) Append(rec Record) error {
	_, err := a.db.Exec(
		`INSERT INTO gateway_errors (id, at, category, key_index, message, action)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.At.Format("2006-01-02T15:04:05.000Z07:00"),
		string(rec.Category), rec.KeyIndex, rec.Message, rec.Action,
	)
	if err != nil {
		return fmt.Errorf("append gateway error: %w", err)
	}
	return nil
}

func (a *SQLiteAppender) Close() error {
	return a.db.Close()
}
