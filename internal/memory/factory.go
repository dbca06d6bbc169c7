package memory

import (
	"context"
	"strings"
)

// NewStore picks the backing store from configuration: postgres when a
// database URL is set, otherwise a local SQLite file, otherwise
// process memory.
func NewStore(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if strings.TrimSpace(databaseURL) != "" {
		return NewPostgresStore(ctx, databaseURL)
	}
	if strings.TrimSpace(sqlitePath) != "" {
		return NewSQLiteStore(sqlitePath)
	}
	return NewInMemoryStore(), nil
}
