package retrieval

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// SQLiteIndex stores passages and their embeddings in SQLite and ranks
// by cosine similarity at query time. Collections here are small (a
// museum's worth of curated text), so a full scan per query is fine.
type SQLiteIndex struct {
	db       *sql.DB
	embedder Embedder
	entropy  *rand.Rand
}

func NewSQLiteIndex(dbPath string, embedder Embedder) (*SQLiteIndex, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS passages (
		id         TEXT PRIMARY KEY,
		exhibit_id TEXT,
		source     TEXT NOT NULL,
		section    TEXT,
		content    TEXT NOT NULL,
		embedding  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_passages_exhibit ON passages(exhibit_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate index: %w", err)
	}

	return &SQLiteIndex{
		db:       db,
		embedder: embedder,
		entropy:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Add embeds and stores a passage under the given exhibit scope.
// An empty exhibitID indexes museum-wide text.
func (s *SQLiteIndex) Add(ctx context.Context, exhibitID, source, section, content string) error {
	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed passage: %w", err)
	}
	encoded, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}

	id := ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO passages (id, exhibit_id, source, section, content, embedding)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, exhibitID, source, section, content, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("insert passage: %w", err)
	}
	return nil
}

type scored struct {
	passage    Passage
	similarity float64
}

func (s *SQLiteIndex) Retrieve(ctx context.Context, query, scope string, k int) ([]Passage, error) {
	if k <= 0 {
		return nil, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrIndexUnavailable, err)
	}

	var rows *sql.Rows
	if scope != "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT exhibit_id, source, section, content, embedding FROM passages WHERE exhibit_id = ?`, scope)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT exhibit_id, source, section, content, embedding FROM passages`)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query passages: %v", ErrIndexUnavailable, err)
	}
	defer rows.Close()

	var candidates []scored
	for rows.Next() {
		var exhibitID, source, section, content, encoded string
		if err := rows.Scan(&exhibitID, &source, &section, &content, &encoded); err != nil {
			return nil, fmt.Errorf("%w: scan passage: %v", ErrIndexUnavailable, err)
		}
		var vec []float32
		if err := json.Unmarshal([]byte(encoded), &vec); err != nil {
			continue
		}

		meta := map[string]string{MetaSource: source}
		if exhibitID != "" {
			meta[MetaExhibitID] = exhibitID
		}
		if section != "" {
			meta[MetaSection] = section
		}
		candidates = append(candidates, scored{
			passage:    Passage{Content: content, Metadata: meta},
			similarity: CosineSimilarity(queryVec, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate passages: %v", ErrIndexUnavailable, err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]Passage, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.passage)
	}
	return out, nil
}

// Clear drops every stored passage, for a fresh re-ingest.
func (s *SQLiteIndex) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM passages`); err != nil {
		return fmt.Errorf("clear passages: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
