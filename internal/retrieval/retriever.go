// Package retrieval wraps the passage similarity index used to ground
// guide answers in curated exhibit text.
package retrieval

import (
	"context"
	"errors"
)

// ErrIndexUnavailable signals the index cannot be reached. Callers
// degrade to an empty context instead of failing the request.
var ErrIndexUnavailable = errors.New("similarity index unavailable")

// Passage is one retrieved unit of source text plus its metadata.
// Produced per retrieval call, never persisted by callers.
type Passage struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// Metadata keys attached to every indexed passage.
const (
	MetaExhibitID = "exhibit_id"
	MetaSource    = "source"
	MetaSection   = "section"
)

// Retriever returns the top-k passages most similar to the query,
// descending by similarity. A non-empty scope restricts results to
// passages tagged with that exhibit id. An index with no matching
// passages yields an empty slice, not an error.
type Retriever interface {
	Retrieve(ctx context.Context, query, scope string, k int) ([]Passage, error)
}
