package memory

import (
	"context"
	"time"
)

// UserMemory is everything the guide remembers about one visitor
// across conversations.
type UserMemory struct {
	UserID          string            `json:"user_id"`
	Name            string            `json:"name,omitempty"`
	Interests       []string          `json:"interests,omitempty"`
	VisitedExhibits []string          `json:"visited_exhibits,omitempty"`
	Preferences     map[string]string `json:"preferences,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Extraction is what the model distilled from one visitor turn.
// Applied to the profile only when IsImportant is set.
type Extraction struct {
	Name        string            `json:"name"`
	Interests   []string          `json:"interests"`
	Preferences map[string]string `json:"preferences"`
	IsImportant bool              `json:"is_important"`
}

// Store persists visitor profiles.
type Store interface {
	Get(ctx context.Context, userID string) (UserMemory, bool, error)
	Put(ctx context.Context, mem UserMemory) error
	Close() error
}
