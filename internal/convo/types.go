// Package convo holds per-visitor conversation state: the bounded turn
// history, the per-turn conversation context, and demonstrative
// reference resolution.
package convo

import "time"

const (
	RoleVisitor = "user"
	RoleGuide   = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Context is rebuilt fresh each turn from the current history.
// It is never persisted.
type Context struct {
	// CurrentExhibit is the display name of the exhibit the visitor is
	// standing at, empty outside exhibit mode.
	CurrentExhibit string
	// RecentEntities are entity names mentioned in the conversation,
	// most recent last.
	RecentEntities []string
	// RecentTopics are up to five topic words from recent visitor
	// questions, most recent last.
	RecentTopics []string
}

// LastEntity returns the most recently mentioned entity, if any.
func (c Context) LastEntity() string {
	if len(c.RecentEntities) == 0 {
		return ""
	}
	return c.RecentEntities[len(c.RecentEntities)-1]
}
