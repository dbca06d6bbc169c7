package convo

import (
	"context"
	"sync"
	"time"
)

// conversation is one visitor's bounded history.
type conversation struct {
	turns          []Turn
	lastActivityAt time.Time
}

// Manager keeps per-visitor conversation histories. Histories are
// bounded FIFO: appending past the limit evicts the oldest turn.
// Idle conversations are dropped by the janitor.
type Manager struct {
	mu                sync.RWMutex
	convos            map[string]*conversation
	maxTurns          int
	inactivityTimeout time.Duration
	onExpire          func(userID string)
}

func NewManager(maxTurns int, inactivityTimeout time.Duration) *Manager {
	if maxTurns <= 0 {
		maxTurns = 20
	}
	if inactivityTimeout <= 0 {
		inactivityTimeout = 30 * time.Minute
	}
	return &Manager{
		convos:            make(map[string]*conversation),
		maxTurns:          maxTurns,
		inactivityTimeout: inactivityTimeout,
	}
}

func (m *Manager) SetExpireHook(hook func(userID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

// Append adds a turn to the visitor's history, evicting the oldest
// turn once the history is full.
func (m *Manager) Append(userID, role, content string) {
	now := time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convos[userID]
	if !ok {
		c = &conversation{}
		m.convos[userID] = c
	}
	c.turns = append(c.turns, Turn{Role: role, Content: content, At: now})
	if len(c.turns) > m.maxTurns {
		c.turns = c.turns[len(c.turns)-m.maxTurns:]
	}
	c.lastActivityAt = now
}

// History returns a copy of the visitor's turns, oldest first.
func (m *Manager) History(userID string) []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.convos[userID]
	if !ok {
		return nil
	}
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Clear drops the visitor's history.
func (m *Manager) Clear(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.convos, userID)
}

// ActiveCount reports the number of live conversations.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.convos)
}

// StartJanitor drops conversations idle past the inactivity timeout.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireIdle()
			}
		}
	}()
}

func (m *Manager) expireIdle() {
	now := time.Now().UTC()
	var expired []string

	m.mu.Lock()
	for userID, c := range m.convos {
		if now.Sub(c.lastActivityAt) < m.inactivityTimeout {
			continue
		}
		delete(m.convos, userID)
		expired = append(expired, userID)
	}
	hook := m.onExpire
	m.mu.Unlock()

	if hook != nil {
		for _, userID := range expired {
			hook(userID)
		}
	}
}
