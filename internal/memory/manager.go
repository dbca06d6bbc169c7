package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Manager serializes read-modify-write cycles per visitor so two
// concurrent updates never clobber each other's merge.
type Manager struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, locks: make(map[string]*sync.Mutex)}
}

func (m *Manager) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	return lock
}

// Get returns the visitor's profile, or a zero profile when none is
// stored yet.
func (m *Manager) Get(ctx context.Context, userID string) (UserMemory, error) {
	mem, ok, err := m.store.Get(ctx, userID)
	if err != nil {
		return UserMemory{}, err
	}
	if !ok {
		return UserMemory{UserID: userID}, nil
	}
	return mem, nil
}

// Apply merges an extraction into the visitor's profile. Extractions
// not flagged important are dropped whole.
func (m *Manager) Apply(ctx context.Context, userID string, ex Extraction) error {
	if !ex.IsImportant {
		return nil
	}
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	mem, err := m.load(ctx, userID)
	if err != nil {
		return err
	}

	if name := strings.TrimSpace(ex.Name); name != "" {
		mem.Name = name
	}
	for _, interest := range ex.Interests {
		mem.Interests = appendDistinct(mem.Interests, interest)
	}
	for key, value := range ex.Preferences {
		key = strings.TrimSpace(key)
		if key == "" || strings.TrimSpace(value) == "" {
			continue
		}
		if mem.Preferences == nil {
			mem.Preferences = make(map[string]string)
		}
		mem.Preferences[key] = value
	}

	mem.UpdatedAt = time.Now().UTC()
	return m.store.Put(ctx, mem)
}

// RecordVisit notes that the visitor asked about an exhibit. Repeat
// visits are not duplicated.
func (m *Manager) RecordVisit(ctx context.Context, userID, exhibitName string) error {
	exhibitName = strings.TrimSpace(exhibitName)
	if exhibitName == "" {
		return nil
	}
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	mem, err := m.load(ctx, userID)
	if err != nil {
		return err
	}
	before := len(mem.VisitedExhibits)
	mem.VisitedExhibits = appendDistinct(mem.VisitedExhibits, exhibitName)
	if len(mem.VisitedExhibits) == before {
		return nil
	}
	mem.UpdatedAt = time.Now().UTC()
	return m.store.Put(ctx, mem)
}

func (m *Manager) load(ctx context.Context, userID string) (UserMemory, error) {
	mem, ok, err := m.store.Get(ctx, userID)
	if err != nil {
		return UserMemory{}, err
	}
	if !ok {
		now := time.Now().UTC()
		mem = UserMemory{UserID: userID, CreatedAt: now, UpdatedAt: now}
	}
	return mem, nil
}

// Summary renders the profile as a prompt block, empty when there is
// nothing worth telling the model.
func Summary(mem UserMemory) string {
	var lines []string
	if mem.Name != "" {
		lines = append(lines, fmt.Sprintf("- Adı: %s", mem.Name))
	}
	if len(mem.Interests) > 0 {
		lines = append(lines, fmt.Sprintf("- İlgi alanları: %s", strings.Join(mem.Interests, ", ")))
	}
	if len(mem.VisitedExhibits) > 0 {
		lines = append(lines, fmt.Sprintf("- İncelediği eserler: %s", strings.Join(mem.VisitedExhibits, ", ")))
	}
	if len(mem.Preferences) > 0 {
		var prefs []string
		for key, value := range mem.Preferences {
			prefs = append(prefs, fmt.Sprintf("%s: %s", key, value))
		}
		sort.Strings(prefs)
		lines = append(lines, fmt.Sprintf("- Tercihleri: %s", strings.Join(prefs, "; ")))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Ziyaretçi hakkında bilinenler:\n" + strings.Join(lines, "\n")
}

func appendDistinct(list []string, item string) []string {
	item = strings.TrimSpace(item)
	if item == "" {
		return list
	}
	for _, existing := range list {
		if strings.EqualFold(existing, item) {
			return list
		}
	}
	return append(list, item)
}
