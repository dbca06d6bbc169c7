// Package errlog is the append-only failure log for the LLM gateway.
// Every failed attempt is recorded before any recovery decision is
// made, so diagnosis never depends on whether the retry worked.
package errlog

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/denizyalin/museguide/internal/reliability"
)

// Record is one logged gateway failure. Never mutated after creation.
type Record struct {
	ID       string               `json:"id"`
	At       time.Time            `json:"at"`
	Category reliability.Category `json:"category"`
	KeyIndex int                  `json:"key_index"`
	Message  string               `json:"message"`
	Action   string               `json:"action"`
}

// maxMessageLen bounds stored provider messages; full errors can carry
// multi-kilobyte response bodies.
const maxMessageLen = 300

// Appender receives every record for durable storage.
type Appender interface {
	Append(rec Record) error
}

// Sink keeps the most recent records in memory and forwards each one
// to an optional durable appender. Writes are serialized; reads see a
// consistent snapshot.
type Sink struct {
	mu       sync.RWMutex
	records  []Record
	next     int
	filled   bool
	appender Appender
	entropy  *rand.Rand
}

// NewSink creates a sink holding the last maxRecords entries in memory.
func NewSink(maxRecords int, appender Appender) *Sink {
	if maxRecords <= 0 {
		maxRecords = 256
	}
	return &Sink{
		records:  make([]Record, maxRecords),
		appender: appender,
		entropy:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Log appends a failure record. The record id is a ULID so durable
// storage stays ordered by time.
func (s *Sink) Log(category reliability.Category, keyIndex int, message, action string) Record {
	// Truncate on a rune boundary; provider messages carry Turkish text
	// and a byte slice could split a multi-byte character.
	if runes := []rune(message); len(runes) > maxMessageLen {
		message = string(runes[:maxMessageLen])
	}

	s.mu.Lock()
	rec := Record{
		ID:       ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String(),
		At:       time.Now().UTC(),
		Category: category,
		KeyIndex: keyIndex,
		Message:  message,
		Action:   action,
	}
	s.records[s.next] = rec
	s.next++
	if s.next >= len(s.records) {
		s.next = 0
		s.filled = true
	}
	appender := s.appender
	s.mu.Unlock()

	if appender != nil {
		if err := appender.Append(rec); err != nil {
			log.Printf("errlog: durable append failed: %v", err)
		}
	}
	return rec
}

// Recent returns up to limit records, newest first.
func (s *Sink) Recent(limit int) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.next
	if s.filled {
		n = len(s.records)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]Record, 0, limit)
	for i := 0; i < limit; i++ {
		idx := s.next - 1 - i
		if idx < 0 {
			idx += len(s.records)
		}
		out = append(out, s.records[idx])
	}
	return out
}

// Count reports how many records the sink currently holds in memory.
func (s *Sink) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.filled {
		return len(s.records)
	}
	return s.next
}
