// Package usage tracks approximate LLM token consumption and visitor
// activity so operators can watch spend without a billing console.
package usage

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/denizyalin/museguide/internal/observability"
)

// Gemini Flash pricing per token, derived from the per-million rates
// ($0.15 in, $0.60 out).
const (
	inputCostPerToken  = 0.15 / 1e6
	outputCostPerToken = 0.60 / 1e6
)

// DayUsage accumulates one day's token traffic.
type DayUsage struct {
	Input    int `json:"input"`
	Output   int `json:"output"`
	Requests int `json:"requests"`
}

// Stats is the operator-facing usage report.
type Stats struct {
	Today            DayUsage            `json:"today"`
	Total            DayUsage            `json:"total"`
	DailyHistory     map[string]DayUsage `json:"daily_history"`
	EstimatedCostUSD float64             `json:"estimated_cost_usd"`
}

type trackerState struct {
	Daily map[string]DayUsage `json:"daily"`
	Total DayUsage            `json:"total"`
}

// Tracker counts tokens per day and in total, persisting a JSON
// snapshot after every update. Counts are approximations fed by the
// gateway, good enough for spend monitoring.
type Tracker struct {
	mu      sync.Mutex
	path    string
	state   trackerState
	metrics *observability.Metrics
	now     func() time.Time
}

// NewTracker loads previous usage from path when present. An empty
// path keeps the tracker memory-only.
func NewTracker(path string, metrics *observability.Metrics) (*Tracker, error) {
	t := &Tracker{
		path:    path,
		state:   trackerState{Daily: make(map[string]DayUsage)},
		metrics: metrics,
		now:     time.Now,
	}
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read usage file: %w", err)
	}
	if err := json.Unmarshal(data, &t.state); err != nil {
		return nil, fmt.Errorf("decode usage file: %w", err)
	}
	if t.state.Daily == nil {
		t.state.Daily = make(map[string]DayUsage)
	}
	return t, nil
}

// RecordCall adds one request's token counts. Satisfies the gateway's
// usage recorder.
func (t *Tracker) RecordCall(inputTokens, outputTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := t.now().UTC().Format("2006-01-02")
	day := t.state.Daily[today]
	day.Input += inputTokens
	day.Output += outputTokens
	day.Requests++
	t.state.Daily[today] = day

	t.state.Total.Input += inputTokens
	t.state.Total.Output += outputTokens
	t.state.Total.Requests++

	t.persistLocked()

	if t.metrics != nil {
		t.metrics.TokensUsed.WithLabelValues("input").Add(float64(inputTokens))
		t.metrics.TokensUsed.WithLabelValues("output").Add(float64(outputTokens))
	}
}

// Stats reports today's and lifetime usage, with the last seven days
// of history and an estimated dollar cost.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now().UTC()
	today := now.Format("2006-01-02")

	history := make(map[string]DayUsage)
	for i := 0; i < 7; i++ {
		key := now.AddDate(0, 0, -i).Format("2006-01-02")
		if day, ok := t.state.Daily[key]; ok {
			history[key] = day
		}
	}

	cost := float64(t.state.Total.Input)*inputCostPerToken + float64(t.state.Total.Output)*outputCostPerToken
	return Stats{
		Today:            t.state.Daily[today],
		Total:            t.state.Total,
		DailyHistory:     history,
		EstimatedCostUSD: math.Round(cost*10000) / 10000,
	}
}

// Reset clears all counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = trackerState{Daily: make(map[string]DayUsage)}
	t.persistLocked()
}

func (t *Tracker) persistLocked() {
	if t.path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		log.Printf("usage: create dir: %v", err)
		return
	}
	data, err := json.MarshalIndent(t.state, "", "  ")
	if err != nil {
		log.Printf("usage: encode: %v", err)
		return
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		log.Printf("usage: persist: %v", err)
	}
}
