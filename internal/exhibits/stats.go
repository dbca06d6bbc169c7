package exhibits

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Stats summarizes the collection for status answers and the prompt's
// museum-facts block.
type Stats struct {
	Total       int            `json:"total"`
	Categories  map[string]int `json:"categories"`
	LastUpdated string         `json:"last_updated"`
}

var turkishMonths = [...]string{
	"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

// Stats computes the current collection totals and category
// distribution. Uncategorized pieces count under "Kategorisiz".
func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	categories := make(map[string]int)
	for _, e := range c.exhibits {
		category := strings.TrimSpace(e.Category)
		if category == "" {
			category = "Kategorisiz"
		}
		categories[category]++
	}

	now := time.Now()
	return Stats{
		Total:       len(c.exhibits),
		Categories:  categories,
		LastUpdated: fmt.Sprintf("%d %s %d", now.Day(), turkishMonths[now.Month()-1], now.Year()),
	}
}

// StatsContext renders collection facts as a prompt block so answers
// about the museum's size stay grounded in the catalog, not the
// model's guesses.
func (c *Catalog) StatsContext() string {
	stats := c.Stats()

	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(stats.Categories))
	for name, count := range stats.Categories {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	var b strings.Builder
	b.WriteString("TED Kolej Müzesi Güncel Bilgileri:\n\n")
	fmt.Fprintf(&b, "TOPLAM ESER SAYISI: %d adet\n\n", stats.Total)
	b.WriteString("KATEGORİ DAĞILIMI:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s (%d)\n", e.name, e.count)
	}
	fmt.Fprintf(&b, "\nSon güncelleme: %s\n", stats.LastUpdated)
	return b.String()
}
