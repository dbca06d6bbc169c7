package exhibits

import (
	"context"
	"unicode/utf8"

	"github.com/denizyalin/museguide/internal/retrieval"
)

// maxSummaryLen caps QR lookup summaries for the scan card UI.
const maxSummaryLen = 280

// LookupResult is what a QR scan resolves to.
type LookupResult struct {
	ExhibitID string            `json:"exhibit_id"`
	Title     string            `json:"title"`
	Summary   string            `json:"summary"`
	Image     string            `json:"image,omitempty"`
	Metadata  map[string]string `json:"metadata"`
}

// Lookup resolves a scanned code to an exhibit card. Unknown codes get
// a polite placeholder instead of an error so the scanner UI always
// has something to show.
func (c *Catalog) Lookup(ctx context.Context, code string, retriever retrieval.Retriever) LookupResult {
	exhibit, ok := c.Resolve(code)
	if !ok {
		return LookupResult{
			ExhibitID: "UNKNOWN",
			Title:     "Bilinmeyen Eser",
			Summary:   "Bu QR kod sistemde tanımlı değil.",
			Metadata:  map[string]string{},
		}
	}

	result := LookupResult{
		ExhibitID: exhibit.ID,
		Title:     exhibit.DisplayName(),
		Summary:   "Bu eser için henüz ayrıntılı açıklama eklenmedi.",
		Image:     exhibit.Image,
		Metadata:  map[string]string{},
	}
	if exhibit.Category != "" {
		result.Metadata["category"] = exhibit.Category
	}

	if retriever == nil {
		return result
	}
	passages, err := retriever.Retrieve(ctx, "kısa açıklama", exhibit.ID, 2)
	if err != nil || len(passages) == 0 {
		return result
	}

	result.Summary = truncateSummary(passages[0].Content)
	if section := passages[0].Metadata[retrieval.MetaSection]; section != "" {
		result.Metadata["section"] = section
	}
	return result
}

func truncateSummary(s string) string {
	if utf8.RuneCountInString(s) <= maxSummaryLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxSummaryLen]) + "…"
}
