package retrieval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const (
	chunkSize    = 500
	chunkOverlap = 100
)

// contentFileRe matches exhibit content files like ESER_DATA_01.txt
// and captures the number that keys the exhibit ID.
var contentFileRe = regexp.MustCompile(`^ESER_DATA_(\d+)\.txt$`)

// IngestFile chunks one exhibit content file into the index.
func (s *SQLiteIndex) IngestFile(ctx context.Context, path, exhibitID string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read content file: %w", err)
	}

	source := filepath.Base(path)
	chunks := chunkText(string(data))
	for _, chunk := range chunks {
		if err := s.Add(ctx, exhibitID, source, detectSection(chunk), chunk); err != nil {
			return 0, fmt.Errorf("index %s: %w", source, err)
		}
	}
	return len(chunks), nil
}

// IngestDir loads every exhibit content file in dir. File names carry
// the exhibit binding: ESER_DATA_07.txt feeds exhibit ID_07. Files
// that don't match the pattern are indexed unscoped, as museum-wide
// background text.
func (s *SQLiteIndex) IngestDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read content dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	total := 0
	for _, name := range names {
		exhibitID := ""
		if m := contentFileRe.FindStringSubmatch(name); m != nil {
			exhibitID = "ID_" + m[1]
		}
		n, err := s.IngestFile(ctx, filepath.Join(dir, name), exhibitID)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// chunkText splits by runes so multi-byte Turkish characters never get
// cut in half at a chunk boundary.
func chunkText(text string) []string {
	runes := []rune(text)
	var chunks []string
	for start := 0; start < len(runes); start += chunkSize - chunkOverlap {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := string(runes[start:end])
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// detectSection tags a chunk by the document section it belongs to,
// so answers can prefer catalog text over curatorial analysis.
// Section headers arrive uppercase, so folding must map I to ı and
// İ to i; plain ToLower silently mangles both.
func detectSection(chunk string) string {
	lower := strings.ToLowerSpecial(unicode.TurkishCase, chunk)
	switch {
	case strings.Contains(lower, "katalog açıklaması"):
		return "katalog"
	case strings.Contains(lower, "küratoryal analiz"), strings.Contains(lower, "tarihsel bağlam"):
		return "analiz"
	default:
		return "genel"
	}
}
