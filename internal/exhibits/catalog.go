// Package exhibits holds the museum's piece catalog: identities, QR
// bindings and category stats for everything on display.
package exhibits

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Exhibit is one cataloged museum piece.
type Exhibit struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Image    string `json:"image,omitempty"`
	QR       string `json:"qr,omitempty"`
}

// Catalog is the exhibit registry, loaded from a JSON file and
// reloadable without restart.
type Catalog struct {
	mu       sync.RWMutex
	path     string
	exhibits map[string]Exhibit
}

type catalogFile struct {
	Exhibits map[string]struct {
		Title    string `json:"title"`
		Category string `json:"category"`
		Image    string `json:"image"`
		QR       string `json:"qr"`
	} `json:"exhibits"`
}

// LoadCatalog reads the catalog file. A missing file yields an empty
// catalog, not an error, so the service can start before content is
// ingested.
func LoadCatalog(path string) (*Catalog, error) {
	c := &Catalog{path: path, exhibits: make(map[string]Exhibit)}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the catalog file, replacing the in-memory registry
// atomically.
func (c *Catalog) Reload() error {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		c.mu.Lock()
		c.exhibits = make(map[string]Exhibit)
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}

	exhibits := make(map[string]Exhibit, len(file.Exhibits))
	for id, e := range file.Exhibits {
		exhibits[id] = Exhibit{
			ID:       id,
			Title:    e.Title,
			Category: e.Category,
			Image:    e.Image,
			QR:       e.QR,
		}
	}

	c.mu.Lock()
	c.exhibits = exhibits
	c.mu.Unlock()
	return nil
}

// Resolve maps a scanned code to an exhibit. The code may be the
// exhibit's own ID or the QR payload bound to it.
func (c *Catalog) Resolve(code string) (Exhibit, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Exhibit{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.exhibits[code]; ok {
		return e, true
	}
	for _, e := range c.exhibits {
		if e.QR != "" && e.QR == code {
			return e, true
		}
	}
	return Exhibit{}, false
}

// ByID looks up an exhibit by its canonical ID.
func (c *Catalog) ByID(id string) (Exhibit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.exhibits[id]
	return e, ok
}

// All returns every exhibit sorted by ID.
func (c *Catalog) All() []Exhibit {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Exhibit, 0, len(c.exhibits))
	for _, e := range c.exhibits {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DisplayName is the visitor-facing name of an exhibit, falling back
// to its ID when the catalog holds no title.
func (e Exhibit) DisplayName() string {
	if strings.TrimSpace(e.Title) != "" {
		return e.Title
	}
	return e.ID
}
