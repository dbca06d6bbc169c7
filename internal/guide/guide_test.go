package guide

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/denizyalin/museguide/internal/convo"
	"github.com/denizyalin/museguide/internal/exhibits"
	"github.com/denizyalin/museguide/internal/gateway"
	"github.com/denizyalin/museguide/internal/intent"
	"github.com/denizyalin/museguide/internal/memory"
	"github.com/denizyalin/museguide/internal/retrieval"
)

type capturingCompleter struct {
	lastReq gateway.Request
	reply   string
	err     error
}

func (c *capturingCompleter) Call(_ context.Context, req gateway.Request) (string, error) {
	c.lastReq = req
	return c.reply, c.err
}

type fakeRetriever struct {
	passages  []retrieval.Passage
	err       error
	lastQuery string
	lastScope string
	lastK     int
}

func (r *fakeRetriever) Retrieve(_ context.Context, query, scope string, k int) ([]retrieval.Passage, error) {
	r.lastQuery = query
	r.lastScope = scope
	r.lastK = k
	return r.passages, r.err
}

func testCatalog(t *testing.T) *exhibits.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exhibit_metadata.json")
	body := `{"exhibits": {"ID_01": {"title": "Kuruluş Diploması", "category": "Belge", "qr": "TED-QR-001"}}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	c, err := exhibits.LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	return c
}

func newTestService(t *testing.T, completer Completer, retriever retrieval.Retriever) (*Service, *memory.Manager) {
	t.Helper()
	memories := memory.NewManager(memory.NewInMemoryStore())
	svc := NewService(
		testCatalog(t),
		convo.NewManager(20, time.Hour),
		retriever,
		completer,
		memories,
		nil,
		nil,
		nil,
	)
	return svc, memories
}

func TestAskScopedToExhibit(t *testing.T) {
	completer := &capturingCompleter{reply: "Bu diploma 1931 yılına aittir."}
	retriever := &fakeRetriever{passages: []retrieval.Passage{{
		Content:  "Kuruluş Diploması 1931 yılında verildi.",
		Metadata: map[string]string{retrieval.MetaSource: "ESER_DATA_01.txt", retrieval.MetaExhibitID: "ID_01"},
	}}}
	svc, memories := newTestService(t, completer, retriever)

	ans, err := svc.Ask(context.Background(), "u1", "Bu eser ne zaman yapıldı?", "TED-QR-001")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Text != "Bu diploma 1931 yılına aittir." {
		t.Fatalf("Text = %q", ans.Text)
	}
	if ans.ExhibitID != "ID_01" {
		t.Fatalf("ExhibitID = %q", ans.ExhibitID)
	}
	if ans.Intent != intent.Short {
		t.Fatalf("Intent = %q", ans.Intent)
	}
	if len(ans.Sources) != 1 || ans.Sources[0] != "ESER_DATA_01.txt" {
		t.Fatalf("Sources = %v", ans.Sources)
	}
	if retriever.lastScope != "ID_01" {
		t.Fatalf("retriever scope = %q", retriever.lastScope)
	}
	if retriever.lastK != 4 {
		t.Fatalf("retriever k = %d, want exhibit-scoped default", retriever.lastK)
	}
	if !strings.Contains(completer.lastReq.System, "Kuruluş Diploması") {
		t.Fatalf("system prompt missing exhibit name:\n%s", completer.lastReq.System)
	}

	history := svc.convos.History("u1")
	if len(history) != 2 || history[0].Role != convo.RoleVisitor || history[1].Role != convo.RoleGuide {
		t.Fatalf("history = %+v", history)
	}

	// Visit recording is async.
	deadline := time.Now().Add(2 * time.Second)
	for {
		mem, err := memories.Get(context.Background(), "u1")
		if err != nil {
			t.Fatalf("Get memory: %v", err)
		}
		if len(mem.VisitedExhibits) == 1 && mem.VisitedExhibits[0] == "Kuruluş Diploması" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("visit never recorded, memory = %+v", mem)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAskResolvesReferencesFromContext(t *testing.T) {
	completer := &capturingCompleter{reply: "Önemli bir belgedir."}
	retriever := &fakeRetriever{}
	svc, _ := newTestService(t, completer, retriever)

	if _, err := svc.Ask(context.Background(), "u1", "Bunun önemi ne?", "TED-QR-001"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	want := "Kuruluş Diploması'nın önemi ne?"
	if retriever.lastQuery != want {
		t.Fatalf("retriever query = %q, want %q", retriever.lastQuery, want)
	}
	if !strings.Contains(completer.lastReq.User, want) {
		t.Fatalf("prompt missing resolved question:\n%s", completer.lastReq.User)
	}
}

func TestAskDegradesWhenIndexUnavailable(t *testing.T) {
	completer := &capturingCompleter{reply: "Elimde ayrıntı yok ama yardımcı olayım."}
	retriever := &fakeRetriever{err: retrieval.ErrIndexUnavailable}
	svc, _ := newTestService(t, completer, retriever)

	ans, err := svc.Ask(context.Background(), "u1", "Bu eser hakkında bilgi ver", "ID_01")
	if err != nil {
		t.Fatalf("Ask must degrade, got %v", err)
	}
	if ans.Text == "" {
		t.Fatal("empty answer")
	}
	if len(ans.Sources) != 0 {
		t.Fatalf("Sources = %v, want none", ans.Sources)
	}
}

func TestAskGeneralQuestionCarriesCollectionFacts(t *testing.T) {
	completer := &capturingCompleter{reply: "Koleksiyonda 1 eser var."}
	svc, _ := newTestService(t, completer, &fakeRetriever{})

	if _, err := svc.Ask(context.Background(), "u1", "Müzede kaç eser var?", ""); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(completer.lastReq.User, "TOPLAM ESER SAYISI: 1 adet") {
		t.Fatalf("prompt missing collection facts:\n%s", completer.lastReq.User)
	}
}

func TestAskUnknownCodeAnswersUnscoped(t *testing.T) {
	completer := &capturingCompleter{reply: "cevap"}
	retriever := &fakeRetriever{}
	svc, _ := newTestService(t, completer, retriever)

	ans, err := svc.Ask(context.Background(), "u1", "Merhaba, neler görebilirim?", "TED-QR-404")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.ExhibitID != "" {
		t.Fatalf("ExhibitID = %q, want unscoped", ans.ExhibitID)
	}
	if retriever.lastScope != "" {
		t.Fatalf("retriever scope = %q", retriever.lastScope)
	}
}

func TestAskPropagatesGatewayFailure(t *testing.T) {
	wantErr := errors.New("all 3 credentials failed")
	completer := &capturingCompleter{err: wantErr}
	svc, _ := newTestService(t, completer, &fakeRetriever{})

	if _, err := svc.Ask(context.Background(), "u1", "soru", ""); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want gateway failure", err)
	}
	if got := len(svc.convos.History("u1")); got != 0 {
		t.Fatalf("failed turn must not enter history, got %d turns", got)
	}
}

type lockedCompleter struct {
	mu      sync.Mutex
	reply   string
	lastReq gateway.Request
}

func (c *lockedCompleter) Call(_ context.Context, req gateway.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastReq = req
	return c.reply, nil
}

func (c *lockedCompleter) last() gateway.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastReq
}

func TestAskExtractionSeesBothTurns(t *testing.T) {
	answerer := &capturingCompleter{reply: "Diploma 1931 yılında verildi."}
	extCompleter := &lockedCompleter{reply: `{"is_important": false}`}

	memories := memory.NewManager(memory.NewInMemoryStore())
	svc := NewService(
		testCatalog(t),
		convo.NewManager(20, time.Hour),
		&fakeRetriever{},
		answerer,
		memories,
		memory.NewExtractor(extCompleter, memories),
		nil,
		nil,
	)

	if _, err := svc.Ask(context.Background(), "u1", "Diploma ne zaman verildi?", ""); err != nil {
		t.Fatalf("Ask: %v", err)
	}

	// Extraction runs async.
	deadline := time.Now().Add(2 * time.Second)
	for extCompleter.last().User == "" {
		if time.Now().After(deadline) {
			t.Fatal("extraction never ran")
		}
		time.Sleep(10 * time.Millisecond)
	}
	got := extCompleter.last().User
	for _, want := range []string{"Ziyaretçi: Diploma ne zaman verildi?", "Rehber: Diploma 1931 yılında verildi."} {
		if !strings.Contains(got, want) {
			t.Fatalf("extraction request missing %q:\n%s", want, got)
		}
	}
}

func TestResetClearsConversation(t *testing.T) {
	completer := &capturingCompleter{reply: "cevap"}
	svc, _ := newTestService(t, completer, &fakeRetriever{})

	if _, err := svc.Ask(context.Background(), "u1", "Merhaba", ""); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	svc.Reset("u1")
	if got := len(svc.convos.History("u1")); got != 0 {
		t.Fatalf("history after reset = %d turns", got)
	}
}
