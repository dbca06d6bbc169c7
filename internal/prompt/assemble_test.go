package prompt

import (
	"strings"
	"testing"

	"github.com/denizyalin/museguide/internal/intent"
	"github.com/denizyalin/museguide/internal/retrieval"
)

func TestChunkCountOrdering(t *testing.T) {
	detailed := ChunkCount(intent.Detailed, false)
	list := ChunkCount(intent.List, false)
	general := ChunkCount(intent.Medium, false)
	scoped := ChunkCount(intent.Short, true)

	if detailed < general || list < general {
		t.Fatalf("detailed/list (%d/%d) must request at least as much as general (%d)", detailed, list, general)
	}
	if general < scoped {
		t.Fatalf("general (%d) must request at least as much as exhibit-scoped (%d)", general, scoped)
	}
}

func TestSystemIncludesIntentInstruction(t *testing.T) {
	got := System(intent.List, "")
	if !strings.Contains(got, "LİSTE") {
		t.Fatalf("list system prompt missing list instruction")
	}
	if strings.Contains(got, "ESER MODU") {
		t.Fatalf("unscoped system prompt must not include exhibit rules")
	}
}

func TestSystemExhibitMode(t *testing.T) {
	got := System(intent.Short, "Kuruluş Diploması")
	if !strings.Contains(got, "ESER MODU") {
		t.Fatalf("scoped system prompt missing exhibit rules")
	}
	if !strings.Contains(got, "Kuruluş Diploması") {
		t.Fatalf("scoped system prompt missing exhibit name")
	}
}

func TestSystemFewShotOnlyForMediumAndDetailed(t *testing.T) {
	if strings.Contains(System(intent.Short, ""), "ÖRNEK CEVAPLAR") {
		t.Fatalf("short prompt should not carry few-shot examples")
	}
	if !strings.Contains(System(intent.Detailed, ""), "ÖRNEK CEVAPLAR") {
		t.Fatalf("detailed prompt should carry few-shot examples")
	}
}

func TestBuildOrdering(t *testing.T) {
	passages := []retrieval.Passage{
		{Content: "Diploma 1931 tarihlidir.", Metadata: map[string]string{retrieval.MetaSource: "a.txt"}},
	}
	got := Build("Bunun önemi ne?", passages, "Previous conversation:\nVisitor: merhaba", "About this visitor:\n- Interests: resim")

	memIdx := strings.Index(got, "About this visitor")
	histIdx := strings.Index(got, "Previous conversation")
	ctxIdx := strings.Index(got, "İLGİLİ BİLGİLER")
	qIdx := strings.Index(got, "Soru: Bunun önemi ne?")

	if memIdx < 0 || histIdx < 0 || ctxIdx < 0 || qIdx < 0 {
		t.Fatalf("missing section in prompt:\n%s", got)
	}
	if !(memIdx < histIdx && histIdx < ctxIdx && ctxIdx < qIdx) {
		t.Fatalf("sections out of order: mem=%d hist=%d ctx=%d q=%d", memIdx, histIdx, ctxIdx, qIdx)
	}
	if !strings.HasSuffix(got, "Cevap:") {
		t.Fatalf("prompt must end with the answer cue")
	}
}

func TestSourcesDeduplicates(t *testing.T) {
	passages := []retrieval.Passage{
		{Metadata: map[string]string{retrieval.MetaSource: "a.txt"}},
		{Metadata: map[string]string{retrieval.MetaSource: "b.txt"}},
		{Metadata: map[string]string{retrieval.MetaSource: "a.txt"}},
		{Metadata: map[string]string{}},
	}
	got := Sources(passages)
	if len(got) != 2 || got[0] != "a.txt" || got[1] != "b.txt" {
		t.Fatalf("Sources = %v, want [a.txt b.txt]", got)
	}
}
