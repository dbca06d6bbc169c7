package retrieval

import (
	"context"
	"testing"
)

func newTestIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	idx, err := NewSQLiteIndex(t.TempDir()+"/index.db", NewHashEmbedder(128))
	if err != nil {
		t.Fatalf("NewSQLiteIndex() error = %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestRetrieveScopedResults(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := idx.Add(ctx, "ID_03", "ESER_DATA_03.txt", "", "Kuruluş diploması 1931 tarihli bir belgedir."); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	for i := 0; i < 10; i++ {
		if err := idx.Add(ctx, "", "museum_info.txt", "", "Müze eğitim tarihine odaklanır."); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	got, err := idx.Retrieve(ctx, "diploma tarihi", "ID_03", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) > 2 {
		t.Fatalf("got %d passages, want at most 2", len(got))
	}
	if len(got) == 0 {
		t.Fatalf("scoped retrieval returned nothing")
	}
	for _, p := range got {
		if p.Metadata[MetaExhibitID] != "ID_03" {
			t.Fatalf("passage scope = %q, want ID_03", p.Metadata[MetaExhibitID])
		}
	}
}

func TestRetrieveEmptyIndexReturnsNoError(t *testing.T) {
	idx := newTestIndex(t)
	got, err := idx.Retrieve(context.Background(), "herhangi bir soru", "", 4)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d passages from empty index, want 0", len(got))
	}
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Add(ctx, "", "a.txt", "", "diploma diploma diploma"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := idx.Add(ctx, "", "b.txt", "", "tamamen alakasız bir metin parçası"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got, err := idx.Retrieve(ctx, "diploma", "", 1)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d passages, want 1", len(got))
	}
	if got[0].Metadata[MetaSource] != "a.txt" {
		t.Fatalf("top passage source = %q, want a.txt", got[0].Metadata[MetaSource])
	}
}

func TestRetrieveZeroK(t *testing.T) {
	idx := newTestIndex(t)
	got, err := idx.Retrieve(context.Background(), "soru", "", 0)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if got != nil {
		t.Fatalf("k=0 should return nil, got %v", got)
	}
}

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	a, _ := e.Embed(context.Background(), "kuruluş diploması")
	b, _ := e.Embed(context.Background(), "kuruluş diploması")
	if CosineSimilarity(a, b) < 0.999 {
		t.Fatalf("identical text should embed identically")
	}
}
