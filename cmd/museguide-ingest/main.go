// Command museguide-ingest loads exhibit content files into the
// similarity index used by the guide service.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/denizyalin/museguide/internal/config"
	"github.com/denizyalin/museguide/internal/retrieval"
)

func main() {
	contentDir := flag.String("content", "data/ted_museum", "directory of exhibit content .txt files")
	clear := flag.Bool("clear", false, "drop existing passages before loading")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var embedder retrieval.Embedder
	switch cfg.EmbedderMode {
	case "ollama":
		embedder = retrieval.NewOllamaEmbedder(cfg.OllamaEmbedModel)
	default:
		embedder = retrieval.NewHashEmbedder(cfg.EmbeddingDim)
	}

	index, err := retrieval.NewSQLiteIndex(cfg.IndexDBPath, embedder)
	if err != nil {
		log.Fatalf("open index: %v", err)
	}
	defer index.Close()

	ctx := context.Background()
	if *clear {
		if err := index.Clear(ctx); err != nil {
			log.Fatalf("clear index: %v", err)
		}
		log.Printf("cleared existing passages")
	}

	n, err := index.IngestDir(ctx, *contentDir)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
	log.Printf("indexed %d chunks from %s into %s", n, *contentDir, cfg.IndexDBPath)
}
