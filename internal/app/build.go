// Package app assembles the service from configuration: stores,
// gateway, pipeline and API server.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/denizyalin/museguide/internal/config"
	"github.com/denizyalin/museguide/internal/convo"
	"github.com/denizyalin/museguide/internal/errlog"
	"github.com/denizyalin/museguide/internal/exhibits"
	"github.com/denizyalin/museguide/internal/gateway"
	"github.com/denizyalin/museguide/internal/guide"
	"github.com/denizyalin/museguide/internal/httpapi"
	"github.com/denizyalin/museguide/internal/memory"
	"github.com/denizyalin/museguide/internal/observability"
	"github.com/denizyalin/museguide/internal/retrieval"
	"github.com/denizyalin/museguide/internal/usage"
)

type BuildResult struct {
	Config  config.Config
	API     *httpapi.Server
	Convos  *convo.Manager
	Gateway *gateway.Gateway
	Index   *retrieval.SQLiteIndex
	Metrics *observability.Metrics

	// Cleanup should be called on shutdown to release external
	// resources (databases, files).
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	appender, err := errlog.NewSQLiteAppender(cfg.ErrlogDBPath)
	if err != nil {
		return nil, fmt.Errorf("error log init failed: %w", err)
	}
	sink := errlog.NewSink(256, appender)

	tracker, err := usage.NewTracker(cfg.UsagePath, metrics)
	if err != nil {
		_ = appender.Close()
		return nil, fmt.Errorf("usage tracker init failed: %w", err)
	}
	activity, err := usage.NewActivity(cfg.ActivityPath)
	if err != nil {
		_ = appender.Close()
		return nil, fmt.Errorf("activity tracker init failed: %w", err)
	}

	catalog, err := exhibits.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		_ = appender.Close()
		return nil, fmt.Errorf("catalog load failed: %w", err)
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
		_ = appender.Close()
		return nil, fmt.Errorf("retrieval index init failed: %w", err)
	}

	gw, err := gateway.New(gateway.Config{
		Keys:    cfg.GeminiAPIKeys,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	}, gateway.NewGeminiProvider(cfg.GeminiBaseURL), sink, tracker, metrics)
	if err != nil {
		_ = index.Close()
		_ = appender.Close()
		return nil, fmt.Errorf("gateway init failed: %w", err)
	}

	memoryStore, err := memory.NewStore(ctx, cfg.DatabaseURL, cfg.MemoryDBPath)
	if err != nil {
		_ = index.Close()
		_ = appender.Close()
		return nil, fmt.Errorf("memory store init failed: %w", err)
	}
	memories := memory.NewManager(memoryStore)
	extractor := memory.NewExtractor(gw, memories)

	convos := convo.NewManager(cfg.HistoryMaxTurns, cfg.ConversationInactivityTimeout)
	convos.SetExpireHook(func(_ string) {
		metrics.ActiveConversations.Set(float64(convos.ActiveCount()))
	})

	svc := guide.NewService(catalog, convos, index, gw, memories, extractor, activity, metrics)
	api := httpapi.New(cfg, svc, convos, catalog, index, gw, sink, tracker, activity, metrics)

	cleanup := func() error {
		var errs []string
		if err := memoryStore.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if err := index.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if err := appender.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:  cfg,
		API:     api,
		Convos:  convos,
		Gateway: gw,
		Index:   index,
		Metrics: metrics,
		Cleanup: cleanup,
	}, nil
}
