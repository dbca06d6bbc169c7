package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// maxNumberedKeys bounds the GEMINI_API_KEY_N scan.
const maxNumberedKeys = 20

// Config contains all runtime settings for the museum guide service.
type Config struct {
	BindAddr                      string
	ShutdownTimeout               time.Duration
	ConversationInactivityTimeout time.Duration
	MetricsNamespace              string

	AllowAnyOrigin bool

	GeminiAPIKeys []string
	GeminiBaseURL string
	LLMModel      string
	LLMTimeout    time.Duration

	HistoryMaxTurns int

	EmbedderMode     string
	OllamaEmbedModel string
	EmbeddingDim     int

	DatabaseURL  string
	DataDir      string
	CatalogPath  string
	IndexDBPath  string
	MemoryDBPath string
	ErrlogDBPath string
	UsagePath    string
	ActivityPath string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	dataDir := envOrDefault("APP_DATA_DIR", "data")

	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "museguide"),
		AllowAnyOrigin:   false,
		GeminiAPIKeys:    loadGeminiKeys(),
		GeminiBaseURL:    envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		LLMModel:         envOrDefault("LLM_MODEL", "gemini-2.0-flash"),
		// "hash" needs no external service; "ollama" uses a local
		// embedding model for better ranking.
		EmbedderMode:     envOrDefault("APP_EMBEDDER", "hash"),
		OllamaEmbedModel: envOrDefault("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		EmbeddingDim:     256,
		DatabaseURL:      stringsTrimSpace("DATABASE_URL"),
		DataDir:          dataDir,
		CatalogPath:      envOrDefault("APP_CATALOG_PATH", filepath.Join(dataDir, "exhibit_metadata.json")),
		IndexDBPath:      envOrDefault("APP_INDEX_DB_PATH", filepath.Join(dataDir, "index.db")),
		MemoryDBPath:     envOrDefault("APP_MEMORY_DB_PATH", filepath.Join(dataDir, "memory.db")),
		ErrlogDBPath:     envOrDefault("APP_ERRLOG_DB_PATH", filepath.Join(dataDir, "errors.db")),
		UsagePath:        envOrDefault("APP_USAGE_PATH", filepath.Join(dataDir, "token_usage.json")),
		ActivityPath:     envOrDefault("APP_ACTIVITY_PATH", filepath.Join(dataDir, "stats.json")),

		ShutdownTimeout:               15 * time.Second,
		ConversationInactivityTimeout: 30 * time.Minute,
		LLMTimeout:                    15 * time.Second,
		HistoryMaxTurns:               20,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ConversationInactivityTimeout, err = durationFromEnv("APP_CONVERSATION_INACTIVITY_TIMEOUT", cfg.ConversationInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMTimeout, err = durationFromEnv("LLM_TIMEOUT", cfg.LLMTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryMaxTurns, err = intFromEnv("APP_HISTORY_MAX_TURNS", cfg.HistoryMaxTurns)
	if err != nil {
		return Config{}, err
	}
	cfg.EmbeddingDim, err = intFromEnv("APP_EMBEDDING_DIM", cfg.EmbeddingDim)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.ConversationInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_CONVERSATION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.LLMTimeout <= 0 {
		return Config{}, fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	if cfg.HistoryMaxTurns <= 0 {
		return Config{}, fmt.Errorf("APP_HISTORY_MAX_TURNS must be positive")
	}
	if cfg.EmbeddingDim <= 0 {
		return Config{}, fmt.Errorf("APP_EMBEDDING_DIM must be positive")
	}
	switch cfg.EmbedderMode {
	case "hash", "ollama":
	default:
		return Config{}, fmt.Errorf("APP_EMBEDDER must be hash or ollama")
	}

	return cfg, nil
}

// RequireCredentials rejects an empty credential list. Only the guide
// service calls it; ingestion never talks to the LLM and runs without
// keys.
func (c Config) RequireCredentials() error {
	if len(c.GeminiAPIKeys) == 0 {
		return fmt.Errorf("GEMINI_API_KEY is required (GEMINI_API_KEY_1..N add rotation fallbacks)")
	}
	return nil
}

// GeminiKeysFromEnv re-reads the credential list, for hot reload
// without restart.
func GeminiKeysFromEnv() []string {
	return loadGeminiKeys()
}

// loadGeminiKeys gathers the primary key plus numbered fallbacks, in
// rotation order, dropping blanks and duplicates.
func loadGeminiKeys() []string {
	var keys []string
	seen := map[string]bool{}
	add := func(key string) {
		key = trimSpace(key)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		keys = append(keys, key)
	}

	add(os.Getenv("GEMINI_API_KEY"))
	for i := 1; i <= maxNumberedKeys; i++ {
		add(os.Getenv(fmt.Sprintf("GEMINI_API_KEY_%d", i)))
	}
	return keys
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return trimSpace(os.Getenv(key))
}

func trimSpace(v string) string {
	for len(v) > 0 && (v[0] == ' ' || v[0] == '\n' || v[0] == '\t' || v[0] == '\r') {
		v = v[1:]
	}
	for len(v) > 0 {
		c := v[len(v)-1]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			v = v[:len(v)-1]
			continue
		}
		break
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
