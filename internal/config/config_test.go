package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
)

// clearEnv blanks every override so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RUN_MODE", "HOST", "PORT", "ALLOWED_ORIGINS", "CHECK_TIMEOUT",
		"DATABASE_URL", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "REDIS_URL", "JWT_SECRET",
		"EMBEDDING_PROVIDER", "EMBEDDING_MODEL", "EMBEDDING_BASE_URL", "OPENAI_API_KEY",
		"EMBEDDING_API_KEY", "EMBEDDING_DIMENSIONS", "EMBEDDING_BATCH_SIZE", "EMBEDDING_CACHE_TTL",
		"CHUNK_SIZE", "MATCH_TOP_K", "MATCH_WORKERS", "MATCH_COURSE_SCOPED", "INDEX_BACKEND",
		"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET", "MINIO_USE_SSL",
		"WORKER_CONCURRENCY", "WORKER_DEQUEUE_TIMEOUT", "LOCK_WAIT", "SCHEDULER_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ModeAll, cfg.Server.Mode)
	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, 0.1, cfg.Chunking.OverlapRatio)
	assert.Equal(t, 5, cfg.Matching.TopK)
	assert.Equal(t, 0.7, cfg.Matching.Scoring.SemanticWeight)
	assert.Equal(t, 0.3, cfg.Matching.Scoring.NGramWeight)
	assert.Equal(t, domain.EmbeddingProviderHash, cfg.Embedding.Provider)
	assert.Equal(t, IndexMemory, cfg.Index.Backend)
	assert.True(t, cfg.UsesDefaultSecret())
}

func TestLoadFile_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile_YAMLOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
server:
  mode: api
  port: 9090
  allowed_origins: ["https://lms.example.com"]
embedding:
  provider: openai
  model: text-embedding-3-small
  api_key: sk-test
  dimensions: 1536
  batch_size: 32
  timeout: 45s
chunking:
  size: 800
  overlap_ratio: 0.2
matching:
  top_k: 10
  course_scoped: true
  scoring:
    semantic_weight: 1
    ngram_weight: 0
    ngram_size: 5
index:
  backend: pgvector
lock:
  ttl: 2m
  wait: 3s
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, ModeAPI, cfg.Server.Mode)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://lms.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, domain.EmbeddingProviderOpenAI, cfg.Embedding.Provider)
	assert.Equal(t, 1536, cfg.Embedding.Dimensions)
	assert.Equal(t, 45*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 800, cfg.Chunking.Size)
	assert.Equal(t, 10, cfg.Matching.TopK)
	assert.True(t, cfg.Matching.CourseScoped)
	assert.Equal(t, IndexPGVector, cfg.Index.Backend)
	assert.Equal(t, 3*time.Second, cfg.Lock.Wait)

	// Untouched sections keep their defaults
	assert.Equal(t, Default().Database, cfg.Database)
	assert.Equal(t, Default().Matching.Workers, cfg.Matching.Workers)
}

func TestLoadFile_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "server:\n  port: 9090\n")

	t.Setenv("PORT", "7070")
	t.Setenv("RUN_MODE", "worker")
	t.Setenv("INDEX_BACKEND", "pgvector")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("WORKER_DEQUEUE_TIMEOUT", "10")
	t.Setenv("LOCK_WAIT", "250ms")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_BUCKET", "materials")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, ModeWorker, cfg.Server.Mode)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.False(t, cfg.UsesDefaultSecret())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.Worker.DequeueTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Lock.Wait)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "localhost:9000", cfg.Storage.Endpoint)
	assert.Equal(t, "materials", cfg.Storage.Bucket)
}

func TestLoadFile_EmbeddingAPIKeyPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("EMBEDDING_API_KEY", "sk-explicit")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sk-explicit", cfg.Embedding.APIKey)
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "server: [unclosed")

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFile_InvalidResult(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "chunking:\n  size: 0\n")

	_, err := LoadFile(path)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Server.Mode = "batch" }},
		{"memory index in api mode", func(c *Config) { c.Server.Mode = ModeAPI }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"missing database url", func(c *Config) { c.Database.URL = "" }},
		{"missing jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"chunk size below one", func(c *Config) { c.Chunking.Size = 0 }},
		{"negative overlap", func(c *Config) { c.Chunking.OverlapRatio = -0.1 }},
		{"overlap of one", func(c *Config) { c.Chunking.OverlapRatio = 1 }},
		{"top k below one", func(c *Config) { c.Matching.TopK = 0 }},
		{"weights do not sum to one", func(c *Config) { c.Matching.Scoring.NGramWeight = 0.5 }},
		{"negative weight", func(c *Config) {
			c.Matching.Scoring.SemanticWeight = 1.2
			c.Matching.Scoring.NGramWeight = -0.2
		}},
		{"ngram size zero", func(c *Config) { c.Matching.Scoring.NGramSize = 0 }},
		{"unknown index backend", func(c *Config) { c.Index.Backend = "faiss" }},
		{"endpoint without bucket", func(c *Config) { c.Storage.Endpoint = "localhost:9000" }},
		{"no worker concurrency", func(c *Config) { c.Worker.Concurrency = 0 }},
		{"negative lock wait", func(c *Config) { c.Lock.Wait = -time.Second }},
		{"unknown embedding provider", func(c *Config) { c.Embedding.Provider = "cohere" }},
		{"openai without key or url", func(c *Config) {
			c.Embedding.Provider = domain.EmbeddingProviderOpenAI
			c.Embedding.APIKey = ""
			c.Embedding.BaseURL = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_PureCosine(t *testing.T) {
	cfg := Default()
	cfg.Matching.Scoring.SemanticWeight = 1
	cfg.Matching.Scoring.NGramWeight = 0
	cfg.Matching.Scoring.NGramSize = 0

	assert.NoError(t, cfg.Validate())
}

func TestEmbeddingConfig_Pipeline(t *testing.T) {
	cfg := Default()
	cfg.Embedding.BatchSize = 16
	cfg.Embedding.MaxRetries = 7

	p := cfg.Embedding.Pipeline()
	assert.Equal(t, 16, p.BatchSize)
	assert.Equal(t, 7, p.MaxRetries)
	assert.Equal(t, cfg.Embedding.Timeout, p.Timeout)
	assert.Equal(t, cfg.Embedding.CacheTTL, p.CacheTTL)
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"", time.Minute},
		{"90s", 90 * time.Second},
		{"15", 15 * time.Second},
		{"soon", time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			assert.Equal(t, tt.expected, getEnvDuration("TEST_DURATION", time.Minute))
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	for value, expected := range map[string]bool{"true": true, "1": true, "yes": true, "false": false, "no": false} {
		t.Setenv("TEST_BOOL", value)
		assert.Equal(t, expected, getEnvBool("TEST_BOOL", !expected), value)
	}
}
