package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

// EmbedConfig controls batching and retries around the embedding service.
type EmbedConfig struct {
	BatchSize      int           `yaml:"batch_size"`
	Concurrency    int           `yaml:"concurrency"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

// DefaultEmbedConfig returns batches of 64, two in flight, three retries.
func DefaultEmbedConfig() EmbedConfig {
	return EmbedConfig{
		BatchSize:      64,
		Concurrency:    2,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		CacheTTL:       7 * 24 * time.Hour,
	}
}

// batchEmbedder embeds many texts through an EmbeddingService: it serves
// what it can from the cache, splits the rest into batches, retries
// transient failures with exponential backoff and preserves input order.
type batchEmbedder struct {
	cfg    EmbedConfig
	cache  driven.EmbeddingCache
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func newBatchEmbedder(cfg EmbedConfig, cache driven.EmbeddingCache, logger *slog.Logger) *batchEmbedder {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &batchEmbedder{cfg: cfg, cache: cache, logger: logger, sleep: sleepContext}
}

// embed returns one embedding per text. Either every text is embedded or an
// error is returned; there are no partial results.
func (b *batchEmbedder) embed(ctx context.Context, svc driven.EmbeddingService, texts []string) ([]domain.Embedding, error) {
	if svc == nil {
		return nil, fmt.Errorf("no embedding service configured: %w", domain.ErrEmbeddingUnavailable)
	}
	model, dim := svc.Model(), svc.Dimensions()

	vectors := make([][]float32, len(texts))
	hashes := make([]string, len(texts))
	for i, text := range texts {
		hashes[i] = domain.ContentHash(text)
	}

	if b.cache != nil {
		cached, err := b.cache.GetMany(ctx, model, hashes)
		if err != nil {
			b.logger.Warn("embedding cache read failed", "model", model, "error", err)
		}
		for i, h := range hashes {
			if v, ok := cached[h]; ok && len(v) == dim {
				vectors[i] = v
			}
		}
	}

	var missing []int
	for i := range texts {
		if vectors[i] == nil {
			missing = append(missing, i)
		}
	}

	batchSize := b.cfg.BatchSize
	if limit := svc.MaxBatchSize(); limit > 0 && limit < batchSize {
		batchSize = limit
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)
	for start := 0; start < len(missing); start += batchSize {
		end := start + batchSize
		if end > len(missing) {
			end = len(missing)
		}
		idx := missing[start:end]
		g.Go(func() error {
			batch := make([]string, len(idx))
			for j, i := range idx {
				batch[j] = texts[i]
			}
			out, err := b.embedWithRetry(gctx, svc, batch)
			if err != nil {
				return err
			}
			for j, i := range idx {
				vectors[i] = out[j]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if b.cache != nil && len(missing) > 0 {
		fresh := make(map[string][]float32, len(missing))
		for _, i := range missing {
			fresh[hashes[i]] = vectors[i]
		}
		if err := b.cache.PutMany(ctx, model, fresh, b.cfg.CacheTTL); err != nil {
			b.logger.Warn("embedding cache write failed", "model", model, "error", err)
		}
	}

	result := make([]domain.Embedding, len(texts))
	for i, v := range vectors {
		result[i] = domain.Embedding{Vector: v, Dimension: dim, Model: model}
	}
	return result, nil
}

func (b *batchEmbedder) embedWithRetry(ctx context.Context, svc driven.EmbeddingService, batch []string) ([][]float32, error) {
	backoff := b.cfg.InitialBackoff
	var lastErr error
	for attempt := 0; attempt <= b.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			b.logger.Warn("retrying embedding batch",
				"attempt", attempt,
				"batch_size", len(batch),
				"backoff", backoff,
				"error", lastErr,
			)
			if err := b.sleep(ctx, backoff); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
			}
			backoff *= 2
			if b.cfg.MaxBackoff > 0 && backoff > b.cfg.MaxBackoff {
				backoff = b.cfg.MaxBackoff
			}
		}

		out, err := b.embedOnce(ctx, svc, batch)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("embedding failed after %d retries: %w", b.cfg.MaxRetries, lastErr)
}

// embedOnce runs a single bounded call and checks the response shape.
func (b *batchEmbedder) embedOnce(ctx context.Context, svc driven.EmbeddingService, batch []string) ([][]float32, error) {
	callCtx := ctx
	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}

	out, err := svc.Embed(callCtx, batch)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: call timed out", domain.ErrEmbeddingUnavailable)
		}
		return nil, err
	}
	if len(out) != len(batch) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingUnavailable, len(out), len(batch))
	}
	for _, v := range out {
		if len(v) != svc.Dimensions() {
			return nil, fmt.Errorf("%w: vector length %d, model declares %d", domain.ErrModelMismatch, len(v), svc.Dimensions())
		}
	}
	return out, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
