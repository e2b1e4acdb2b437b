package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

// MatchConfig controls corpus lookups for one submission.
type MatchConfig struct {
	// TopK is how many cosine candidates are re-scored per chunk at first.
	// The pool doubles until no unseen candidate can beat the best score.
	TopK int `yaml:"top_k"`

	// Workers bounds concurrent corpus queries
	Workers int `yaml:"workers"`

	// QueryTimeout bounds each corpus query
	QueryTimeout time.Duration `yaml:"query_timeout"`

	// CourseScoped restricts internal candidates to the submission's course
	CourseScoped bool `yaml:"course_scoped"`

	Scoring ScoringConfig `yaml:"scoring"`
}

// DefaultMatchConfig returns top-5 candidates, 8 workers and a 5s query timeout.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		TopK:         5,
		Workers:      8,
		QueryTimeout: 5 * time.Second,
		Scoring:      DefaultScoringConfig(),
	}
}

// ChunkMatch is the outcome for one submission chunk. Best is nil when no
// corpus chunk had non-negative similarity; Unavailable is set when the
// query failed or timed out.
type ChunkMatch struct {
	Chunk       *domain.Chunk
	Best        *domain.MatchedSource
	Unavailable bool

	// candidates is how many corpus chunks were scored
	candidates int
}

// MatchRequest identifies the chunks to match and the scope to exclude.
type MatchRequest struct {
	SubmissionID string
	Scope        string
	CourseID string
	Space    domain.EmbeddingSpace
	Chunks   []*domain.Chunk
}

// Matcher finds the best corpus source for every chunk of a submission.
type Matcher struct {
	index  driven.CorpusIndex
	scorer *HybridScorer
	cfg    MatchConfig
	logger *slog.Logger
}

// NewMatcher creates a matcher over index.
func NewMatcher(index driven.CorpusIndex, cfg MatchConfig, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TopK < 1 {
		cfg.TopK = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Matcher{
		index:  index,
		scorer: NewHybridScorer(cfg.Scoring),
		cfg:    cfg,
		logger: logger,
	}
}

// Match returns one ChunkMatch per input chunk, in input order. A failing
// or slow query only marks its own chunk unavailable; Match itself fails
// only when ctx is cancelled.
func (m *Matcher) Match(ctx context.Context, req MatchRequest) ([]ChunkMatch, error) {
	results := make([]ChunkMatch, len(req.Chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Workers)
	for i, chunk := range req.Chunks {
		g.Go(func() error {
			results[i] = m.matchChunk(gctx, req, chunk)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unavailable, empty := 0, 0
	for _, r := range results {
		switch {
		case r.Unavailable:
			unavailable++
		case r.candidates == 0:
			empty++
		}
	}
	if unavailable > 0 {
		m.logger.Warn("corpus matching degraded",
			"submission_id", req.SubmissionID,
			"scope", req.Scope,
			"unavailable_chunks", unavailable,
			"total_chunks", len(results),
		)
	}
	if empty > 0 && empty == len(results)-unavailable {
		m.warnEmptyCorpus(ctx, req, empty)
	}
	return results, nil
}

// warnEmptyCorpus logs that nothing in the corpus could be compared, which
// makes every score 0 until other material is indexed.
func (m *Matcher) warnEmptyCorpus(ctx context.Context, req MatchRequest, chunks int) {
	attrs := []any{
		"submission_id", req.SubmissionID,
		"scope", req.Scope,
		"chunks", chunks,
	}
	if m.cfg.CourseScoped {
		attrs = append(attrs, "course_id", req.CourseID)
	}
	if n, err := m.index.Count(ctx); err == nil {
		attrs = append(attrs, "indexed_chunks", n)
	} else {
		attrs = append(attrs, "count_error", err)
	}
	m.logger.Warn("corpus index has no candidates", attrs...)
}

func (m *Matcher) matchChunk(ctx context.Context, req MatchRequest, chunk *domain.Chunk) ChunkMatch {
	result := ChunkMatch{Chunk: chunk}

	if err := req.Space.Check(chunk.Space()); err != nil {
		m.logger.Error("refusing cross-model comparison",
			"chunk_id", chunk.ID,
			"material_id", chunk.MaterialID,
			"error", err,
		)
		result.Unavailable = true
		return result
	}

	qctx := ctx
	if m.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, m.cfg.QueryTimeout)
		defer cancel()
	}

	query := driven.CorpusQuery{
		Vector:       chunk.Embedding,
		Space:        req.Space,
		ExcludeScope: req.Scope,
	}
	if m.cfg.CourseScoped {
		query.CourseID = req.CourseID
	}

	target := m.scorer.NGrams(chunk.Content)
	var bestHit *driven.CorpusHit
	bestScore := -1.0
	scored := make(map[string]struct{})

	// Hits come in descending cosine order and a wider query extends the
	// previous one, so widening until the bound of the last hit drops to
	// the best score makes the best match exact over the whole corpus.
	for k := m.cfg.TopK; ; k *= 2 {
		query.TopK = k
		hits, err := m.index.Query(qctx, query)
		if err != nil {
			if !errors.Is(err, context.Canceled) || ctx.Err() == nil {
				m.logger.Warn("corpus query failed",
					"chunk_id", chunk.ID,
					"material_id", chunk.MaterialID,
					"chunk_index", chunk.Index,
					"top_k", k,
					"error", errors.Join(domain.ErrCorpusQuery, err),
				)
			}
			return ChunkMatch{Chunk: chunk, Unavailable: true}
		}

		for n := range hits {
			hit := hits[n]
			if _, ok := scored[hit.Chunk.ID]; ok {
				continue
			}
			scored[hit.Chunk.ID] = struct{}{}
			// Self-exclusion and space checks hold even if a backend ignores the filters
			if hit.Chunk.Scope() == req.Scope || hit.Chunk.Space() != req.Space || hit.Similarity < 0 {
				continue
			}
			result.candidates++
			score := m.scorer.Score(hit.Similarity, target, m.scorer.NGrams(hit.Chunk.Content))
			if score > bestScore {
				bestScore = score
				bestHit = &hit
			}
		}

		if len(hits) < k || m.scorer.UpperBound(hits[len(hits)-1].Similarity, target) <= bestScore {
			break
		}
	}

	if bestHit != nil {
		b := m.scorer.Explain(bestHit.Similarity, chunk.Content, bestHit.Chunk.Content)
		result.Best = &domain.MatchedSource{
			Source:             domain.SourceForChunk(bestHit.Chunk),
			ChunkIndex:         chunk.Index,
			ChunkText:          chunk.Content,
			MatchedText:        bestHit.Chunk.Content,
			Similarity:         domain.RoundScore(bestScore),
			SemanticSimilarity: domain.RoundScore(b.Semantic),
			NGramSimilarity:    domain.RoundScore(b.NGram),
			ExactSimilarity:    domain.RoundScore(b.Exact),
			MatchType:          b.Type,
		}
	}
	return result
}
