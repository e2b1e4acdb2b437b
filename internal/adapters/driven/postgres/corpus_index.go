package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CorpusIndex = (*CorpusIndex)(nil)

// CorpusIndex implements driven.CorpusIndex on the chunks table with pgvector.
// A chunk is queryable once its indexed flag is set.
type CorpusIndex struct {
	db *DB
}

// NewCorpusIndex creates a pgvector-backed corpus index
func NewCorpusIndex(db *DB) *CorpusIndex {
	return &CorpusIndex{db: db}
}

// Upsert writes the chunks' embeddings and marks them queryable
func (i *CorpusIndex) Upsert(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	return i.db.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO chunks (` + chunkColumns + `, indexed)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, TRUE)
			ON CONFLICT (id) DO UPDATE SET
				model = EXCLUDED.model,
				dimension = EXCLUDED.dimension,
				embedding = EXCLUDED.embedding,
				indexed = TRUE
		`
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range chunks {
			if len(c.Embedding) == 0 || len(c.Embedding) != c.Dimension {
				return fmt.Errorf("chunk %s has %d values for dimension %d: %w",
					c.ID, len(c.Embedding), c.Dimension, domain.ErrModelMismatch)
			}
			_, err = stmt.ExecContext(ctx,
				c.ID,
				c.MaterialID,
				c.OwnerType,
				c.CourseID,
				c.SubmissionID,
				c.SourceURL,
				c.Index,
				c.Content,
				c.StartChar,
				c.EndChar,
				c.ContentHash,
				c.Model,
				c.Dimension,
				pgvector.NewVector(c.Embedding),
				c.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("index chunk %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// Query ranks indexed chunks of the query's space by cosine distance.
// Zero vectors yield NaN distances, which fail the distance bound and drop out.
func (i *CorpusIndex) Query(ctx context.Context, q driven.CorpusQuery) ([]driven.CorpusHit, error) {
	if q.TopK <= 0 {
		return nil, nil
	}
	if len(q.Vector) != q.Space.Dimension {
		return nil, fmt.Errorf("query vector has %d values for %s: %w", len(q.Vector), q.Space, domain.ErrModelMismatch)
	}

	var where []string
	args := []any{pgvector.NewVector(q.Vector), q.Space.Model, q.Space.Dimension}
	where = append(where,
		"indexed",
		"model = $2",
		"dimension = $3",
		"(embedding <=> $1::vector) <= 1",
	)

	if q.ExcludeScope != "" {
		args = append(args, q.ExcludeScope)
		where = append(where, fmt.Sprintf(
			"(CASE WHEN owner_type = '%s' AND submission_id <> '' THEN submission_id ELSE material_id END) <> $%d",
			domain.OwnerSubmission, len(args)))
	}
	if q.CourseID != "" {
		args = append(args, q.CourseID)
		where = append(where, fmt.Sprintf("(owner_type = '%s' OR course_id = $%d)",
			domain.OwnerExternalReference, len(args)))
	}
	args = append(args, q.TopK)

	query := fmt.Sprintf(`
		SELECT %s, 1 - (embedding <=> $1::vector) AS similarity
		FROM chunks
		WHERE %s
		ORDER BY embedding <=> $1::vector ASC, created_at ASC, id ASC
		LIMIT $%d
	`, chunkColumns, strings.Join(where, " AND "), len(args))

	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query corpus: %w", err)
	}
	defer rows.Close()

	var hits []driven.CorpusHit
	for rows.Next() {
		var sim float64
		c, err := scanChunk(rows, &sim)
		if err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, driven.CorpusHit{Chunk: c, Similarity: clamp01(sim)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hits: %w", err)
	}
	return hits, nil
}

// DeleteByMaterials hides the materials' chunks from queries
func (i *CorpusIndex) DeleteByMaterials(ctx context.Context, materialIDs []string) error {
	if len(materialIDs) == 0 {
		return nil
	}
	_, err := i.db.ExecContext(ctx,
		`UPDATE chunks SET indexed = FALSE WHERE material_id = ANY($1) AND indexed`,
		pq.Array(materialIDs))
	if err != nil {
		return fmt.Errorf("unindex chunks: %w", err)
	}
	return nil
}

// Count returns the number of queryable chunks
func (i *CorpusIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := i.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE indexed`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
