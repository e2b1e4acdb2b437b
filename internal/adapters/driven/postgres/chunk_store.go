package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChunkStore = (*ChunkStore)(nil)

const chunkColumns = `id, material_id, owner_type, course_id, submission_id, source_url,
	chunk_index, content, start_char, end_char, content_hash, model, dimension, embedding, created_at`

// ChunkStore implements driven.ChunkStore using PostgreSQL.
// Embeddings are kept with the chunk so an in-memory index can be rebuilt at startup.
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// ReplaceForMaterial deletes the material's chunks and inserts the new set in one transaction
func (s *ChunkStore) ReplaceForMaterial(ctx context.Context, materialID string, chunks []*domain.Chunk) error {
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE material_id = $1`, materialID); err != nil {
			return fmt.Errorf("delete chunks: %w", err)
		}
		if len(chunks) == 0 {
			return nil
		}

		query := `
			INSERT INTO chunks (` + chunkColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range chunks {
			if c.MaterialID != materialID {
				return fmt.Errorf("chunk %s belongs to material %s: %w", c.ID, c.MaterialID, domain.ErrInvalidInput)
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
				nullVector(c.Embedding),
				c.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert chunk %d: %w", c.Index, err)
			}
		}
		return nil
	})
}

// GetByMaterial retrieves a material's chunks ordered by index
func (s *ChunkStore) GetByMaterial(ctx context.Context, materialID string) ([]*domain.Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE material_id = $1 ORDER BY chunk_index ASC`
	return queryChunks(ctx, s.db, query, materialID)
}

// DeleteByMaterials deletes all chunks of the given materials
func (s *ChunkStore) DeleteByMaterials(ctx context.Context, materialIDs []string) error {
	if len(materialIDs) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE material_id = ANY($1)`, pq.Array(materialIDs))
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// List pages through all chunks ordered by id, starting after afterID
func (s *ChunkStore) List(ctx context.Context, afterID string, limit int) ([]*domain.Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE id > $1 ORDER BY id ASC LIMIT $2`
	return queryChunks(ctx, s.db, query, afterID, limit)
}

func queryChunks(ctx context.Context, db *DB, query string, args ...any) ([]*domain.Chunk, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []*domain.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return chunks, nil
}

func scanChunk(row rowScanner, extra ...any) (*domain.Chunk, error) {
	var c domain.Chunk
	var embedding *pgvector.Vector

	dest := []any{
		&c.ID,
		&c.MaterialID,
		&c.OwnerType,
		&c.CourseID,
		&c.SubmissionID,
		&c.SourceURL,
		&c.Index,
		&c.Content,
		&c.StartChar,
		&c.EndChar,
		&c.ContentHash,
		&c.Model,
		&c.Dimension,
		&embedding,
		&c.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if embedding != nil {
		c.Embedding = embedding.Slice()
	}
	return &c, nil
}

// nullVector stores chunks without an embedding as NULL
func nullVector(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	return pgvector.NewVector(v)
}
