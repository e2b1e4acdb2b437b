package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driving"
)

// removeFromCorpus drops the index entries, then the chunks, of materials
// already deleted from the material store.
func removeFromCorpus(ctx context.Context, index driven.CorpusIndex, chunks driven.ChunkStore, removed []*domain.Material) (*driving.DeleteResult, error) {
	result := &driving.DeleteResult{StorageKeys: []string{}, MaterialsDeleted: len(removed)}
	if len(removed) == 0 {
		return result, nil
	}

	ids := make([]string, len(removed))
	for i, m := range removed {
		ids[i] = m.ID
		result.ChunksDeleted += m.ChunkCount
		if m.StorageKey != "" {
			result.StorageKeys = append(result.StorageKeys, m.StorageKey)
		}
	}

	if err := index.DeleteByMaterials(ctx, ids); err != nil {
		return nil, fmt.Errorf("failed to remove indexed chunks: %w", err)
	}
	if err := chunks.DeleteByMaterials(ctx, ids); err != nil {
		return nil, fmt.Errorf("failed to delete chunks: %w", err)
	}
	return result, nil
}
