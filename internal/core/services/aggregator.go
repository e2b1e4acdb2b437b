package services

import (
	"fmt"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
)

// AggregationLengthWeightedMean names the aggregation rule recorded in report metadata.
const AggregationLengthWeightedMean = "length_weighted_mean_best_match"

// FileMatches groups the chunk matches of one submitted file.
type FileMatches struct {
	FileName   string
	MaterialID string
	Matches    []ChunkMatch
}

// Aggregation is the scored result for a whole submission.
type Aggregation struct {
	SimilarityScore float64
	Files           []domain.FileResult
	Degraded        bool
}

// Aggregate scores a submission as the character-length-weighted mean of the
// best-match similarity of every available chunk across all files. Chunks
// without a match count as 0; unavailable chunks are left out entirely. Each
// file gets the same rule applied to its own chunks. Scores are rounded to
// four decimals.
//
// Growing the corpus can only raise or keep each chunk's best match, so the
// score never decreases on recheck while the chunk set is unchanged.
func Aggregate(files []FileMatches) Aggregation {
	var out Aggregation
	var totalWeight, totalSum float64

	for _, f := range files {
		var weight, sum float64
		matched, unavailable := 0, 0
		sources := make([]domain.MatchedSource, 0, len(f.Matches))

		for _, m := range f.Matches {
			if m.Unavailable {
				unavailable++
				continue
			}
			w := float64(chunkWeight(m.Chunk))
			weight += w
			if m.Best != nil {
				matched++
				sum += w * domain.Clamp01(m.Best.Similarity)
				sources = append(sources, *m.Best)
			}
		}

		fileScore := 0.0
		if weight > 0 {
			fileScore = domain.RoundScore(domain.Clamp01(sum / weight))
		}
		totalWeight += weight
		totalSum += sum
		if unavailable > 0 {
			out.Degraded = true
		}

		out.Files = append(out.Files, domain.FileResult{
			FileName:          f.FileName,
			MaterialID:        f.MaterialID,
			SimilarityScore:   fileScore,
			ChunkCount:        len(f.Matches),
			MatchedChunks:     matched,
			UnavailableChunks: unavailable,
			ReportDetails:     reportDetails(matched, len(f.Matches), unavailable),
			MatchedSources:    sources,
		})
	}

	if totalWeight > 0 {
		out.SimilarityScore = domain.RoundScore(domain.Clamp01(totalSum / totalWeight))
	}
	return out
}

func chunkWeight(c *domain.Chunk) int {
	if c == nil {
		return 1
	}
	if n := c.Len(); n > 0 {
		return n
	}
	return 1
}

func reportDetails(matched, total, unavailable int) string {
	details := fmt.Sprintf("Matched %d/%d chunks", matched, total)
	if unavailable > 0 {
		details += fmt.Sprintf(" (%d unavailable)", unavailable)
	}
	return details
}
