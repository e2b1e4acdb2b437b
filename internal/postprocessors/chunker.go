package postprocessors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

// ChunkConfig configures the chunker. Sizes are in characters.
type ChunkConfig struct {
	// Size is the maximum characters per chunk
	Size int `yaml:"size"`

	// OverlapRatio is the share of Size repeated at the start of the next chunk, in [0,1)
	OverlapRatio float64 `yaml:"overlap_ratio"`

	// PreserveSentences prefers paragraph, sentence and word boundaries near the chunk end
	PreserveSentences bool `yaml:"preserve_sentences"`
}

// DefaultChunkConfig returns 500-character chunks with 50 characters of overlap.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:              500,
		OverlapRatio:      0.1,
		PreserveSentences: true,
	}
}

// Validate checks the configuration is usable
func (c ChunkConfig) Validate() error {
	if c.Size < 1 {
		return fmt.Errorf("%w: chunk size must be at least 1", domain.ErrInvalidInput)
	}
	if c.OverlapRatio < 0 || c.OverlapRatio >= 1 {
		return fmt.Errorf("%w: overlap ratio must be in [0,1)", domain.ErrInvalidInput)
	}
	return nil
}

// Overlap returns the overlap in characters; always less than Size.
func (c ChunkConfig) Overlap() int {
	overlap := int(float64(c.Size) * c.OverlapRatio)
	if overlap >= c.Size {
		overlap = c.Size - 1
	}
	return overlap
}

// Chunker splits text into overlapping fixed-size windows.
type Chunker struct {
	config ChunkConfig
}

// Verify interface compliance
var _ driven.PostProcessor = (*Chunker)(nil)

// NewChunker creates a chunker, rejecting invalid configs.
func NewChunker(config ChunkConfig) (*Chunker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{config: config}, nil
}

// Process splits each incoming chunk, keeping offsets relative to the original text.
func (c *Chunker) Process(chunks []driven.Chunk) []driven.Chunk {
	var result []driven.Chunk
	for _, chunk := range chunks {
		result = append(result, c.Split(chunk.Content, chunk.StartOffset)...)
	}
	return result
}

func (c *Chunker) Name() string {
	return "chunker"
}

// Order returns 0 - the chunker is the reference point of the pipeline.
func (c *Chunker) Order() int {
	return 0
}

// Split cuts content into chunks. Text shorter than Size yields one chunk;
// empty text yields none.
func (c *Chunker) Split(content string, baseOffset int) []driven.Chunk {
	runes := []rune(content)
	n := len(runes)
	if n == 0 {
		return nil
	}

	size := c.config.Size
	overlap := c.config.Overlap()

	var chunks []driven.Chunk
	start := 0
	for {
		end := start + size
		if end > n {
			end = n
		}
		if end < n && c.config.PreserveSentences {
			// The chunk must stay longer than the overlap or the next one would not advance
			if bp := findBreakPoint(runes, start+overlap+1, end); bp > 0 {
				end = bp
			}
		}

		chunks = append(chunks, driven.Chunk{
			Content:     string(runes[start:end]),
			Position:    len(chunks),
			StartOffset: baseOffset + start,
			EndOffset:   baseOffset + end,
		})
		if end >= n {
			return chunks
		}

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
}

// findBreakPoint returns the best cut position in (lo, hi], preferring
// paragraph, then sentence, then word boundaries within the last 100
// characters. It returns 0 when there is none.
func findBreakPoint(runes []rune, lo, hi int) int {
	searchStart := hi - 100
	if searchStart < lo {
		searchStart = lo
	}
	if searchStart >= hi {
		return 0
	}

	paragraph, sentence, word := 0, 0, 0
	for i := hi; i > searchStart && i >= 2; i-- {
		prev := runes[i-1]
		switch {
		case prev == '\n' && runes[i-2] == '\n':
			if paragraph == 0 {
				paragraph = i
			}
		case (prev == ' ' || prev == '\n') && strings.ContainsRune(".!?", runes[i-2]):
			if sentence == 0 {
				sentence = i
			}
		case prev == ' ' || prev == '\n':
			if word == 0 {
				word = i
			}
		}
	}

	switch {
	case paragraph > 0:
		return paragraph
	case sentence > 0:
		return sentence
	default:
		return word
	}
}

// Reconstruct joins chunks back into the text they were cut from, dropping
// the overlapping prefix of each chunk.
func Reconstruct(chunks []driven.Chunk) string {
	ordered := append([]driven.Chunk(nil), chunks...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	var b strings.Builder
	covered := -1
	for _, chunk := range ordered {
		runes := []rune(chunk.Content)
		skip := 0
		if covered > chunk.StartOffset {
			skip = covered - chunk.StartOffset
		}
		if skip < len(runes) {
			b.WriteString(string(runes[skip:]))
		}
		if chunk.EndOffset > covered {
			covered = chunk.EndOffset
		}
	}
	return b.String()
}
