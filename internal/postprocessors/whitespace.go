package postprocessors

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PostProcessor = (*WhitespaceNormalizer)(nil)

// WhitespaceNormalizer canonicalises whitespace: line endings become \n,
// runs of blanks inside a line collapse to one space, lines are trimmed and
// at most one blank line separates paragraphs. Chunks that end up empty are dropped.
type WhitespaceNormalizer struct{}

// NewWhitespaceNormalizer creates a new whitespace normalizer.
func NewWhitespaceNormalizer() *WhitespaceNormalizer {
	return &WhitespaceNormalizer{}
}

func (w *WhitespaceNormalizer) Process(chunks []driven.Chunk) []driven.Chunk {
	result := make([]driven.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		content := NormalizeWhitespace(chunk.Content)
		if content == "" {
			continue
		}
		chunk.Content = content
		chunk.EndOffset = chunk.StartOffset + len([]rune(content))
		result = append(result, chunk)
	}
	return result
}

func (w *WhitespaceNormalizer) Name() string {
	return "whitespace-normalizer"
}

// Order returns -10 so normalisation sees the whole text before chunking.
func (w *WhitespaceNormalizer) Order() int {
	return -10
}

// NormalizeWhitespace applies the WhitespaceNormalizer rules to one string.
func NormalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.FieldsFunc(line, isInlineSpace), " ")
		if line == "" {
			if len(out) > 0 && !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func isInlineSpace(r rune) bool {
	return r != '\n' && unicode.IsSpace(r)
}
