package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
)

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"the", "quick", "brown", "fox", "s", "den"}, Words("The quick, brown FOX's den!"))
	assert.Empty(t, Words("  ...  "))
}

func TestHybridScorer_NGrams(t *testing.T) {
	s := NewHybridScorer(ScoringConfig{NGramSize: 3})

	assert.Nil(t, s.NGrams("too short"))
	grams := s.NGrams("one two three four")
	assert.Len(t, grams, 2)
	assert.Contains(t, grams, "one two three")
	assert.Contains(t, grams, "two three four")
}

func TestJaccard(t *testing.T) {
	a := map[string]struct{}{"x": {}, "y": {}}
	b := map[string]struct{}{"y": {}, "z": {}}

	assert.InDelta(t, 1.0/3.0, Jaccard(a, b), 1e-9)
	assert.Equal(t, 1.0, Jaccard(a, a))
	assert.Equal(t, 0.0, Jaccard(nil, nil))
	assert.Equal(t, 0.0, Jaccard(a, map[string]struct{}{"q": {}}))
}

func TestHybridScorer_Score(t *testing.T) {
	s := NewHybridScorer(DefaultScoringConfig())
	text := "the quick brown fox jumps over the lazy dog"
	same := s.NGrams(text)
	other := s.NGrams("a completely different sentence with many other words")

	assert.InDelta(t, 1.0, s.Score(1.0, same, same), 1e-9)
	assert.InDelta(t, 0.7*0.8, s.Score(0.8, same, other), 1e-9)

	// Too short for a 5-gram: pure cosine
	assert.InDelta(t, 0.8, s.Score(0.8, same, s.NGrams("quick fox")), 1e-9)

	// Negative cosine is no match
	assert.Equal(t, 0.0, s.Score(-0.5, nil, nil))
}

func TestHybridScorer_PureCosine(t *testing.T) {
	s := NewHybridScorer(ScoringConfig{SemanticWeight: 1, NGramWeight: 0, NGramSize: 5})
	grams := s.NGrams("one two three four five six")

	assert.InDelta(t, 0.42, s.Score(0.42, grams, grams), 1e-9)
}

func TestHybridScorer_Bounds(t *testing.T) {
	s := NewHybridScorer(ScoringConfig{SemanticWeight: 0.9, NGramWeight: 0.9, NGramSize: 1})
	grams := s.NGrams("a b")

	score := s.Score(1, grams, grams)
	assert.LessOrEqual(t, score, 1.0)
	assert.GreaterOrEqual(t, score, 0.0)
}

func TestHybridScorer_UpperBound(t *testing.T) {
	s := NewHybridScorer(DefaultScoringConfig())
	grams := s.NGrams("the quick brown fox jumps over the lazy dog")

	assert.InDelta(t, 0.86, s.UpperBound(0.8, grams), 1e-9)
	assert.InDelta(t, 0.8, s.UpperBound(0.8, nil), 1e-9, "a short target scores on cosine alone")
	assert.Equal(t, 1.0, s.UpperBound(1.0, grams))

	pure := NewHybridScorer(ScoringConfig{SemanticWeight: 1})
	assert.InDelta(t, 0.4, pure.UpperBound(0.4, grams), 1e-9)
}

func TestExactRatio(t *testing.T) {
	assert.Equal(t, 1.0, ExactRatio("Hello,   World!", "hello world"))
	assert.InDelta(t, 0.75, ExactRatio("abcd", "bcde"), 1e-9)
	assert.Equal(t, 0.0, ExactRatio("abc", "xyz"))
	assert.Equal(t, 0.0, ExactRatio("", "!!"))
}

func TestHybridScorer_Explain(t *testing.T) {
	s := NewHybridScorer(DefaultScoringConfig())
	text := "the quick brown fox jumps over the lazy dog"

	tests := []struct {
		name      string
		cosine    float64
		target    string
		candidate string
		want      domain.MatchType
	}{
		{"verbatim", 0.6, text, text, domain.MatchExactCopy},
		{"shared phrasing", 0.5, text, "yesterday the quick brown fox jumps over the fence", domain.MatchExactCopy},
		{"close meaning", 0.85, "big dog", "large hound", domain.MatchSemantic},
		{"weak", 0.5, "big dog", "small cat", domain.MatchLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := s.Explain(tt.cosine, tt.target, tt.candidate)
			assert.Equal(t, tt.want, b.Type)
			assert.Equal(t, tt.cosine, b.Semantic)
			assert.InDelta(t, s.Score(tt.cosine, s.NGrams(tt.target), s.NGrams(tt.candidate)), b.Score, 1e-12)
		})
	}
}
