package services

import (
	"math"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
)

// ScoringConfig weights the semantic and lexical parts of a chunk match.
type ScoringConfig struct {
	SemanticWeight float64 `yaml:"semantic_weight"`
	NGramWeight    float64 `yaml:"ngram_weight"`
	NGramSize      int     `yaml:"ngram_size"`

	// Classification thresholds for MatchType
	ExactThreshold    float64 `yaml:"exact_threshold"`
	SemanticThreshold float64 `yaml:"semantic_threshold"`
	NGramThreshold    float64 `yaml:"ngram_threshold"`
}

// DefaultScoringConfig returns 0.7 cosine + 0.3 word-5-gram Jaccard, with
// exact copies at 0.90 character overlap or 0.3 n-gram overlap and semantic
// matches at a 0.80 blended score.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		SemanticWeight:    0.7,
		NGramWeight:       0.3,
		NGramSize:         5,
		ExactThreshold:    0.90,
		SemanticThreshold: 0.80,
		NGramThreshold:    0.3,
	}
}

// HybridScorer blends cosine similarity with word n-gram overlap so that
// verbatim copying scores above paraphrase with the same meaning.
type HybridScorer struct {
	cfg ScoringConfig
}

// NewHybridScorer creates a scorer. Zero size and thresholds fall back to
// the defaults.
func NewHybridScorer(cfg ScoringConfig) *HybridScorer {
	def := DefaultScoringConfig()
	if cfg.NGramSize < 1 {
		cfg.NGramSize = def.NGramSize
	}
	if cfg.ExactThreshold <= 0 {
		cfg.ExactThreshold = def.ExactThreshold
	}
	if cfg.SemanticThreshold <= 0 {
		cfg.SemanticThreshold = def.SemanticThreshold
	}
	if cfg.NGramThreshold <= 0 {
		cfg.NGramThreshold = def.NGramThreshold
	}
	return &HybridScorer{cfg: cfg}
}

// NGrams returns the set of lowercased word n-grams of text, or nil when
// the text has fewer than n words.
func (s *HybridScorer) NGrams(text string) map[string]struct{} {
	words := Words(text)
	n := s.cfg.NGramSize
	if len(words) < n {
		return nil
	}
	grams := make(map[string]struct{}, len(words)-n+1)
	for i := 0; i+n <= len(words); i++ {
		grams[strings.Join(words[i:i+n], " ")] = struct{}{}
	}
	return grams
}

// Score combines a cosine similarity with the n-gram Jaccard index of the
// two sides. When either side is too short for one n-gram, or the n-gram
// weight is zero, the score is the cosine alone. The result is in [0,1].
func (s *HybridScorer) Score(cosine float64, target, candidate map[string]struct{}) float64 {
	cosine = domain.Clamp01(cosine)
	if s.cfg.NGramWeight == 0 || target == nil || candidate == nil {
		return cosine
	}
	return domain.Clamp01(s.cfg.SemanticWeight*cosine + s.cfg.NGramWeight*Jaccard(target, candidate))
}

// UpperBound is the highest Score any candidate with the given cosine can
// reach against target. Candidates ranked by descending cosine can stop
// being considered once the bound falls to the best score seen.
func (s *HybridScorer) UpperBound(cosine float64, target map[string]struct{}) float64 {
	cosine = domain.Clamp01(cosine)
	if s.cfg.NGramWeight == 0 || target == nil {
		return cosine
	}
	return domain.Clamp01(math.Max(cosine, s.cfg.SemanticWeight*cosine+s.cfg.NGramWeight))
}

// Breakdown is the component scores behind one hybrid score.
type Breakdown struct {
	Semantic float64
	NGram    float64
	Exact    float64
	Score    float64
	Type     domain.MatchType
}

// Explain recomputes a match's score with its components and classifies it.
// Exact is the character-level matching ratio of the normalised texts.
func (s *HybridScorer) Explain(cosine float64, targetText, candidateText string) Breakdown {
	target, candidate := s.NGrams(targetText), s.NGrams(candidateText)
	b := Breakdown{
		Semantic: domain.Clamp01(cosine),
		Exact:    ExactRatio(targetText, candidateText),
		Score:    s.Score(cosine, target, candidate),
	}
	if target != nil && candidate != nil {
		b.NGram = Jaccard(target, candidate)
	}
	b.Type = s.classify(b)
	return b
}

func (s *HybridScorer) classify(b Breakdown) domain.MatchType {
	switch {
	case b.Exact >= s.cfg.ExactThreshold || (b.NGram > 0 && b.NGram >= s.cfg.NGramThreshold):
		return domain.MatchExactCopy
	case b.Score >= s.cfg.SemanticThreshold:
		return domain.MatchSemantic
	default:
		return domain.MatchLow
	}
}

// ExactRatio returns 2*M/T over the characters of the normalised texts,
// where M is the number of characters in matching blocks and T the total
// length. Two empty texts have ratio 0.
func ExactRatio(a, b string) float64 {
	ra, rb := normalisedRunes(a), normalisedRunes(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 0
	}
	return difflib.NewMatcher(ra, rb).Ratio()
}

// normalisedRunes lowercases text, collapses whitespace runs to one space,
// drops punctuation and trims, returning one character per element.
func normalisedRunes(text string) []string {
	out := make([]string, 0, len(text))
	space := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r):
			if !space {
				out = append(out, " ")
			}
			space = true
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			out = append(out, string(r))
		}
		space = false
	}
	for len(out) > 0 && out[0] == " " {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == " " {
		out = out[:len(out)-1]
	}
	return out
}

// Jaccard returns |a∩b| / |a∪b|, or 0 when both are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

// Words splits text into lowercased words, dropping punctuation.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
