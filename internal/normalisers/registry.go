package normalisers

import (
	"mime"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry selects a normaliser by MIME type. When several match, the
// highest priority wins; ties go to the earliest registered.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(normaliser driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, normaliser)
}

// Get returns the best normaliser for mimeType, or nil.
func (r *Registry) Get(mimeType string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mediaType := canonicalMIMEType(mimeType)
	var best driven.Normaliser
	for _, n := range r.normalisers {
		if !matchesMIMEType(n.SupportedTypes(), mediaType) {
			continue
		}
		if best == nil || n.Priority() > best.Priority() {
			best = n
		}
	}
	return best
}

// List returns all registered MIME types, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var types []string
	for _, n := range r.normalisers {
		for _, t := range n.SupportedTypes() {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}
	sort.Strings(types)
	return types
}

// canonicalMIMEType lowercases and strips parameters such as charset.
func canonicalMIMEType(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mediaType
	}
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = mimeType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// matchesMIMEType supports exact types, "type/*" and "*/*".
func matchesMIMEType(supportedTypes []string, mediaType string) bool {
	for _, supported := range supportedTypes {
		supported = strings.ToLower(supported)
		switch {
		case supported == "*/*", supported == mediaType:
			return true
		case strings.HasSuffix(supported, "/*") && strings.HasPrefix(mediaType, strings.TrimSuffix(supported, "*")):
			return true
		}
	}
	return false
}

// DefaultRegistry registers the plain text, Markdown and HTML normalisers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&PlaintextNormaliser{})
	r.Register(&MarkdownNormaliser{})
	r.Register(&HTMLNormaliser{})
	return r
}

// MIMETypeForName guesses a MIME type from a file name, defaulting to text/plain.
func MIMETypeForName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".md"), strings.HasSuffix(lower, ".markdown"):
		return "text/markdown"
	case strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
		return "text/html"
	}
	if idx := strings.LastIndex(lower, "."); idx != -1 {
		if t := mime.TypeByExtension(lower[idx:]); t != "" {
			return canonicalMIMEType(t)
		}
	}
	return "text/plain"
}
