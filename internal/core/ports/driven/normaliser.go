package driven

// Normaliser extracts plain text from raw material content.
type Normaliser interface {
	// Normalise transforms raw content into plain text.
	// The mimeType helps determine the appropriate processing.
	Normalise(content string, mimeType string) string

	// SupportedTypes returns MIME types this normaliser handles.
	// Can include wildcards like "text/*" or specific types like "text/markdown".
	SupportedTypes() []string

	// Priority returns the normaliser priority (higher = more specific).
	//   50-89: Format-specific (Markdown, HTML)
	//   10-49: Generic (plain text)
	//   1-9:   Fallback
	Priority() int
}

// NormaliserRegistry manages content normalisers.
// When multiple normalisers match a MIME type, the highest priority one is used.
type NormaliserRegistry interface {
	// Get retrieves the best-matching normaliser for a MIME type, or nil.
	Get(mimeType string) Normaliser

	// Register registers a normaliser.
	Register(normaliser Normaliser)

	// List returns all registered MIME types.
	List() []string
}

// PostProcessor transforms the chunk list produced by the previous stage.
// The pipeline starts from a single chunk holding the whole text, so
// processors ordered before the chunker see the full document.
type PostProcessor interface {
	Process(chunks []Chunk) []Chunk

	// Name returns the processor name for logging/debugging.
	Name() string

	// Order returns the processor order in the pipeline (lower = earlier).
	// The chunker is 0; whole-text filters use negative orders.
	Order() int
}

// Chunk is a span of normalised text. Offsets are in characters (runes)
// into the normalised text and adjacent chunks may overlap.
type Chunk struct {
	Content     string
	Position    int
	StartOffset int
	EndOffset   int
}

// PostProcessorPipeline chains post-processors in order.
type PostProcessorPipeline interface {
	// Process turns raw text into ordered chunks with contiguous positions from 0.
	// Text that is empty after filtering fails with domain.ErrInvalidInput.
	Process(content string) ([]Chunk, error)

	// Add adds a processor to the pipeline.
	Add(processor PostProcessor)

	// List returns processor names in order.
	List() []string
}
