package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
//
// An Embedder performs one network request per call. It does not retry and
// does not cache; retry policy belongs to the caller.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains one vector of length Dimension() per input,
	// in the same order as the input texts. Empty input returns an empty slice
	// without contacting the provider.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the configured vector length.
	Dimension() int

	// ModelName returns the configured model identifier.
	ModelName() string

	// ProviderName returns the name of the embedding backend.
	ProviderName() string
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
