package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when an embedding repository is not provided.
	ErrRepositoryRequired = errors.New("embedding repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrGeneratorRequired is returned when a pipeline is built without a generator.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrCountMismatch indicates the provider returned a different number of
	// vectors than chunks submitted. It is never retried.
	ErrCountMismatch = errors.New("embedding count mismatch")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
