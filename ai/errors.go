package ai

import "errors"

var (
	// ErrProviderFailed wraps network, auth, quota and timeout failures
	// reported by an embedding backend.
	ErrProviderFailed = errors.New("embedding provider failed")

	// ErrDimensionMismatch indicates the provider returned a vector whose
	// length differs from the configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
