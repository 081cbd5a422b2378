package models

import "errors"

// Error kinds surfaced by the engine. Every core operation either succeeds
// or returns a wrapped instance of exactly one of these; callers match
// with errors.Is. None of them are retried inside the engine.
var (
	// ErrInvalidConfig reports bad chunking or search parameters.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocument reports an ingested document that produced no chunks.
	ErrEmptyDocument = errors.New("document produced no chunks")

	// ErrEmbeddingFailure reports an embedder error, timeout, or a
	// dimensionality mismatch between index and query embeddings.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrSessionNotFound reports an unknown or evicted session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrGenerationFailure reports a language model error or timeout.
	ErrGenerationFailure = errors.New("generation failure")

	// ErrUnsupportedFormat reports a file extension the extractor cannot handle.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)
