package errors

import "errors"

// Sentinel errors for the ingestion pipeline and vector index.
var (
	// ErrDocumentFormat indicates an unsupported or unreadable source document.
	ErrDocumentFormat = errors.New("unsupported document format")

	// ErrExtraction indicates that text extraction produced no usable content.
	ErrExtraction = errors.New("document extraction yielded no content")

	// ErrDimensionMismatch indicates an embedding whose dimension does not
	// match the index configuration. The index must be re-built with the
	// current embedding provider before further writes succeed.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Sentinel errors for turn processing.
var (
	// ErrGeneration indicates the generation backend failed.
	ErrGeneration = errors.New("generation failed")

	// ErrGenerationTimeout indicates the generation backend did not answer
	// within the configured turn deadline.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrInvalidTransition indicates an event inconsistent with the current
	// conversation stage. Such events are logged and dropped, never applied.
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = errors.New("invalid input")
)

// Sentinel errors for session lifecycle.
var (
	// ErrSessionNotFound indicates an unknown session identifier.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionEnded indicates a write attempt against an ended session.
	ErrSessionEnded = errors.New("session has ended")

	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("resource not found")
)
