package model

import "errors"

// Domain errors for entity resolution and review adjudication
var (
	// ErrInvalidState indicates an operation was attempted in the wrong state machine state.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrNotFound indicates a referenced entity or review item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyResolved indicates a mutation attempt on a terminal review item.
	ErrAlreadyResolved = errors.New("review item already resolved or skipped")

	// ErrConcurrentCreate indicates an entity with the same exact-match key was
	// created concurrently; callers should retry as a fresh match attempt.
	ErrConcurrentCreate = errors.New("concurrent entity creation detected")

	// ErrOCRUnavailable indicates the external OCR collaborator failed.
	ErrOCRUnavailable = errors.New("OCR service unavailable")

	// ErrExtraction indicates the external field extraction collaborator failed.
	ErrExtraction = errors.New("field extraction failed")

	// ErrEmbeddingUnavailable indicates the embedding collaborator failed.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
