package app

import "errors"

var (
	// ErrInvalidInput marks empty or malformed caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmbeddingUnavailable marks a failed or timed-out embedding call.
	// It is distinct from an empty retrieval result on purpose: callers must
	// be able to tell "no relevant context" from "retrieval failed".
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
	// ErrGenerationFailed marks a failed or timed-out generation call.
	ErrGenerationFailed = errors.New("answer generation failed")
	// ErrRebuildInProgress is returned when a corpus rebuild is requested
	// while another one is still running.
	ErrRebuildInProgress = errors.New("corpus rebuild already in progress")
)
