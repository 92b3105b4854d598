package core

import "errors"

// Sentinel errors classifying pipeline failures. Handlers map these to HTTP
// statuses with errors.Is; everything below them in the chain keeps its
// original cause via %w wrapping.
var (
	// ErrValidation indicates bad client input. No side effect has occurred.
	ErrValidation = errors.New("invalid input")

	// ErrUnauthorized indicates a missing or unresolvable user identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrQuotaExceeded indicates the user hit their daily message ceiling.
	// The quota resets at the next local midnight.
	ErrQuotaExceeded = errors.New("daily message quota exceeded")

	// ErrRetrieval indicates embedding or vector-index failure before
	// generation could start.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrGeneration indicates the generation provider failed.
	ErrGeneration = errors.New("generation failed")

	// ErrStorage indicates a history persistence failure that must block the
	// request (the pre-retrieval user-turn write).
	ErrStorage = errors.New("history storage failed")

	// ErrNotFound indicates the requested session has no messages.
	ErrNotFound = errors.New("not found")
)
