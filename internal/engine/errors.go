package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrClosed indicates the engine was shut down.
	ErrClosed = errors.New("engine is shut down")

	// ErrNoOverlay indicates Deps.Overlay was not set.
	ErrNoOverlay = errors.New("overlay is required")

	// ErrNoLoop indicates Deps.Loop was not set.
	ErrNoLoop = errors.New("loop is required")
)
