package core

import "errors"

var (
	// ErrInvalidInput flags malformed coordinates or missing required
	// fields. The offending item is skipped and reported; it is never
	// fatal to the rest of the batch.
	ErrInvalidInput = errors.New("invalid input")

	// ErrElementPropagation flags an orbital element whose TLE cannot be
	// parsed or propagated. Sibling elements are unaffected.
	ErrElementPropagation = errors.New("element propagation failed")

	// ErrRenderTargetUnavailable flags a render surface rejecting a layer
	// operation. Logged and skipped; retried only on the next natural
	// refresh cycle.
	ErrRenderTargetUnavailable = errors.New("render target unavailable")
)
