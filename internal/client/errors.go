package client

import "errors"

var (
	// ErrEngineShutdown is returned by operations on an engine after Shutdown.
	ErrEngineShutdown = errors.New("sync engine is shut down")

	// ErrEngineStarted is returned by a second Start.
	ErrEngineStarted = errors.New("sync engine already started")
)
