package gpures

import "errors"

// Context errors.
var (
	// ErrNoBackend is returned when no hal backend matches the configuration.
	ErrNoBackend = errors.New("gpures: no backend available")

	// ErrNoAdapter is returned when the backend exposes no adapter.
	ErrNoAdapter = errors.New("gpures: no adapter available")

	// ErrProviderNotHAL is returned when a device provider does not expose
	// hal.Device and hal.Queue.
	ErrProviderNotHAL = errors.New("gpures: provider does not expose HAL types")

	// ErrClosed is returned when using a closed Context.
	ErrClosed = errors.New("gpures: context closed")
)
