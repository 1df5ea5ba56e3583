package s330

import "errors"

var (
	// ErrMalformedFrame indicates a frame without both SysEx markers
	// or one too short to carry an address.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrChecksumMismatch indicates an inbound frame whose recomputed
	// checksum disagrees with the one on the wire.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrNotNotification indicates a frame that is not a
	// parameter-change notification from the sampler.
	ErrNotNotification = errors.New("not a change notification")

	// ErrDeviceIDMismatch indicates a notification from a different
	// device ID than the configured one. This is routine on a shared
	// bus and is not an error condition worth logging.
	ErrDeviceIDMismatch = errors.New("device id mismatch")

	// ErrUnknownAddress indicates a notification whose address falls
	// outside every known range. Surfaced distinctly so wire-format
	// drift is visible.
	ErrUnknownAddress = errors.New("address outside known ranges")

	// ErrTimeout indicates the sampler did not answer a read request
	// in time.
	ErrTimeout = errors.New("timed out waiting for response")

	// ErrLoadInFlight indicates a bank load was requested while
	// another is active. The wire is half-duplex; callers must queue.
	ErrLoadInFlight = errors.New("bank load already in flight")

	// ErrTransportClosed indicates the transport is no longer usable.
	ErrTransportClosed = errors.New("transport closed")
)
