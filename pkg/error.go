package pkg

import (
	"errors"
	"fmt"
	"time"
)

// Capture path errors.
var (
	// ErrStall indicates the control request must be stalled (unsupported
	// selector or event).
	ErrStall = errors.New("endpoint stalled")

	// ErrDeadlineMissed indicates a feed interval did not complete within its
	// isochronous period.
	ErrDeadlineMissed = errors.New("interval deadline missed")

	// ErrSetupPacketTooShort indicates the setup packet data is too short.
	ErrSetupPacketTooShort = errors.New("setup packet too short")

	// ErrNotClassRequest indicates a SETUP packet that is not an audio class
	// request.
	ErrNotClassRequest = errors.New("not a class request")

	// ErrBufferTooSmall indicates the provided buffer is too small.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrDescriptorTooShort indicates the descriptor data is too short.
	ErrDescriptorTooShort = errors.New("descriptor too short")

	// ErrDescriptorTypeMismatch indicates the descriptor type does not match expected.
	ErrDescriptorTypeMismatch = errors.New("descriptor type mismatch")

	// ErrNotSupported indicates an unsupported operation or feature.
	ErrNotSupported = errors.New("not supported")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidFormat indicates a format table entry that cannot be
	// represented on the wire.
	ErrInvalidFormat = errors.New("invalid audio format")

	// ErrNotAttached indicates the transport is not attached to a host.
	ErrNotAttached = errors.New("not attached")

	// ErrAlreadyRunning indicates the transport is already running.
	ErrAlreadyRunning = errors.New("already running")
)

// Fault reports an interval-deadline miss. It is not recoverable by the
// capture path and must be handled at process level.
type Fault struct {
	Interval uint64        // Feed interval sequence number (1-based)
	Elapsed  time.Duration // Time the feed call took
	Budget   time.Duration // Allowed time per interval
}

// Error implements error.
func (f *Fault) Error() string {
	return fmt.Sprintf("interval %d: feed took %s, budget %s", f.Interval, f.Elapsed, f.Budget)
}

// Unwrap returns ErrDeadlineMissed.
func (f *Fault) Unwrap() error {
	return ErrDeadlineMissed
}
