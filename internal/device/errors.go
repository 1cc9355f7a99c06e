package device

import "github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"

const (
	// Attach errors
	ErrNotFound    = errors.ErrorCode("device_not_found")
	ErrClaimFailed = errors.ErrorCode("device_claim_failed")

	// Transmit errors
	ErrLost         = errors.ErrorCode("device_lost")
	ErrNotConnected = errors.ErrorCode("device_not_connected")

	// Lifecycle errors
	ErrCloseFailed  = errors.ErrorCode("device_close_failed")
	ErrDriverPanic  = errors.ErrorCode("device_driver_panic")
	ErrShortWrite   = errors.ErrorCode("device_short_write")
	ErrDriverClosed = errors.ErrorCode("device_driver_closed")
)

// IsAttachError reports whether err is one of the recoverable attach failures.
func IsAttachError(err error) bool {
	return errors.HasCode(err, ErrNotFound) || errors.HasCode(err, ErrClaimFailed)
}
