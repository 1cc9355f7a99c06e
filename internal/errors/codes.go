package errors

// Common error codes
const (
	// System errors
	ErrInternal ErrorCode = "internal_error"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"
	ErrInvalidDeviceID ErrorCode = "invalid_device_id"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"
	ErrOpenLogFile     ErrorCode = "open_log_file_failed"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"
	ErrPermission     ErrorCode = "insufficient_privileges"
	ErrAlreadyRunning ErrorCode = "already_running"

	// Application errors
	ErrMainLoop    ErrorCode = "main_loop_failed"
	ErrCycleFailed ErrorCode = "monitor_cycle_failed"
	ErrPresenter   ErrorCode = "presenter_failed"

	// Metrics errors
	ErrCloseMetrics ErrorCode = "close_metrics_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:        "Internal error occurred",
	ErrInvalidConfig:   "Invalid configuration",
	ErrReadConfig:      "Failed to read config file",
	ErrBindFlags:       "Failed to bind flags",
	ErrInvalidInterval: "Invalid interval value",
	ErrInvalidDeviceID: "Invalid USB vendor or product ID",
	ErrInvalidLogLevel: "Invalid log level",
	ErrOpenLogFile:     "Failed to open log file",
	ErrInitFailed:      "Initialization failed",
	ErrShutdownFailed:  "Shutdown failed",
	ErrPermission:      "Root privileges are required for raw USB access",
	ErrAlreadyRunning:  "Another instance is already running",
	ErrMainLoop:        "Error in main loop",
	ErrCycleFailed:     "Monitoring cycle failed",
	ErrPresenter:       "Failed to present snapshot",
	ErrCloseMetrics:    "Failed to close metrics server",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
