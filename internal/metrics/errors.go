package metrics

import "github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidAddr   = errors.ErrorCode("metrics_invalid_addr")

	// Exporter Errors
	ErrRegister     = errors.ErrorCode("metrics_register_failed")
	ErrListen       = errors.ErrorCode("metrics_listen_failed")
	ErrServiceClose = errors.ErrCloseMetrics
)
