package sensor

import "github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"

const (
	ErrTemperatureReadFailed = errors.ErrorCode("sensor_temperature_read_failed")
	ErrCPUReadFailed         = errors.ErrorCode("sensor_cpu_read_failed")
	ErrMemoryReadFailed      = errors.ErrorCode("sensor_memory_read_failed")
	ErrSourcePanicked        = errors.ErrorCode("sensor_source_panicked")
	ErrAllSourcesFailed      = errors.ErrorCode("sensor_all_sources_failed")

	ErrNVMLNotInitialized = errors.ErrorCode("sensor_nvml_not_initialized")
	ErrNVMLInitFailed     = errors.ErrorCode("sensor_nvml_init_failed")
	ErrNVMLUnavailable    = errors.ErrorCode("sensor_nvml_unavailable")
	ErrNVMLShutdownFailed = errors.ErrorCode("sensor_nvml_shutdown_failed")
	ErrNVMLDeviceFailed   = errors.ErrorCode("sensor_nvml_device_failed")
)
