package sensor

import (
	"context"
	"sync"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/logger"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// NVMLGroup is the group name NVIDIA GPU temperatures are reported under.
const NVMLGroup = "nvidia"

// nvmlController abstracts NVML operations for testing
type nvmlController interface {
	Initialize() error
	Shutdown() error
	GetDeviceCount() (int, error)
	GetTemperature(index int) (float64, error)
}

// NVMLSource reports NVIDIA GPU core temperatures. It does not appear in the
// priority list, so its values only matter for the fallback scan. A host
// without the NVIDIA driver makes initialization fail once; the source then
// stays disabled instead of retrying every cycle.
type NVMLSource struct {
	nvml     nvmlController
	logger   logger.Logger
	mu       sync.Mutex
	ready    bool
	disabled bool
}

func NewNVMLSource(log logger.Logger) *NVMLSource {
	return newNVMLSource(&nvmlWrapper{}, log)
}

func newNVMLSource(ctrl nvmlController, log logger.Logger) *NVMLSource {
	return &NVMLSource{
		nvml:   ctrl,
		logger: log,
	}
}

func (s *NVMLSource) Temperatures(_ context.Context) (Groups, error) {
	errFactory := errors.New()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		return nil, errFactory.New(ErrNVMLUnavailable)
	}

	if !s.ready {
		if err := s.nvml.Initialize(); err != nil {
			s.disabled = true
			s.logger.Info().Err(err).Msg("NVML unavailable, GPU temperatures disabled")
			return nil, err
		}
		s.ready = true
	}

	count, err := s.nvml.GetDeviceCount()
	if err != nil {
		return nil, err
	}

	temps := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		temp, err := s.nvml.GetTemperature(i)
		if err != nil {
			s.logger.Debug().Err(err).Int("gpu", i).Msg("Failed to read GPU temperature")
			continue
		}
		temps = append(temps, temp)
	}

	return Groups{NVMLGroup: temps}, nil
}

// Close shuts NVML down if it was initialized.
func (s *NVMLSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil
	}
	s.ready = false

	return s.nvml.Shutdown()
}

// nvmlError represents an NVML-specific error
type nvmlError struct {
	ret nvml.Return
}

func (e nvmlError) Error() string {
	return nvml.ErrorString(e.ret)
}

// newNVMLError creates an error from an NVML return code
func newNVMLError(ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}
	return &nvmlError{ret: ret}
}

// IsNVMLSuccess checks if a Return value indicates success
func IsNVMLSuccess(ret nvml.Return) bool {
	return ret == nvml.SUCCESS
}

type nvmlWrapper struct {
	initialized bool
}

func (w *nvmlWrapper) Initialize() error {
	errFactory := errors.New()
	if w.initialized {
		return nil
	}

	ret := nvml.Init()
	if !IsNVMLSuccess(ret) {
		return errFactory.Wrap(ErrNVMLInitFailed, newNVMLError(ret))
	}

	w.initialized = true

	return nil
}

func (w *nvmlWrapper) Shutdown() error {
	errFactory := errors.New()
	if !w.initialized {
		return nil
	}

	ret := nvml.Shutdown()
	if !IsNVMLSuccess(ret) {
		return errFactory.Wrap(ErrNVMLShutdownFailed, newNVMLError(ret))
	}

	w.initialized = false

	return nil
}

func (w *nvmlWrapper) GetDeviceCount() (int, error) {
	errFactory := errors.New()
	if !w.initialized {
		return 0, errFactory.New(ErrNVMLNotInitialized)
	}

	count, ret := nvml.DeviceGetCount()
	if !IsNVMLSuccess(ret) {
		return 0, errFactory.Wrap(ErrNVMLDeviceFailed, newNVMLError(ret))
	}

	return count, nil
}

func (w *nvmlWrapper) GetTemperature(index int) (float64, error) {
	errFactory := errors.New()
	if !w.initialized {
		return 0, errFactory.New(ErrNVMLNotInitialized)
	}

	device, ret := nvml.DeviceGetHandleByIndex(index)
	if !IsNVMLSuccess(ret) {
		return 0, errFactory.Wrap(ErrNVMLDeviceFailed, newNVMLError(ret))
	}

	temp, ret := device.GetTemperature(nvml.TEMPERATURE_GPU)
	if !IsNVMLSuccess(ret) {
		return 0, errFactory.Wrap(ErrTemperatureReadFailed, newNVMLError(ret))
	}

	return float64(temp), nil
}
