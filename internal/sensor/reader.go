package sensor

import (
	"context"
	"fmt"
	"math"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/logger"
)

// DefaultTemperature is reported when no sensor yields a value.
const DefaultTemperature = 40.0

// priorityGroups are tried in order before falling back to a scan of every
// group. CPU packages first, then storage and GPU, then the ACPI zone.
var priorityGroups = []string{
	"coretemp",
	"k10temp",
	"zenpower",
	"nvme",
	"amdgpu",
	"acpitz",
}

// PriorityGroups returns the ordered list of preferred sensor groups.
func PriorityGroups() []string {
	groups := make([]string, len(priorityGroups))
	copy(groups, priorityGroups)

	return groups
}

type Reader struct {
	source Source
	usage  UsageSampler
	logger logger.Logger
}

func NewReader(source Source, usage UsageSampler, log logger.Logger) *Reader {
	return &Reader{
		source: source,
		usage:  usage,
		logger: log,
	}
}

// ReadTemperature never fails. Source errors count as "no entries".
func (r *Reader) ReadTemperature(ctx context.Context) Reading {
	groups, err := r.collect(ctx)
	if err != nil {
		r.logger.Debug().Err(err).Msg("Sensor source failed, using default temperature")
		return Reading{Value: DefaultTemperature, Resolution: Default}
	}

	return Resolve(groups)
}

// Resolve applies the priority list, then the global scan, then the default.
func Resolve(groups Groups) Reading {
	for _, name := range priorityGroups {
		if value, ok := maxOf(groups[name]); ok {
			return Reading{Value: value, Resolution: Found, Group: name}
		}
	}

	var (
		best      float64
		bestGroup string
		found     bool
	)
	for name, values := range groups {
		value, ok := maxOf(values)
		if !ok {
			continue
		}
		// Ties go to the lexically smaller group name.
		if !found || value > best || (value == best && name < bestGroup) {
			best, bestGroup, found = value, name, true
		}
	}
	if found {
		return Reading{Value: best, Resolution: Fallback, Group: bestGroup}
	}

	return Reading{Value: DefaultTemperature, Resolution: Default}
}

// ReadCPUUsage returns CPU utilization in [0,100], or 0 on failure.
func (r *Reader) ReadCPUUsage(ctx context.Context) float64 {
	value, err := r.usage.CPUPercent(ctx)
	if err != nil {
		r.logger.Debug().Err(errors.New().Wrap(ErrCPUReadFailed, err)).Msg("CPU usage unavailable")
		return 0
	}

	return clampPercent(value)
}

// ReadRAMUsage returns memory utilization in [0,100], or 0 on failure.
func (r *Reader) ReadRAMUsage(ctx context.Context) float64 {
	value, err := r.usage.MemoryPercent(ctx)
	if err != nil {
		r.logger.Debug().Err(errors.New().Wrap(ErrMemoryReadFailed, err)).Msg("RAM usage unavailable")
		return 0
	}

	return clampPercent(value)
}

func (r *Reader) collect(ctx context.Context) (groups Groups, err error) {
	defer func() {
		if p := recover(); p != nil {
			groups = nil
			err = errors.New().WithData(ErrSourcePanicked, fmt.Sprint(p))
		}
	}()

	groups, err = r.source.Temperatures(ctx)
	if err != nil {
		return nil, errors.New().Wrap(ErrTemperatureReadFailed, err)
	}

	return groups, nil
}

func maxOf(values []float64) (float64, bool) {
	var (
		best  float64
		found bool
	)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !found || v > best {
			best, found = v, true
		}
	}

	return best, found
}

func clampPercent(value float64) float64 {
	if math.IsNaN(value) || value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}

	return value
}
