// Package sensor resolves one representative host temperature per cycle
// from whatever thermal sensors the platform exposes, and samples CPU and
// memory utilization.
package sensor

import "context"

// Groups maps a sensor group name (coretemp, nvme, acpitz, ...) to the
// current values of its entries in degrees Celsius. A missing key and an
// empty slice both mean the group has nothing to offer.
type Groups map[string][]float64

// Source provides raw sensor groups.
type Source interface {
	Temperatures(ctx context.Context) (Groups, error)
}

// UsageSampler reports utilization percentages.
type UsageSampler interface {
	CPUPercent(ctx context.Context) (float64, error)
	MemoryPercent(ctx context.Context) (float64, error)
}

// Resolution tells how a Reading was obtained.
type Resolution int

const (
	// Found means a group from the priority list supplied the value.
	Found Resolution = iota
	// Fallback means the value is the maximum across all groups.
	Fallback
	// Default means no sensor produced a value.
	Default
)

func (r Resolution) String() string {
	switch r {
	case Found:
		return "found"
	case Fallback:
		return "fallback"
	case Default:
		return "default"
	default:
		return "unknown"
	}
}

// Reading is the temperature chosen for one cycle.
type Reading struct {
	Value      float64
	Resolution Resolution
	// Group names the sensor group that produced Value. Empty for Default.
	Group string
}
