package sensor

import (
	"context"
	"strings"
	"time"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/logger"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const cpuSampleWindow = 100 * time.Millisecond

// HostSource reads hwmon and thermal zone sensors through gopsutil.
type HostSource struct {
	logger logger.Logger
}

func NewHostSource(log logger.Logger) *HostSource {
	return &HostSource{logger: log}
}

func (s *HostSource) Temperatures(ctx context.Context) (Groups, error) {
	stats, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil && len(stats) == 0 {
		return nil, err
	}
	if err != nil {
		// gopsutil returns partial results with warnings for unreadable inputs
		s.logger.Debug().Err(err).Int("sensors", len(stats)).Msg("Some sensors could not be read")
	}

	groups := make(Groups)
	for _, stat := range stats {
		name := GroupOf(stat.SensorKey)
		groups[name] = append(groups[name], stat.Temperature)
	}

	return groups, nil
}

// GroupOf maps a gopsutil sensor key such as "coretemp_core_0" or
// "nvme_composite" to its group name. Keys of the priority groups are
// matched by prefix; anything else is cut at the first underscore.
func GroupOf(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, name := range priorityGroups {
		if key == name || strings.HasPrefix(key, name+"_") {
			return name
		}
	}

	if i := strings.IndexByte(key, '_'); i > 0 {
		return key[:i]
	}

	return key
}

// HostUsage samples CPU and memory utilization through gopsutil.
type HostUsage struct {
	window time.Duration
}

func NewHostUsage() *HostUsage {
	return &HostUsage{window: cpuSampleWindow}
}

func (u *HostUsage) CPUPercent(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, u.window, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, nil
	}

	return percents[0], nil
}

func (u *HostUsage) MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}

	return vm.UsedPercent, nil
}
