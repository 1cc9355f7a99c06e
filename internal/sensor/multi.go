package sensor

import (
	"context"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/logger"
)

// MultiSource merges the groups of several sources. Entries of a group
// reported by more than one source are concatenated in source order.
type MultiSource struct {
	sources []Source
	logger  logger.Logger
}

func NewMultiSource(log logger.Logger, sources ...Source) *MultiSource {
	return &MultiSource{
		sources: sources,
		logger:  log,
	}
}

// Temperatures fails only when every member source fails.
func (m *MultiSource) Temperatures(ctx context.Context) (Groups, error) {
	merged := make(Groups)
	var lastErr error
	failed := 0

	for _, source := range m.sources {
		groups, err := source.Temperatures(ctx)
		if err != nil {
			m.logger.Debug().Err(err).Msg("Sensor source skipped")
			lastErr = err
			failed++
			continue
		}
		for name, values := range groups {
			merged[name] = append(merged[name], values...)
		}
	}

	if len(m.sources) > 0 && failed == len(m.sources) {
		return nil, errors.New().Wrap(ErrAllSourcesFailed, lastErr)
	}

	return merged, nil
}
