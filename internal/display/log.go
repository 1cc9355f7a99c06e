package display

import (
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/logger"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/monitor"
)

// Log writes one structured line per snapshot. With detailed set, the line
// goes to debug level and carries the counters and window stats as well.
type Log struct {
	logger   logger.Logger
	detailed bool
}

func NewLog(log logger.Logger, detailed bool) *Log {
	return &Log{logger: log, detailed: detailed}
}

func (l *Log) Present(s monitor.Snapshot) error {
	if l.detailed {
		lowest, highest, mean := monitor.Stats(s.History)

		l.logger.Debug().
			Float64("temperature", s.Temperature).
			Str("resolution", s.Resolution.String()).
			Str("sensor_group", s.SensorGroup).
			Int("frame_temperature", s.Frame.Temperature()).
			Bool("sent", s.Sent).
			Bool("connected", s.Connected).
			Float64("cpu_usage", s.CPUUsage).
			Float64("ram_usage", s.RAMUsage).
			Float64("min_temperature", lowest).
			Float64("max_temperature", highest).
			Float64("avg_temperature", mean).
			Int("history_len", len(s.History)).
			Uint64("updates", s.UpdateCount).
			Uint64("attach_attempts", s.AttachAttempts).
			Uint64("transmit_failures", s.TransmitFailures).
			Str("runtime", FormatRuntime(s.Runtime)).
			Msg("")

		return nil
	}

	l.logger.Info().
		Float64("temperature", s.Temperature).
		Str("resolution", s.Resolution.String()).
		Bool("connected", s.Connected).
		Float64("cpu_usage", s.CPUUsage).
		Float64("ram_usage", s.RAMUsage).
		Uint64("updates", s.UpdateCount).
		Msg("")

	return nil
}

func (l *Log) ReportError(err error) {
	if appErr, ok := err.(errors.Error); ok {
		l.logger.ErrorWithCode(appErr).Msg("Cycle failed")
		return
	}
	l.logger.Error().Err(err).Msg("Cycle failed")
}
