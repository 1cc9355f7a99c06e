// Package monitor runs the fixed-cadence read, encode, transmit and report
// cycle and keeps the aggregate state presenters display.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/device"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/frame"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/logger"
)

const (
	DefaultInterval    = time.Second
	DefaultCooldown    = 5 * time.Second
	DefaultHistorySize = 30
)

type Config struct {
	Interval    time.Duration
	Cooldown    time.Duration
	HistorySize int
	VendorID    uint16
	ProductID   uint16
}

type Option func(*Loop)

// WithPresenters adds presenters that receive every snapshot.
func WithPresenters(presenters ...Presenter) Option {
	return func(l *Loop) {
		l.presenters = append(l.presenters, presenters...)
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		l.now = now
	}
}

// WithSleep replaces the interruptible sleep between cycles. The function
// returns false when the loop should stop.
func WithSleep(sleep func(ctx context.Context, d time.Duration) bool) Option {
	return func(l *Loop) {
		l.sleep = sleep
	}
}

// Loop owns the history and counters. It is driven by a single goroutine.
type Loop struct {
	cfg        Config
	session    Session
	sensors    Sensors
	presenters []Presenter
	logger     logger.Logger
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) bool

	history          *History
	start            time.Time
	started          bool
	updateCount      uint64
	attachAttempts   uint64
	transmitFailures uint64
	lastAttachCode   errors.ErrorCode
}

func New(cfg Config, session Session, sensors Sensors, log logger.Logger, opts ...Option) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}

	l := &Loop{
		cfg:     cfg,
		session: session,
		sensors: sensors,
		logger:  log,
		now:     time.Now,
		sleep:   sleepContext,
		history: NewHistory(cfg.HistorySize),
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Run cycles until ctx is cancelled, then releases the display. Cancellation
// is checked between cycles; a cycle in progress is not interrupted.
func (l *Loop) Run(ctx context.Context) error {
	l.markStart()
	defer l.release()

	l.logger.Info().
		Dur("interval", l.cfg.Interval).
		Int("history_size", l.cfg.HistorySize).
		Msg("Monitoring started")

	for {
		if ctx.Err() != nil {
			return nil
		}

		wait := l.cfg.Interval
		if _, err := l.Cycle(ctx); err != nil {
			l.reportError(err)
			wait = l.cfg.Cooldown
		}

		if !l.sleep(ctx, wait) {
			return nil
		}
	}
}

// Cycle runs one iteration and returns the snapshot handed to presenters.
// Errors returned here are unexpected; disconnects and missing sensors are
// part of the snapshot instead.
func (l *Loop) Cycle(ctx context.Context) (snapshot Snapshot, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.New().WithData(errors.ErrCycleFailed, fmt.Sprint(p))
		}
	}()

	l.markStart()

	if !l.session.IsConnected() {
		l.attach()
	}

	reading := l.sensors.ReadTemperature(ctx)
	cpuUsage := l.sensors.ReadCPUUsage(ctx)
	ramUsage := l.sensors.ReadRAMUsage(ctx)

	f := frame.Encode(reading.Value)
	sent := false
	if l.session.IsConnected() {
		switch err := l.session.Transmit(f); {
		case err == nil:
			l.updateCount++
			sent = true
		case errors.HasCode(err, device.ErrLost):
			// Next cycle re-attaches.
			l.transmitFailures++
		default:
			return Snapshot{}, errors.New().Wrap(errors.ErrCycleFailed, err)
		}
	}

	l.history.Push(reading.Value)

	snapshot = Snapshot{
		Timestamp:        l.now(),
		Temperature:      reading.Value,
		Resolution:       reading.Resolution,
		SensorGroup:      reading.Group,
		Frame:            f,
		Sent:             sent,
		CPUUsage:         cpuUsage,
		RAMUsage:         ramUsage,
		UpdateCount:      l.updateCount,
		AttachAttempts:   l.attachAttempts,
		TransmitFailures: l.transmitFailures,
		Connected:        l.session.IsConnected(),
		History:          l.history.Values(),
	}
	snapshot.Runtime = snapshot.Timestamp.Sub(l.start)

	l.present(snapshot)

	return snapshot, nil
}

// History returns the rolling temperature window.
func (l *Loop) History() []float64 {
	return l.history.Values()
}

func (l *Loop) attach() {
	l.attachAttempts++

	err := l.session.Attach(l.cfg.VendorID, l.cfg.ProductID)
	if err == nil {
		l.lastAttachCode = ""
		return
	}

	// Warn once per failure kind, repeats go to debug.
	code := errors.CodeOf(err)
	event := l.logger.Debug()
	if code != l.lastAttachCode {
		event = l.logger.Warn()
	}
	event.Err(err).Str("error_code", string(code)).Msg("Display not attached, running without it")
	l.lastAttachCode = code
}

func (l *Loop) present(snapshot Snapshot) {
	for _, p := range l.presenters {
		if err := safePresent(p, snapshot); err != nil {
			l.logger.Warn().Err(err).Msg("Presenter failed")
		}
	}
}

func (l *Loop) reportError(err error) {
	if appErr, ok := err.(errors.Error); ok {
		l.logger.ErrorWithContext(appErr, "monitor", "cycle").Msg("Cycle failed, cooling down")
	} else {
		l.logger.Error().Err(err).Msg("Cycle failed, cooling down")
	}

	for _, p := range l.presenters {
		safeReport(p, err)
	}
}

func (l *Loop) markStart() {
	if !l.started {
		l.start = l.now()
		l.started = true
	}
}

func (l *Loop) release() {
	if err := l.session.Close(); err != nil {
		l.logger.Warn().Err(err).Msg("Failed to release display")
	}
	l.logger.Info().
		Uint64("updates", l.updateCount).
		Dur("runtime", l.now().Sub(l.start)).
		Msg("Monitoring stopped")
}

func safePresent(p Presenter, snapshot Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New().WithData(errors.ErrPresenter, fmt.Sprint(r))
		}
	}()

	if err := p.Present(snapshot); err != nil {
		return errors.New().Wrap(errors.ErrPresenter, err)
	}

	return nil
}

func safeReport(p Presenter, err error) {
	defer func() {
		_ = recover()
	}()

	p.ReportError(err)
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
