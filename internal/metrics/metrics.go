// Package metrics exports the monitor's state as Prometheus gauges and
// counters on an HTTP /metrics endpoint.
package metrics

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/logger"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

type service struct {
	cfg      Config
	registry *prometheus.Registry
	server   *http.Server
	listener net.Listener
	served   chan struct{}

	temperature      *prometheus.GaugeVec
	frameTemperature prometheus.Gauge
	cpuUsage         prometheus.Gauge
	ramUsage         prometheus.Gauge
	connected        prometheus.Gauge
	runtime          prometheus.Gauge
	updates          prometheus.Counter
	attachAttempts   prometheus.Counter
	transmitFailures prometheus.Counter
	cycleErrors      prometheus.Counter

	mu   sync.Mutex
	last monitor.Snapshot
}

// No-op implementation
type noopMetricsCollector struct{}

// NewService starts the exporter. A disabled config yields a collector that
// drops everything.
func NewService(cfg Config) (MetricsCollector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	// If metrics is disabled, return a no-op collector
	if !cfg.Enabled {
		logger.Debug().Msg("Metrics export disabled, using no-op collector")
		return &noopMetricsCollector{}, nil
	}
	if cfg.Namespace == "" {
		cfg.Namespace = defaultNamespace
	}

	s := newService(cfg)
	if err := s.register(); err != nil {
		return nil, errFactory.Wrap(ErrRegister, err)
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, errFactory.Wrap(ErrListen, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.serve()

	logger.Info().Str("addr", listener.Addr().String()).Msg("Metrics exporter listening")

	return s, nil
}

func newService(cfg Config) *service {
	ns := cfg.Namespace

	return &service{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
		served:   make(chan struct{}),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "temperature_celsius",
			Help:      "Temperature resolved in the last cycle.",
		}, []string{"resolution", "group"}),
		frameTemperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "frame_temperature_celsius",
			Help:      "Clamped integer temperature encoded for the display.",
		}),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "cpu_usage_percent",
			Help:      "Host CPU utilization.",
		}),
		ramUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "ram_usage_percent",
			Help:      "Host memory utilization.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "device_connected",
			Help:      "1 when the display is attached.",
		}),
		runtime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "runtime_seconds",
			Help:      "Time since monitoring started.",
		}),
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "updates_total",
			Help:      "Frames written to the display.",
		}),
		attachAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "attach_attempts_total",
			Help:      "Attempts to attach the display.",
		}),
		transmitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "transmit_failures_total",
			Help:      "Writes that lost the display.",
		}),
		cycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cycle_errors_total",
			Help:      "Cycles that failed unexpectedly.",
		}),
	}
}

func (s *service) register() error {
	cs := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		s.temperature,
		s.frameTemperature,
		s.cpuUsage,
		s.ramUsage,
		s.connected,
		s.runtime,
		s.updates,
		s.attachAttempts,
		s.transmitFailures,
		s.cycleErrors,
	}
	for _, c := range cs {
		if err := s.registry.Register(c); err != nil {
			return err
		}
	}

	return nil
}

func (s *service) serve() {
	defer close(s.served)

	if err := s.server.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("Metrics exporter stopped")
	}
}

// Present updates the gauges and advances the counters by the difference
// from the previous snapshot.
func (s *service) Present(snapshot monitor.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.temperature.Reset()
	s.temperature.WithLabelValues(snapshot.Resolution.String(), snapshot.SensorGroup).Set(snapshot.Temperature)
	s.frameTemperature.Set(float64(snapshot.Frame.Temperature()))
	s.cpuUsage.Set(snapshot.CPUUsage)
	s.ramUsage.Set(snapshot.RAMUsage)
	s.connected.Set(boolToFloat(snapshot.Connected))
	s.runtime.Set(snapshot.Runtime.Seconds())

	s.updates.Add(delta(snapshot.UpdateCount, s.last.UpdateCount))
	s.attachAttempts.Add(delta(snapshot.AttachAttempts, s.last.AttachAttempts))
	s.transmitFailures.Add(delta(snapshot.TransmitFailures, s.last.TransmitFailures))
	s.last = snapshot

	return nil
}

func (s *service) ReportError(error) {
	s.cycleErrors.Inc()
}

func (s *service) Addr() string {
	return s.listener.Addr().String()
}

func (s *service) Close() error {
	errFactory := errors.New()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return errFactory.Wrap(ErrServiceClose, err)
	}
	<-s.served

	return nil
}

func delta(current, previous uint64) float64 {
	if current < previous {
		return 0
	}

	return float64(current - previous)
}

// No-op implementation
func (*noopMetricsCollector) Present(monitor.Snapshot) error {
	return nil
}

func (*noopMetricsCollector) ReportError(error) {}

func (*noopMetricsCollector) Addr() string {
	return ""
}

func (*noopMetricsCollector) Close() error {
	return nil
}
