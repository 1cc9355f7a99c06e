package metrics

import "github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/monitor"

// MetricsCollector exports monitor snapshots. It is a monitor.Presenter so
// the loop feeds it like any other presenter.
type MetricsCollector interface {
	monitor.Presenter
	// Addr is the address the exporter listens on, empty when disabled.
	Addr() string
	Close() error
}
