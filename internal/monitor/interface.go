package monitor

import (
	"context"
	"time"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/frame"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/sensor"
)

// Session is the part of device.Session the loop drives.
type Session interface {
	Attach(vendorID, productID uint16) error
	Transmit(f frame.Frame) error
	IsConnected() bool
	Close() error
}

// Sensors is the part of sensor.Reader the loop drives.
type Sensors interface {
	ReadTemperature(ctx context.Context) sensor.Reading
	ReadCPUUsage(ctx context.Context) float64
	ReadRAMUsage(ctx context.Context) float64
}

// Presenter receives a snapshot once per cycle. Present must return within
// the loop interval. Errors and panics from presenters are logged and
// otherwise ignored.
type Presenter interface {
	Present(snapshot Snapshot) error
	ReportError(err error)
}

// Snapshot is the public state of one cycle.
type Snapshot struct {
	Timestamp        time.Time
	Temperature      float64
	Resolution       sensor.Resolution
	SensorGroup      string
	Frame            frame.Frame
	Sent             bool
	CPUUsage         float64
	RAMUsage         float64
	Runtime          time.Duration
	UpdateCount      uint64
	AttachAttempts   uint64
	TransmitFailures uint64
	Connected        bool
	History          []float64
}
