package metrics

import (
	stderrors "errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/frame"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/monitor"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/sensor"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(updates, attaches, failures uint64) monitor.Snapshot {
	return monitor.Snapshot{
		Temperature:      61.6,
		Resolution:       sensor.Fallback,
		SensorGroup:      "nvme",
		Frame:            frame.Encode(61.6),
		CPUUsage:         12.5,
		RAMUsage:         40,
		Runtime:          90 * time.Second,
		UpdateCount:      updates,
		AttachAttempts:   attaches,
		TransmitFailures: failures,
		Connected:        true,
	}
}

func TestDisabledIsNoop(t *testing.T) {
	c, err := NewService(DefaultConfig())
	require.NoError(t, err)

	assert.IsType(t, &noopMetricsCollector{}, c)
	assert.NoError(t, c.Present(snapshot(1, 1, 0)))
	c.ReportError(stderrors.New("ignored"))
	assert.Empty(t, c.Addr())
	assert.NoError(t, c.Close())
}

func TestInvalidAddr(t *testing.T) {
	_, err := NewService(Config{Enabled: true, Addr: "no-port"})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInvalidConfig))
	assert.True(t, errors.HasCode(err, ErrInvalidAddr))
}

func TestPresentUpdatesCollectors(t *testing.T) {
	s := newService(Config{Namespace: "test"})
	require.NoError(t, s.register())

	require.NoError(t, s.Present(snapshot(2, 1, 0)))
	require.NoError(t, s.Present(snapshot(5, 2, 1)))
	s.ReportError(stderrors.New("boom"))

	assert.Equal(t, 61.6, testutil.ToFloat64(s.temperature.WithLabelValues("fallback", "nvme")))
	assert.Equal(t, 62.0, testutil.ToFloat64(s.frameTemperature))
	assert.Equal(t, 12.5, testutil.ToFloat64(s.cpuUsage))
	assert.Equal(t, 40.0, testutil.ToFloat64(s.ramUsage))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.connected))
	assert.Equal(t, 90.0, testutil.ToFloat64(s.runtime))
	assert.Equal(t, 5.0, testutil.ToFloat64(s.updates))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.attachAttempts))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.transmitFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.cycleErrors))
	assert.Equal(t, 1, testutil.CollectAndCount(s.temperature))
}

func TestExporterServesMetrics(t *testing.T) {
	c, err := NewService(Config{Enabled: true, Addr: "127.0.0.1:0"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Present(snapshot(3, 1, 0)))

	resp, err := http.Get("http://" + c.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "mancerctl_updates_total 3")
	assert.Contains(t, string(body), `mancerctl_temperature_celsius{group="nvme",resolution="fallback"} 61.6`)
	assert.Contains(t, string(body), "mancerctl_device_connected 1")
}

func TestListenFailure(t *testing.T) {
	first, err := NewService(Config{Enabled: true, Addr: "127.0.0.1:0"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Close() })

	_, err = NewService(Config{Enabled: true, Addr: first.Addr()})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrListen))
}
