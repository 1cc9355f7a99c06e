// Package display renders monitor snapshots for humans: a lipgloss status
// panel for terminals and structured status lines for the log.
package display

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	warmTemperature = 50.0
	hotTemperature  = 65.0

	busyCPU     = 50.0
	saturateCPU = 80.0
)

var (
	colorOk     = lipgloss.Color("78")
	colorWarn   = lipgloss.Color("220")
	colorCrit   = lipgloss.Color("196")
	colorTitle  = lipgloss.Color("141")
	colorBorder = lipgloss.Color("62")
	colorLabel  = lipgloss.Color("252")
	colorDim    = lipgloss.Color("240")
	colorInfo   = lipgloss.Color("75")
	colorFrame  = lipgloss.Color("51")
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// FormatRuntime renders d as 1h02m03s, 2m05s or 7s.
func FormatRuntime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh%02dm%02ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm%02ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// TempColor returns green below 50°C, yellow below 65°C and red otherwise.
func TempColor(temp float64) lipgloss.Color {
	switch {
	case temp < warmTemperature:
		return colorOk
	case temp < hotTemperature:
		return colorWarn
	default:
		return colorCrit
	}
}

// CPUColor uses the same palette with 50% and 80% as cut points.
func CPUColor(usage float64) lipgloss.Color {
	switch {
	case usage < busyCPU:
		return colorOk
	case usage < saturateCPU:
		return colorWarn
	default:
		return colorCrit
	}
}

// Sparkline renders the last width values scaled between their own min and
// max. A flat series renders as a line.
func Sparkline(values []float64, width int) string {
	if width <= 0 || len(values) == 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lowest, highest := values[0], values[0]
	for _, v := range values {
		lowest = math.Min(lowest, v)
		highest = math.Max(highest, v)
	}

	span := highest - lowest
	if span <= 0 {
		return lipgloss.NewStyle().Foreground(colorDim).Render(strings.Repeat("─", len(values)))
	}

	var sb strings.Builder
	for _, v := range values {
		idx := int((v - lowest) / span * float64(len(sparkBlocks)-1))
		idx = max(0, min(idx, len(sparkBlocks)-1))
		sb.WriteString(lipgloss.NewStyle().Foreground(TempColor(v)).Render(string(sparkBlocks[idx])))
	}

	return sb.String()
}
