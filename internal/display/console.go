package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/monitor"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

const (
	panelWidth     = 60
	sparklineWidth = 40
	clearScreen    = "\033[H\033[2J"
)

var isTerminal = isatty.IsTerminal

// IsTerminal reports whether w writes to a terminal. Only terminals get the
// screen cleared between redraws.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	return isTerminal(f.Fd())
}

// Console redraws a status panel on every snapshot.
type Console struct {
	out   io.Writer
	clear bool
}

type ConsoleOption func(*Console)

// WithClearScreen makes the console wipe the terminal before each redraw.
func WithClearScreen(clear bool) ConsoleOption {
	return func(c *Console) {
		c.clear = clear
	}
}

func NewConsole(out io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{out: out}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Console) Present(s monitor.Snapshot) error {
	view := Render(s)
	if c.clear {
		view = clearScreen + view
	}
	_, err := io.WriteString(c.out, view+"\n")

	return err
}

func (c *Console) ReportError(err error) {
	line := lipgloss.NewStyle().Foreground(colorCrit).Render("Cycle failed: " + err.Error())
	_, _ = io.WriteString(c.out, line+"\n")
}

// Render builds the status panel for one snapshot.
func Render(s monitor.Snapshot) string {
	dim := lipgloss.NewStyle().Foreground(colorDim)
	label := lipgloss.NewStyle().Foreground(colorLabel)

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitle).
		Width(panelWidth - 4).
		Align(lipgloss.Center).
		Render("WATERCOOLER MANCER")

	status := lipgloss.NewStyle().Foreground(colorCrit).Render("disconnected")
	if s.Connected {
		status = lipgloss.NewStyle().Foreground(colorOk).Render("connected")
	}

	header := label.Render("Status: ") + status +
		dim.Render(" │ ") + label.Render("Runtime: "+FormatRuntime(s.Runtime)) +
		dim.Render(" │ ") + label.Render(fmt.Sprintf("Updates: %d", s.UpdateCount))

	temp := lipgloss.NewStyle().
		Bold(true).
		Foreground(TempColor(s.Temperature)).
		Render(fmt.Sprintf("%5.1f°C", s.Temperature))
	source := dim.Render(fmt.Sprintf(" (%s)", sourceLabel(s)))

	lowest, highest, mean := monitor.Stats(s.History)
	stats := dim.Render(fmt.Sprintf("min %.1f°C │ max %.1f°C │ avg %.1f°C", lowest, highest, mean))

	usage := label.Render("CPU ") +
		lipgloss.NewStyle().Foreground(CPUColor(s.CPUUsage)).Render(fmt.Sprintf("%5.1f%%", s.CPUUsage)) +
		label.Render("   RAM ") +
		lipgloss.NewStyle().Foreground(colorInfo).Render(fmt.Sprintf("%5.1f%%", s.RAMUsage))

	sending := dim.Render("Not sending, display detached")
	if s.Sent {
		sending = lipgloss.NewStyle().Foreground(colorFrame).Render(
			fmt.Sprintf("Sending %d°C  [%d, 0x%02x, 0x%02x]", s.Frame.Temperature(), s.Frame[0], s.Frame[1], s.Frame[2]))
	}

	rows := []string{
		title,
		header,
		dim.Render(strings.Repeat("─", panelWidth-4)),
		label.Render("Temperature ") + temp + source,
		stats,
		usage,
	}
	if spark := Sparkline(s.History, sparklineWidth); spark != "" {
		rows = append(rows, "", label.Render("History"), spark)
	}
	rows = append(rows, "", sending)
	if s.TransmitFailures > 0 || s.AttachAttempts > 1 {
		rows = append(rows, dim.Render(fmt.Sprintf("attach attempts %d │ transmit failures %d",
			s.AttachAttempts, s.TransmitFailures)))
	}
	rows = append(rows, dim.Render("Press Ctrl+C to quit"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(panelWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func sourceLabel(s monitor.Snapshot) string {
	if s.SensorGroup == "" {
		return s.Resolution.String()
	}

	return s.Resolution.String() + ": " + s.SensorGroup
}
