package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubProcess(t *testing.T, ppid int, terminal bool) {
	t.Helper()

	origPpid, origTerminal := getppid, isTerminal
	t.Cleanup(func() {
		getppid, isTerminal = origPpid, origTerminal
	})

	getppid = func() int { return ppid }
	isTerminal = func(*os.File) bool { return terminal }
	t.Setenv("SERVICE_NAME", "")
	t.Setenv("INVOCATION_ID", "")
}

func TestIsServiceInteractiveShell(t *testing.T) {
	// A job started by an interactive shell leads its own process group.
	stubProcess(t, 4242, true)

	assert.False(t, IsService())
}

func TestIsServiceDetected(t *testing.T) {
	tests := []struct {
		name     string
		ppid     int
		terminal bool
		env      string
	}{
		{"no terminal", 4242, false, ""},
		{"started by init", 1, true, ""},
		{"systemd unit", 4242, true, "INVOCATION_ID"},
		{"service manager", 4242, true, "SERVICE_NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubProcess(t, tt.ppid, tt.terminal)
			if tt.env != "" {
				t.Setenv(tt.env, "mancerctl")
			}

			assert.True(t, IsService())
		})
	}
}

func TestIsTerminalOnRegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, isTerminal(f))
}
