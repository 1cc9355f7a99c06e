package logger_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want logger.LogLevel
	}{
		{"debug", logger.DebugLevel},
		{"INFO", logger.InfoLevel},
		{"warning", logger.WarnLevel},
		{"warn", logger.WarnLevel},
		{"", logger.WarnLevel},
		{"error", logger.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := logger.ParseLevel(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := logger.ParseLevel("loud")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestErrorWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWriter(&buf, logger.DebugLevel)

	err := errors.New().WithMessage(errors.ErrCycleFailed, "cycle exploded")
	logger.Default().ErrorWithContext(err, "monitor", "cycle").Msg("failure")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "monitor_cycle_failed", entry["error_code"])
	assert.Equal(t, "cycle exploded", entry["error_message"])
	assert.Equal(t, "monitor", entry["component"])
	assert.Equal(t, "cycle", entry["operation"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWriter(&buf, logger.WarnLevel)

	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestInitWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mancerctl.log")

	require.NoError(t, logger.Init(logger.Options{Level: "info", File: path, MaxSizeMB: 1}))
	t.Cleanup(func() { _ = logger.Close() })

	logger.Info().Str("sink", "file").Msg("written")
	require.NoError(t, logger.Close())

	assert.FileExists(t, path)
}

func TestInitRejectsInvalidLevel(t *testing.T) {
	err := logger.Init(logger.Options{Level: "chatty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chatty")
}

func TestInitRejectsUnwritableLogFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	err := logger.Init(logger.Options{Level: "info", File: filepath.Join(blocker, "mancerctl.log")})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrOpenLogFile))
}

func TestInitCreatesLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mancerctl.log")

	require.NoError(t, logger.Init(logger.Options{Level: "info", File: path}))
	t.Cleanup(func() { _ = logger.Close() })

	assert.FileExists(t, path)
}
