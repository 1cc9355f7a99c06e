package main

import (
	stderrors "errors"
	"testing"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	errFactory := errors.New()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"clean shutdown", nil, exitOK},
		{"not root", errFactory.New(errors.ErrPermission), exitNotRoot},
		{"already running", errFactory.WithData(errors.ErrAlreadyRunning, 4242), exitAlreadyRunning},
		{"init failure", errFactory.Wrap(errors.ErrInitFailed, stderrors.New("bind: address in use")), exitFailure},
		{"main loop", errFactory.Wrap(errors.ErrMainLoop, stderrors.New("boom")), exitFailure},
		{"plain error", stderrors.New("boom"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestCheckPrivileges(t *testing.T) {
	assert.NoError(t, checkPrivileges(true, 0))
	assert.NoError(t, checkPrivileges(false, 1000))

	err := checkPrivileges(true, 1000)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrPermission))
	assert.Equal(t, exitNotRoot, exitCode(err))
}

func TestShutdownErrorsAreCoded(t *testing.T) {
	err := errors.New().Wrap(errors.ErrShutdownFailed, stderrors.New("busy"))

	assert.Equal(t, errors.ErrShutdownFailed, errors.CodeOf(err))
	assert.Equal(t, exitFailure, exitCode(err))
	logShutdown(nil, "usb")
	logShutdown(err, "usb")
}
