// Package pid keeps a single mancerctl instance per host. The display accepts
// one writer at a time, so a second process would only fight over the device.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
)

const (
	defaultDirPerm = 0o755
	pidFilePerm    = 0o644
)

// Write writes the current process ID to the PID file at path. A PID file left
// behind by a process that is no longer running is replaced.
func Write(path string) error {
	errFactory := errors.New()
	pid := os.Getpid()

	if _, err := os.Stat(path); err == nil {
		// PID file exists, check if the process is running
		bytes, err := os.ReadFile(path)
		if err != nil {
			return errFactory.Wrap(errors.ErrInternal, err)
		}

		if running, err := isRunning(strings.TrimSpace(string(bytes))); err != nil {
			return errFactory.Wrap(errors.ErrInternal, err)
		} else if running {
			return errFactory.WithData(errors.ErrAlreadyRunning, path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	err := os.WriteFile(path, []byte(strconv.Itoa(pid)), pidFilePerm)
	if err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file.
func Remove(path string) error {
	errFactory := errors.New()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(path); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func isRunning(content string) (bool, error) {
	pid, err := strconv.Atoi(content)
	if err != nil {
		// Garbage in the file, treat it as stale
		return false, nil //nolint:nilerr
	}
	if pid == os.Getpid() {
		return false, nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, err
	}

	err = process.Signal(syscall.Signal(0))
	if err == nil || err == syscall.EPERM {
		return true, nil
	}

	return false, nil
}
