package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log  = zerolog.New(io.Discard)
	sink io.Closer
)

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// Options controls where and how verbosely the logger writes.
type Options struct {
	Level     string
	Debug     bool
	Verbose   bool
	IsService bool

	// File enables an additional JSON sink rotated by lumberjack.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init initializes the logger based on the given configuration
func Init(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	console := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	if opts.IsService {
		console.TimeFormat = ""
		console.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	var out io.Writer = console
	if opts.File != "" {
		if err := checkLogFile(opts.File); err != nil {
			return err
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		sink = rotator
		out = zerolog.MultiLevelWriter(console, rotator)
	}

	log = zerolog.New(out).With().Timestamp().Logger()

	SetLogLevel(level)

	if opts.Debug {
		SetLogLevel(DebugLevel)
	} else if opts.Verbose && level > InfoLevel {
		SetLogLevel(InfoLevel)
	}

	return nil
}

// checkLogFile reports an unwritable log path at startup instead of on the
// first write.
func checkLogFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New().Wrap(errors.ErrOpenLogFile, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return errors.New().Wrap(errors.ErrOpenLogFile, err)
	}

	return f.Close()
}

// InitWriter points the logger at w with the given level. Used by tests and tools
// that want plain JSON output.
func InitWriter(w io.Writer, level LogLevel) {
	log = zerolog.New(w).With().Timestamp().Logger()
	SetLogLevel(level)
}

// Close flushes and closes the rotating file sink, if any.
func Close() error {
	if sink == nil {
		return nil
	}
	err := sink.Close()
	sink = nil

	return err
}

// ParseLevel maps a configured level name to a LogLevel. An empty name means warning.
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(name) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "", "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return WarnLevel, errors.New().WithData(errors.ErrInvalidLogLevel, name)
	}
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	zerolog.SetGlobalLevel(zerolog.Level(level))
}

var (
	getppid    = os.Getppid
	isTerminal = func(f *os.File) bool {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
)

// IsService checks if the application is running as a service: started by
// systemd or init, or detached from any terminal.
func IsService() bool {
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if getppid() == 1 {
		return true
	}

	return !isTerminal(os.Stdin) && !isTerminal(os.Stdout)
}

// Debug logs a debug message
func Debug() *LogEvent {
	return &LogEvent{log.Debug()}
}

// Info logs an info message
func Info() *LogEvent {
	return &LogEvent{log.Info()}
}

// Warn logs a warning message
func Warn() *LogEvent {
	return &LogEvent{log.Warn()}
}

// Error logs an error message
func Error() *LogEvent {
	return &LogEvent{log.Error()}
}

// ErrorWithCode logs an error message with a specific error code
func ErrorWithCode(err errors.Error) *LogEvent {
	return &LogEvent{log.Error().
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}

// ErrorWithContext logs a coded error together with where it happened
func ErrorWithContext(err errors.Error, component, operation string) *LogEvent {
	return &LogEvent{ErrorWithCode(err).
		Str("component", component).
		Str("operation", operation)}
}

type packageLogger struct{}

// Default returns a Logger backed by the package-level logger.
func Default() Logger {
	return packageLogger{}
}

func (packageLogger) Debug() *LogEvent { return Debug() }
func (packageLogger) Info() *LogEvent  { return Info() }
func (packageLogger) Warn() *LogEvent  { return Warn() }
func (packageLogger) Error() *LogEvent { return Error() }

func (packageLogger) ErrorWithCode(err errors.Error) *LogEvent {
	return ErrorWithCode(err)
}

func (packageLogger) ErrorWithContext(err errors.Error, component, operation string) *LogEvent {
	return ErrorWithContext(err, component, operation)
}
