package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/config"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/device"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/device/usb"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/display"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/logger"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/metrics"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/monitor"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/pid"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/sensor"
	"github.com/spf13/pflag"
)

const (
	exitOK = iota
	exitFailure
	exitNotRoot
	exitAlreadyRunning
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Printf("failed to load config: %v\n", err)
		return exitFailure
	}

	if err := logger.Init(logger.Options{
		Level:      cfg.LogLevel,
		Debug:      cfg.Debug,
		Verbose:    cfg.Verbose,
		IsService:  logger.IsService(),
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	}); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		return exitFailure
	}
	defer logger.Close()
	logger.Debug().Msg("Config loaded")

	err = serve(cfg)
	if err != nil {
		if appErr, ok := err.(errors.Error); ok {
			logger.ErrorWithCode(appErr).Msg("mancerctl stopped")
		} else {
			logger.Error().Err(err).Msg("mancerctl stopped")
		}
	} else {
		logger.Info().Msg("Exiting...")
	}

	return exitCode(err)
}

// exitCode maps a startup or loop error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.HasCode(err, errors.ErrPermission):
		return exitNotRoot
	case errors.HasCode(err, errors.ErrAlreadyRunning):
		return exitAlreadyRunning
	default:
		return exitFailure
	}
}

func checkPrivileges(requireRoot bool, euid int) error {
	if requireRoot && euid != 0 {
		return errors.New().New(errors.ErrPermission).WithMessage("Run with sudo or set require_root = false")
	}

	return nil
}

func serve(cfg *config.Config) error {
	errFactory := errors.New()

	if err := checkPrivileges(cfg.RequireRoot, os.Geteuid()); err != nil {
		return err
	}

	if cfg.PIDFile != "" {
		if err := pid.Write(cfg.PIDFile); err != nil {
			if errors.HasCode(err, errors.ErrAlreadyRunning) {
				return err
			}
			return errFactory.Wrap(errors.ErrInitFailed, err)
		}
		defer func() {
			logShutdown(pid.Remove(cfg.PIDFile), "pid")
		}()
	}

	log := logger.Default()

	sources := []sensor.Source{sensor.NewHostSource(log)}
	if cfg.NVML {
		gpu := sensor.NewNVMLSource(log)
		defer func() {
			logShutdown(gpu.Close(), "nvml")
		}()
		sources = append(sources, gpu)
	}
	reader := sensor.NewReader(sensor.NewMultiSource(log, sources...), sensor.NewHostUsage(), log)

	session := device.NewSession(usb.NewDriver(log), log)
	defer func() {
		logShutdown(session.Shutdown(), "usb")
	}()

	collector, err := metrics.NewService(metrics.Config{
		Enabled:   cfg.Metrics,
		Addr:      cfg.MetricsAddr,
		Namespace: "mancerctl",
	})
	if err != nil {
		return errFactory.Wrap(errors.ErrInitFailed, err)
	}
	defer func() {
		logShutdown(collector.Close(), "metrics")
	}()

	loop := monitor.New(monitor.Config{
		Interval:    cfg.Interval,
		Cooldown:    cfg.Cooldown,
		HistorySize: cfg.HistorySize,
		VendorID:    cfg.VendorID,
		ProductID:   cfg.ProductID,
	}, session, reader, log, monitor.WithPresenters(presenters(cfg, collector, log)...))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := loop.Run(ctx); err != nil {
		return errFactory.Wrap(errors.ErrMainLoop, err)
	}

	return nil
}

func presenters(cfg *config.Config, collector metrics.MetricsCollector, log logger.Logger) []monitor.Presenter {
	out := []monitor.Presenter{collector}

	switch config.DisplayMode(cfg.Display) {
	case config.DisplayConsole:
		out = append(out, display.NewConsole(os.Stdout, display.WithClearScreen(display.IsTerminal(os.Stdout))))
	case config.DisplayLog:
		out = append(out, display.NewLog(log, cfg.Debug))
	case config.DisplayNone:
	}

	return out
}

func logShutdown(err error, component string) {
	if err == nil {
		return
	}
	logger.ErrorWithContext(errors.New().Wrap(errors.ErrShutdownFailed, err), component, "shutdown").Msg("Cleanup failed")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
