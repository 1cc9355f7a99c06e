package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultInterval    = time.Second
	DefaultCooldown    = 5 * time.Second
	DefaultHistorySize = 30
	DefaultVendorID    = 0xaa88
	DefaultProductID   = 0x8666
	DefaultLogLevel    = "warning"
	DefaultDisplay     = "console"
	DefaultMetricsAddr = ":9105"
	DefaultPIDFile     = "/run/mancerctl.pid"

	defaultConfigPath = "/etc/mancerctl.toml"
	defaultEnvPrefix  = "MANCERCTL"
	configPathEnv     = "MANCERCTL_CONFIG"
	minInterval       = 100 * time.Millisecond
)

type Config struct {
	Interval    time.Duration `mapstructure:"interval"`
	Cooldown    time.Duration `mapstructure:"cooldown"`
	HistorySize int           `mapstructure:"history_size"`
	VendorID    uint16        `mapstructure:"vendor_id"`
	ProductID   uint16        `mapstructure:"product_id"`

	LogLevel      string `mapstructure:"log_level"`
	Debug         bool   `mapstructure:"debug"`
	Verbose       bool   `mapstructure:"verbose"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days"`

	Display     string `mapstructure:"display"`
	Metrics     bool   `mapstructure:"metrics"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	NVML        bool   `mapstructure:"nvml"`
	RequireRoot bool   `mapstructure:"require_root"`
	PIDFile     string `mapstructure:"pid_file"`
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"interval":        "interval",
	"cooldown":        "cooldown",
	"history-size":    "history_size",
	"vendor-id":       "vendor_id",
	"product-id":      "product_id",
	"log-level":       "log_level",
	"debug":           "debug",
	"verbose":         "verbose",
	"log-file":        "log_file",
	"display":         "display",
	"metrics":         "metrics",
	"metrics-addr":    "metrics_addr",
	"nvml":            "nvml",
	"require-root":    "require_root",
	"pid-file":        "pid_file",
	"log-max-size":    "log_max_size_mb",
	"log-max-backups": "log_max_backups",
	"log-max-age":     "log_max_age_days",
}

// Load reads configuration from defaults, the config file, the environment
// and the process command line, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs is Load with an explicit argument list.
func LoadArgs(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{
		configPath: os.Getenv(configPathEnv),
		envPrefix:  defaultEnvPrefix,
	}

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil, err
		}
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}
	if path, _ := fs.GetString("config"); path != "" {
		o.configPath = path
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, o.configPath); err != nil {
		return nil, err
	}

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("mancerctl", pflag.ContinueOnError)

	fs.String("config", "", "Path to the TOML configuration file")
	fs.Duration("interval", DefaultInterval, "Interval between display updates (with unit, e.g. 1s or 500ms)")
	fs.Duration("cooldown", DefaultCooldown, "Pause after an unexpected cycle error (with unit, e.g. 5s)")
	fs.Int("history-size", DefaultHistorySize, "Number of temperatures kept in the rolling history")
	fs.Uint16("vendor-id", DefaultVendorID, "USB vendor ID of the display")
	fs.Uint16("product-id", DefaultProductID, "USB product ID of the display")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
	fs.String("log-file", "", "Also write JSON logs to this rotated file")
	fs.Int("log-max-size", 10, "Maximum log file size in megabytes before rotation")
	fs.Int("log-max-backups", 3, "Number of rotated log files to keep")
	fs.Int("log-max-age", 28, "Maximum age in days of rotated log files")
	fs.String("display", DefaultDisplay, "Status output (console, log, none)")
	fs.Bool("metrics", false, "Expose Prometheus metrics")
	fs.String("metrics-addr", DefaultMetricsAddr, "Listen address of the metrics endpoint")
	fs.Bool("nvml", true, "Include NVIDIA GPU temperatures via NVML")
	fs.Bool("require-root", true, "Refuse to start without root privileges")
	fs.String("pid-file", DefaultPIDFile, "PID file used to prevent concurrent instances")

	return fs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("cooldown", DefaultCooldown)
	v.SetDefault("history_size", DefaultHistorySize)
	v.SetDefault("vendor_id", DefaultVendorID)
	v.SetDefault("product_id", DefaultProductID)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 10)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_max_age_days", 28)
	v.SetDefault("display", DefaultDisplay)
	v.SetDefault("metrics", false)
	v.SetDefault("metrics_addr", DefaultMetricsAddr)
	v.SetDefault("nvml", true)
	v.SetDefault("require_root", true)
	v.SetDefault("pid_file", DefaultPIDFile)
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
		return nil
	}

	if _, err := os.Stat(defaultConfigPath); err != nil {
		return nil
	}
	v.SetConfigFile(defaultConfigPath)
	if err := v.ReadInConfig(); err != nil {
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

// secondsToDurationHook lets plain numbers mean seconds, whether they come
// from the config file or as bare numeric strings from the environment.
func secondsToDurationHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		case string:
			if secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return time.Duration(secs * float64(time.Second)), nil
			}
		}

		return data, nil
	}
}

// Validate checks value ranges after all sources are merged
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval < minInterval {
		return errFactory.WithData(errors.ErrInvalidInterval, fmt.Sprintf("interval %s below %s", c.Interval, minInterval))
	}
	if c.Cooldown < minInterval {
		return errFactory.WithData(errors.ErrInvalidInterval, fmt.Sprintf("cooldown %s below %s", c.Cooldown, minInterval))
	}
	if c.HistorySize <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, fmt.Sprintf("history_size must be positive, got %d", c.HistorySize))
	}
	if c.VendorID == 0 || c.ProductID == 0 {
		return errFactory.WithData(errors.ErrInvalidDeviceID, fmt.Sprintf("%04x:%04x", c.VendorID, c.ProductID))
	}
	if c.LogLevel == "warn" {
		c.LogLevel = string(LogLevelWarning)
	}
	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if !DisplayMode(c.Display).IsValid() {
		return errFactory.WithData(errors.ErrInvalidConfig, fmt.Sprintf("unknown display %q", c.Display))
	}
	if c.Metrics && c.MetricsAddr == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, "metrics_addr is required when metrics are enabled")
	}

	return nil
}
