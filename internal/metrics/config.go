package metrics

import (
	"net"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
)

const (
	defaultAddr      = ":9105"
	defaultNamespace = "mancerctl"
)

type Config struct {
	Addr      string
	Namespace string
	Enabled   bool
}

func DefaultConfig() Config {
	return Config{
		Addr:      defaultAddr,
		Namespace: defaultNamespace,
		Enabled:   false,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate Addr if metrics is enabled
	if !c.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return errFactory.Wrap(ErrInvalidAddr, err)
	}

	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
