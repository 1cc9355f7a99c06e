// Package usb implements device.Driver on top of libusb through gousb.
package usb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/device"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/logger"
	"github.com/google/gousb"
)

const (
	// OutEndpoint is the address of the display's OUT endpoint.
	OutEndpoint = 0x01

	usbConfig       = 1
	usbInterface    = 0
	usbAltSetting   = 0
	defaultWriteTTL = time.Second
)

// Driver talks to the display through libusb.
type Driver struct {
	ctx          *gousb.Context
	logger       logger.Logger
	writeTimeout time.Duration
	mu           sync.Mutex
}

func NewDriver(log logger.Logger) *Driver {
	return &Driver{
		ctx:          gousb.NewContext(),
		logger:       log,
		writeTimeout: defaultWriteTTL,
	}
}

// Open finds the first device matching the IDs, detaches any kernel driver
// bound to it, selects configuration 1 and claims interface 0.
func (d *Driver) Open(vendorID, productID uint16) (device.Port, error) {
	errFactory := errors.New()
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx == nil {
		return nil, errFactory.New(device.ErrDriverClosed)
	}

	dev, err := d.ctx.OpenDeviceWithVIDPID(gousb.ID(vendorID), gousb.ID(productID))
	if dev == nil {
		if err != nil {
			// A match exists but could not be opened, usually EACCES
			return nil, errFactory.Wrap(device.ErrClaimFailed, err)
		}
		return nil, errFactory.WithData(device.ErrNotFound, fmt.Sprintf("%04x:%04x", vendorID, productID))
	}
	if err != nil {
		d.logger.Debug().Err(err).Msg("USB enumeration reported errors")
	}

	// One attempt; a device without a bound kernel driver reports an error
	// here that does not matter.
	if err := dev.SetAutoDetach(true); err != nil {
		d.logger.Debug().Err(err).Msg("Kernel driver auto-detach unavailable")
	}

	cfg, err := dev.Config(usbConfig)
	if err != nil {
		dev.Close()
		return nil, errFactory.Wrap(device.ErrClaimFailed, err)
	}

	intf, err := cfg.Interface(usbInterface, usbAltSetting)
	if err != nil {
		cfg.Close()
		dev.Close()
		return nil, errFactory.Wrap(device.ErrClaimFailed, err)
	}

	ep, err := intf.OutEndpoint(OutEndpoint)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		return nil, errFactory.Wrap(device.ErrClaimFailed, err)
	}

	return &usbPort{
		dev:     dev,
		cfg:     cfg,
		intf:    intf,
		ep:      ep,
		timeout: d.writeTimeout,
	}, nil
}

// Close releases the libusb context. Ports must be closed first.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx == nil {
		return nil
	}
	err := d.ctx.Close()
	d.ctx = nil

	return err
}

type usbPort struct {
	dev     *gousb.Device
	cfg     *gousb.Config
	intf    *gousb.Interface
	ep      *gousb.OutEndpoint
	timeout time.Duration
}

func (p *usbPort) Write(b []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	return p.ep.WriteContext(ctx, b)
}

func (p *usbPort) Close() error {
	p.intf.Close()
	if err := p.cfg.Close(); err != nil {
		p.dev.Close()
		return err
	}

	return p.dev.Close()
}

var _ device.Driver = (*Driver)(nil)
