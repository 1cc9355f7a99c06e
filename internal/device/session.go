package device

import (
	"fmt"
	"sync"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/frame"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/logger"
)

// Session is the single owner of the display handle. All methods are safe
// for concurrent use; they are serialized because the endpoint accepts one
// writer at a time.
//
// Transitions:
//
//	Disconnected --Attach ok-------> Connected
//	Connected    --Transmit failed-> Disconnected
//	Connected    --Attach----------> Connected
type Session struct {
	driver    Driver
	logger    logger.Logger
	mu        sync.Mutex
	port      Port
	state     State
	vendorID  uint16
	productID uint16
}

func NewSession(driver Driver, log logger.Logger) *Session {
	return &Session{
		driver: driver,
		logger: log,
		state:  Disconnected,
	}
}

// Attach opens the display. Attaching to the device that is already open is
// a no-op and keeps the existing handle. A failed attach leaves the session
// Disconnected and returns an error coded ErrNotFound or ErrClaimFailed.
func (s *Session) Attach(vendorID, productID uint16) error {
	errFactory := errors.New()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Connected {
		if s.vendorID == vendorID && s.productID == productID {
			s.logger.Debug().Str("device", deviceID(vendorID, productID)).Msg("Already attached")
			return nil
		}
		s.release()
	}

	port, err := s.open(vendorID, productID)
	if err == nil && port == nil {
		err = errFactory.WithData(ErrNotFound, deviceID(vendorID, productID))
	}
	if err != nil {
		if !errors.HasCode(err, ErrNotFound) && !errors.HasCode(err, ErrClaimFailed) {
			err = errFactory.Wrap(ErrClaimFailed, err)
		}
		return err
	}

	s.port = port
	s.state = Connected
	s.vendorID = vendorID
	s.productID = productID

	s.logger.Info().Str("device", deviceID(vendorID, productID)).Msg("Display attached")

	return nil
}

// Transmit writes one frame. Any write failure closes the handle, moves the
// session to Disconnected and returns ErrLost. It never retries.
func (s *Session) Transmit(f frame.Frame) error {
	errFactory := errors.New()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Connected || s.port == nil {
		return errFactory.New(ErrNotConnected)
	}

	n, err := s.write(f.Bytes())
	if err == nil && n != frame.Size {
		err = errFactory.WithData(ErrShortWrite, fmt.Sprintf("%d of %d bytes", n, frame.Size))
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("device", deviceID(s.vendorID, s.productID)).Msg("Display write failed, detaching")
		s.release()
		return errFactory.Wrap(ErrLost, err)
	}

	s.logger.Debug().Int("temperature", f.Temperature()).Msg("Frame sent")

	return nil
}

// IsConnected reports the current state without doing any I/O.
func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Connected
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close releases the handle if one is held. The session can attach again
// afterwards; the driver itself is closed with Shutdown.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		s.state = Disconnected
		return nil
	}

	err := s.closePort()
	s.port = nil
	s.state = Disconnected
	if err != nil {
		return errors.New().Wrap(ErrCloseFailed, err)
	}

	s.logger.Info().Msg("Display released")

	return nil
}

// Shutdown closes the session and then the underlying driver.
func (s *Session) Shutdown() error {
	closeErr := s.Close()

	if err := s.driver.Close(); err != nil {
		return errors.New().Wrap(ErrCloseFailed, err)
	}

	return closeErr
}

// release drops the handle after a failure. Close errors are only logged;
// the handle is unusable either way. Callers hold s.mu.
func (s *Session) release() {
	if s.port != nil {
		if err := s.closePort(); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to close display handle")
		}
	}
	s.port = nil
	s.state = Disconnected
}

func (s *Session) open(vendorID, productID uint16) (port Port, err error) {
	defer recoverDriver(&err)
	return s.driver.Open(vendorID, productID)
}

func (s *Session) write(p []byte) (n int, err error) {
	defer recoverDriver(&err)
	return s.port.Write(p)
}

func (s *Session) closePort() (err error) {
	defer recoverDriver(&err)
	return s.port.Close()
}

func recoverDriver(err *error) {
	if p := recover(); p != nil {
		*err = errors.New().WithData(ErrDriverPanic, fmt.Sprint(p))
	}
}

func deviceID(vendorID, productID uint16) string {
	return fmt.Sprintf("%04x:%04x", vendorID, productID)
}
