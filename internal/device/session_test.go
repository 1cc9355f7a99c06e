package device_test

import (
	stderrors "errors"
	"testing"

	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/device"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/errors"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/frame"
	"github.com/GuilhermeKamphorst/displaywatercoolermanceronubuntu/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	vendorID  = 0xaa88
	productID = 0x8666
)

type mockDriver struct {
	mock.Mock
}

func (m *mockDriver) Open(vendorID, productID uint16) (device.Port, error) {
	args := m.Called(vendorID, productID)
	port, _ := args.Get(0).(device.Port)
	return port, args.Error(1)
}

func (m *mockDriver) Close() error {
	return m.Called().Error(0)
}

type mockPort struct {
	mock.Mock
}

func (m *mockPort) Write(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *mockPort) Close() error {
	return m.Called().Error(0)
}

type panicPort struct{}

func (panicPort) Write([]byte) (int, error) { panic("libusb: segfault") }
func (panicPort) Close() error             { return nil }

func newSession(driver device.Driver) *device.Session {
	return device.NewSession(driver, logger.Default())
}

func TestInitialState(t *testing.T) {
	s := newSession(&mockDriver{})

	assert.False(t, s.IsConnected())
	assert.Equal(t, device.Disconnected, s.State())
}

func TestAttachSuccess(t *testing.T) {
	port := &mockPort{}
	driver := &mockDriver{}
	driver.On("Open", uint16(vendorID), uint16(productID)).Return(port, nil).Once()

	s := newSession(driver)
	require.NoError(t, s.Attach(vendorID, productID))

	assert.True(t, s.IsConnected())
	assert.Equal(t, "connected", s.State().String())
	driver.AssertExpectations(t)
}

func TestAttachNotFound(t *testing.T) {
	driver := &mockDriver{}
	driver.On("Open", mock.Anything, mock.Anything).
		Return(nil, errors.New().New(device.ErrNotFound)).Once()

	s := newSession(driver)
	err := s.Attach(vendorID, productID)

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, device.ErrNotFound))
	assert.True(t, device.IsAttachError(err))
	assert.False(t, s.IsConnected())
}

func TestAttachNilPortIsNotFound(t *testing.T) {
	driver := &mockDriver{}
	driver.On("Open", mock.Anything, mock.Anything).Return(nil, nil).Once()

	s := newSession(driver)
	err := s.Attach(vendorID, productID)

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, device.ErrNotFound))
	assert.False(t, s.IsConnected())
}

func TestAttachUnknownErrorIsClaimFailed(t *testing.T) {
	driver := &mockDriver{}
	driver.On("Open", mock.Anything, mock.Anything).
		Return(nil, stderrors.New("LIBUSB_ERROR_BUSY")).Once()

	s := newSession(driver)
	err := s.Attach(vendorID, productID)

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, device.ErrClaimFailed))
	assert.Contains(t, err.Error(), "LIBUSB_ERROR_BUSY")
	assert.False(t, s.IsConnected())
}

func TestAttachTwiceKeepsHandle(t *testing.T) {
	port := &mockPort{}
	driver := &mockDriver{}
	driver.On("Open", uint16(vendorID), uint16(productID)).Return(port, nil).Once()

	s := newSession(driver)
	require.NoError(t, s.Attach(vendorID, productID))
	require.NoError(t, s.Attach(vendorID, productID))

	assert.True(t, s.IsConnected())
	driver.AssertNumberOfCalls(t, "Open", 1)
	port.AssertNotCalled(t, "Close")
}

func TestAttachDifferentDeviceReplacesHandle(t *testing.T) {
	first := &mockPort{}
	first.On("Close").Return(nil).Once()
	second := &mockPort{}
	driver := &mockDriver{}
	driver.On("Open", uint16(vendorID), uint16(productID)).Return(first, nil).Once()
	driver.On("Open", uint16(0x1234), uint16(0x5678)).Return(second, nil).Once()

	s := newSession(driver)
	require.NoError(t, s.Attach(vendorID, productID))
	require.NoError(t, s.Attach(0x1234, 0x5678))

	assert.True(t, s.IsConnected())
	first.AssertExpectations(t)
}

func TestTransmitWritesFrame(t *testing.T) {
	port := &mockPort{}
	port.On("Write", []byte{57, 0, 0}).Return(3, nil).Once()
	driver := &mockDriver{}
	driver.On("Open", mock.Anything, mock.Anything).Return(port, nil)

	s := newSession(driver)
	require.NoError(t, s.Attach(vendorID, productID))
	require.NoError(t, s.Transmit(frame.Encode(56.7)))

	assert.True(t, s.IsConnected())
	port.AssertExpectations(t)
}

func TestTransmitWhileDisconnected(t *testing.T) {
	driver := &mockDriver{}
	s := newSession(driver)

	err := s.Transmit(frame.Encode(40))

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, device.ErrNotConnected))
	driver.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
}

func TestTransmitFailureDisconnects(t *testing.T) {
	port := &mockPort{}
	port.On("Write", mock.Anything).Return(0, stderrors.New("LIBUSB_ERROR_NO_DEVICE")).Once()
	port.On("Close").Return(nil).Once()
	driver := &mockDriver{}
	driver.On("Open", mock.Anything, mock.Anything).Return(port, nil).Once()

	s := newSession(driver)
	require.NoError(t, s.Attach(vendorID, productID))

	err := s.Transmit(frame.Encode(60))

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, device.ErrLost))
	assert.False(t, s.IsConnected(), "a failed write must drop the connection without an explicit detach")
	port.AssertExpectations(t)

	// No frame is written while disconnected
	err = s.Transmit(frame.Encode(60))
	assert.True(t, errors.HasCode(err, device.ErrNotConnected))
	port.AssertNumberOfCalls(t, "Write", 1)
}

func TestTransmitShortWriteDisconnects(t *testing.T) {
	port := &mockPort{}
	port.On("Write", mock.Anything).Return(1, nil).Once()
	port.On("Close").Return(stderrors.New("already gone")).Once()
	driver := &mockDriver{}
	driver.On("Open", mock.Anything, mock.Anything).Return(port, nil).Once()

	s := newSession(driver)
	require.NoError(t, s.Attach(vendorID, productID))

	err := s.Transmit(frame.Encode(60))

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, device.ErrLost))
	assert.True(t, errors.HasCode(err, device.ErrShortWrite))
	assert.False(t, s.IsConnected())
}

func TestTransmitPanicDisconnects(t *testing.T) {
	driver := &mockDriver{}
	driver.On("Open", mock.Anything, mock.Anything).Return(panicPort{}, nil).Once()

	s := newSession(driver)
	require.NoError(t, s.Attach(vendorID, productID))

	var err error
	require.NotPanics(t, func() { err = s.Transmit(frame.Encode(60)) })
	assert.True(t, errors.HasCode(err, device.ErrLost))
	assert.True(t, errors.HasCode(err, device.ErrDriverPanic))
	assert.False(t, s.IsConnected())
}

func TestReattachAfterLoss(t *testing.T) {
	lost := &mockPort{}
	lost.On("Write", mock.Anything).Return(0, stderrors.New("pipe")).Once()
	lost.On("Close").Return(nil).Once()
	fresh := &mockPort{}
	fresh.On("Write", mock.Anything).Return(3, nil).Once()
	driver := &mockDriver{}
	driver.On("Open", mock.Anything, mock.Anything).Return(lost, nil).Once()
	driver.On("Open", mock.Anything, mock.Anything).Return(fresh, nil).Once()

	s := newSession(driver)
	require.NoError(t, s.Attach(vendorID, productID))
	require.Error(t, s.Transmit(frame.Encode(50)))
	require.NoError(t, s.Attach(vendorID, productID))
	require.NoError(t, s.Transmit(frame.Encode(50)))

	assert.True(t, s.IsConnected())
	driver.AssertNumberOfCalls(t, "Open", 2)
}

func TestCloseReleasesHandle(t *testing.T) {
	port := &mockPort{}
	port.On("Close").Return(nil).Once()
	driver := &mockDriver{}
	driver.On("Open", mock.Anything, mock.Anything).Return(port, nil).Once()
	driver.On("Close").Return(nil).Once()

	s := newSession(driver)
	require.NoError(t, s.Attach(vendorID, productID))
	require.NoError(t, s.Shutdown())

	assert.False(t, s.IsConnected())
	port.AssertExpectations(t)
	driver.AssertExpectations(t)

	// Closing an idle session is harmless
	require.NoError(t, s.Close())
}

func TestCloseErrorIsReported(t *testing.T) {
	port := &mockPort{}
	port.On("Close").Return(stderrors.New("busy")).Once()
	driver := &mockDriver{}
	driver.On("Open", mock.Anything, mock.Anything).Return(port, nil).Once()

	s := newSession(driver)
	require.NoError(t, s.Attach(vendorID, productID))

	err := s.Close()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, device.ErrCloseFailed))
	assert.False(t, s.IsConnected())
}
