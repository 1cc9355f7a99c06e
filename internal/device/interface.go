// Package device owns the connection to the USB display: attaching to it,
// writing frames, and dropping the handle when a write fails.
package device

// Driver opens the display by its USB identifiers. Implementations return
// errors carrying ErrNotFound when nothing matches and ErrClaimFailed when a
// matching device cannot be configured or claimed.
type Driver interface {
	Open(vendorID, productID uint16) (Port, error)
	Close() error
}

// Port is an open output channel to the display.
type Port interface {
	Write(p []byte) (int, error)
	Close() error
}

// State is the connection state of a Session.
type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}
