package usb

import (
	"errors"
	"time"
)

// ErrDeviceGone reports that the device disappeared mid-session (unplugged or
// access revoked). Transfer errors wrapping it are fatal for the session,
// unlike ordinary per-frame failures.
var ErrDeviceGone = errors.New("usb: device gone")

// Connection is an exclusively-owned handle to one open device. It owns the
// claimed interface for its lifetime and must be released (ReleaseInterface +
// Close) on every exit path. A Connection is never used after Close.
type Connection interface {
	// ClaimInterface claims the interface exclusively. With force set, the
	// host may detach a kernel driver holding it.
	ClaimInterface(iface InterfaceDescriptor, force bool) error

	// BulkTransfer writes data to the endpoint and returns the number of
	// bytes accepted. The call fails once timeout elapses.
	BulkTransfer(ep EndpointDescriptor, data []byte, timeout time.Duration) (int, error)

	// ReleaseInterface releases a previously claimed interface.
	ReleaseInterface(iface InterfaceDescriptor) error

	// Close releases the underlying device handle.
	Close() error
}

// Host is the USB subsystem boundary. The production implementation is backed
// by libusb; tests substitute fakes.
type Host interface {
	// Enumerate returns a snapshot of the attached devices. The snapshot may
	// go stale at any time; Open on a stale descriptor fails normally.
	Enumerate() ([]DeviceDescriptor, error)

	// HasPermission reports whether the caller holds an access grant for the
	// device. Hosts without a grant model report true for everything.
	HasPermission(dev DeviceDescriptor) bool

	// Open opens an exclusive connection to the device.
	Open(dev DeviceDescriptor) (Connection, error)
}
