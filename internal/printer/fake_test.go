package printer

import (
	"sync"
	"time"

	"github.com/puntoventa/ticket-engine/internal/usb"
)

// fakeConn records every call so tests can assert ordering and release
// guarantees.
type fakeConn struct {
	mu        sync.Mutex
	claimed   bool
	released  bool
	closed    bool
	claimErr  error
	transfers [][]byte

	// transferErr, when set, decides the fate of each BulkTransfer by call
	// index (init frames included).
	transferErr func(call int) error
}

func (c *fakeConn) ClaimInterface(iface usb.InterfaceDescriptor, force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.claimErr != nil {
		return c.claimErr
	}
	c.claimed = true
	return nil
}

func (c *fakeConn) BulkTransfer(ep usb.EndpointDescriptor, data []byte, timeout time.Duration) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call := len(c.transfers)
	c.transfers = append(c.transfers, append([]byte(nil), data...))

	if c.transferErr != nil {
		if err := c.transferErr(call); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

func (c *fakeConn) ReleaseInterface(iface usb.InterfaceDescriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.released = true
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

type fakeHost struct {
	devices []usb.DeviceDescriptor
	denied  map[string]bool
	conn    *fakeConn
	openErr error
	opens   int
}

func (h *fakeHost) Enumerate() ([]usb.DeviceDescriptor, error) {
	return h.devices, nil
}

func (h *fakeHost) HasPermission(dev usb.DeviceDescriptor) bool {
	return !h.denied[dev.ID]
}

func (h *fakeHost) Open(dev usb.DeviceDescriptor) (usb.Connection, error) {
	h.opens++
	if h.openErr != nil {
		return nil, h.openErr
	}
	return h.conn, nil
}
