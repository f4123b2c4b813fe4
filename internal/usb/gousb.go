package usb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/gousb"
)

// LibusbHost is the production Host, backed by libusb through gousb.
type LibusbHost struct {
	ctx *gousb.Context
}

// NewLibusbHost initializes a libusb context. Callers own the host and must
// Close it when done.
func NewLibusbHost() *LibusbHost {
	return &LibusbHost{ctx: gousb.NewContext()}
}

// Close releases the libusb context.
func (h *LibusbHost) Close() error {
	return h.ctx.Close()
}

// Enumerate opens every attached device just long enough to snapshot its
// descriptors and product string.
func (h *LibusbHost) Enumerate() ([]DeviceDescriptor, error) {
	devices, err := h.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		// Accept all devices - selection happens later.
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	var snapshot []DeviceDescriptor
	for _, dev := range devices {
		product, _ := dev.Product()
		snapshot = append(snapshot, snapshotDevice(dev.Desc, product))
		dev.Close()
	}

	return snapshot, nil
}

// HasPermission always grants: libusb has no per-device permission model, so
// access control is enforced by opening the device.
func (h *LibusbHost) HasPermission(dev DeviceDescriptor) bool {
	return true
}

// Open opens the device matching the descriptor's bus identity.
func (h *LibusbHost) Open(dev DeviceDescriptor) (Connection, error) {
	devices, err := h.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return deviceID(desc) == dev.ID
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dev, err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("open %s: %w", dev, ErrDeviceGone)
	}
	// The filter matches one bus address; extras would be a libusb bug.
	for _, extra := range devices[1:] {
		extra.Close()
	}

	return &libusbConn{dev: devices[0]}, nil
}

// libusbConn is an open device handle plus the claimed interface, released in
// reverse order of acquisition.
type libusbConn struct {
	dev   *gousb.Device
	cfg   *gousb.Config
	iface *gousb.Interface
	mu    sync.Mutex
}

func (c *libusbConn) ClaimInterface(iface InterfaceDescriptor, force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if force {
		// Detach a kernel driver that may be holding the interface.
		if err := c.dev.SetAutoDetach(true); err != nil {
			return fmt.Errorf("failed to set auto detach: %w", mapLibusbErr(err))
		}
	}

	cfgNum, err := c.dev.ActiveConfigNum()
	if err != nil || cfgNum == 0 {
		cfgNum = 1
	}

	cfg, err := c.dev.Config(cfgNum)
	if err != nil {
		return fmt.Errorf("failed to set config %d: %w", cfgNum, mapLibusbErr(err))
	}

	claimed, err := cfg.Interface(iface.Number, 0)
	if err != nil {
		cfg.Close()
		return fmt.Errorf("failed to claim interface %d: %w", iface.Number, mapLibusbErr(err))
	}

	c.cfg = cfg
	c.iface = claimed
	return nil
}

func (c *libusbConn) BulkTransfer(ep EndpointDescriptor, data []byte, timeout time.Duration) (int, error) {
	c.mu.Lock()
	iface := c.iface
	c.mu.Unlock()

	if iface == nil {
		return 0, fmt.Errorf("bulk transfer before interface claim")
	}

	out, err := iface.OutEndpoint(ep.Address)
	if err != nil {
		return 0, fmt.Errorf("failed to open endpoint %d: %w", ep.Address, mapLibusbErr(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	n, err := out.WriteContext(ctx, data)
	if err != nil {
		return n, mapLibusbErr(err)
	}
	return n, nil
}

func (c *libusbConn) ReleaseInterface(iface InterfaceDescriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.iface != nil {
		c.iface.Close()
		c.iface = nil
	}
	if c.cfg != nil {
		c.cfg.Close()
		c.cfg = nil
	}
	return nil
}

func (c *libusbConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dev != nil {
		err := c.dev.Close()
		c.dev = nil
		return err
	}
	return nil
}

// deviceID is stable for as long as the device stays on the same bus address.
func deviceID(desc *gousb.DeviceDesc) string {
	return fmt.Sprintf("usb:%03d-%03d", desc.Bus, desc.Address)
}

// snapshotDevice flattens the gousb descriptor tree into the read-only model.
// Only the first alt setting of each interface is recorded; thermal printers
// do not use alternate settings.
func snapshotDevice(desc *gousb.DeviceDesc, product string) DeviceDescriptor {
	dev := DeviceDescriptor{
		ID:        deviceID(desc),
		VendorID:  uint16(desc.Vendor),
		ProductID: uint16(desc.Product),
		Product:   product,
	}

	// Snapshot the lowest-numbered configuration only; it is the one the
	// connection claims later.
	cfgNum := -1
	for num := range desc.Configs {
		if cfgNum < 0 || num < cfgNum {
			cfgNum = num
		}
	}
	if cfgNum < 0 {
		return dev
	}

	for _, iface := range desc.Configs[cfgNum].Interfaces {
		if len(iface.AltSettings) == 0 {
			continue
		}
		alt := iface.AltSettings[0]

		id := InterfaceDescriptor{
			Number:   iface.Number,
			Class:    int(alt.Class),
			SubClass: int(alt.SubClass),
			Protocol: int(alt.Protocol),
		}
		for _, ep := range alt.Endpoints {
			id.Endpoints = append(id.Endpoints, EndpointDescriptor{
				Address:       ep.Number,
				Type:          transferType(ep.TransferType),
				Direction:     direction(ep.Direction),
				MaxPacketSize: ep.MaxPacketSize,
			})
		}
		// gousb keeps endpoints in a map; order them for a deterministic
		// snapshot.
		sort.Slice(id.Endpoints, func(i, j int) bool {
			return id.Endpoints[i].Address < id.Endpoints[j].Address
		})
		dev.Interfaces = append(dev.Interfaces, id)
	}
	sort.Slice(dev.Interfaces, func(i, j int) bool {
		return dev.Interfaces[i].Number < dev.Interfaces[j].Number
	})

	return dev
}

func transferType(t gousb.TransferType) TransferType {
	switch t {
	case gousb.TransferTypeBulk:
		return TransferBulk
	case gousb.TransferTypeInterrupt:
		return TransferInterrupt
	case gousb.TransferTypeIsochronous:
		return TransferIsochronous
	default:
		return TransferControl
	}
}

func direction(d gousb.EndpointDirection) Direction {
	if d == gousb.EndpointDirectionIn {
		return DirectionIn
	}
	return DirectionOut
}

// mapLibusbErr tags unplug-class libusb failures so the transfer engine can
// tell a vanished device from an ordinary frame failure.
func mapLibusbErr(err error) error {
	if err == gousb.ErrorNoDevice {
		return fmt.Errorf("%v: %w", err, ErrDeviceGone)
	}
	return err
}
