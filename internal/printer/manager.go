// Package printer implements the USB thermal printer driver: device
// selection, ESC/POS command planning, and the bulk-transfer session engine,
// plus detection and job plumbing around them.
package printer

import (
	"fmt"
	"sync"

	"github.com/puntoventa/ticket-engine/internal/registry"
	"github.com/puntoventa/ticket-engine/internal/usb"
)

// Manager detects printers and tracks them across scans.
type Manager struct {
	registry *registry.Registry
	host     usb.Host
	printers map[string]*Printer
	devices  map[string]usb.DeviceDescriptor // printer ID -> USB snapshot
	mu       sync.RWMutex

	onPrinterAdded   func(*Printer)
	onPrinterRemoved func(string)
}

// Printer is one detected printer.
type Printer struct {
	ID          string
	Type        string // usb, serial
	Description string
	Device      string // serial port path
	VID         uint16
	PID         uint16
	Name        string // custom user-set name
}

// NewManager creates a manager over the USB host and the registry file.
func NewManager(host usb.Host, registryPath string) (*Manager, error) {
	reg, err := registry.New(registryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	return &Manager{
		registry: reg,
		host:     host,
		printers: make(map[string]*Printer),
		devices:  make(map[string]usb.DeviceDescriptor),
	}, nil
}

// DetectPrinters scans USB and serial buses and replaces the tracked set.
func (m *Manager) DetectPrinters() ([]*Printer, error) {
	usbPrinters, usbDevices, err := m.detectUSB()
	if err != nil {
		return nil, err
	}

	printers := usbPrinters
	printers = append(printers, m.detectSerial()...)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.printers = make(map[string]*Printer)
	for _, p := range printers {
		m.printers[p.ID] = p
	}
	m.devices = usbDevices

	return printers, nil
}

// detectUSB snapshots the bus and keeps every device the selector's class or
// name heuristics accept as a printer candidate.
func (m *Manager) detectUSB() ([]*Printer, map[string]usb.DeviceDescriptor, error) {
	snapshot, err := m.host.Enumerate()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	var printers []*Printer
	devices := make(map[string]usb.DeviceDescriptor)

	for _, dev := range snapshot {
		if !isPrinterCandidate(dev) {
			continue
		}

		description := fmt.Sprintf("USB: %s", dev)

		info := registry.PrinterInfo{
			Type:        "usb",
			VID:         dev.VendorID,
			PID:         dev.ProductID,
			Description: description,
		}
		id := m.registry.GetPrinterID(info)

		printers = append(printers, &Printer{
			ID:          id,
			Type:        "usb",
			Description: description,
			VID:         dev.VendorID,
			PID:         dev.ProductID,
			Name:        m.registry.GetPrinterName(id),
		})
		devices[id] = dev
	}

	return printers, devices, nil
}

// isPrinterCandidate applies the selector's class and name checks to a single
// device. The selector's first-device fallback is deliberately excluded here:
// detection lists candidates, it does not pick a last resort.
func isPrinterCandidate(dev usb.DeviceDescriptor) bool {
	return hasPrinterClass(dev) || hasNameMarker(dev, DefaultNameMarkers)
}

// USBDevice returns the enumeration snapshot behind a detected USB printer.
func (m *Manager) USBDevice(printerID string) (usb.DeviceDescriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dev, ok := m.devices[printerID]
	return dev, ok
}

// USBDevices returns the snapshots of every detected USB printer.
func (m *Manager) USBDevices() []usb.DeviceDescriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]usb.DeviceDescriptor, 0, len(m.devices))
	for _, dev := range m.devices {
		result = append(result, dev)
	}
	return result
}

// GetPrinter returns a printer by ID.
func (m *Manager) GetPrinter(id string) *Printer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.printers[id]
}

// GetAllPrinters returns all detected printers.
func (m *Manager) GetAllPrinters() []*Printer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Printer, 0, len(m.printers))
	for _, p := range m.printers {
		result = append(result, p)
	}
	return result
}

// SetPrinterName sets a custom display name for a printer.
func (m *Manager) SetPrinterName(id string, name string) bool {
	success := m.registry.SetPrinterName(id, name)

	if success {
		m.mu.Lock()
		if printer, exists := m.printers[id]; exists {
			printer.Name = name
		}
		m.mu.Unlock()
	}

	return success
}

// OnPrinterAdded sets a callback for when a printer appears.
func (m *Manager) OnPrinterAdded(callback func(*Printer)) {
	m.onPrinterAdded = callback
}

// OnPrinterRemoved sets a callback for when a printer disappears.
func (m *Manager) OnPrinterRemoved(callback func(string)) {
	m.onPrinterRemoved = callback
}
