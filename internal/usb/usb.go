// Package usb defines the device descriptor model and the host boundary the
// printer driver talks through.
package usb

import "fmt"

// ClassPrinter is the USB device class code for printer interfaces.
const ClassPrinter = 7

// TransferType is the transfer type of an endpoint.
type TransferType int

const (
	TransferControl TransferType = iota
	TransferIsochronous
	TransferBulk
	TransferInterrupt
)

func (t TransferType) String() string {
	switch t {
	case TransferControl:
		return "control"
	case TransferIsochronous:
		return "isochronous"
	case TransferBulk:
		return "bulk"
	case TransferInterrupt:
		return "interrupt"
	default:
		return fmt.Sprintf("transfer(%d)", int(t))
	}
}

// Direction is the direction of an endpoint, seen from the host.
type Direction int

const (
	DirectionOut Direction = iota
	DirectionIn
)

func (d Direction) String() string {
	if d == DirectionIn {
		return "in"
	}
	return "out"
}

// EndpointDescriptor describes one endpoint of an interface.
type EndpointDescriptor struct {
	Address       int
	Type          TransferType
	Direction     Direction
	MaxPacketSize int
}

// InterfaceDescriptor describes one interface of a device.
type InterfaceDescriptor struct {
	Number    int
	Class     int
	SubClass  int
	Protocol  int
	Endpoints []EndpointDescriptor
}

// DeviceDescriptor is an immutable snapshot of one attached device, taken at
// enumeration time. It is replaced wholesale on the next scan; nothing mutates
// it after creation.
type DeviceDescriptor struct {
	// ID is stable for as long as the device stays plugged in.
	ID         string
	VendorID   uint16
	ProductID  uint16
	Product    string
	Interfaces []InterfaceDescriptor
}

func (d DeviceDescriptor) String() string {
	if d.Product != "" {
		return fmt.Sprintf("%s (%04X:%04X)", d.Product, d.VendorID, d.ProductID)
	}
	return fmt.Sprintf("%04X:%04X", d.VendorID, d.ProductID)
}
