package printer

import "github.com/puntoventa/ticket-engine/internal/usb"

// ResolveBulkOut walks a device's descriptors looking for a usable output
// channel. Search order, first success wins:
//
//  1. a printer-class interface owning a bulk-OUT endpoint,
//  2. any interface with a bulk-OUT endpoint,
//  3. any interface with any OUT endpoint,
//  4. interface 0, endpoint 0, if they exist.
//
// The ladder exists because real and virtual printers routinely misreport
// their descriptors; resolution fails only when the device exposes no
// interfaces at all, or the fallback interface has no endpoints.
func ResolveBulkOut(dev usb.DeviceDescriptor) (usb.InterfaceDescriptor, usb.EndpointDescriptor, bool) {
	for _, iface := range dev.Interfaces {
		if iface.Class != usb.ClassPrinter {
			continue
		}
		if ep, ok := findEndpoint(iface, true); ok {
			return iface, ep, true
		}
	}

	for _, iface := range dev.Interfaces {
		if ep, ok := findEndpoint(iface, true); ok {
			return iface, ep, true
		}
	}

	for _, iface := range dev.Interfaces {
		if ep, ok := findEndpoint(iface, false); ok {
			return iface, ep, true
		}
	}

	if len(dev.Interfaces) > 0 && len(dev.Interfaces[0].Endpoints) > 0 {
		return dev.Interfaces[0], dev.Interfaces[0].Endpoints[0], true
	}

	return usb.InterfaceDescriptor{}, usb.EndpointDescriptor{}, false
}

// findEndpoint returns the first OUT endpoint of the interface, bulk-only when
// requested.
func findEndpoint(iface usb.InterfaceDescriptor, bulkOnly bool) (usb.EndpointDescriptor, bool) {
	for _, ep := range iface.Endpoints {
		if ep.Direction != usb.DirectionOut {
			continue
		}
		if bulkOnly && ep.Type != usb.TransferBulk {
			continue
		}
		return ep, true
	}
	return usb.EndpointDescriptor{}, false
}
