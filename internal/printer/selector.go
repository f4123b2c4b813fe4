package printer

import (
	"strings"

	"github.com/puntoventa/ticket-engine/internal/usb"
)

// DefaultNameMarkers are the product-name fragments that mark a device as a
// printer when it misreports its interface class: a generic marker plus the
// model marker of the common 58mm boards.
var DefaultNameMarkers = []string{"printer", "pos58"}

// SelectPrinter picks the best printer candidate from an enumeration snapshot.
// Priority is strict and the first match wins:
//
//  1. a device exposing an interface with the printer class code,
//  2. a device whose product name contains one of the markers
//     (case-insensitive),
//  3. the first device in the list.
//
// The class match is authoritative; the name match covers devices that
// misreport their class; the first-device fallback is best effort. An empty
// list selects nothing.
func SelectPrinter(devices []usb.DeviceDescriptor, markers []string) (usb.DeviceDescriptor, bool) {
	if len(markers) == 0 {
		markers = DefaultNameMarkers
	}

	for _, dev := range devices {
		if hasPrinterClass(dev) {
			return dev, true
		}
	}

	for _, dev := range devices {
		if hasNameMarker(dev, markers) {
			return dev, true
		}
	}

	if len(devices) > 0 {
		return devices[0], true
	}
	return usb.DeviceDescriptor{}, false
}

func hasNameMarker(dev usb.DeviceDescriptor, markers []string) bool {
	name := strings.ToLower(dev.Product)
	for _, marker := range markers {
		if strings.Contains(name, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

func hasPrinterClass(dev usb.DeviceDescriptor) bool {
	for _, iface := range dev.Interfaces {
		if iface.Class == usb.ClassPrinter {
			return true
		}
	}
	return false
}
