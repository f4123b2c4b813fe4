package printer

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/puntoventa/ticket-engine/internal/registry"
	"github.com/tarm/serial"
)

const defaultBaud = 9600 // default for most thermal printers

// detectSerial scans the platform's serial device namespace and keeps every
// port that can be opened.
func (m *Manager) detectSerial() []*Printer {
	var printers []*Printer

	for _, portPath := range scanSerialPorts() {
		// Open briefly to verify the port exists and is free.
		port, err := serial.OpenPort(&serial.Config{Name: portPath, Baud: defaultBaud})
		if err != nil {
			continue
		}
		port.Close()

		description := fmt.Sprintf("Serial: %s", filepath.Base(portPath))

		info := registry.PrinterInfo{
			Type:        "serial",
			Device:      portPath,
			Description: description,
		}
		id := m.registry.GetPrinterID(info)

		printers = append(printers, &Printer{
			ID:          id,
			Type:        "serial",
			Description: description,
			Device:      portPath,
			Name:        m.registry.GetPrinterName(id),
		})
	}

	return printers
}

func scanSerialPorts() []string {
	var ports []string

	switch runtime.GOOS {
	case "darwin":
		skipPatterns := []string{"Bluetooth", "Modem", "SPP", "DialIn", "Callout", "KeySerial", "debug-console"}

		cuPorts, _ := filepath.Glob("/dev/cu.*")
		ttyPorts, _ := filepath.Glob("/dev/tty.*")

		for _, port := range append(cuPorts, ttyPorts...) {
			skip := false
			for _, pattern := range skipPatterns {
				if strings.Contains(port, pattern) {
					skip = true
					break
				}
			}
			if !skip {
				ports = append(ports, port)
			}
		}

	case "linux":
		usbPorts, _ := filepath.Glob("/dev/ttyUSB*")
		acmPorts, _ := filepath.Glob("/dev/ttyACM*")
		ports = append(ports, usbPorts...)
		ports = append(ports, acmPorts...)

	case "windows":
		for i := 1; i <= 256; i++ {
			ports = append(ports, fmt.Sprintf("COM%d", i))
		}
	}

	return ports
}

// printSerial replays a command plan to a serial port. The port has hardware
// flow control, so the plan goes out as one ordered byte stream without the
// USB engine's per-frame pacing.
func printSerial(device string, plan []Frame) error {
	port, err := serial.OpenPort(&serial.Config{Name: device, Baud: defaultBaud})
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	defer port.Close()

	if _, err := port.Write(PlanBytes(plan)); err != nil {
		return fmt.Errorf("failed to write to serial printer: %w", err)
	}

	return nil
}
