package registry

import (
	"path/filepath"
	"testing"
)

func tempRegistry(t *testing.T) (*Registry, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "registry.json")
	reg, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	return reg, path
}

func TestNew(t *testing.T) {
	reg, _ := tempRegistry(t)
	if reg == nil {
		t.Fatal("Registry is nil")
	}
}

func TestGetPrinterID_USB(t *testing.T) {
	reg, _ := tempRegistry(t)

	info := PrinterInfo{
		Type:        "usb",
		VID:         0x04B8,
		PID:         0x0E15,
		Description: "Epson TM-T20",
	}

	// First call should create new ID
	id1 := reg.GetPrinterID(info)
	if id1 == "" {
		t.Error("Expected non-empty printer ID")
	}

	// Second call with same info should return same ID
	id2 := reg.GetPrinterID(info)
	if id1 != id2 {
		t.Errorf("Expected same ID for same printer: %s != %s", id1, id2)
	}
}

func TestGetPrinterID_Serial(t *testing.T) {
	reg, _ := tempRegistry(t)

	info := PrinterInfo{
		Type:        "serial",
		Device:      "/dev/ttyUSB0",
		Description: "Serial Printer",
	}

	id := reg.GetPrinterID(info)
	if id == "" {
		t.Error("Expected non-empty printer ID")
	}
}

func TestGetPrinterID_DistinctDevices(t *testing.T) {
	reg, _ := tempRegistry(t)

	id1 := reg.GetPrinterID(PrinterInfo{Type: "usb", VID: 0x1111, PID: 0x2222, Description: "A"})
	id2 := reg.GetPrinterID(PrinterInfo{Type: "usb", VID: 0x3333, PID: 0x4444, Description: "B"})

	if id1 == id2 {
		t.Error("Expected distinct IDs for distinct devices")
	}
}

func TestSetAndGetPrinterName(t *testing.T) {
	reg, _ := tempRegistry(t)

	info := PrinterInfo{
		Type:        "usb",
		VID:         0x04B8,
		PID:         0x0E15,
		Description: "Test Printer",
	}

	id := reg.GetPrinterID(info)

	success := reg.SetPrinterName(id, "Caja principal")
	if !success {
		t.Error("Expected successful name set")
	}

	name := reg.GetPrinterName(id)
	if name != "Caja principal" {
		t.Errorf("Expected 'Caja principal', got '%s'", name)
	}
}

func TestGetPrinterInfo(t *testing.T) {
	reg, _ := tempRegistry(t)

	info := PrinterInfo{
		Type:        "usb",
		VID:         0x04B8,
		PID:         0x0E15,
		Description: "Test Printer",
	}

	id := reg.GetPrinterID(info)
	reg.SetPrinterName(id, "Mostrador")

	entry := reg.GetPrinterInfo(id)
	if entry == nil {
		t.Fatal("Expected printer info, got nil")
	}

	if entry.Type != "usb" {
		t.Errorf("Expected type 'usb', got '%s'", entry.Type)
	}
	if entry.VID != 0x04B8 {
		t.Errorf("Expected VID 0x04B8, got 0x%04X", entry.VID)
	}
	if entry.Name != "Mostrador" {
		t.Errorf("Expected name 'Mostrador', got '%s'", entry.Name)
	}
}

func TestRemovePrinter(t *testing.T) {
	reg, _ := tempRegistry(t)

	info := PrinterInfo{
		Type:        "usb",
		VID:         0x1234,
		PID:         0x5678,
		Description: "Test",
	}

	id := reg.GetPrinterID(info)

	success := reg.RemovePrinter(id)
	if !success {
		t.Error("Expected successful removal")
	}

	entry := reg.GetPrinterInfo(id)
	if entry != nil {
		t.Error("Expected nil after removal")
	}
}

func TestPersistence(t *testing.T) {
	reg1, path := tempRegistry(t)

	info := PrinterInfo{
		Type:        "usb",
		VID:         0xAAAA,
		PID:         0xBBBB,
		Description: "Persistent Printer",
	}
	id1 := reg1.GetPrinterID(info)
	reg1.SetPrinterName(id1, "Persistent Name")

	// New registry instance simulating a restart
	reg2, err := New(path)
	if err != nil {
		t.Fatalf("Failed to reload registry: %v", err)
	}

	id2 := reg2.GetPrinterID(info)
	if id1 != id2 {
		t.Errorf("Expected same ID after reload: %s != %s", id1, id2)
	}

	name := reg2.GetPrinterName(id2)
	if name != "Persistent Name" {
		t.Errorf("Expected name to persist, got '%s'", name)
	}
}

func TestGetAll(t *testing.T) {
	reg, _ := tempRegistry(t)

	reg.GetPrinterID(PrinterInfo{Type: "usb", VID: 0x1111, PID: 0x2222, Description: "Printer 1"})
	reg.GetPrinterID(PrinterInfo{Type: "serial", Device: "/dev/tty1", Description: "Printer 2"})

	all := reg.GetAll()
	if len(all) != 2 {
		t.Errorf("Expected 2 printers, got %d", len(all))
	}
}
