package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/puntoventa/ticket-engine/internal/api"
	"github.com/puntoventa/ticket-engine/internal/printer"
	"github.com/puntoventa/ticket-engine/internal/usb"
)

// Version is set during build via ldflags
var Version = "dev"

func main() {
	port := getPort()
	registryPath := getRegistryPath()

	host := usb.NewLibusbHost()
	defer host.Close()

	manager, err := printer.NewManager(host, registryPath)
	if err != nil {
		log.Fatalf("Failed to create printer manager: %v", err)
	}

	printers, err := manager.DetectPrinters()
	if err != nil {
		log.Printf("Warning: printer detection failed: %v", err)
	} else {
		log.Printf("Found %d printer(s)", len(printers))
	}

	service := printer.NewService(host)
	service.SetTracer(printer.LogTracer{})

	// Queue with 3 attempts per job
	queue := printer.NewPrintQueue(service, manager, 3)
	defer queue.Stop()

	if os.Getenv("PRINTER_VARIANT") == "narrow" {
		service.SetVariant(printer.VariantNarrow)
		queue.SetVariant(printer.VariantNarrow)
	}

	server := api.NewServer(manager, queue)

	manager.OnPrinterAdded(func(p *printer.Printer) {
		name := p.Description
		if p.Name != "" {
			name = p.Name
		}
		log.Printf("Printer connected: %s", name)
		server.BroadcastPrinterAdded(p)
	})

	manager.OnPrinterRemoved(func(id string) {
		log.Printf("Printer disconnected: %s", id)
		server.BroadcastPrinterRemoved(id)
	})

	queue.OnJobUpdate(func(job *printer.PrintJob) {
		server.BroadcastJobUpdate(job)
	})

	monitor := printer.NewMonitor(manager, 2*time.Second)
	monitor.Start()
	defer monitor.Stop()

	serverErrChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("0.0.0.0:%s", port)
		log.Printf("Ticket engine %s listening on %s", Version, addr)
		if err := server.Run(addr); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		log.Fatalf("Server error: %v", err)
	case <-sigChan:
		log.Println("Shutting down...")
	}
}

func getPort() string {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		return port
	}

	for i, arg := range os.Args {
		if arg == "--port" && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
	}

	return "12212"
}

// getRegistryPath returns the path to the printer registry file.
// It tries to place it next to the executable, or falls back to current directory.
func getRegistryPath() string {
	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		registryPath := filepath.Join(exeDir, "printer_registry.json")

		if info, err := os.Stat(exeDir); err == nil && info.IsDir() {
			testFile := filepath.Join(exeDir, ".ticket-engine-write-test")
			if f, err := os.Create(testFile); err == nil {
				f.Close()
				os.Remove(testFile)
				return registryPath
			}
		}
	}

	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "printer_registry.json")
	}

	var configDir string
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			configDir = filepath.Join(appData, "ticket-engine")
		} else {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "ticket-engine")
		}
	} else {
		if home := os.Getenv("HOME"); home != "" {
			configDir = filepath.Join(home, ".config", "ticket-engine")
		}
	}

	if configDir != "" {
		os.MkdirAll(configDir, 0755)
		return filepath.Join(configDir, "printer_registry.json")
	}

	return "printer_registry.json"
}
