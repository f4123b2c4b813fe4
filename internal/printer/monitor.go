package printer

import (
	"context"
	"log"
	"time"
)

// Monitor re-scans for printers on an interval and fires the manager's
// added/removed callbacks on changes.
type Monitor struct {
	manager  *Manager
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewMonitor creates a monitor over the manager.
func NewMonitor(manager *Manager, interval time.Duration) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Monitor{
		manager:  manager,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins monitoring for printer changes.
func (m *Monitor) Start() {
	previous := make(map[string]*Printer)

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.checkChanges(previous)
			}
		}
	}()
}

// Stop stops the monitor.
func (m *Monitor) Stop() {
	m.cancel()
}

func (m *Monitor) checkChanges(previous map[string]*Printer) {
	current, err := m.manager.DetectPrinters()
	if err != nil {
		log.Printf("printer detection failed: %v", err)
		return
	}

	currentMap := make(map[string]*Printer)
	for _, p := range current {
		currentMap[p.ID] = p
	}

	for id, printer := range currentMap {
		if _, exists := previous[id]; !exists {
			if m.manager.onPrinterAdded != nil {
				m.manager.onPrinterAdded(printer)
			}
		}
	}

	for id := range previous {
		if _, exists := currentMap[id]; !exists {
			if m.manager.onPrinterRemoved != nil {
				m.manager.onPrinterRemoved(id)
			}
		}
	}

	for id := range previous {
		delete(previous, id)
	}
	for id, p := range currentMap {
		previous[id] = p
	}
}
