package printer

import (
	"sync"

	"github.com/puntoventa/ticket-engine/internal/usb"
)

// Service runs print sessions. One session is one logical operation: select a
// device, resolve its output channel, build the plan, run the transfer engine,
// report a single outcome.
type Service struct {
	host    usb.Host
	engine  *Engine
	variant Variant
	markers []string

	// One mutex per device ID. Concurrent sessions against the same device
	// are not safe, so they are serialized here.
	locks sync.Map
}

// NewService creates a print service over the host with default settings.
func NewService(host usb.Host) *Service {
	return &Service{
		host:    host,
		engine:  NewEngine(host),
		variant: VariantGeneric,
	}
}

// SetVariant selects the encoding variant for subsequent sessions.
func (s *Service) SetVariant(v Variant) { s.variant = v }

// SetNameMarkers overrides the product-name fragments the selector matches.
func (s *Service) SetNameMarkers(markers []string) { s.markers = markers }

// SetTracer installs an event hook on the service and its engine.
func (s *Service) SetTracer(t Tracer) {
	if t == nil {
		t = nopTracer{}
	}
	s.engine.Tracer = t
}

// Print runs a session on its own goroutine so the caller's control path is
// not blocked. onComplete fires exactly once with the terminal outcome.
// Cancellation mid-transfer is not supported: once transmission starts it runs
// to completion or failure.
func (s *Service) Print(text string, devices []usb.DeviceDescriptor, onComplete func(success bool, message string)) {
	var once sync.Once
	complete := func(o Outcome) {
		once.Do(func() {
			if onComplete != nil {
				onComplete(o.Success, o.Message)
			}
		})
	}

	go func() {
		complete(s.PrintSync(text, devices))
	}()
}

// PrintSync runs a session on the calling goroutine and returns its outcome.
func (s *Service) PrintSync(text string, devices []usb.DeviceDescriptor) Outcome {
	if len(devices) == 0 {
		s.engine.Tracer.Trace(Event{Stage: "select", Err: ErrNoDevices})
		return Outcome{Success: false, Message: msgNoDevices}
	}

	dev, ok := SelectPrinter(devices, s.markers)
	if !ok {
		s.engine.Tracer.Trace(Event{Stage: "select", Err: ErrNoDevices})
		return Outcome{Success: false, Message: msgNoDevices}
	}

	// Resolution failures never touch the device: no open is attempted.
	iface, ep, ok := ResolveBulkOut(dev)
	if !ok {
		s.engine.Tracer.Trace(Event{Stage: "resolve", Device: dev.ID, Err: ErrNoCompatibleInterface})
		return Outcome{Success: false, Message: msgNoInterface}
	}

	if !s.host.HasPermission(dev) {
		s.engine.Tracer.Trace(Event{Stage: "open", Device: dev.ID, Message: "permission denied"})
		return Outcome{Success: false, Message: msgNoPermission}
	}

	plan := BuildPlan(text, s.variant)

	lock := s.deviceLock(dev.ID)
	lock.Lock()
	defer lock.Unlock()

	return s.engine.Run(dev, iface, ep, plan)
}

func (s *Service) deviceLock(id string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}
