package printer

import (
	"errors"
	"fmt"
	"time"

	"github.com/puntoventa/ticket-engine/internal/usb"
)

// State is the transfer engine's position in one print session.
type State int

const (
	StateIdle State = iota
	StateOpened
	StateInterfaceClaimed
	StateInitializing
	StateTransmitting
	StateReleased
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpened:
		return "opened"
	case StateInterfaceClaimed:
		return "claimed"
	case StateInitializing:
		return "initializing"
	case StateTransmitting:
		return "transmitting"
	case StateReleased:
		return "released"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Timing groups the timeout and delay budget of a session. Reset gets a
// larger budget than the other init commands; payload frames get the largest.
// The settle delays give a slow printer time to drain its buffer before the
// next frame arrives.
type Timing struct {
	ResetTimeout time.Duration
	InitTimeout  time.Duration
	FrameTimeout time.Duration
	SettleDelay  time.Duration
	FrameDelay   time.Duration
}

// DefaultTiming matches the budgets thermal boards are known to tolerate.
var DefaultTiming = Timing{
	ResetTimeout: 2000 * time.Millisecond,
	InitTimeout:  1000 * time.Millisecond,
	FrameTimeout: 5000 * time.Millisecond,
	SettleDelay:  300 * time.Millisecond,
	FrameDelay:   300 * time.Millisecond,
}

// Outcome is the single terminal result of a print session.
type Outcome struct {
	Success bool
	Message string
}

// Engine drives one command plan over a bulk-OUT endpoint: open, claim,
// best-effort init, per-frame transmit with tally, guaranteed release.
type Engine struct {
	Host   usb.Host
	Timing Timing
	Tracer Tracer
}

// NewEngine creates an engine with default timing and a discarding tracer.
func NewEngine(host usb.Host) *Engine {
	return &Engine{
		Host:   host,
		Timing: DefaultTiming,
		Tracer: nopTracer{},
	}
}

// Run executes the plan against the device. It always returns a terminal
// outcome and always releases the interface and connection, however the
// transmission ends. Frames go out strictly in order: the protocol has no
// frame identifiers, so ordering is correctness.
func (e *Engine) Run(dev usb.DeviceDescriptor, iface usb.InterfaceDescriptor, ep usb.EndpointDescriptor, plan []Frame) Outcome {
	state := StateIdle

	conn, err := e.Host.Open(dev)
	if err != nil {
		e.Tracer.Trace(Event{Stage: state.String(), Device: dev.ID, Message: "open failed", Err: fmt.Errorf("%w: %v", ErrConnectionFailed, err)})
		return Outcome{Success: false, Message: msgOpenFailed}
	}
	state = StateOpened

	if err := conn.ClaimInterface(iface, true); err != nil {
		e.Tracer.Trace(Event{Stage: state.String(), Device: dev.ID, Message: "claim failed", Err: fmt.Errorf("%w: %v", ErrInterfaceClaimFailed, err)})
		conn.Close()
		return Outcome{Success: false, Message: msgClaimFailed}
	}
	state = StateInterfaceClaimed

	defer func() {
		// Release on every path, success or failure.
		if err := conn.ReleaseInterface(iface); err != nil {
			e.Tracer.Trace(Event{Stage: StateReleased.String(), Device: dev.ID, Err: err})
		}
		if err := conn.Close(); err != nil {
			e.Tracer.Trace(Event{Stage: StateReleased.String(), Device: dev.ID, Err: err})
		}
	}()

	state = StateInitializing
	e.initialize(conn, dev, ep, state)

	state = StateTransmitting
	var sent, failed int
	for i, frame := range plan {
		_, err := conn.BulkTransfer(ep, frame.Data, e.Timing.FrameTimeout)
		if err != nil {
			if errors.Is(err, usb.ErrDeviceGone) {
				// Fatal: the device vanished mid-session. The deferred
				// release still runs.
				e.Tracer.Trace(Event{Stage: state.String(), Device: dev.ID, Frame: i, Err: fmt.Errorf("%w: %v", ErrDeviceFault, err)})
				return Outcome{Success: false, Message: fmt.Sprintf(msgFaultFormat, err)}
			}
			// Non-fatal: tally and keep sending. ESC/POS has no
			// application-level acknowledgement, so partial delivery is a
			// valid terminal state.
			failed++
			e.Tracer.Trace(Event{Stage: state.String(), Device: dev.ID, Frame: i, Message: frame.Kind.String(), Err: fmt.Errorf("%w: %v", ErrFrameTransmitFailed, err)})
		} else {
			sent++
		}
		time.Sleep(e.Timing.FrameDelay)
	}

	switch {
	case failed == 0:
		return Outcome{Success: true, Message: msgDone}
	case sent > 0:
		// Content likely printed but not guaranteed complete.
		return Outcome{Success: true, Message: fmt.Sprintf(msgPartialFormat, failed)}
	default:
		return Outcome{Success: false, Message: msgAllFailed}
	}
}

// initialize sends the reset, line-spacing, and charset frames. Failures here
// are traced and swallowed: some printers never acknowledge init frames yet
// print correctly, so init is best-effort rather than fatal.
func (e *Engine) initialize(conn usb.Connection, dev usb.DeviceDescriptor, ep usb.EndpointDescriptor, state State) {
	if _, err := conn.BulkTransfer(ep, cmdReset, e.Timing.ResetTimeout); err != nil {
		e.Tracer.Trace(Event{Stage: state.String(), Device: dev.ID, Message: "reset ignored", Err: err})
	}
	time.Sleep(e.Timing.SettleDelay)

	for _, cmd := range [][]byte{cmdLineSpacing, cmdCharsetPC437} {
		if _, err := conn.BulkTransfer(ep, cmd, e.Timing.InitTimeout); err != nil {
			e.Tracer.Trace(Event{Stage: state.String(), Device: dev.ID, Message: "init command ignored", Err: err})
		}
	}
	time.Sleep(e.Timing.SettleDelay)
}
