package printer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/puntoventa/ticket-engine/internal/usb"
)

// initFrames is the number of best-effort transfers before the plan starts:
// reset, line spacing, charset.
const initFrames = 3

func newTestEngine(host usb.Host) *Engine {
	e := NewEngine(host)
	e.Timing = Timing{} // no sleeps in tests
	return e
}

func testTarget() (usb.DeviceDescriptor, usb.InterfaceDescriptor, usb.EndpointDescriptor) {
	dev := printerClassDevice("dev-1")
	iface, ep, _ := ResolveBulkOut(dev)
	return dev, iface, ep
}

func TestEngineRun_AllFramesSucceed(t *testing.T) {
	conn := &fakeConn{}
	host := &fakeHost{conn: conn}
	dev, iface, ep := testTarget()
	plan := BuildPlan("hola mundo", VariantGeneric)

	outcome := newTestEngine(host).Run(dev, iface, ep, plan)

	if !outcome.Success {
		t.Fatalf("expected success, got failure: %s", outcome.Message)
	}
	if outcome.Message != "Impresión completada correctamente" {
		t.Errorf("unexpected message: %q", outcome.Message)
	}
	if got := len(conn.transfers); got != initFrames+len(plan) {
		t.Errorf("expected %d transfers, got %d", initFrames+len(plan), got)
	}
	if !conn.released || !conn.closed {
		t.Error("connection must be released and closed after success")
	}
}

func TestEngineRun_FrameOrder(t *testing.T) {
	conn := &fakeConn{}
	host := &fakeHost{conn: conn}
	dev, iface, ep := testTarget()
	plan := BuildPlan(strings.Repeat("x", 100), VariantNarrow)

	newTestEngine(host).Run(dev, iface, ep, plan)

	sent := conn.transfers[initFrames:]
	if len(sent) != len(plan) {
		t.Fatalf("expected %d plan transfers, got %d", len(plan), len(sent))
	}
	for i, frame := range plan {
		if !bytes.Equal(sent[i], frame.Data) {
			t.Fatalf("frame %d sent out of order", i)
		}
	}
}

func TestEngineRun_OpenFailure(t *testing.T) {
	host := &fakeHost{openErr: errors.New("device busy")}
	dev, iface, ep := testTarget()

	outcome := newTestEngine(host).Run(dev, iface, ep, BuildPlan("x", VariantGeneric))

	if outcome.Success {
		t.Fatal("expected failure when open fails")
	}
	if outcome.Message != msgOpenFailed {
		t.Errorf("unexpected message: %q", outcome.Message)
	}
}

func TestEngineRun_ClaimFailureClosesConnection(t *testing.T) {
	conn := &fakeConn{claimErr: errors.New("interface busy")}
	host := &fakeHost{conn: conn}
	dev, iface, ep := testTarget()

	outcome := newTestEngine(host).Run(dev, iface, ep, BuildPlan("x", VariantGeneric))

	if outcome.Success {
		t.Fatal("expected failure when claim fails")
	}
	if outcome.Message != msgClaimFailed {
		t.Errorf("unexpected message: %q", outcome.Message)
	}
	if !conn.closed {
		t.Error("connection must be closed when claim fails")
	}
	if len(conn.transfers) != 0 {
		t.Error("no transfers may happen without a claimed interface")
	}
}

func TestEngineRun_InitFailuresAreSwallowed(t *testing.T) {
	conn := &fakeConn{
		transferErr: func(call int) error {
			if call < initFrames {
				return errors.New("init not acknowledged")
			}
			return nil
		},
	}
	host := &fakeHost{conn: conn}
	dev, iface, ep := testTarget()

	outcome := newTestEngine(host).Run(dev, iface, ep, BuildPlan("x", VariantGeneric))

	if !outcome.Success || outcome.Message != msgDone {
		t.Errorf("init failures must not affect the outcome, got %+v", outcome)
	}
}

func TestEngineRun_PartialFailure(t *testing.T) {
	// 10 plan frames, 2 fail: still a success, with a distinct message.
	plan := BuildPlan(strings.Repeat("a", 64*5), VariantGeneric) // 5 chunks + 5 fixed = 10
	if len(plan) != 10 {
		t.Fatalf("test setup: expected 10 frames, got %d", len(plan))
	}

	failing := map[int]bool{initFrames + 4: true, initFrames + 7: true}
	conn := &fakeConn{
		transferErr: func(call int) error {
			if failing[call] {
				return errors.New("timeout")
			}
			return nil
		},
	}
	host := &fakeHost{conn: conn}
	dev, iface, ep := testTarget()

	outcome := newTestEngine(host).Run(dev, iface, ep, plan)

	if !outcome.Success {
		t.Fatal("partial failure must still report success")
	}
	if outcome.Message == msgDone {
		t.Error("partial failure must use a distinct message")
	}
	if !strings.Contains(outcome.Message, "2") {
		t.Errorf("partial message must carry the failure count, got %q", outcome.Message)
	}
	// The loop must not abort: every frame was attempted.
	if got := len(conn.transfers); got != initFrames+len(plan) {
		t.Errorf("expected %d transfers, got %d", initFrames+len(plan), got)
	}
}

func TestEngineRun_AllFramesFail(t *testing.T) {
	conn := &fakeConn{
		transferErr: func(call int) error { return errors.New("timeout") },
	}
	host := &fakeHost{conn: conn}
	dev, iface, ep := testTarget()

	outcome := newTestEngine(host).Run(dev, iface, ep, BuildPlan("x", VariantGeneric))

	if outcome.Success {
		t.Fatal("expected failure when every frame fails")
	}
	if outcome.Message != msgAllFailed {
		t.Errorf("unexpected message: %q", outcome.Message)
	}
	if !conn.released || !conn.closed {
		t.Error("connection must be released and closed after total failure")
	}
}

func TestEngineRun_DeviceGoneIsFatal(t *testing.T) {
	conn := &fakeConn{
		transferErr: func(call int) error {
			if call == initFrames+1 {
				return fmt.Errorf("transfer: %w", usb.ErrDeviceGone)
			}
			return nil
		},
	}
	host := &fakeHost{conn: conn}
	dev, iface, ep := testTarget()
	plan := BuildPlan(strings.Repeat("a", 64*3), VariantGeneric)

	outcome := newTestEngine(host).Run(dev, iface, ep, plan)

	if outcome.Success {
		t.Fatal("a vanished device must fail the session")
	}
	if got := len(conn.transfers); got >= initFrames+len(plan) {
		t.Error("the loop must short-circuit on a device fault")
	}
	if !conn.released || !conn.closed {
		t.Error("release must still run after a device fault")
	}
}
