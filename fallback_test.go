package evlayer

import (
	"testing"

	"github.com/nullptr-dev/evlayer/accel"
	"github.com/nullptr-dev/evlayer/fixed"
	"github.com/nullptr-dev/evlayer/levent"
	"github.com/nullptr-dev/evlayer/linux/input"
	"github.com/nullptr-dev/evlayer/ring"
)

type fakeHost struct {
	width, height int
}

func (h *fakeHost) OpenPath(path string, flags int) (uintptr, error) { return 0, nil }
func (h *fakeHost) CloseFD(fd uintptr)                                {}
func (h *fakeHost) ScreenDimensions(dev *Device) (int, int) {
	return h.width, h.height
}

func newTestDevice(t *testing.T) *Device {
	t.Helper()

	var ctx = &Context{ring: ring.New(4), host: &fakeHost{width: 1000, height: 1000}}

	return &Device{refs: 1, ctx: ctx, calibration: IdentityCalibration(), accel: accel.NewFilter()}
}

func TestFallbackCoalescesRelativeMotion(t *testing.T) {
	var (
		dev = newTestDevice(t)
		f   = newFallbackDispatch(dev)
	)

	f.Process(input.Event{Type: input.EV_REL, Code: input.REL_X, Value: 3}, 0)
	f.Process(input.Event{Type: input.EV_REL, Code: input.REL_Y, Value: -2}, 0)
	f.Process(input.Event{Type: input.EV_SYN, Code: input.SYN_REPORT}, 0)

	item, ok := dev.ctx.ring.Get()
	if !ok {
		t.Fatal("no event posted")
	}

	e := item.Value.(*levent.Event)
	if e.Kind != levent.PointerMotion {
		t.Fatalf("Kind = %v, want PointerMotion", e.Kind)
	}

	if _, ok = dev.ctx.ring.Get(); ok {
		t.Error("second event posted, want exactly one coalesced motion event")
	}
}

// TestFallbackAppliesPointerAcceleration verifies the flush path runs
// coalesced relative motion through the device's accelerator instead of
// posting it raw. With no velocity history yet (the very first sample
// an accelerator ever sees), the penumbral-gradient profile evaluates
// to exactly zero at velocity 0, so the very first motion an
// accelerator processes is flushed as a zero vector rather than the
// raw (3, -2) fed into it.
func TestFallbackAppliesPointerAcceleration(t *testing.T) {
	var (
		dev = newTestDevice(t)
		f   = newFallbackDispatch(dev)
	)

	f.Process(input.Event{Type: input.EV_REL, Code: input.REL_X, Value: 3}, 0)
	f.Process(input.Event{Type: input.EV_REL, Code: input.REL_Y, Value: -2}, 0)
	f.Process(input.Event{Type: input.EV_SYN, Code: input.SYN_REPORT}, 0)

	item, ok := dev.ctx.ring.Get()
	if !ok {
		t.Fatal("no event posted")
	}

	e := item.Value.(*levent.Event)
	if e.DX == fixed.FromInt(3) && e.DY == fixed.FromInt(-2) {
		t.Error("DX,DY passed through unscaled, want the accelerator's factor applied")
	}
	if e.DX != 0 || e.DY != 0 {
		t.Errorf("DX,DY = %v,%v, want 0,0 (zero-velocity cold start)", e.DX.Float(), e.DY.Float())
	}
}

func TestFallbackWheelSign(t *testing.T) {
	var (
		dev = newTestDevice(t)
		f   = newFallbackDispatch(dev)
	)

	f.Process(input.Event{Type: input.EV_REL, Code: input.REL_WHEEL, Value: 1}, 0)

	item, ok := dev.ctx.ring.Get()
	if !ok {
		t.Fatal("no event posted")
	}

	e := item.Value.(*levent.Event)
	if e.Kind != levent.PointerAxis || e.Axis != levent.AxisVertical {
		t.Fatalf("Kind/Axis = %v/%v, want PointerAxis/AxisVertical", e.Kind, e.Axis)
	}
	if e.AxisValue != fixed.FromInt(-10) {
		t.Errorf("AxisValue = %v, want -10", e.AxisValue.Float())
	}
}

func TestFallbackFiltersKernelAutorepeat(t *testing.T) {
	var (
		dev = newTestDevice(t)
		f   = newFallbackDispatch(dev)
	)

	f.Process(input.Event{Type: input.EV_KEY, Code: input.KEY_A, Value: 1}, 0)
	dev.ctx.ring.Get()

	f.Process(input.Event{Type: input.EV_KEY, Code: input.KEY_A, Value: 2}, 0)

	if dev.ctx.ring.Len() != 0 {
		t.Error("autorepeat (value=2) produced a logical event")
	}
}

func TestFallbackMouseButtonVsKey(t *testing.T) {
	var (
		dev = newTestDevice(t)
		f   = newFallbackDispatch(dev)
	)

	f.Process(input.Event{Type: input.EV_KEY, Code: input.BTN_LEFT, Value: 1}, 0)

	item, ok := dev.ctx.ring.Get()
	if !ok {
		t.Fatal("no event posted")
	}

	e := item.Value.(*levent.Event)
	if e.Kind != levent.PointerButton {
		t.Fatalf("Kind = %v, want PointerButton", e.Kind)
	}
	if e.ButtonState != levent.ButtonPressed {
		t.Error("ButtonState not pressed")
	}
}

func TestFallbackMTTouchDownMotionUp(t *testing.T) {
	var (
		dev = newTestDevice(t)
		f   = newFallbackDispatch(dev)
	)

	dev.isMT = true
	dev.slots = make([]MTSlot, 1)
	dev.slots[0].TrackingID = -1
	dev.absRanges = map[uint16]input.AbsInfo{
		input.ABS_MT_POSITION_X: {Minimum: 0, Maximum: 1000},
		input.ABS_MT_POSITION_Y: {Minimum: 0, Maximum: 1000},
	}

	f.Process(input.Event{Type: input.EV_ABS, Code: input.ABS_MT_SLOT, Value: 0}, 0)
	f.Process(input.Event{Type: input.EV_ABS, Code: input.ABS_MT_TRACKING_ID, Value: 7}, 0)
	f.Process(input.Event{Type: input.EV_ABS, Code: input.ABS_MT_POSITION_X, Value: 500}, 0)
	f.Process(input.Event{Type: input.EV_ABS, Code: input.ABS_MT_POSITION_Y, Value: 500}, 0)
	f.Process(input.Event{Type: input.EV_SYN, Code: input.SYN_REPORT}, 0)

	item, ok := dev.ctx.ring.Get()
	if !ok {
		t.Fatal("no touch-down event posted")
	}

	e := item.Value.(*levent.Event)
	if e.Kind != levent.TouchDown {
		t.Fatalf("Kind = %v, want TouchDown", e.Kind)
	}
	if e.X.Int() != 500 || e.Y.Int() != 500 {
		t.Errorf("X,Y = %d,%d, want 500,500", e.X.Int(), e.Y.Int())
	}

	f.Process(input.Event{Type: input.EV_ABS, Code: input.ABS_MT_TRACKING_ID, Value: -1}, 0)
	f.Process(input.Event{Type: input.EV_SYN, Code: input.SYN_REPORT}, 0)

	item, ok = dev.ctx.ring.Get()
	if !ok {
		t.Fatal("no touch-up event posted")
	}

	e = item.Value.(*levent.Event)
	if e.Kind != levent.TouchUp {
		t.Fatalf("Kind = %v, want TouchUp", e.Kind)
	}
}
