package evlayer

import (
	"github.com/nullptr-dev/evlayer/fixed"
	"github.com/nullptr-dev/evlayer/levent"
	"github.com/nullptr-dev/evlayer/linux/input"
)

// fallbackDispatch decodes EV_REL/EV_ABS/EV_KEY/EV_SYN into logical
// events for mice, keyboards and absolute-coordinate touchscreens. It
// coalesces a frame's kernel events into exactly one pending event per
// semantic kind and flushes on SYN_REPORT.
type fallbackDispatch struct {
	dev *Device
}

func newFallbackDispatch(dev *Device) *fallbackDispatch {
	return &fallbackDispatch{dev: dev}
}

func (f *fallbackDispatch) Process(ev input.Event, timeMS uint32) {
	var dev = f.dev

	switch {
	case ev.Type == input.EV_REL && (ev.Code == input.REL_X || ev.Code == input.REL_Y):
		if dev.pending != pendingRelativeMotion {
			f.flush(timeMS)
		}

		if ev.Code == input.REL_X {
			dev.pendDX += fixed.FromInt(ev.Value)
		} else {
			dev.pendDY += fixed.FromInt(ev.Value)
		}

		dev.pending = pendingRelativeMotion

	case ev.Type == input.EV_REL && ev.Code == input.REL_WHEEL:
		f.flush(timeMS)
		f.emitAxis(levent.AxisVertical, sign(ev.Value)*-10, timeMS)

	case ev.Type == input.EV_REL && ev.Code == input.REL_HWHEEL:
		f.flush(timeMS)
		f.emitAxis(levent.AxisHorizontal, sign(ev.Value)*10, timeMS)

	case ev.Type == input.EV_ABS && ev.Code == input.ABS_MT_SLOT:
		f.flush(timeMS)
		dev.setCurrentSlot(int(ev.Value))

	case ev.Type == input.EV_ABS && ev.Code == input.ABS_MT_TRACKING_ID:
		if dev.pending != pendingAbsoluteMotion {
			f.flush(timeMS)
		}

		if ev.Value >= 0 {
			dev.pending = pendingMTDown
		} else {
			dev.pending = pendingMTUp
		}

		dev.setSlotTrackingID(ev.Value)

	case ev.Type == input.EV_ABS && (ev.Code == input.ABS_MT_POSITION_X || ev.Code == input.ABS_MT_POSITION_Y):
		dev.setSlotPosition(ev.Code == input.ABS_MT_POSITION_Y, ev.Value)

		if dev.pending == pendingNone {
			dev.pending = pendingMTMotion
		}

	case ev.Type == input.EV_ABS && (ev.Code == input.ABS_X || ev.Code == input.ABS_Y):
		dev.setAbsolutePosition(ev.Code == input.ABS_Y, ev.Value)
		dev.pending = pendingAbsoluteMotion

	case ev.Type == input.EV_KEY && ev.Code == input.BTN_TOUCH && dev.caps.Has(CapTouch) && !dev.isMT:
		if dev.pending != pendingAbsoluteMotion {
			f.flush(timeMS)
		}

		if ev.Value != 0 {
			dev.pending = pendingAbsoluteTouchDown
		} else {
			dev.pending = pendingAbsoluteTouchUp
		}

	case ev.Type == input.EV_KEY:
		if ev.Value == 2 {
			return
		}

		f.flush(timeMS)
		f.emitKeyOrButton(ev, timeMS)

	case ev.Type == input.EV_SYN && ev.Code == input.SYN_REPORT:
		f.flush(timeMS)
	}
}

// sign returns -1, 0 or 1.
func sign(v int32) fixed.Q24_8 {
	switch {
	case v > 0:
		return fixed.FromInt(1)
	case v < 0:
		return fixed.FromInt(-1)
	default:
		return 0
	}
}

func (f *fallbackDispatch) emitAxis(axis levent.Axis, value fixed.Q24_8, timeMS uint32) {
	var (
		dev = f.dev
		e   = levent.New(levent.PointerAxis, dev, timeMS)
	)

	e.Axis = axis
	e.AxisValue = value
	dev.ctx.post(e)
}

func (f *fallbackDispatch) emitKeyOrButton(ev input.Event, timeMS uint32) {
	var (
		dev   = f.dev
		state levent.ButtonState
	)

	if ev.Value != 0 {
		state = levent.ButtonPressed
	}

	if isMouseButton(ev.Code) {
		var e = levent.New(levent.PointerButton, dev, timeMS)

		e.Button = ev.Code
		e.ButtonState = state
		dev.ctx.post(e)

		return
	}

	var (
		e        = levent.New(levent.Key, dev, timeMS)
		keyState = levent.KeyReleased
	)

	if ev.Value != 0 {
		keyState = levent.KeyPressed
	}

	e.Key = ev.Code
	e.KeyState = keyState
	dev.ctx.post(e)

	if dev.keyListener != nil {
		dev.keyListener(timeMS)
	}
}

func isMouseButton(code uint16) bool {
	return code >= input.BTN_LEFT && code <= input.BTN_TASK
}

// flush emits the event matching the current pending kind, then
// resets pending state to none.
func (f *fallbackDispatch) flush(timeMS uint32) {
	var dev = f.dev

	switch dev.pending {
	case pendingRelativeMotion:
		var e = levent.New(levent.PointerMotion, dev, timeMS)

		e.DX, e.DY = dev.accel.Apply(dev.pendDX, dev.pendDY, timeMS)
		dev.ctx.post(e)
		dev.pendDX, dev.pendDY = 0, 0

	case pendingAbsoluteMotion:
		f.emitAbsoluteMotion(timeMS)

	case pendingAbsoluteTouchDown:
		f.emitTouch(levent.TouchDown, 0, timeMS)

	case pendingAbsoluteTouchUp:
		f.emitTouch(levent.TouchUp, 0, timeMS)

	case pendingMTDown:
		f.emitTouch(levent.TouchDown, dev.currentSlot, timeMS)

	case pendingMTMotion:
		f.emitTouch(levent.TouchMotion, dev.currentSlot, timeMS)

	case pendingMTUp:
		f.emitTouch(levent.TouchUp, dev.currentSlot, timeMS)
	}

	dev.pending = pendingNone
}

func (f *fallbackDispatch) emitAbsoluteMotion(timeMS uint32) {
	var (
		dev  = f.dev
		x, y = dev.scaleAbsolute()
		e    = levent.New(levent.PointerMotionAbsolute, dev, timeMS)
	)

	e.X, e.Y = x, y
	dev.ctx.post(e)
}

func (f *fallbackDispatch) emitTouch(kind levent.Kind, slot int, timeMS uint32) {
	var (
		dev  = f.dev
		x, y fixed.Q24_8
		e    = levent.New(kind, dev, timeMS)
	)

	if dev.isMT && slot >= 0 && slot < len(dev.slots) {
		x, y = dev.applyCalibration(dev.slots[slot].X, dev.slots[slot].Y)
	} else {
		x, y = dev.scaleAbsolute()
	}

	e.Slot = slot
	e.X, e.Y = x, y
	dev.ctx.post(e)
}

func (f *fallbackDispatch) DeviceAdded(other *Device) error   { return nil }
func (f *fallbackDispatch) DeviceRemoved(other *Device) error { return nil }
func (f *fallbackDispatch) DeviceSuspended()                  {}
func (f *fallbackDispatch) DeviceResumed()                    {}
func (f *fallbackDispatch) SyncInitialState()                 {}
func (f *fallbackDispatch) Destroy()                          {}
