package evlayer

import (
	"github.com/nullptr-dev/evlayer/levent"
	"github.com/nullptr-dev/evlayer/linux/input"
)

// tapMaxDurationMS bounds how long a touch may last and still count as
// a tap rather than a drag.
const tapMaxDurationMS = 180

// touchpadDispatch is the entry point to the touchpad sub-state-
// machines: a tap-to-click FSM (tracked by single-finger touch
// duration) and, on clickpads, a software-button FSM that maps the
// physical click location to a left/right button based on screen
// position. Coordinate decoding is delegated to an embedded fallback
// dispatch.
type touchpadDispatch struct {
	fallback *fallbackDispatch
	dev      *Device

	isClickpad bool

	touchActive  bool
	touchStartMS uint32
}

func newTouchpadDispatch(dev *Device) *touchpadDispatch {
	var (
		clickpad bool
		props    []byte
		err      error
	)

	props, err = dev.raw.Properties()
	if err == nil {
		clickpad = input.TestBit(props, input.INPUT_PROP_BUTTONPAD)
	}

	return &touchpadDispatch{
		fallback:   newFallbackDispatch(dev),
		dev:        dev,
		isClickpad: clickpad,
	}
}

func (t *touchpadDispatch) Process(ev input.Event, timeMS uint32) {
	if ev.Type == input.EV_ABS && ev.Code == input.ABS_MT_TRACKING_ID {
		if ev.Value >= 0 {
			t.touchActive = true
			t.touchStartMS = timeMS
		} else if t.touchActive {
			t.touchActive = false
			t.maybeTap(timeMS)
		}
	}

	if t.isClickpad && ev.Type == input.EV_KEY && ev.Code == input.BTN_LEFT {
		t.emitSoftwareButton(ev, timeMS)
		return
	}

	t.fallback.Process(ev, timeMS)
}

// maybeTap fires a synthetic click if the just-ended touch was short
// enough to count as a tap.
func (t *touchpadDispatch) maybeTap(timeMS uint32) {
	if timeMS-t.touchStartMS > tapMaxDurationMS {
		return
	}

	t.emitClick(input.BTN_LEFT, timeMS)
}

func (t *touchpadDispatch) emitClick(button uint16, timeMS uint32) {
	var press = levent.New(levent.PointerButton, t.dev, timeMS)

	press.Button = button
	press.ButtonState = levent.ButtonPressed
	t.dev.ctx.post(press)

	var release = levent.New(levent.PointerButton, t.dev, timeMS)

	release.Button = button
	release.ButtonState = levent.ButtonReleased
	t.dev.ctx.post(release)
}

// emitSoftwareButton maps a clickpad's single physical button to
// left/right depending on which half of the screen the active slot's
// X coordinate falls in.
func (t *touchpadDispatch) emitSoftwareButton(ev input.Event, timeMS uint32) {
	var (
		button  uint16 = input.BTN_LEFT
		state          = levent.ButtonReleased
		screenW int
	)

	if t.dev.ctx != nil && t.dev.ctx.host != nil {
		screenW, _ = t.dev.ctx.host.ScreenDimensions(t.dev)
	}

	if t.dev.currentSlot >= 0 && t.dev.currentSlot < len(t.dev.slots) && screenW > 0 {
		if t.dev.slots[t.dev.currentSlot].X.Int() > int32(screenW)/2 {
			button = input.BTN_RIGHT
		}
	}

	if ev.Value != 0 {
		state = levent.ButtonPressed
	}

	var e = levent.New(levent.PointerButton, t.dev, timeMS)

	e.Button = button
	e.ButtonState = state
	t.dev.ctx.post(e)
}

func (t *touchpadDispatch) DeviceAdded(other *Device) error   { return nil }
func (t *touchpadDispatch) DeviceRemoved(other *Device) error { return nil }
func (t *touchpadDispatch) DeviceSuspended()                  {}
func (t *touchpadDispatch) DeviceResumed()                    {}
func (t *touchpadDispatch) SyncInitialState()                 {}
func (t *touchpadDispatch) Destroy()                          {}
