package evlayer

import (
	"github.com/nullptr-dev/evlayer/levent"
	"github.com/nullptr-dev/evlayer/linux/input"
)

// lidState is the two-state SW_LID machine.
type lidState int

const (
	lidOpen lidState = iota
	lidClosed
)

// lidDispatch tracks SW_LID transitions and pairs with at most one
// keyboard device, used to force the lid back open when the user
// types on a laptop whose switch sticks closed.
type lidDispatch struct {
	dev   *Device
	state lidState

	keyboard *Device

	reliability string
}

func newLidDispatch(dev *Device) *lidDispatch {
	return &lidDispatch{dev: dev, state: lidOpen, reliability: "unknown"}
}

// SetReliability records the LIBINPUT_ATTR_LID_SWITCH_RELIABILITY
// device property, consulted by SyncInitialState.
func (l *lidDispatch) SetReliability(value string) {
	switch value {
	case "reliable", "unknown":
		l.reliability = value
	default:
		l.dev.ctx.logLidReliabilityFallback(value)
		l.reliability = "unknown"
	}
}

func (l *lidDispatch) Process(ev input.Event, timeMS uint32) {
	if ev.Type != input.EV_SW || ev.Code != input.SW_LID {
		return
	}

	var next = lidOpen
	if ev.Value != 0 {
		next = lidClosed
	}

	if next == l.state {
		return
	}

	l.state = next
	l.emitToggle(timeMS)

	if l.state == lidClosed && l.keyboard != nil {
		l.keyboard.keyListener = l.onKeyboardActivity
	} else if l.keyboard != nil {
		l.keyboard.keyListener = nil
	}
}

func (l *lidDispatch) emitToggle(timeMS uint32) {
	var e = levent.New(levent.LidSwitchToggle, l.dev, timeMS)

	e.SwitchState = levent.SwitchOpen
	if l.state == lidClosed {
		e.SwitchState = levent.SwitchClosed
	}

	l.dev.ctx.post(e)
}

// onKeyboardActivity is installed as the paired keyboard's key
// listener while the lid is closed. Any keyboard-key event forces the
// lid back open, removes the listener, and emits a synthetic toggle
// at the triggering event's timestamp.
func (l *lidDispatch) onKeyboardActivity(timeMS uint32) {
	if l.state != lidClosed {
		return
	}

	l.state = lidOpen
	l.emitToggle(timeMS)

	if l.keyboard != nil {
		l.keyboard.keyListener = nil
	}
}

// DeviceAdded accepts the first keyboard candidate, replacing an
// existing pairing only if the new candidate is on the internal PS/2
// bus (BUS_I8042).
func (l *lidDispatch) DeviceAdded(other *Device) error {
	if !other.caps.Has(CapKeyboard) {
		return nil
	}

	if l.keyboard == nil {
		l.keyboard = other
	} else if other.Bustype == busI8042 {
		l.keyboard.keyListener = nil
		l.keyboard = other
	}

	if l.state == lidClosed && l.keyboard == other {
		other.keyListener = l.onKeyboardActivity
	}

	return nil
}

// DeviceRemoved clears the pairing if the paired keyboard was removed.
func (l *lidDispatch) DeviceRemoved(other *Device) error {
	if l.keyboard == other {
		l.keyboard = nil
	}

	return nil
}

func (l *lidDispatch) DeviceSuspended() {}
func (l *lidDispatch) DeviceResumed()   {}

// SyncInitialState consults the reliability property: if reliable, it
// reads the kernel's current SW_LID state and emits a toggle if
// closed; if unknown, it assumes open and only reacts to future
// transitions.
func (l *lidDispatch) SyncInitialState() {
	if l.reliability != "reliable" {
		return
	}

	bitmap, err := l.dev.raw.SwitchState()
	if err != nil {
		return
	}

	if input.TestBit(bitmap, input.SW_LID) {
		l.state = lidClosed
		l.emitToggle(0)
	}
}

func (l *lidDispatch) Destroy() {
	if l.keyboard != nil {
		l.keyboard.keyListener = nil
	}
}
