// Package levent defines the logical event taxonomy delivered across
// the library boundary: the tagged variant union of device-added/
// removed, keyboard, pointer, touch, tablet and lid-switch events.
// Grounded on the libinput_event_* struct family in libinput.c/h.
package levent

import "github.com/nullptr-dev/evlayer/fixed"

// Kind tags the dynamic type of an Event.
type Kind int

const (
	DeviceAdded Kind = iota
	DeviceRemoved
	Key
	PointerMotion
	PointerMotionAbsolute
	PointerButton
	PointerAxis
	TouchDown
	TouchUp
	TouchMotion
	TouchFrame
	TouchCancel
	TabletAxis
	TabletToolUpdate
	TabletProximityOut
	TabletButton
	LidSwitchToggle
)

// KeyState mirrors the kernel's EV_KEY value semantics at the logical
// level: released or pressed (autorepeat is dropped before this point).
type KeyState int

const (
	KeyReleased KeyState = iota
	KeyPressed
)

// ButtonState is the logical equivalent of KeyState for pointer/tablet
// buttons.
type ButtonState int

const (
	ButtonReleased ButtonState = iota
	ButtonPressed
)

// Axis identifies a pointer scroll axis.
type Axis int

const (
	AxisVertical Axis = iota
	AxisHorizontal
)

// SwitchState is the logical state of a toggle switch such as SW_LID.
type SwitchState int

const (
	SwitchOpen SwitchState = iota
	SwitchClosed
)

// Target is any ref-counted owner an event can point to: a context, a
// seat, or a device. Matches libinput_event_target's union of the three
// target classes.
type Target interface {
	Ref()
	Unref()
}

// Event is the common envelope for every logical event kind. Payload
// fields not applicable to Kind are left zero.
type Event struct {
	Kind   Kind
	Target Target
	Time   uint32

	Key         uint16
	KeyState    KeyState
	DX, DY      fixed.Q24_8
	X, Y        fixed.Q24_8
	Button      uint16
	ButtonState ButtonState
	Axis        Axis
	AxisValue   fixed.Q24_8
	Slot        int
	SwitchState SwitchState

	TabletAxisCode uint16
	TabletValue    fixed.Q24_8
}

// New returns an Event of the given kind targeting target. The target's
// refcount is not touched here: Context.post's enqueue onto the ring is
// the single point that refs it, matched by the one Unref on destroy.
func New(kind Kind, target Target, time uint32) *Event {
	return &Event{Kind: kind, Target: target, Time: time}
}

// Destroy releases the event's hold on its target. Safe to call on a
// nil event.
func Destroy(e *Event) {
	if e == nil || e.Target == nil {
		return
	}

	e.Target.Unref()
}
