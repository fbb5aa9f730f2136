// Package evtest provides device capability fixtures as static
// bitmask tables keyed by a device "kind" enum, the same idiom
// original_source's test/litest-trackpoint.c and its sibling
// litest-*.c fixtures use for canned device descriptions, adopted here
// instead of constructing EVIOCGBIT-shaped bitmasks by hand in every
// test that needs a plausible code list for a given device class.
package evtest

import "github.com/nullptr-dev/evlayer/linux/input"

// Kind names a canned device class.
type Kind int

const (
	Mouse Kind = iota
	Keyboard
	ClickpadTouchpad
	TouchscreenMT
	Trackpoint
	LidSwitch
	TabletPad
)

// KeyCodes returns the canned EV_KEY code list for kind.
func KeyCodes(kind Kind) []uint16 {
	switch kind {
	case Mouse, Trackpoint:
		return []uint16{input.BTN_LEFT, input.BTN_RIGHT, input.BTN_MIDDLE}
	case Keyboard:
		return []uint16{input.KEY_A, input.KEY_ESC, input.KEY_LEFTSHIFT}
	case ClickpadTouchpad:
		return []uint16{input.BTN_LEFT, input.BTN_TOOL_FINGER, input.BTN_TOUCH}
	case TabletPad:
		return []uint16{input.BTN_0, input.BTN_1}
	default:
		return nil
	}
}

// AbsCodes returns the canned EV_ABS code list for kind.
func AbsCodes(kind Kind) []uint16 {
	switch kind {
	case Mouse, Keyboard, Trackpoint, LidSwitch:
		return nil
	case ClickpadTouchpad:
		return []uint16{input.ABS_X, input.ABS_Y, input.ABS_MT_SLOT, input.ABS_MT_POSITION_X, input.ABS_MT_POSITION_Y, input.ABS_MT_TRACKING_ID}
	case TouchscreenMT:
		return []uint16{input.ABS_MT_POSITION_X, input.ABS_MT_POSITION_Y, input.ABS_MT_TRACKING_ID}
	case TabletPad:
		return []uint16{input.ABS_WHEEL}
	default:
		return nil
	}
}

// RelCodes returns the canned EV_REL code list for kind.
func RelCodes(kind Kind) []uint16 {
	switch kind {
	case Mouse, Trackpoint:
		return []uint16{input.REL_X, input.REL_Y, input.REL_WHEEL}
	default:
		return nil
	}
}

// SwCodes returns the canned EV_SW code list for kind.
func SwCodes(kind Kind) []uint16 {
	if kind == LidSwitch {
		return []uint16{input.SW_LID}
	}

	return nil
}

// Bitmap packs codes into an EVIOCGBIT-shaped bitmask buffer, sized to
// hold bit positions up to max (inclusive).
func Bitmap(codes []uint16, max uint) []byte {
	var buf = make([]byte, (max+8)/8)

	for _, code := range codes {
		buf[code/8] |= 1 << (code % 8)
	}

	return buf
}
