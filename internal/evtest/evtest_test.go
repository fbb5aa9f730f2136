package evtest

import (
	"testing"

	"github.com/nullptr-dev/evlayer/linux/input"
)

func TestBitmapSetsExpectedBits(t *testing.T) {
	var buf = Bitmap(KeyCodes(Keyboard), input.KEY_MAX)

	if !input.TestBit(buf, input.KEY_A) {
		t.Error("KEY_A not set in Keyboard bitmap")
	}
	if input.TestBit(buf, input.BTN_LEFT) {
		t.Error("BTN_LEFT unexpectedly set in Keyboard bitmap")
	}
}

func TestClickpadTouchpadHasMTAndButton(t *testing.T) {
	var (
		keys = KeyCodes(ClickpadTouchpad)
		abs  = AbsCodes(ClickpadTouchpad)
	)

	var hasFinger, hasSlot bool

	for _, c := range keys {
		if c == input.BTN_TOOL_FINGER {
			hasFinger = true
		}
	}
	for _, c := range abs {
		if c == input.ABS_MT_SLOT {
			hasSlot = true
		}
	}

	if !hasFinger || !hasSlot {
		t.Errorf("ClickpadTouchpad fixture missing BTN_TOOL_FINGER or ABS_MT_SLOT")
	}
}
