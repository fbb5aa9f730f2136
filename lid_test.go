package evlayer

import (
	"testing"

	"github.com/nullptr-dev/evlayer/levent"
	"github.com/nullptr-dev/evlayer/linux/input"
)

func TestLidTogglesOnSwitchTransition(t *testing.T) {
	var (
		dev = newTestDevice(t)
		l   = newLidDispatch(dev)
	)

	l.Process(input.Event{Type: input.EV_SW, Code: input.SW_LID, Value: 1}, 0)

	item, ok := dev.ctx.ring.Get()
	if !ok {
		t.Fatal("no toggle event posted")
	}

	e := item.Value.(*levent.Event)
	if e.Kind != levent.LidSwitchToggle || e.SwitchState != levent.SwitchClosed {
		t.Fatalf("got Kind=%v SwitchState=%v, want LidSwitchToggle/SwitchClosed", e.Kind, e.SwitchState)
	}
}

func TestLidIgnoresRepeatedIdenticalValue(t *testing.T) {
	var (
		dev = newTestDevice(t)
		l   = newLidDispatch(dev)
	)

	l.Process(input.Event{Type: input.EV_SW, Code: input.SW_LID, Value: 1}, 0)
	dev.ctx.ring.Get()

	l.Process(input.Event{Type: input.EV_SW, Code: input.SW_LID, Value: 1}, 1)

	if dev.ctx.ring.Len() != 0 {
		t.Error("repeated identical SW_LID value produced a second toggle")
	}
}

func TestLidIgnoresNonLidSwitch(t *testing.T) {
	var (
		dev = newTestDevice(t)
		l   = newLidDispatch(dev)
	)

	l.Process(input.Event{Type: input.EV_SW, Code: input.SW_TABLET_MODE, Value: 1}, 0)

	if dev.ctx.ring.Len() != 0 {
		t.Error("non-SW_LID switch produced a toggle event")
	}
}

func TestLidDeviceAddedPairsFirstKeyboard(t *testing.T) {
	var (
		dev      = newTestDevice(t)
		l        = newLidDispatch(dev)
		keyboard = &Device{caps: CapKeyboard}
	)

	l.DeviceAdded(keyboard)

	if l.keyboard != keyboard {
		t.Error("first keyboard candidate was not paired")
	}
}

func TestLidDeviceAddedIgnoresNonKeyboard(t *testing.T) {
	var (
		dev   = newTestDevice(t)
		l     = newLidDispatch(dev)
		mouse = &Device{caps: CapPointer}
	)

	l.DeviceAdded(mouse)

	if l.keyboard != nil {
		t.Error("non-keyboard device was paired")
	}
}

func TestLidDeviceAddedReplacesOnlyForI8042(t *testing.T) {
	var (
		dev   = newTestDevice(t)
		l     = newLidDispatch(dev)
		usbKB = &Device{caps: CapKeyboard, Bustype: 0x03}
		psKB  = &Device{caps: CapKeyboard, Bustype: busI8042}
	)

	l.DeviceAdded(usbKB)
	l.DeviceAdded(psKB)

	if l.keyboard != psKB {
		t.Error("BUS_I8042 keyboard did not replace the existing pairing")
	}

	other := &Device{caps: CapKeyboard, Bustype: 0x03}
	l.DeviceAdded(other)

	if l.keyboard != psKB {
		t.Error("non-I8042 keyboard replaced an existing I8042 pairing")
	}
}

func TestLidKeyboardActivityForcesOpen(t *testing.T) {
	var (
		dev      = newTestDevice(t)
		l        = newLidDispatch(dev)
		keyboard = &Device{caps: CapKeyboard, ctx: dev.ctx}
	)

	l.DeviceAdded(keyboard)

	l.Process(input.Event{Type: input.EV_SW, Code: input.SW_LID, Value: 1}, 0)
	dev.ctx.ring.Get()

	if keyboard.keyListener == nil {
		t.Fatal("keyListener not installed on paired keyboard while lid closed")
	}

	keyboard.keyListener(5)

	item, ok := dev.ctx.ring.Get()
	if !ok {
		t.Fatal("no toggle event posted by keyboard activity")
	}

	e := item.Value.(*levent.Event)
	if e.SwitchState != levent.SwitchOpen {
		t.Error("keyboard activity did not force lid open")
	}

	if keyboard.keyListener != nil {
		t.Error("keyListener not cleared after firing")
	}
}

func TestLidSetReliabilityFallsBackOnUnrecognised(t *testing.T) {
	var (
		dev = newTestDevice(t)
		l   = newLidDispatch(dev)
	)

	l.SetReliability("bogus")

	if l.reliability != "unknown" {
		t.Errorf("reliability = %q, want unknown after bogus input", l.reliability)
	}
}
