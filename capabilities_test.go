package evlayer

import "testing"

func TestCapabilityHas(t *testing.T) {
	var caps = CapPointer | CapTouch

	if !caps.Has(CapPointer) {
		t.Error("Has(CapPointer) = false, want true")
	}
	if !caps.Has(CapTouch) {
		t.Error("Has(CapTouch) = false, want true")
	}
	if caps.Has(CapKeyboard) {
		t.Error("Has(CapKeyboard) = true, want false")
	}
}

func TestCapabilityZeroHasNothing(t *testing.T) {
	var caps Capability

	if caps.Has(CapPointer) || caps.Has(CapKeyboard) || caps.Has(CapTouch) {
		t.Error("zero Capability reports a bit set")
	}
}
