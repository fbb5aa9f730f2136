package levent

import "testing"

type refCounter struct {
	refs int
}

func (r *refCounter) Ref()   { r.refs++ }
func (r *refCounter) Unref() { r.refs-- }

func TestNewDoesNotRefTarget(t *testing.T) {
	var target = &refCounter{}

	var e = New(Key, target, 42)

	if target.refs != 0 {
		t.Errorf("target.refs = %d, want 0 (New must not ref; the ring's Post is the single ref point)", target.refs)
	}

	if e.Kind != Key || e.Time != 42 {
		t.Errorf("New() = %+v, want Kind=Key Time=42", e)
	}
}

func TestNewWithNilTarget(t *testing.T) {
	var e = New(DeviceAdded, nil, 0)

	if e.Target != nil {
		t.Errorf("e.Target = %v, want nil", e.Target)
	}
}

func TestDestroyUnrefsTarget(t *testing.T) {
	var target = &refCounter{}

	var e = New(Key, target, 0)

	// A real event only reaches Destroy after the ring's Post refs its
	// target; simulate that single enqueue-time ref here.
	target.Ref()

	Destroy(e)

	if target.refs != 0 {
		t.Errorf("target.refs after Destroy = %d, want 0", target.refs)
	}
}

func TestDestroyNilEventIsNoOp(t *testing.T) {
	Destroy(nil)
}

func TestDestroyEventWithNilTargetIsNoOp(t *testing.T) {
	var e = &Event{Kind: Key}

	Destroy(e)
}
