package evlayer

import "testing"

func TestFindSeatCreatesOnFirstUse(t *testing.T) {
	var ctx = &Context{}

	s1 := ctx.findSeat("seat0", "default")
	if s1 == nil {
		t.Fatal("findSeat returned nil")
	}
	if len(ctx.seats) != 1 {
		t.Fatalf("len(seats) = %d, want 1", len(ctx.seats))
	}

	s2 := ctx.findSeat("seat0", "default")
	if s1 != s2 {
		t.Error("findSeat with same (physical, logical) returned a different seat")
	}

	s3 := ctx.findSeat("seat0", "other")
	if s3 == s1 {
		t.Error("findSeat with different logical name returned the same seat")
	}
	if len(ctx.seats) != 2 {
		t.Fatalf("len(seats) = %d, want 2", len(ctx.seats))
	}
}

func TestSeatAddRemoveDevice(t *testing.T) {
	var (
		seat = newSeat(nil, "seat0", "default")
		a    = &Device{Sysname: "event0"}
		b    = &Device{Sysname: "event1"}
	)

	seat.addDevice(a)
	seat.addDevice(b)

	if len(seat.Devices()) != 2 {
		t.Fatalf("len(Devices()) = %d, want 2", len(seat.Devices()))
	}

	seat.removeDevice(a)

	devices := seat.Devices()
	if len(devices) != 1 || devices[0] != b {
		t.Errorf("Devices() after remove = %v, want [b]", devices)
	}
}
