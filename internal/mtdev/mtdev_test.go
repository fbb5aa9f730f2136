package mtdev

import (
	"testing"

	"github.com/nullptr-dev/evlayer/linux/input"
)

func feedFrame(t *testing.T, a *Adapter, contacts [][2]int32) []input.Event {
	t.Helper()

	for _, c := range contacts {
		a.Feed(input.Event{Type: input.EV_ABS, Code: input.ABS_MT_POSITION_X, Value: c[0]})
		a.Feed(input.Event{Type: input.EV_ABS, Code: input.ABS_MT_POSITION_Y, Value: c[1]})
		a.Feed(input.Event{Type: input.EV_SYN, Code: input.SYN_MT_REPORT})
	}

	out, ready := a.Feed(input.Event{Type: input.EV_SYN, Code: input.SYN_REPORT})
	if !ready {
		t.Fatalf("Feed(SYN_REPORT) returned ready=false")
	}

	return out
}

func TestSingleContactAssignsSlotZeroAndTrackingID(t *testing.T) {
	var a = NewAdapter()

	out := feedFrame(t, a, [][2]int32{{10, 20}})

	var sawSlot, sawID bool

	for _, ev := range out {
		if ev.Code == input.ABS_MT_SLOT && ev.Value == 0 {
			sawSlot = true
		}
		if ev.Code == input.ABS_MT_TRACKING_ID && ev.Value == 0 {
			sawID = true
		}
	}

	if !sawSlot {
		t.Errorf("first frame did not assign slot 0")
	}
	if !sawID {
		t.Errorf("first frame did not assign tracking ID 0")
	}
}

func TestHeldContactKeepsTrackingIDAcrossFrames(t *testing.T) {
	var a = NewAdapter()

	feedFrame(t, a, [][2]int32{{10, 20}})
	out := feedFrame(t, a, [][2]int32{{11, 21}})

	for _, ev := range out {
		if ev.Code == input.ABS_MT_TRACKING_ID {
			t.Fatalf("held contact re-emitted ABS_MT_TRACKING_ID on second frame: %+v", ev)
		}
	}
}

func TestLiftedContactEmitsTrackingIDMinusOne(t *testing.T) {
	var a = NewAdapter()

	feedFrame(t, a, [][2]int32{{10, 20}})
	out := feedFrame(t, a, nil)

	var sawRelease bool

	for _, ev := range out {
		if ev.Code == input.ABS_MT_TRACKING_ID && ev.Value == -1 {
			sawRelease = true
		}
	}

	if !sawRelease {
		t.Errorf("lifted contact did not emit ABS_MT_TRACKING_ID -1")
	}
}

func TestReDownAfterLiftGetsFreshTrackingID(t *testing.T) {
	var a = NewAdapter()

	feedFrame(t, a, [][2]int32{{10, 20}})
	feedFrame(t, a, nil)
	out := feedFrame(t, a, [][2]int32{{10, 20}})

	var gotID int32 = -2

	for _, ev := range out {
		if ev.Code == input.ABS_MT_TRACKING_ID && ev.Value >= 0 {
			gotID = ev.Value
		}
	}

	if gotID != 1 {
		t.Errorf("re-down tracking ID = %d, want 1 (first was 0)", gotID)
	}
}

func TestMultiContactHeldAcrossFramesEmitsSlotBeforeEachPosition(t *testing.T) {
	var a = NewAdapter()

	feedFrame(t, a, [][2]int32{{10, 20}, {30, 40}})
	out := feedFrame(t, a, [][2]int32{{11, 21}, {31, 41}})

	// Both contacts are still down this frame (the common "two fingers
	// moving" case): each slot must still get its own ABS_MT_SLOT event
	// immediately before its ABS_MT_POSITION_* pair, even though neither
	// slot transitioned down or up.
	var gotSlot = map[int32][2]int32{}
	var lastSlot int32 = -1

	for _, ev := range out {
		switch {
		case ev.Code == input.ABS_MT_SLOT:
			lastSlot = ev.Value

		case ev.Code == input.ABS_MT_POSITION_X:
			if lastSlot < 0 {
				t.Fatalf("ABS_MT_POSITION_X with no preceding ABS_MT_SLOT: %+v", out)
			}
			v := gotSlot[lastSlot]
			v[0] = ev.Value
			gotSlot[lastSlot] = v

		case ev.Code == input.ABS_MT_POSITION_Y:
			if lastSlot < 0 {
				t.Fatalf("ABS_MT_POSITION_Y with no preceding ABS_MT_SLOT: %+v", out)
			}
			v := gotSlot[lastSlot]
			v[1] = ev.Value
			gotSlot[lastSlot] = v

		case ev.Code == input.ABS_MT_TRACKING_ID:
			t.Fatalf("continuing contact re-emitted ABS_MT_TRACKING_ID: %+v", ev)
		}
	}

	if gotSlot[0] != [2]int32{11, 21} {
		t.Errorf("slot 0 position = %v, want {11 21}", gotSlot[0])
	}
	if gotSlot[1] != [2]int32{31, 41} {
		t.Errorf("slot 1 position = %v, want {31 41}", gotSlot[1])
	}
}

func TestFlushAlwaysTerminatesWithOriginalSYNReport(t *testing.T) {
	var a = NewAdapter()

	out := feedFrame(t, a, [][2]int32{{1, 2}})

	last := out[len(out)-1]
	if last.Type != input.EV_SYN || last.Code != input.SYN_REPORT {
		t.Fatalf("last event = %+v, want SYN_REPORT", last)
	}
}
