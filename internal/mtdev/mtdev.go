// Package mtdev synthesizes a Protocol B (ABS_MT_SLOT-addressed) event
// stream from a Protocol A device, which reports one ABS_MT_* group
// per contact separated by SYN_MT_REPORT with no explicit slot index.
// Grounded on original_source/'s mtdev fallback referenced by
// evdev-mt-touchpad.h for devices lacking ABS_MT_SLOT.
package mtdev

import "github.com/nullptr-dev/evlayer/linux/input"

type contact struct {
	x, y         int32
	haveX, haveY bool
}

// Adapter buffers one Protocol A frame (0..N contacts terminated by
// SYN_REPORT) and, on frame completion, returns a synthesized stream
// with an explicit ABS_MT_SLOT emitted before each contact's
// position. Contacts are assigned to slots by report order and a
// slot's tracking identifier persists across frames as long as a
// contact keeps appearing at that report position, so a finger held
// down does not appear as a new touch on every frame.
type Adapter struct {
	pending   contact
	contacts  []contact
	activeIDs []int32
	nextID    int32
}

// NewAdapter returns an empty Adapter; its contact list grows with
// the number of contacts seen in a report.
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Feed buffers ev. It returns (nil, false) while the current frame is
// incomplete. On SYN_REPORT it returns the synthesized Protocol B
// event sequence, including the original SYN_REPORT, and true.
func (a *Adapter) Feed(ev input.Event) ([]input.Event, bool) {
	switch {
	case ev.Type == input.EV_ABS && ev.Code == input.ABS_MT_POSITION_X:
		a.pending.x = ev.Value
		a.pending.haveX = true
		return nil, false

	case ev.Type == input.EV_ABS && ev.Code == input.ABS_MT_POSITION_Y:
		a.pending.y = ev.Value
		a.pending.haveY = true
		return nil, false

	case ev.Type == input.EV_SYN && ev.Code == input.SYN_MT_REPORT:
		a.contacts = append(a.contacts, a.pending)
		a.pending = contact{}
		return nil, false

	case ev.Type == input.EV_SYN && ev.Code == input.SYN_REPORT:
		return a.flush(ev), true
	}

	return nil, false
}

// flush assigns each buffered contact a slot in report order, emitting
// ABS_MT_SLOT before every slot's position whether the contact is new,
// continuing, or releasing, and releasing any slot that held a contact
// on the previous frame but received no contact this time.
func (a *Adapter) flush(syn input.Event) []input.Event {
	var (
		out     []input.Event
		numSlot int
		slot    int
	)

	numSlot = len(a.contacts)
	if len(a.activeIDs) > numSlot {
		numSlot = len(a.activeIDs)
	}

	out = make([]input.Event, 0, numSlot*4+2)

	for slot = 0; slot < numSlot; slot++ {
		var (
			hasContact = slot < len(a.contacts) && (a.contacts[slot].haveX || a.contacts[slot].haveY)
			wasActive  = slot < len(a.activeIDs) && a.activeIDs[slot] >= 0
		)

		switch {
		case hasContact && !wasActive:
			out = append(out, a.slotEvent(syn, slot), a.idEvent(syn, slot, a.nextID))
			a.setActive(slot, a.nextID)
			a.nextID++

		case hasContact && wasActive:
			out = append(out, a.slotEvent(syn, slot))

		case !hasContact && wasActive:
			out = append(out, a.slotEvent(syn, slot), a.idEvent(syn, slot, -1))
			a.setActive(slot, -1)

		case !hasContact:
			continue
		}

		if hasContact {
			if a.contacts[slot].haveX {
				out = append(out, input.Event{Sec: syn.Sec, Usec: syn.Usec, Type: input.EV_ABS, Code: input.ABS_MT_POSITION_X, Value: a.contacts[slot].x})
			}

			if a.contacts[slot].haveY {
				out = append(out, input.Event{Sec: syn.Sec, Usec: syn.Usec, Type: input.EV_ABS, Code: input.ABS_MT_POSITION_Y, Value: a.contacts[slot].y})
			}
		}
	}

	out = append(out, syn)

	a.contacts = a.contacts[:0]

	return out
}

func (a *Adapter) slotEvent(syn input.Event, slot int) input.Event {
	return input.Event{Sec: syn.Sec, Usec: syn.Usec, Type: input.EV_ABS, Code: input.ABS_MT_SLOT, Value: int32(slot)}
}

func (a *Adapter) idEvent(syn input.Event, slot int, id int32) input.Event {
	return input.Event{Sec: syn.Sec, Usec: syn.Usec, Type: input.EV_ABS, Code: input.ABS_MT_TRACKING_ID, Value: id}
}

func (a *Adapter) setActive(slot int, id int32) {
	for len(a.activeIDs) <= slot {
		a.activeIDs = append(a.activeIDs, -1)
	}

	a.activeIDs[slot] = id
}
