package evlayer

import (
	"github.com/nullptr-dev/evlayer/fixed"
	"github.com/nullptr-dev/evlayer/levent"
	"github.com/nullptr-dev/evlayer/linux/input"
)

// tabletPadDispatch handles graphics-tablet pad devices: a fixed set of
// BTN_0-range buttons plus an optional mode ring or strip reported on
// ABS_WHEEL. Button state and the ring/strip position are each
// coalesced to one logical event per SYN_REPORT, the same framing
// discipline as fallbackDispatch.
type tabletPadDispatch struct {
	dev *Device

	buttonCode  uint16
	buttonValue int32
	havePending bool

	ringValue   int32
	haveRing    bool
	ringPending bool
}

func newTabletPadDispatch(dev *Device) *tabletPadDispatch {
	return &tabletPadDispatch{dev: dev}
}

func (p *tabletPadDispatch) Process(ev input.Event, timeMS uint32) {
	switch {
	case ev.Type == input.EV_KEY && ev.Code >= input.BTN_0 && ev.Code < input.BTN_TOOL_PEN:
		p.buttonCode = ev.Code
		p.buttonValue = ev.Value
		p.havePending = true

	case ev.Type == input.EV_ABS && ev.Code == input.ABS_WHEEL:
		p.ringValue = ev.Value
		p.haveRing = true
		p.ringPending = true

	case ev.Type == input.EV_SYN && ev.Code == input.SYN_REPORT:
		p.flush(timeMS)
	}
}

func (p *tabletPadDispatch) flush(timeMS uint32) {
	if p.havePending {
		var (
			e     = levent.New(levent.TabletButton, p.dev, timeMS)
			state = levent.ButtonReleased
		)

		if p.buttonValue != 0 {
			state = levent.ButtonPressed
		}

		e.Button = p.buttonCode
		e.ButtonState = state
		p.dev.ctx.post(e)

		p.havePending = false
	}

	if p.ringPending {
		var e = levent.New(levent.TabletAxis, p.dev, timeMS)

		e.TabletAxisCode = input.ABS_WHEEL
		e.TabletValue = fixed.FromInt(p.ringValue)
		p.dev.ctx.post(e)

		p.ringPending = false
	}
}

func (p *tabletPadDispatch) DeviceAdded(other *Device) error   { return nil }
func (p *tabletPadDispatch) DeviceRemoved(other *Device) error { return nil }
func (p *tabletPadDispatch) DeviceSuspended()                  {}
func (p *tabletPadDispatch) DeviceResumed()                    {}
func (p *tabletPadDispatch) SyncInitialState()                 {}
func (p *tabletPadDispatch) Destroy()                          {}
