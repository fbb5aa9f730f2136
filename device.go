package evlayer

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/nullptr-dev/evlayer/accel"
	"github.com/nullptr-dev/evlayer/fixed"
	"github.com/nullptr-dev/evlayer/internal/mtdev"
	"github.com/nullptr-dev/evlayer/levent"
	"github.com/nullptr-dev/evlayer/linux/input"
)

// busI8042 is the kernel's BUS_I8042 bustype constant, used by the
// lid-switch keyboard-pairing tie-break rule. Not part of the
// retrieved uapi constant table, so it is defined locally.
const busI8042 = 0x11

// Device is a reference-counted handle to one opened evdev character
// device: its capability bitset, axis ranges and calibration, its
// multi-touch slot array, its selected dispatch, its pointer
// accelerator, and the source registered with its context's
// multiplexer.
type Device struct {
	refs int

	Devnode string
	Sysname string
	Name    string
	Bustype uint16
	Output  string

	raw *input.Device

	caps        Capability
	absRanges   map[uint16]input.AbsInfo
	calibration Calibration
	isMT        bool
	slots       []MTSlot
	currentSlot int

	dispatch Dispatch
	accel    *accel.Filter
	source   *Source

	mt *mtdev.Adapter

	seat *Seat
	ctx  *Context

	pending        pendingKind
	pendDX, pendDY fixed.Q24_8

	// keyListener, when set by a paired lid-switch dispatch, is
	// invoked with every keyboard-key event this device produces.
	keyListener func(timeMS uint32)
}

// AddDevice opens devnode via the context's host, probes its
// capabilities, selects a dispatch variant, registers it with the
// multiplexer and broadcasts device-added. A device rejected by
// capability probing returns ErrUnhandled and is not added.
func (ctx *Context) AddDevice(devnode, sysname, seatPhysical, seatLogical string) (*Device, error) {
	var (
		fd  uintptr
		raw *input.Device
		dev *Device
		err error
	)

	fd, err = ctx.host.OpenPath(devnode, 0)
	if err != nil {
		ctx.logDiscoveryFailure(devnode, err)
		return nil, fmt.Errorf("evlayer.AddDevice: %w", err)
	}

	raw = input.NewDeviceFromFd(fd)

	dev, err = newDevice(ctx, raw, devnode, sysname)
	if err != nil {
		raw.Close()
		ctx.host.CloseFD(fd)

		if err == ErrUnhandled {
			return nil, err
		}

		ctx.logDiscoveryFailure(devnode, err)
		return nil, fmt.Errorf("evlayer.AddDevice: %w", err)
	}

	dev.seat = ctx.findSeat(seatPhysical, seatLogical)

	dev.source, err = ctx.mux.AddFD(fd, deviceReadable, dev)
	if err != nil {
		dev.raw.Close()
		return nil, fmt.Errorf("evlayer.AddDevice: %w", err)
	}

	dev.dispatch.SyncInitialState()

	err = ctx.addDevice(dev)
	if err != nil {
		return dev, fmt.Errorf("evlayer.AddDevice: %w", err)
	}

	return dev, nil
}

// deviceReadable is the multiplexer callback installed for every
// device source; it drains every event currently available on the fd,
// stopping cleanly on EAGAIN. Any other read error is treated as a
// fatal I/O failure or protocol corruption and removes the device.
func deviceReadable(fd uintptr, userdata any) {
	var dev = userdata.(*Device)

	for {
		ev, err := dev.raw.ReadEvent()
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				return
			}

			dev.ctx.logRemoval(dev, err)
			dev.ctx.removeDevice(dev)

			return
		}

		dev.onEvent(ev)
	}
}

// newDevice probes raw's capabilities and selects a dispatch variant.
// It returns ErrUnhandled if the device is a joystick, an
// accelerometer, or has an empty capability set after probing.
func newDevice(ctx *Context, raw *input.Device, devnode, sysname string) (*Device, error) {
	var (
		dev        *Device
		name       string
		eventTypes []uint16
		codes      = map[uint16][]uint16{}
		hasAbs     bool
		hasRel     bool
		hasKey     bool
		et         uint16
		err        error
	)

	name, err = raw.Name()
	if err != nil {
		return nil, fmt.Errorf("evlayer.newDevice: %w", err)
	}

	id, idErr := raw.RawID()

	eventTypes, err = raw.Events()
	if err != nil {
		return nil, fmt.Errorf("evlayer.newDevice: %w", err)
	}

	for _, et = range eventTypes {
		var cs []uint16

		cs, err = raw.Codes(et)
		if err != nil {
			return nil, fmt.Errorf("evlayer.newDevice: %w", err)
		}

		codes[et] = cs

		switch et {
		case input.EV_ABS:
			hasAbs = true
		case input.EV_REL:
			hasRel = true
		case input.EV_KEY:
			hasKey = true
		}
	}

	var isPadCandidate = hasCode(codes[input.EV_KEY], input.BTN_0)

	if !isPadCandidate && (hasCode(codes[input.EV_ABS], input.ABS_WHEEL) ||
		hasCode(codes[input.EV_ABS], input.ABS_GAS) ||
		hasCode(codes[input.EV_ABS], input.ABS_BRAKE) ||
		hasCode(codes[input.EV_ABS], input.ABS_HAT0X)) {
		return nil, ErrUnhandled
	}

	var (
		hasMTSlot  = hasCode(codes[input.EV_ABS], input.ABS_MT_SLOT)
		hasMTPosit = hasCode(codes[input.EV_ABS], input.ABS_MT_POSITION_X)
		isMT       = hasMTSlot || hasMTPosit
	)

	if hasAbs && !hasKey && !isMT {
		return nil, ErrUnhandled
	}

	dev = &Device{
		refs:    1,
		Devnode: devnode,
		Sysname: sysname,
		Name:    name,
		raw:     raw,
		ctx:     ctx,
		accel:   accel.NewFilter(),
		isMT:    isMT,
	}

	if idErr == nil {
		dev.Bustype = id.Bustype
	}

	dev.absRanges = make(map[uint16]input.AbsInfo)
	for _, code := range codes[input.EV_ABS] {
		info, absErr := raw.AbsInfo(uint(code))
		if absErr == nil {
			dev.absRanges[code] = info
		}
	}

	if isMT {
		dev.caps |= CapTouch
		dev.allocateSlots()

		if !hasMTSlot {
			dev.mt = mtdev.NewAdapter()
		}
	}

	if hasRel || (hasAbs && !isMT) {
		dev.caps |= CapPointer
	}

	if hasKey && !isMT && !(hasAbs && hasCode(codes[input.EV_KEY], input.BTN_TOUCH) && !hasRel) {
		dev.caps |= CapKeyboard
	}

	if isPadCandidate {
		dev.caps |= CapKeyboard
	}

	if dev.caps == 0 {
		return nil, ErrUnhandled
	}

	switch {
	case isPadCandidate:
		dev.dispatch = newTabletPadDispatch(dev)

	case hasCode(codes[input.EV_KEY], input.BTN_TOOL_FINGER) &&
		!hasCode(codes[input.EV_KEY], input.BTN_TOOL_PEN) && hasAbs:
		dev.dispatch = newTouchpadDispatch(dev)

	case hasCode(codes[input.EV_SW], input.SW_LID):
		dev.dispatch = newLidDispatch(dev)

	default:
		dev.dispatch = newFallbackDispatch(dev)
	}

	return dev, nil
}

func hasCode(codes []uint16, code uint16) bool {
	var c uint16

	for _, c = range codes {
		if c == code {
			return true
		}
	}

	return false
}

func (dev *Device) allocateSlots() {
	var (
		info input.AbsInfo
		err  error
		n    int
	)

	info, err = dev.raw.AbsInfo(input.ABS_MT_SLOT)
	if err == nil {
		n = int(info.Maximum) + 1
	} else {
		n = 1
	}

	dev.slots = make([]MTSlot, n)

	for i := range dev.slots {
		dev.slots[i].TrackingID = -1
	}

	dev.currentSlot = 0
}

// Ref increments the device's reference count.
func (dev *Device) Ref() {
	dev.refs++
}

// Unref decrements the device's reference count.
func (dev *Device) Unref() {
	dev.refs--
}

var _ levent.Target = (*Device)(nil)

// Capabilities returns the device's probed capability bitset.
func (dev *Device) Capabilities() Capability {
	return dev.caps
}

// SetCalibration installs the 6-float affine transform applied to
// absolute and multi-touch coordinates after screen scaling.
func (dev *Device) SetCalibration(c Calibration) {
	dev.calibration = c
}

// SetPointerSpeed quantises speed (expected in [-1, 1]) to one of the
// accelerator's 11 discrete steps and returns the value actually
// stored. A no-op returning 0 on devices with no pointer-motion
// capability.
func (dev *Device) SetPointerSpeed(speed float64) float64 {
	if dev.accel == nil || !dev.caps.Has(CapPointer) {
		return 0
	}

	return dev.accel.SetSpeed(speed)
}

// PointerSpeed returns the device's most recently set speed setting.
func (dev *Device) PointerSpeed() float64 {
	if dev.accel == nil {
		return 0
	}

	return dev.accel.Speed()
}

// reliabilitySetter is implemented by dispatch variants (currently
// only lidDispatch) that accept a LIBINPUT_ATTR_LID_SWITCH_RELIABILITY
// property value.
type reliabilitySetter interface {
	SetReliability(value string)
}

// SetLidReliability forwards value to the device's dispatch if it
// implements lid-switch reliability reporting, and is a no-op
// otherwise.
func (dev *Device) SetLidReliability(value string) {
	if rs, ok := dev.dispatch.(reliabilitySetter); ok {
		rs.SetReliability(value)
	}
}

func (dev *Device) setCurrentSlot(slot int) {
	if slot < 0 {
		return
	}

	if slot >= len(dev.slots) {
		grown := make([]MTSlot, slot+1)
		copy(grown, dev.slots)

		for i := len(dev.slots); i < len(grown); i++ {
			grown[i].TrackingID = -1
		}

		dev.slots = grown
	}

	dev.currentSlot = slot
}

func (dev *Device) setSlotTrackingID(id int32) {
	if dev.currentSlot < 0 || dev.currentSlot >= len(dev.slots) {
		return
	}

	dev.slots[dev.currentSlot].TrackingID = id
	dev.slots[dev.currentSlot].Dirty = true
}

func (dev *Device) setSlotPosition(isY bool, value int32) {
	if dev.currentSlot < 0 || dev.currentSlot >= len(dev.slots) {
		return
	}

	var (
		slot = &dev.slots[dev.currentSlot]
		code = uint16(input.ABS_MT_POSITION_X)
	)

	if isY {
		code = input.ABS_MT_POSITION_Y
	}

	if isY {
		slot.Y = dev.scaleToScreen(code, value, true)
	} else {
		slot.X = dev.scaleToScreen(code, value, false)
	}

	slot.Dirty = true
}

func (dev *Device) setAbsolutePosition(isY bool, value int32) {
	if isY {
		dev.pendDY = dev.scaleToScreen(input.ABS_Y, value, true)
		return
	}

	dev.pendDX = dev.scaleToScreen(input.ABS_X, value, false)
}

// scaleAbsolute returns the last-written non-MT absolute coordinate,
// stashed in pendDX/pendDY by setAbsolutePosition, with calibration
// applied.
func (dev *Device) scaleAbsolute() (fixed.Q24_8, fixed.Q24_8) {
	return dev.applyCalibration(dev.pendDX, dev.pendDY)
}

// applyCalibration runs (x, y) through the device's calibration
// matrix in floating-point, then converts back to fixed-point.
func (dev *Device) applyCalibration(x, y fixed.Q24_8) (fixed.Q24_8, fixed.Q24_8) {
	var cx, cy = dev.calibration.Apply(x.Float(), y.Float())

	return fixed.FromFloat(cx), fixed.FromFloat(cy)
}

// scaleToScreen linearly scales value from the device's reported
// [min, max] range for code to [0, screenExtent].
func (dev *Device) scaleToScreen(code uint16, value int32, isY bool) fixed.Q24_8 {
	var (
		info      = dev.absRanges[code]
		screenW   int
		screenH   int
		extent    float64
		rangeSpan = float64(info.Maximum - info.Minimum)
		scaled    float64
	)

	if dev.ctx != nil && dev.ctx.host != nil {
		screenW, screenH = dev.ctx.host.ScreenDimensions(dev)
	}

	extent = float64(screenW)
	if isY {
		extent = float64(screenH)
	}

	if rangeSpan == 0 {
		return 0
	}

	scaled = (float64(value) - float64(info.Minimum)) * extent / rangeSpan

	return fixed.FromFloat(scaled)
}

// destroy tears down dispatch, source and fd.
func (dev *Device) destroy() {
	if dev.dispatch != nil {
		dev.dispatch.Destroy()
	}

	if dev.source != nil {
		dev.ctx.mux.Remove(dev.source)
	}

	dev.raw.Close()
}

// onEvent routes one raw kernel event through the MT synthesis
// adapter (if this is a Protocol A device) and then to the device's
// dispatch.
func (dev *Device) onEvent(ev input.Event) {
	var timeMS = uint32(ev.Sec)*1000 + uint32(ev.Usec)/1000

	if ev.Type == input.EV_SYN && ev.Code == input.SYN_DROPPED {
		dev.resync()
		return
	}

	if dev.mt != nil {
		synthesized, ready := dev.mt.Feed(ev)
		if !ready {
			return
		}

		for _, sev := range synthesized {
			dev.dispatch.Process(sev, timeMS)
		}

		return
	}

	dev.dispatch.Process(ev, timeMS)
}

// resync runs after an EV_SYN SYN_DROPPED: on multi-touch devices it
// re-reads every slot's tracking ID and position with EVIOCGMTSLOTS,
// then injects a synthetic SYN_REPORT so the dispatch flushes cleanly.
// Key and switch state is not re-queried, and no events are
// synthesised for state that changed during the drop.
func (dev *Device) resync() {
	var timeMS uint32

	if dev.isMT {
		dev.resyncSlots()
	}

	dev.dispatch.Process(input.Event{Type: input.EV_SYN, Code: input.SYN_REPORT}, timeMS)
}

func (dev *Device) resyncSlots() {
	var (
		trackingIDs []int32
		xs          []int32
		ys          []int32
		err         error
		i           int
	)

	trackingIDs, err = dev.raw.MTSlotValues(input.ABS_MT_TRACKING_ID, len(dev.slots))
	if err != nil {
		return
	}

	xs, err = dev.raw.MTSlotValues(input.ABS_MT_POSITION_X, len(dev.slots))
	if err != nil {
		return
	}

	ys, err = dev.raw.MTSlotValues(input.ABS_MT_POSITION_Y, len(dev.slots))
	if err != nil {
		return
	}

	for i = range dev.slots {
		dev.slots[i].TrackingID = trackingIDs[i]
		dev.slots[i].X = dev.scaleToScreen(input.ABS_MT_POSITION_X, xs[i], false)
		dev.slots[i].Y = dev.scaleToScreen(input.ABS_MT_POSITION_Y, ys[i], true)
	}
}

// syncLEDs writes a synthetic EV_LED sequence reflecting the given
// lock-key states, terminated by SYN_REPORT. Skips devices without
// the keyboard capability bit.
func (dev *Device) syncLEDs(capsLock, numLock, scrollLock bool) error {
	if !dev.caps.Has(CapKeyboard) {
		return nil
	}

	var leds = []struct {
		code uint16
		on   bool
	}{
		{input.LED_NUML, numLock},
		{input.LED_CAPSL, capsLock},
		{input.LED_SCROLLL, scrollLock},
	}

	for _, l := range leds {
		var value int32

		if l.on {
			value = 1
		}

		err := dev.raw.WriteEvent(input.Event{Type: input.EV_LED, Code: l.code, Value: value})
		if err != nil {
			return fmt.Errorf("Device.syncLEDs: %w", err)
		}
	}

	return dev.raw.WriteEvent(input.Event{Type: input.EV_SYN, Code: input.SYN_REPORT})
}
