// Package udev implements the udev-based discovery collaborator
// described by original_source/src/udev-seat.c: device add/remove is
// driven by udev properties (ID_SEAT, WL_SEAT, WL_CALIBRATION,
// LIBINPUT_ATTR_LID_SWITCH_RELIABILITY) rather than a directory scan.
// The actual udev binding is abstracted behind the Monitor interface
// so this package carries no cgo dependency on libudev.
package udev

import (
	"fmt"

	"github.com/nullptr-dev/evlayer"
)

const (
	defaultSeatPhysical = "seat0"
	defaultSeatLogical  = "default"
)

// Action names the udev device action that produced an Event.
type Action int

const (
	ActionAdd Action = iota
	ActionRemove
)

// Event is one udev device notification, reduced to the properties
// this layer consults. SeatPhysical/SeatLogical default to "seat0"/
// "default" when the device carries no ID_SEAT/WL_SEAT property,
// mirroring udev-seat.c's own fallback.
type Event struct {
	Action Action

	DevNode string
	Sysname string

	SeatPhysical string
	SeatLogical  string

	Calibration    string
	LidReliability string
}

// Monitor is implemented by the host's udev binding. Enumerate returns
// the devices already present; Next blocks until the next hotplug
// event and returns it.
type Monitor interface {
	Enumerate() ([]Event, error)
	Next() (Event, error)
	Close() error
}

// Backend is the udev discovery collaborator.
type Backend struct {
	ctx *evlayer.Context
	mon Monitor
}

// NewBackend constructs a udev Backend bound to ctx, reading device
// notifications from mon.
func NewBackend(ctx *evlayer.Context, mon Monitor) *Backend {
	return &Backend{ctx: ctx, mon: mon}
}

// Start enumerates devices already present via mon and adds each one.
func (b *Backend) Start() error {
	var (
		events []Event
		e      Event
		err    error
	)

	events, err = b.mon.Enumerate()
	if err != nil {
		return fmt.Errorf("udev.Backend.Start: %w", err)
	}

	for _, e = range events {
		b.handleAdd(e)
	}

	return nil
}

// PollHotplug consumes one pending notification from the monitor, if
// any, and applies it. Call in a loop or from a dedicated goroutine
// feeding a channel the host pumps into the main loop.
func (b *Backend) PollHotplug() error {
	var (
		e   Event
		err error
	)

	e, err = b.mon.Next()
	if err != nil {
		return fmt.Errorf("udev.Backend.PollHotplug: %w", err)
	}

	switch e.Action {
	case ActionAdd:
		b.handleAdd(e)
	case ActionRemove:
		b.handleRemove(e)
	}

	return nil
}

func (b *Backend) handleAdd(e Event) {
	var (
		seatPhysical = e.SeatPhysical
		seatLogical  = e.SeatLogical
	)

	if seatPhysical == "" {
		seatPhysical = defaultSeatPhysical
	}

	if seatLogical == "" {
		seatLogical = defaultSeatLogical
	}

	dev, err := b.ctx.AddDevice(e.DevNode, e.Sysname, seatPhysical, seatLogical)
	if err != nil || dev == nil {
		return
	}

	if e.Calibration != "" {
		if cal, calErr := evlayer.ParseCalibration(e.Calibration); calErr == nil {
			dev.SetCalibration(cal)
		}
	}

	if e.LidReliability != "" {
		dev.SetLidReliability(e.LidReliability)
	}
}

func (b *Backend) handleRemove(e Event) {
	var dev = b.ctx.DeviceByDevnode(e.DevNode)
	if dev == nil {
		return
	}

	b.ctx.RemoveDevice(dev)
}

// Close releases the underlying monitor.
func (b *Backend) Close() error {
	return b.mon.Close()
}
