package evlayer

import "github.com/nullptr-dev/evlayer/linux/input"

// Dispatch is the polymorphic per-device behavior implemented by the
// fallback, touchpad, lid-switch and tablet-pad variants. device_added
// and device_removed are broadcast to every device's dispatch so, for
// example, a lid-switch dispatch can observe a keyboard's arrival on
// the same seat.
type Dispatch interface {
	// Process decodes one raw kernel event for the owning device,
	// updating internal state and, at frame boundaries, emitting
	// logical events through the owning device's context.
	Process(ev input.Event, timeMS uint32)

	// DeviceAdded notifies this dispatch that other was added
	// somewhere on the context.
	DeviceAdded(other *Device) error

	// DeviceRemoved notifies this dispatch that other was removed.
	DeviceRemoved(other *Device) error

	// DeviceSuspended notifies this dispatch that its own device is
	// about to be suspended.
	DeviceSuspended()

	// DeviceResumed notifies this dispatch that its own device was
	// resumed.
	DeviceResumed()

	// SyncInitialState emits any events needed to bring the host's
	// view in line with the device's current kernel state (e.g. an
	// initial lid-switch-toggle).
	SyncInitialState()

	// Destroy releases any dispatch-owned resources (timers, adapter
	// state).
	Destroy()
}
