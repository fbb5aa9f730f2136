// Package evlayer decodes raw Linux evdev character-device reports
// into a stream of semantically typed logical events delivered to a
// single host process.
package evlayer

import (
	"fmt"
	"log"

	"github.com/hashicorp/go-multierror"

	"github.com/nullptr-dev/evlayer/levent"
	"github.com/nullptr-dev/evlayer/ring"
)

// Backend names the discovery collaborator variant a Context was
// constructed with.
type Backend int

const (
	BackendPath Backend = iota
	BackendUdev
)

// Context is process-wide state owned by a single thread. It holds
// the event-wait primitive, the seat list, the resizable event ring,
// a deferred-destroy source list, host callbacks, and the back-end
// variant that drives discovery.
type Context struct {
	refs int

	host    Host
	mux     *multiplexer
	ring    *ring.Ring
	seats   []*Seat
	backend Backend
	logger  *log.Logger

	suspended bool
}

func newContext(host Host, backend Backend, logger *log.Logger) (*Context, error) {
	var (
		mux *multiplexer
		err error
	)

	mux, err = newMultiplexer()
	if err != nil {
		return nil, fmt.Errorf("evlayer.newContext: %w", err)
	}

	if logger == nil {
		logger = log.Default()
	}

	return &Context{
		refs:    1,
		host:    host,
		mux:     mux,
		ring:    ring.New(4),
		backend: backend,
		logger:  logger,
	}, nil
}

// NewPathContext constructs a Context backed by the path discovery
// collaborator (scans /dev/input, hot-plugs via inotify).
func NewPathContext(host Host, logger *log.Logger) (*Context, error) {
	return newContext(host, BackendPath, logger)
}

// NewUdevContext constructs a Context backed by a udev-monitor-shaped
// discovery collaborator.
func NewUdevContext(host Host, logger *log.Logger) (*Context, error) {
	return newContext(host, BackendUdev, logger)
}

// Ref increments the context's reference count.
func (ctx *Context) Ref() {
	ctx.refs++
}

// Unref decrements the context's reference count.
func (ctx *Context) Unref() {
	ctx.refs--
}

// Backend returns which discovery variant this context was built
// with.
func (ctx *Context) Backend() Backend {
	return ctx.backend
}

// Dispatch waits for ready device descriptors with a zero timeout and
// delivers each one's callback, decoding kernel events into logical
// events enqueued on the ring.
func (ctx *Context) Dispatch() error {
	return ctx.mux.Dispatch()
}

// NextEvent pops and returns the oldest logical event, or nil if the
// ring is empty. The caller must call Destroy on the returned event
// once done with it.
func (ctx *Context) NextEvent() *levent.Event {
	var (
		item ring.Item
		ok   bool
	)

	item, ok = ctx.ring.Get()
	if !ok {
		return nil
	}

	return item.Value.(*levent.Event)
}

// DestroyEvent releases an event's target reference. Safe on nil.
func (ctx *Context) DestroyEvent(e *levent.Event) {
	levent.Destroy(e)
}

func (ctx *Context) post(e *levent.Event) {
	ctx.ring.Post(e.Target, e)
}

// addDevice registers a fully-probed device: adds it to its seat, then
// broadcasts device-added to every other device's dispatch on every
// seat so cross-device coordinators (lid/keyboard pairing) can react,
// and posts a host-visible DeviceAdded event onto the ring. Per-dispatch
// failures are collected and returned together rather than aborting
// the broadcast.
func (ctx *Context) addDevice(dev *Device) error {
	dev.seat.addDevice(dev)

	var err = ctx.broadcastDeviceAdded(dev)

	ctx.post(levent.New(levent.DeviceAdded, dev, 0))

	return err
}

// broadcastDeviceAdded notifies every device's dispatch (other than
// dev itself) that dev was added, collecting all partial failures.
func (ctx *Context) broadcastDeviceAdded(dev *Device) error {
	var (
		result *multierror.Error
		seat   *Seat
		other  *Device
	)

	for _, seat = range ctx.seats {
		for _, other = range seat.Devices() {
			if other == dev || other.dispatch == nil {
				continue
			}

			if err := other.dispatch.DeviceAdded(dev); err != nil {
				result = multierror.Append(result, fmt.Errorf("device %s: %w", other.Sysname, err))
			}
		}
	}

	return result.ErrorOrNil()
}

// Devices returns every device currently registered across all seats.
func (ctx *Context) Devices() []*Device {
	var (
		out  []*Device
		seat *Seat
	)

	for _, seat = range ctx.seats {
		out = append(out, seat.Devices()...)
	}

	return out
}

// DeviceByDevnode returns the device currently registered under
// devnode, or nil if none matches. Used by discovery back-ends that
// learn of removal out-of-band and need to map a path back to a
// Device.
func (ctx *Context) DeviceByDevnode(devnode string) *Device {
	var (
		seat *Seat
		dev  *Device
	)

	for _, seat = range ctx.seats {
		for _, dev = range seat.Devices() {
			if dev.Devnode == devnode {
				return dev
			}
		}
	}

	return nil
}

// RemoveDevice unregisters dev: broadcasts device-removed to every
// other device's dispatch and releases dev's resources. Exposed for
// discovery back-ends (e.g. a udev "remove" action) that observe
// removal independently of a read error on the device's own fd.
func (ctx *Context) RemoveDevice(dev *Device) error {
	return ctx.removeDevice(dev)
}

// removeDevice broadcasts device-removed, posts a host-visible
// DeviceRemoved event, then tears the device down.
func (ctx *Context) removeDevice(dev *Device) error {
	var (
		result *multierror.Error
		seat   *Seat
		other  *Device
	)

	for _, seat = range ctx.seats {
		for _, other = range seat.Devices() {
			if other == dev || other.dispatch == nil {
				continue
			}

			if err := other.dispatch.DeviceRemoved(dev); err != nil {
				result = multierror.Append(result, fmt.Errorf("device %s: %w", other.Sysname, err))
			}
		}
	}

	ctx.post(levent.New(levent.DeviceRemoved, dev, 0))

	dev.seat.removeDevice(dev)
	dev.destroy()

	return result.ErrorOrNil()
}

// logRemoval logs that a device was removed due to an I/O failure or
// protocol corruption, per the "log and remove" error-handling policy.
func (ctx *Context) logRemoval(dev *Device, cause error) {
	ctx.logger.Printf("evlayer: removing device %s: %v", dev.Sysname, cause)
}

// logDiscoveryFailure logs that a candidate device failed to appear.
func (ctx *Context) logDiscoveryFailure(path string, cause error) {
	ctx.logger.Printf("evlayer: device %s did not appear: %v", path, cause)
}

// logLidReliabilityFallback logs an unrecognised LID_SWITCH_RELIABILITY
// value falling back to "unknown".
func (ctx *Context) logLidReliabilityFallback(value string) {
	ctx.logger.Printf("evlayer: unrecognised LID_SWITCH_RELIABILITY %q, assuming unknown", value)
}

// Suspend tears down every device's source (emitting device-removed
// for each) but keeps the context's seats and state alive for Resume.
// Two consecutive calls are idempotent.
func (ctx *Context) Suspend() error {
	var (
		result *multierror.Error
		seat   *Seat
		dev    *Device
	)

	if ctx.suspended {
		return nil
	}

	for _, seat = range ctx.seats {
		for _, dev = range append([]*Device(nil), seat.Devices()...) {
			if err := ctx.removeDevice(dev); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}

	ctx.suspended = true

	return result.ErrorOrNil()
}

// Resume marks the context ready to accept newly discovered devices
// again. The discovery collaborator is responsible for rediscovering
// and re-adding devices via AddDevice.
func (ctx *Context) Resume() {
	ctx.suspended = false
}

// Destroy drains and frees all pending events, then releases all
// seats and devices.
func (ctx *Context) Destroy() {
	var (
		seat *Seat
		dev  *Device
	)

	for {
		item, ok := ctx.ring.Get()
		if !ok {
			break
		}

		ctx.ring.Destroy(item)
	}

	for _, seat = range ctx.seats {
		for _, dev = range append([]*Device(nil), seat.Devices()...) {
			dev.destroy()
		}
	}

	ctx.mux.Close()
	ctx.seats = nil
}
