//go:build linux

package input

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/nullptr-dev/evlayer/linux/ioctl"
	"golang.org/x/sys/unix"
)

// eventSize is the on-wire size of struct input_event on a 64-bit
// kernel: two 8-byte timeval fields, a uint16 type, a uint16 code, and
// an int32 value, with no trailing padding.
const eventSize = 24

// Device represents an evdev input device.
// It wraps the opened /dev/input/eventN file descriptor. The fd is
// always switched to non-blocking mode so ReadEvent never suspends
// the calling goroutine past the point an epoll-based multiplexer
// observed readiness.
type Device struct {
	fd uintptr
}

// NewDevice opens the evdev device at the given path and returns a Device.
// The path is cleaned before opening, and the device file is opened
// in read-write mode. The caller is responsible for closing the device
// when no longer needed.
func NewDevice(path string) (*Device, error) {
	var (
		fd  int
		err error
	)

	fd, err = unix.Open(filepath.Clean(path), unix.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("input.NewDevice: %w", err)
	}

	return &Device{fd: uintptr(fd)}, nil
}

// NewDeviceFromFd wraps an already-open file descriptor, for hosts that
// mediate device opening themselves (privilege separation) and hand
// the library a bare fd instead of a path.
func NewDeviceFromFd(fd uintptr) *Device {
	unix.SetNonblock(int(fd), true)

	return &Device{fd: fd}
}

// Devices scans /dev/input for event devices, opens each one, and
// returns a slice of Device pointers. If any device fails to open,
// an error is returned and no devices are returned.
func Devices() ([]*Device, error) {
	var (
		devices []*Device
		device  *Device
		paths   []string
		path    string
		err     error
	)

	paths, err = filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("input.Devices: %w", err)
	}

	devices = make([]*Device, 0, len(paths))
	for _, path = range paths {
		device, err = NewDevice(path)
		if err != nil {
			return nil, fmt.Errorf("input.Devices: %w", err)
		}

		devices = append(devices, device)
	}

	return devices, nil
}

// Name returns the human-readable name of the evdev device.
// It sends the [EVIOCGNAME] ioctl to read up to 256 bytes and
// converts the null-terminated result into a Go string.
func (dev *Device) Name() (string, error) {
	var (
		buf []byte
		err error
	)

	buf = make([]byte, 256)

	err = ioctl.Any(dev.fd, EVIOCGNAME(256), &buf[0])
	if err != nil {
		return "", fmt.Errorf("Device.Name: %w", err)
	}

	return unix.ByteSliceToString(buf), nil
}

// ID returns the platform-specific identifier for this evdev device.
// It issues the EVIOCGID ioctl to fetch the bus, vendor, product, and version fields.
// The result is formatted as:
// "bus 0x<bustype> vendor 0x<vendor> product 0x<product> version 0x<version>".
// e.g. "bus 0x3 vendor 0x46d product 0xc24f version 0x111".
func (dev *Device) ID() (string, error) {
	var (
		id  ID
		err error
	)

	err = ioctl.Any(dev.fd, EVIOCGID, &id)
	if err != nil {
		return "", fmt.Errorf("Device.ID: %w", err)
	}

	return fmt.Sprintf(
		"bus 0x%x vendor 0x%x product 0x%x version 0x%x",
		id.Bustype,
		id.Vendor,
		id.Product,
		id.Version,
	), nil
}

// RawID issues EVIOCGID and returns the raw bustype/vendor/product/
// version fields without formatting.
func (dev *Device) RawID() (ID, error) {
	var (
		id  ID
		err error
	)

	err = ioctl.Any(dev.fd, EVIOCGID, &id)
	if err != nil {
		return ID{}, fmt.Errorf("Device.RawID: %w", err)
	}

	return id, nil
}

// Events returns a slice of all supported event types for the device.
func (dev *Device) Events() ([]uint16, error) {
	var (
		buf       []byte
		events    []uint16
		eventType uint16
		err       error
	)

	buf = make([]byte, (EV_MAX+7)/8)

	err = ioctl.Any(
		dev.fd,
		EVIOCGBIT(0, uint(len(buf))),
		&buf[0],
	)
	if err != nil {
		return nil, fmt.Errorf("Device.Events: %w", err)
	}

	events = make([]uint16, 0, EV_CNT)

	for eventType = range uint16(EV_CNT) {
		if !TestBit(buf, uint(eventType)) {
			continue
		}

		if eventType == EV_REP {
			continue
		}

		events = append(events, eventType)
	}

	return events, nil
}

// Codes returns all supported codes for the given eventType.
func (dev *Device) Codes(eventType uint16) ([]uint16, error) {
	var (
		buf            []byte
		codes          []uint16
		maxCodes, code uint
		ok             bool
		err            error
	)

	maxCodes, ok = MaxCodes(eventType)
	if !ok {
		return nil, fmt.Errorf("Device.Codes: %w %d", ErrInvalidEventType, eventType)
	}

	buf = make([]byte, (maxCodes+7)/8)

	err = ioctl.Any(
		dev.fd,
		EVIOCGBIT(uint(eventType), uint(len(buf))),
		&buf[0],
	)
	if err != nil {
		return nil, fmt.Errorf("Device.Codes: %w", err)
	}

	codes = make([]uint16, 0, maxCodes+1)

	for code = range maxCodes + 1 {
		if !TestBit(buf, code) {
			continue
		}

		codes = append(codes, uint16(code))
	}

	return codes, nil
}

// AbsInfo issues EVIOCGABS for the given ABS_* code and returns the
// kernel's reported range, resolution and fuzz for that axis.
func (dev *Device) AbsInfo(code uint) (AbsInfo, error) {
	var (
		info AbsInfo
		err  error
	)

	err = ioctl.Any(dev.fd, EVIOCGABS(code), &info)
	if err != nil {
		return AbsInfo{}, fmt.Errorf("Device.AbsInfo: %w", err)
	}

	return info, nil
}

// Properties issues EVIOCGPROP and returns the set bits of the
// device's INPUT_PROP_* bitmap (e.g. INPUT_PROP_BUTTONPAD).
func (dev *Device) Properties() ([]byte, error) {
	var (
		buf = make([]byte, (INPUT_PROP_MAX+7)/8)
		err error
	)

	err = ioctl.Any(dev.fd, EVIOCGPROP(uint(len(buf))), &buf[0])
	if err != nil {
		return nil, fmt.Errorf("Device.Properties: %w", err)
	}

	return buf, nil
}

// KeyState issues EVIOCGKEY and returns the bulk bitmask of currently
// depressed EV_KEY codes.
func (dev *Device) KeyState() ([]byte, error) {
	var (
		buf = make([]byte, (KEY_MAX+7)/8)
		err error
	)

	err = ioctl.Any(dev.fd, EVIOCGKEY(uint(len(buf))), &buf[0])
	if err != nil {
		return nil, fmt.Errorf("Device.KeyState: %w", err)
	}

	return buf, nil
}

// SwitchState issues EVIOCGSW and returns the bulk bitmask of
// currently active EV_SW switches.
func (dev *Device) SwitchState() ([]byte, error) {
	var (
		buf = make([]byte, (SW_MAX+7)/8)
		err error
	)

	err = ioctl.Any(dev.fd, EVIOCGSW(uint(len(buf))), &buf[0])
	if err != nil {
		return nil, fmt.Errorf("Device.SwitchState: %w", err)
	}

	return buf, nil
}

// MTSlotValues issues EVIOCGMTSLOTS for the given ABS_MT_* code and
// returns the per-slot values for up to numSlots slots.
func (dev *Device) MTSlotValues(code uint16, numSlots int) ([]int32, error) {
	var (
		buf = make([]int32, numSlots+1)
		err error
	)

	buf[0] = int32(code)

	err = ioctl.Any(dev.fd, EVIOCGMTSLOTS(uint(len(buf)*4)), &buf[0])
	if err != nil {
		return nil, fmt.Errorf("Device.MTSlotValues: %w", err)
	}

	return buf[1:], nil
}

// Fd returns the underlying file descriptor, for registration with an
// epoll-based source multiplexer.
func (dev *Device) Fd() uintptr {
	return dev.fd
}

// Grab requests or releases exclusive access to the device via
// EVIOCGRAB, preventing other readers (including the kernel console)
// from seeing its events while held.
func (dev *Device) Grab(grab bool) error {
	var (
		val int32
		err error
	)

	if grab {
		val = 1
	}

	err = unix.IoctlSetInt(int(dev.fd), EVIOCGRAB(), int(val))
	if err != nil {
		return fmt.Errorf("Device.Grab: %w", err)
	}

	return nil
}

// SetClockRealtime switches the timestamp clock used for events read
// from this device away from the default CLOCK_MONOTONIC.
func (dev *Device) SetClockRealtime() error {
	var (
		clockID = int32(unix.CLOCK_REALTIME)
		err     error
	)

	err = ioctl.Any(dev.fd, EVIOCSCLOCKID(), &clockID)
	if err != nil {
		return fmt.Errorf("Device.SetClockRealtime: %w", err)
	}

	return nil
}

// ReadEvent reads and decodes one struct input_event. The descriptor
// is non-blocking: if no event is currently available, the returned
// error wraps [unix.EAGAIN]. The host is expected to have already
// determined (via epoll) that the descriptor is likely readable.
func (dev *Device) ReadEvent() (Event, error) {
	var (
		buf [eventSize]byte
		n   int
		err error
		ev  Event
	)

	n, err = unix.Read(int(dev.fd), buf[:])
	if err != nil {
		return Event{}, fmt.Errorf("Device.ReadEvent: %w", err)
	}
	if n != eventSize {
		return Event{}, fmt.Errorf("Device.ReadEvent: short read of %d bytes", n)
	}

	ev.Sec = binary.NativeEndian.Uint64(buf[0:8])
	ev.Usec = binary.NativeEndian.Uint64(buf[8:16])
	ev.Type = binary.NativeEndian.Uint16(buf[16:18])
	ev.Code = binary.NativeEndian.Uint16(buf[18:20])
	ev.Value = int32(binary.NativeEndian.Uint32(buf[20:24]))

	return ev, nil
}

// WriteEvent encodes and writes one struct input_event, used for
// synthetic LED state updates.
func (dev *Device) WriteEvent(ev Event) error {
	var buf [eventSize]byte

	binary.NativeEndian.PutUint64(buf[0:8], ev.Sec)
	binary.NativeEndian.PutUint64(buf[8:16], ev.Usec)
	binary.NativeEndian.PutUint16(buf[16:18], ev.Type)
	binary.NativeEndian.PutUint16(buf[18:20], ev.Code)
	binary.NativeEndian.PutUint32(buf[20:24], uint32(ev.Value))

	_, err := unix.Write(int(dev.fd), buf[:])
	if err != nil {
		return fmt.Errorf("Device.WriteEvent: %w", err)
	}

	return nil
}

// Close closes the evdev device's underlying file descriptor.
func (dev *Device) Close() error {
	var err error

	err = unix.Close(int(dev.fd))
	if err != nil {
		return fmt.Errorf("Device.Close: %w", err)
	}

	return nil
}
