package evlayer

import "errors"

var (
	// ErrUnhandled is returned by device probing when capability
	// checks reject the device (joystick, accelerometer, empty
	// capability set after probing).
	ErrUnhandled = errors.New("evlayer: device unhandled")

	// ErrNoWaitPrimitive is returned by a context constructor when the
	// underlying event-wait primitive (epoll) cannot be created.
	ErrNoWaitPrimitive = errors.New("evlayer: could not create wait primitive")

	// ErrInvalidSlot is returned when a slotted coordinate arrives
	// with a negative slot index.
	ErrInvalidSlot = errors.New("evlayer: invalid slot index")

	// ErrShortRead is returned when a device read returns a byte count
	// that is not a multiple of the kernel input_event size; the
	// device is removed in response.
	ErrShortRead = errors.New("evlayer: short or misaligned event read")
)
