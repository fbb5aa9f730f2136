package evlayer

// Capability is a bitset describing the logical feature set a device
// exposes after probing, distinct from the raw kernel EV_* bitmask.
type Capability uint8

const (
	// CapPointer marks a device producing pointer-motion/button/axis
	// events (relative motion or non-MT absolute motion).
	CapPointer Capability = 1 << iota

	// CapKeyboard marks a device producing keyboard-key events.
	CapKeyboard

	// CapTouch marks a device producing multi-touch touch-down/up/
	// motion events.
	CapTouch
)

// Has reports whether bit is set in c.
func (c Capability) Has(bit Capability) bool {
	return c&bit != 0
}
