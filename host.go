package evlayer

// Host is the set of callbacks the library requires from its
// embedder: privilege-mediated fd handling and output geometry. It is
// the only dependency surface the core has on the surrounding process.
type Host interface {
	// OpenPath opens path (a character device node) with the given
	// flags and returns a file descriptor, or an error if the host
	// denies or fails the open.
	OpenPath(path string, flags int) (fd uintptr, err error)

	// CloseFD matches a prior OpenPath.
	CloseFD(fd uintptr)

	// ScreenDimensions returns the current logical screen width and
	// height in pixels, used to scale absolute and multi-touch
	// coordinates for dev.
	ScreenDimensions(dev *Device) (width, height int)
}
