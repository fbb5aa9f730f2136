// Package path implements the path-based discovery collaborator: it
// globs /dev/input for existing event nodes and hot-plugs new ones via
// an inotify watch on the directory, grounded on
// original_source/src/path.c's default_seat/default_seat_name pairing
// and on the retrieval pack's filepath.Glob-based device enumeration.
package path

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/nullptr-dev/evlayer"
)

const (
	defaultSeat     = "seat0"
	defaultSeatName = "default"
	inputDir        = "/dev/input"

	inotifyEventHeaderSize = 16
)

// Backend is the path discovery collaborator. Every device it finds is
// added to the single default seat; seat assignment by udev property
// is the udev back-end's job, not this one's.
type Backend struct {
	ctx *evlayer.Context

	watchFD         int
	watchDescriptor int
}

// NewBackend constructs a path Backend bound to ctx.
func NewBackend(ctx *evlayer.Context) *Backend {
	return &Backend{ctx: ctx, watchFD: -1}
}

// Start globs /dev/input for existing event nodes, adds each one to
// the context, then opens an inotify watch on /dev/input so PollHotplug
// can pick up later arrivals.
func (b *Backend) Start() error {
	var (
		paths []string
		p     string
		err   error
	)

	paths, err = filepath.Glob(filepath.Join(inputDir, "event*"))
	if err != nil {
		return fmt.Errorf("path.Backend.Start: %w", err)
	}

	for _, p = range paths {
		b.addPath(p)
	}

	var fd, wd int

	fd, err = unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return fmt.Errorf("path.Backend.Start: %w", err)
	}

	wd, err = unix.InotifyAddWatch(fd, inputDir, unix.IN_CREATE)
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("path.Backend.Start: %w", err)
	}

	b.watchFD = fd
	b.watchDescriptor = wd

	return nil
}

func (b *Backend) addPath(p string) {
	var sysname = filepath.Base(p)

	b.ctx.AddDevice(p, sysname, defaultSeat, defaultSeatName)
}

// PollHotplug drains pending inotify events on /dev/input and adds any
// newly created eventN nodes. Call this once per main-loop iteration
// alongside Context.Dispatch.
func (b *Backend) PollHotplug() error {
	if b.watchFD < 0 {
		return nil
	}

	var buf [4096]byte

	for {
		n, err := unix.Read(b.watchFD, buf[:])
		if err != nil {
			if err == unix.EAGAIN {
				return nil
			}

			return fmt.Errorf("path.Backend.PollHotplug: %w", err)
		}

		var name string

		for _, name = range decodeInotifyNames(buf[:n]) {
			if strings.HasPrefix(name, "event") {
				b.addPath(filepath.Join(inputDir, name))
			}
		}
	}
}

// decodeInotifyNames walks a buffer of packed struct inotify_event
// records and returns the name field of each, skipping events with an
// empty name (e.g. ones reported for the watched directory itself).
func decodeInotifyNames(buf []byte) []string {
	var (
		names  []string
		offset int
	)

	for offset+inotifyEventHeaderSize <= len(buf) {
		var nameLen = int(binary.NativeEndian.Uint32(buf[offset+12 : offset+16]))
		var nameStart = offset + inotifyEventHeaderSize

		if nameStart+nameLen > len(buf) {
			break
		}

		if nameLen > 0 {
			names = append(names, unix.ByteSliceToString(buf[nameStart:nameStart+nameLen]))
		}

		offset = nameStart + nameLen
	}

	return names
}

// Close releases the inotify watch descriptor.
func (b *Backend) Close() error {
	if b.watchFD < 0 {
		return nil
	}

	var err = unix.Close(b.watchFD)

	b.watchFD = -1

	return err
}
