package evlayer

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// sourceRemoved marks a Source that has been unregistered; stale
// references left over from mid-dispatch removal skip delivery.
const sourceRemoved = ^uintptr(0)

// sourceCallback is invoked when a registered fd becomes readable.
type sourceCallback func(fd uintptr, userdata any)

// Source is one registered fd/callback pair.
type Source struct {
	fd       uintptr
	callback sourceCallback
	userdata any
}

// multiplexer wraps one epoll instance, registering device file
// descriptors and dispatching per-fd callbacks with deferred source
// destruction: a source removed from within its own callback is kept
// alive until the end of the current Dispatch call.
type multiplexer struct {
	epfd       int
	sources    map[uintptr]*Source
	deferred   []*Source
	inDispatch bool
}

func newMultiplexer() (*multiplexer, error) {
	var (
		epfd int
		err  error
	)

	epfd, err = unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("evlayer.newMultiplexer: %w: %w", ErrNoWaitPrimitive, err)
	}

	return &multiplexer{epfd: epfd, sources: make(map[uintptr]*Source)}, nil
}

// AddFD registers fd with the multiplexer for read-readiness.
func (m *multiplexer) AddFD(fd uintptr, cb sourceCallback, userdata any) (*Source, error) {
	var (
		src = &Source{fd: fd, callback: cb, userdata: userdata}
		ev  = unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		err error
	)

	err = unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev)
	if err != nil {
		return nil, fmt.Errorf("multiplexer.AddFD: %w", err)
	}

	m.sources[fd] = src

	return src, nil
}

// Remove unregisters src. If called from within Dispatch, the Source
// is kept on a deferred-free list until Dispatch finishes its current
// round rather than freed immediately.
func (m *multiplexer) Remove(src *Source) {
	if src.fd == sourceRemoved {
		return
	}

	unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, int(src.fd), nil)
	delete(m.sources, src.fd)

	if m.inDispatch {
		m.deferred = append(m.deferred, src)
	}

	src.fd = sourceRemoved
}

// Dispatch waits for ready descriptors with a zero timeout, invokes
// each ready source's callback once, then frees sources deferred
// during this round.
func (m *multiplexer) Dispatch() error {
	var (
		events [32]unix.EpollEvent
		n      int
		i      int
		err    error
	)

	n, err = unix.EpollWait(m.epfd, events[:], 0)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}

		return fmt.Errorf("multiplexer.Dispatch: %w", err)
	}

	m.inDispatch = true

	for i = 0; i < n; i++ {
		var (
			fd  = uintptr(events[i].Fd)
			src *Source
			ok  bool
		)

		src, ok = m.sources[fd]
		if !ok || src.fd == sourceRemoved {
			continue
		}

		src.callback(src.fd, src.userdata)
	}

	m.inDispatch = false
	m.deferred = nil

	return nil
}

// Close releases the epoll instance.
func (m *multiplexer) Close() error {
	return unix.Close(m.epfd)
}
