package evlayer

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestMultiplexerDispatchInvokesCallbackOnWritableRead(t *testing.T) {
	var fds [2]int

	if err := unix.Pipe2(fds[:], 0); err != nil {
		t.Fatalf("unix.Pipe2: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	mux, err := newMultiplexer()
	if err != nil {
		t.Fatalf("newMultiplexer: %v", err)
	}
	defer mux.Close()

	var called int

	_, err = mux.AddFD(uintptr(fds[0]), func(fd uintptr, userdata any) {
		called++
	}, nil)
	if err != nil {
		t.Fatalf("AddFD: %v", err)
	}

	if _, err = unix.Write(fds[1], []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err = mux.Dispatch(); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if called != 1 {
		t.Errorf("callback called %d times, want 1", called)
	}

	unix.Read(fds[0], make([]byte, 1))
}

func TestMultiplexerRemoveStopsDelivery(t *testing.T) {
	var fds [2]int

	if err := unix.Pipe2(fds[:], 0); err != nil {
		t.Fatalf("unix.Pipe2: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	mux, err := newMultiplexer()
	if err != nil {
		t.Fatalf("newMultiplexer: %v", err)
	}
	defer mux.Close()

	var called int

	src, err := mux.AddFD(uintptr(fds[0]), func(fd uintptr, userdata any) {
		called++
	}, nil)
	if err != nil {
		t.Fatalf("AddFD: %v", err)
	}

	mux.Remove(src)

	if _, err = unix.Write(fds[1], []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err = mux.Dispatch(); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if called != 0 {
		t.Errorf("callback called %d times after Remove, want 0", called)
	}
}

func TestMultiplexerDeferredRemovalDuringDispatch(t *testing.T) {
	var fds [2]int

	if err := unix.Pipe2(fds[:], 0); err != nil {
		t.Fatalf("unix.Pipe2: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	mux, err := newMultiplexer()
	if err != nil {
		t.Fatalf("newMultiplexer: %v", err)
	}
	defer mux.Close()

	var src *Source

	src, err = mux.AddFD(uintptr(fds[0]), func(fd uintptr, userdata any) {
		mux.Remove(src)
	}, nil)
	if err != nil {
		t.Fatalf("AddFD: %v", err)
	}

	if _, err = unix.Write(fds[1], []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err = mux.Dispatch(); err != nil {
		t.Fatalf("Dispatch during self-removal: %v", err)
	}

	if src.fd != sourceRemoved {
		t.Error("source not marked removed after self-removal inside its own callback")
	}
}
