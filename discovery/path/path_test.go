package path

import (
	"encoding/binary"
	"testing"
)

func appendInotifyEvent(buf []byte, wd int32, mask, cookie uint32, name string) []byte {
	var (
		raw    = []byte(name + "\x00")
		padLen = (len(raw) + 3) / 4 * 4
		header = make([]byte, inotifyEventHeaderSize)
	)

	binary.NativeEndian.PutUint32(header[0:4], uint32(wd))
	binary.NativeEndian.PutUint32(header[4:8], mask)
	binary.NativeEndian.PutUint32(header[8:12], cookie)
	binary.NativeEndian.PutUint32(header[12:16], uint32(padLen))

	buf = append(buf, header...)
	buf = append(buf, raw...)
	buf = append(buf, make([]byte, padLen-len(raw))...)

	return buf
}

func TestDecodeInotifyNamesSingleEvent(t *testing.T) {
	var buf = appendInotifyEvent(nil, 1, 0x100, 0, "event3")

	var names = decodeInotifyNames(buf)

	if len(names) != 1 || names[0] != "event3" {
		t.Fatalf("decodeInotifyNames() = %v, want [event3]", names)
	}
}

func TestDecodeInotifyNamesMultipleEvents(t *testing.T) {
	var buf []byte

	buf = appendInotifyEvent(buf, 1, 0x100, 0, "event3")
	buf = appendInotifyEvent(buf, 1, 0x100, 0, "event17")

	var names = decodeInotifyNames(buf)

	if len(names) != 2 || names[0] != "event3" || names[1] != "event17" {
		t.Fatalf("decodeInotifyNames() = %v, want [event3 event17]", names)
	}
}

func TestDecodeInotifyNamesSkipsEmptyName(t *testing.T) {
	var buf = appendInotifyEvent(nil, 1, 0x100, 0, "")

	var names = decodeInotifyNames(buf)

	if len(names) != 0 {
		t.Fatalf("decodeInotifyNames() = %v, want empty", names)
	}
}

func TestDecodeInotifyNamesTruncatedBufferStopsCleanly(t *testing.T) {
	var buf = appendInotifyEvent(nil, 1, 0x100, 0, "event3")

	buf = buf[:len(buf)-4]

	var names = decodeInotifyNames(buf)

	if len(names) != 0 {
		t.Fatalf("decodeInotifyNames() on truncated buffer = %v, want empty", names)
	}
}

func TestNewBackendStartsWithNoWatch(t *testing.T) {
	var b = NewBackend(nil)

	if b.watchFD != -1 {
		t.Errorf("NewBackend().watchFD = %d, want -1", b.watchFD)
	}
}

func TestCloseOnUnstartedBackendIsNoOp(t *testing.T) {
	var b = NewBackend(nil)

	if err := b.Close(); err != nil {
		t.Errorf("Close() on unstarted backend = %v, want nil", err)
	}
}

func TestPollHotplugOnUnstartedBackendIsNoOp(t *testing.T) {
	var b = NewBackend(nil)

	if err := b.PollHotplug(); err != nil {
		t.Errorf("PollHotplug() on unstarted backend = %v, want nil", err)
	}
}
