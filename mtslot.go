package evlayer

import "github.com/nullptr-dev/evlayer/fixed"

// MTSlot holds the reconstructed state of one multi-touch slot: the
// current logical-screen coordinate, the kernel tracking identifier,
// and whether the slot moved since the last frame was flushed.
type MTSlot struct {
	X, Y       fixed.Q24_8
	TrackingID int32
	Dirty      bool
}

// Active reports whether the slot currently holds a live touch
// (TrackingID >= 0).
func (s *MTSlot) Active() bool {
	return s.TrackingID >= 0
}

// Release clears the slot's tracking identifier, marking it free.
func (s *MTSlot) Release() {
	s.TrackingID = -1
	s.Dirty = false
}
