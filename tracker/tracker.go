// Package tracker implements the pointer motion filter's sliding-window
// history of recent displacement samples, grounded on the
// pointer_tracker ring in the original filter.c.
package tracker

import "github.com/nullptr-dev/evlayer/fixed"

// Samples is the fixed ring size: 16 recent motion events.
const Samples = 16

// Sample holds one tracker slot: the displacement accumulated since the
// sample was most recent, its timestamp, and the direction octants of
// the motion that created it.
type Sample struct {
	DX, DY fixed.Q24_8
	Time   uint32
	Dirs   uint8
}

// Ring is a circular buffer of the last 16 motion samples. Feeding a new
// (dx, dy) accumulates it onto every existing slot and resets the
// current slot, so slot k (by offset) ends up holding the total
// displacement over the last k feeds.
type Ring struct {
	samples [Samples]Sample
	current int
}

// Feed records a new motion sample at time now, in milliseconds.
func (r *Ring) Feed(dx, dy fixed.Q24_8, now uint32) {
	var i int

	for i = range r.samples {
		r.samples[i].DX += dx
		r.samples[i].DY += dy
	}

	r.current = (r.current + 1) % Samples
	r.samples[r.current] = Sample{
		Time: now,
		Dirs: fixed.Octant(dx.Float(), dy.Float()),
	}
}

// ByOffset returns the sample offset steps before the most recently fed
// one; offset 0 is the current sample.
func (r *Ring) ByOffset(offset uint) *Sample {
	var index int

	index = (r.current + Samples - int(offset)%Samples) % Samples

	return &r.samples[index]
}
