// Package accel implements the pointer acceleration filter: velocity
// estimation from the tracker ring, the penumbral-gradient acceleration
// profile, Simpson's-rule smoothing across calls, and the 11-step speed
// knob. Grounded on filter.c/filter.h (pointer_accelerator).
package accel

import (
	"math"

	"github.com/nullptr-dev/evlayer/fixed"
	"github.com/nullptr-dev/evlayer/tracker"
)

const (
	constantAcceleration = 10.0
	defaultThreshold     = 4.0
	defaultAccel         = 2.0
	maxVelocityDiff      = 1.0
	motionTimeoutMS      = 300
	stretch              = 3.0
)

// speedStep is one entry of the speed-knob lookup table.
type speedStep struct {
	threshold float64
	accel     float64
}

// speedLUT maps the 11 discrete speed settings (index 0 == slowest, 10
// == fastest) to a (threshold, accel) pair. Faster profiles use a
// smaller threshold and a larger ceiling.
var speedLUT = [11]speedStep{
	{10, 0.7},
	{8, 0.9},
	{7, 1.0},
	{6, 1.4},
	{5, 1.7},
	{defaultThreshold, defaultAccel},
	{3, 2.5},
	{2, 3.0},
	{1, 4.0},
	{1, 5.0},
	{1, 6.0},
}

// Filter is a velocity-dependent pointer motion accelerator. The zero
// value is ready to use at the default speed (0).
type Filter struct {
	trackers tracker.Ring

	threshold float64
	accelMax  float64
	speed     float64

	lastVelocity float64
}

// NewFilter returns a Filter at the default (0) speed setting.
func NewFilter() *Filter {
	return &Filter{
		threshold: defaultThreshold,
		accelMax:  defaultAccel,
	}
}

// SetSpeed quantises s (expected in [-1, 1]) to one of 11 discrete
// steps and stores the resulting (threshold, accel) pair. It returns
// the quantised speed actually stored.
func (f *Filter) SetSpeed(s float64) float64 {
	var idx int

	if s < -1 {
		s = -1
	} else if s > 1 {
		s = 1
	}

	idx = int(math.Round((s + 1) / 2 * 10))
	if idx < 0 {
		idx = 0
	} else if idx > 10 {
		idx = 10
	}

	f.threshold = speedLUT[idx].threshold
	f.accelMax = speedLUT[idx].accel
	f.speed = float64(idx)/10*2 - 1

	return f.speed
}

// Speed returns the most recently quantised speed setting.
func (f *Filter) Speed() float64 {
	return f.speed
}

// Apply scales (dx, dy) by the velocity-dependent acceleration factor
// and records state needed for the next call's Simpson's-rule average.
// now is a millisecond timestamp.
func (f *Filter) Apply(dx, dy fixed.Q24_8, now uint32) (fixed.Q24_8, fixed.Q24_8) {
	var (
		velocity float64
		factor   float64
	)

	f.trackers.Feed(dx, dy, now)
	velocity = f.velocity(now)
	factor = f.accelerationFactor(velocity)

	f.lastVelocity = velocity

	return fixed.FromFloat(factor * dx.Float()), fixed.FromFloat(factor * dy.Float())
}

// velocity scans the tracker ring from the most recent offset (1) out
// to 15, accumulating a direction mask by AND and stopping on a
// direction change, a stale sample, or a clock regression. The last
// accepted sample's velocity (units/ms) is returned.
func (f *Filter) velocity(now uint32) float64 {
	var (
		dir             uint8
		result          float64
		initialVelocity float64
		offset          uint
	)

	dir = f.trackers.ByOffset(0).Dirs

	for offset = 1; offset < tracker.Samples; offset++ {
		var (
			sample = f.trackers.ByOffset(offset)
			v      float64
		)

		if now-sample.Time > motionTimeoutMS || sample.Time > now {
			break
		}

		dir &= sample.Dirs
		if dir == 0 {
			break
		}

		v = sampleVelocity(sample, now)

		if initialVelocity == 0 {
			result = v
			initialVelocity = v
		} else {
			if math.Abs(initialVelocity-v) > maxVelocityDiff {
				break
			}
			result = v
		}
	}

	return result
}

// sampleVelocity computes |displacement| / elapsed-ms for one tracker
// sample relative to now.
func sampleVelocity(s *tracker.Sample, now uint32) float64 {
	var (
		dx = s.DX.Float()
		dy = s.DY.Float()
	)

	return math.Sqrt(dx*dx+dy*dy) / float64(now-s.Time)
}

// accelerationFactor averages the acceleration profile across
// (previous velocity, mean velocity, current velocity) with Simpson's
// rule weights (1, 4, 1)/6.
func (f *Filter) accelerationFactor(velocity float64) float64 {
	var sum float64

	sum = profile(f.threshold, f.accelMax, velocity)
	sum += profile(f.threshold, f.accelMax, f.lastVelocity)
	sum += 4 * profile(f.threshold, f.accelMax, (f.lastVelocity+velocity)/2)

	return sum / 6
}

// penumbralGradient is the smooth S-curve used by every piece of the
// acceleration profile below.
func penumbralGradient(x float64) float64 {
	x = x*2 - 1
	return 0.5 + (x*math.Sqrt(1-x*x)+math.Asin(x))/math.Pi
}

// profile is the five-piece smooth acceleration curve parameterised by
// threshold T and ceiling A, evaluated at normalised velocity v*10.
func profile(threshold, accelMax, velocity float64) float64 {
	if threshold < 1 {
		threshold = 1
	}
	if accelMax < 1 {
		accelMax = 1
	}

	velocity *= constantAcceleration

	if velocity < threshold/2 {
		return penumbralGradient(0.5+velocity/threshold)*2 - 1
	}

	if velocity <= threshold {
		return 1
	}

	velocity /= threshold
	switch {
	case velocity < accelMax:
		velocity = 0.5 * (velocity - 1) / (accelMax - 1)
	case velocity < accelMax*stretch:
		velocity = 0.5 + 0.5*(velocity-accelMax)/(accelMax*(stretch-1))
	default:
		return accelMax
	}

	return 1 + penumbralGradient(velocity)*(accelMax-1)
}
