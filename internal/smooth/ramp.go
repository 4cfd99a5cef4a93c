package smooth

import (
	"math"
	"sync/atomic"
)

// Ramp is a linear envelope whose segments are commanded from a control goroutine.
// Issuing a new segment cancels the one in flight and starts from the current
// level, so overlapping commands never produce a jump.
type Ramp struct {
	sampleRate float64

	// control -> audio
	cmdTarget atomic.Uint64 // float64 bits
	cmdFrames atomic.Int64
	cmdGen    atomic.Uint64

	// audio thread only
	gen       uint64
	value     float64
	target    float64
	step      float64
	remaining int64

	// audio -> control
	level   atomic.Uint64 // float64 bits
	settled atomic.Bool
}

// NewRamp creates a Ramp resting at initial.
func NewRamp(initial float64, sampleRate int) *Ramp {
	r := &Ramp{sampleRate: float64(sampleRate), value: initial, target: initial}
	r.cmdTarget.Store(math.Float64bits(initial))
	r.level.Store(math.Float64bits(initial))
	r.settled.Store(true)
	return r
}

// To commands a linear segment from the current level to target over seconds.
func (r *Ramp) To(target, seconds float64) {
	frames := int64(math.Round(seconds * r.sampleRate))
	if frames < 1 {
		frames = 1
	}
	r.cmdTarget.Store(math.Float64bits(target))
	r.cmdFrames.Store(frames)
	r.settled.Store(false)
	r.cmdGen.Add(1)
}

// Begin picks up a pending command. Call once per block on the audio thread.
func (r *Ramp) Begin() {
	g := r.cmdGen.Load()
	if g == r.gen {
		return
	}
	r.gen = g
	r.target = math.Float64frombits(r.cmdTarget.Load())
	r.remaining = r.cmdFrames.Load()
	r.step = (r.target - r.value) / float64(r.remaining)
}

// Next advances one sample.
func (r *Ramp) Next() float64 {
	if r.remaining > 0 {
		r.remaining--
		if r.remaining == 0 {
			r.value = r.target
		} else {
			r.value += r.step
		}
	}
	return r.value
}

// End publishes the level reached at the end of a block.
func (r *Ramp) End() {
	r.level.Store(math.Float64bits(r.value))
	r.settled.Store(r.Idle())
}

// Idle reports, on the audio thread, that no segment is running or pending.
func (r *Ramp) Idle() bool { return r.remaining == 0 && r.gen == r.cmdGen.Load() }

// Level is the last published level. Safe from any goroutine.
func (r *Ramp) Level() float64 { return math.Float64frombits(r.level.Load()) }

// Settled reports whether the last commanded segment has completed.
func (r *Ramp) Settled() bool { return r.settled.Load() }

// Value returns the audio-thread level.
func (r *Ramp) Value() float64 { return r.value }
