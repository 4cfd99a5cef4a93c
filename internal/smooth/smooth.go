// Package smooth provides click-free parameter ramps that are written from a
// control goroutine and stepped per sample on the audio thread.
package smooth

import (
	"math"
	"sync/atomic"
)

// snapEpsilon is the distance at which an exponential approach lands on its target.
const snapEpsilon = 1e-9

// Coefficient returns the per-sample step factor of a one-pole exponential approach
// with time constant tau seconds.
func Coefficient(tau float64, sampleRate int) float64 {
	if tau <= 0 || sampleRate <= 0 {
		return 1
	}
	return 1 - math.Exp(-1/(tau*float64(sampleRate)))
}

// Param approaches an atomically published target with an exponential curve
// (63% of the remaining distance per tau seconds).
// SetTarget and Target may be called from any goroutine; Next, Value and Snap
// belong to the audio thread.
type Param struct {
	target atomic.Uint64 // float64 bits
	value  float64
	coeff  float64
}

// NewParam creates a Param resting at initial.
func NewParam(initial, tau float64, sampleRate int) *Param {
	p := &Param{value: initial, coeff: Coefficient(tau, sampleRate)}
	p.target.Store(math.Float64bits(initial))
	return p
}

// SetTarget publishes a new target. The audio thread ramps toward it.
func (p *Param) SetTarget(v float64) {
	p.target.Store(math.Float64bits(v))
}

// Target returns the most recently published target.
func (p *Param) Target() float64 {
	return math.Float64frombits(p.target.Load())
}

// Next advances one sample and returns the smoothed value.
func (p *Param) Next() float64 {
	t := p.Target()
	d := t - p.value
	if math.Abs(d) < snapEpsilon {
		p.value = t
		return t
	}
	p.value += d * p.coeff
	return p.value
}

// Value returns the current smoothed value without advancing.
func (p *Param) Value() float64 { return p.value }

// Settled reports whether the value has reached its target.
func (p *Param) Settled() bool { return p.value == p.Target() }

// Snap moves the value onto the target immediately. Only for silent resets.
func (p *Param) Snap() { p.value = p.Target() }

// MaxStep is the largest per-sample change the ramp can produce for a move of span.
func (p *Param) MaxStep(span float64) float64 { return math.Abs(span) * p.coeff }
