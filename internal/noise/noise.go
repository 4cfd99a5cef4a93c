// Package noise generates white, brown and pink noise for the ambient noise bed.
// Generators keep their state between calls so consecutive blocks join seamlessly.
package noise

import (
	"math/bits"
)

// Color selects a noise spectrum.
type Color int

const (
	White Color = iota
	Pink
	Brown
)

const (
	// BrownLeak is the integrator leak that keeps brown noise from drifting.
	BrownLeak = 0.98
	// BrownStep scales each white increment fed to the integrator.
	BrownStep = 0.05
	// BrownGain restores perceived loudness after integration.
	BrownGain = 3.5

	// PinkRows is the number of Voss–McCartney sub-generators.
	PinkRows = 16
	// PinkGain normalizes PinkRows sub-generators plus one white term.
	PinkGain = 0.11

	pinkResyncMask = 0xFFFF
)

// Generator produces one sample per call.
type Generator interface {
	Next() float64
}

// Fill writes len(dst) consecutive samples from g.
func Fill(g Generator, dst []float64) {
	for i := range dst {
		dst[i] = g.Next()
	}
}

// xorshift is a xorshift32 PRNG. It is lock-free and allocation-free, which the
// audio thread requires.
type xorshift uint32

func newXorshift(seed uint32) xorshift {
	if seed == 0 {
		seed = 0x9E3779B9
	}
	return xorshift(seed)
}

func (x *xorshift) next() uint32 {
	s := uint32(*x)
	s ^= s << 13
	s ^= s >> 17
	s ^= s << 5
	*x = xorshift(s)
	return s
}

// bipolar returns a uniform sample in [-1, 1].
func (x *xorshift) bipolar() float64 {
	return float64(x.next())/float64(^uint32(0))*2 - 1
}

// WhiteNoise is i.i.d. uniform noise in [-1, 1].
type WhiteNoise struct {
	rng xorshift
}

func NewWhite(seed uint32) *WhiteNoise {
	return &WhiteNoise{rng: newXorshift(seed)}
}

func (w *WhiteNoise) Next() float64 { return w.rng.bipolar() }

// BrownNoise is a leaky integrator over white noise.
type BrownNoise struct {
	rng  xorshift
	leak float64
	step float64
	gain float64
	x    float64
}

// NewBrown creates brown noise with the given leak, increment scale and output gain.
// The integrator state saturates at ±1, so output never exceeds ±gain.
func NewBrown(seed uint32, leak, step, gain float64) *BrownNoise {
	return &BrownNoise{rng: newXorshift(seed), leak: leak, step: step, gain: gain}
}

func (b *BrownNoise) Next() float64 {
	b.x = b.x*b.leak + b.rng.bipolar()*b.step
	if b.x > 1 {
		b.x = 1
	} else if b.x < -1 {
		b.x = -1
	}
	return b.x * b.gain
}

// Gain returns the output gain; |Next()| <= Gain().
func (b *BrownNoise) Gain() float64 { return b.gain }

// PinkNoise is Voss–McCartney pink noise. Each sample refreshes exactly one
// sub-generator, chosen by the trailing zeros of a counter, so row i changes
// every 2^(i+1) samples and the work per sample is O(1).
type PinkNoise struct {
	rng     xorshift
	rows    [PinkRows]float64
	sum     float64
	counter uint32
}

func NewPink(seed uint32) *PinkNoise {
	p := &PinkNoise{rng: newXorshift(seed)}
	for i := range p.rows {
		p.rows[i] = p.rng.bipolar()
		p.sum += p.rows[i]
	}
	return p
}

func (p *PinkNoise) Next() float64 {
	p.counter++
	idx := bits.TrailingZeros32(p.counter)
	if idx >= PinkRows {
		idx = PinkRows - 1
	}
	fresh := p.rng.bipolar()
	p.sum += fresh - p.rows[idx]
	p.rows[idx] = fresh
	if p.counter&pinkResyncMask == 0 {
		p.resync()
	}
	return (p.sum + p.rng.bipolar()) * PinkGain
}

// resync recomputes the running sum from the rows, discarding rounding error.
func (p *PinkNoise) resync() {
	var s float64
	for _, v := range p.rows {
		s += v
	}
	p.sum = s
}

// Sum is the incrementally maintained running sum.
func (p *PinkNoise) Sum() float64 { return p.sum }

// Rows returns a copy of the sub-generator values.
func (p *PinkNoise) Rows() [PinkRows]float64 { return p.rows }
