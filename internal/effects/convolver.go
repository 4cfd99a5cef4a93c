package effects

import (
	"errors"
	"math"

	"github.com/mjibson/go-dsp/fft"

	"github.com/cbegin/ambient-go/internal/noise"
)

// Convolver is a uniformly partitioned overlap-save FFT convolution of a mono
// input with a stereo impulse response. Output lags input by one block.
type Convolver struct {
	block int
	n     int
	bins  int
	parts int
	plan  *fftPlan

	irL, irR [][]complex128 // partition spectra, bins 0..block
	fdl      [][]complex128 // input spectra, newest at head
	head     int

	prev, in   []float64
	outL, outR []float64
	pos        int

	work []complex128
	acc  []complex128
}

// NewConvolver partitions irL/irR into blocks of blockSize (a power of two).
// An empty irR reuses irL.
func NewConvolver(irL, irR []float64, blockSize int) (*Convolver, error) {
	if blockSize < 2 || blockSize&(blockSize-1) != 0 {
		return nil, errors.New("convolver block size must be a power of two")
	}
	if len(irL) == 0 {
		return nil, errors.New("empty impulse response")
	}
	if len(irR) == 0 {
		irR = irL
	}
	if len(irR) != len(irL) {
		return nil, errors.New("impulse response channels differ in length")
	}
	n := blockSize * 2
	bins := blockSize + 1
	parts := (len(irL) + blockSize - 1) / blockSize
	c := &Convolver{
		block: blockSize,
		n:     n,
		bins:  bins,
		parts: parts,
		plan:  newFFTPlan(n),
		irL:   partitionSpectra(irL, blockSize, parts),
		irR:   partitionSpectra(irR, blockSize, parts),
		fdl:   make([][]complex128, parts),
		prev:  make([]float64, blockSize),
		in:    make([]float64, blockSize),
		outL:  make([]float64, blockSize),
		outR:  make([]float64, blockSize),
		work:  make([]complex128, n),
		acc:   make([]complex128, bins),
	}
	for i := range c.fdl {
		c.fdl[i] = make([]complex128, bins)
	}
	return c, nil
}

func partitionSpectra(ir []float64, block, parts int) [][]complex128 {
	out := make([][]complex128, parts)
	seg := make([]float64, block*2)
	for p := range out {
		for i := range seg {
			seg[i] = 0
		}
		copy(seg, ir[p*block:min(len(ir), (p+1)*block)])
		out[p] = fft.FFTReal(seg)[:block+1]
	}
	return out
}

// Latency is the delay, in samples, between input and output.
func (c *Convolver) Latency() int { return c.block }

// Process pushes one input sample and returns one stereo output sample.
func (c *Convolver) Process(in float64) (float64, float64) {
	c.in[c.pos] = in
	l, r := c.outL[c.pos], c.outR[c.pos]
	c.pos++
	if c.pos == c.block {
		c.processBlock()
		c.pos = 0
	}
	return l, r
}

func (c *Convolver) processBlock() {
	b := c.block
	for i := 0; i < b; i++ {
		c.work[i] = complex(c.prev[i], 0)
		c.work[b+i] = complex(c.in[i], 0)
	}
	copy(c.prev, c.in)
	c.plan.transform(c.work, false)
	c.head = (c.head - 1 + c.parts) % c.parts
	copy(c.fdl[c.head], c.work[:c.bins])
	c.accumulate(c.irL, c.outL)
	c.accumulate(c.irR, c.outR)
}

func (c *Convolver) accumulate(ir [][]complex128, out []float64) {
	acc := c.acc
	for k := range acc {
		acc[k] = 0
	}
	for p := 0; p < c.parts; p++ {
		x := c.fdl[(c.head+p)%c.parts]
		h := ir[p]
		for k := range acc {
			acc[k] += x[k] * h[k]
		}
	}
	copy(c.work, acc)
	for k := 1; k < c.block; k++ {
		a := acc[k]
		c.work[c.n-k] = complex(real(a), -imag(a))
	}
	c.plan.transform(c.work, true)
	for i := range out {
		out[i] = real(c.work[c.block+i])
	}
}

func (c *Convolver) Reset() {
	for _, x := range c.fdl {
		for k := range x {
			x[k] = 0
		}
	}
	for i := 0; i < c.block; i++ {
		c.prev[i], c.in[i], c.outL[i], c.outR[i] = 0, 0, 0, 0
	}
	c.pos = 0
}

// SyntheticIR builds a stereo impulse response from decorrelated noise shaped by
// (1-t)^decay. Each channel is normalized to unit energy.
func SyntheticIR(sampleRate int, seconds, decay float64, seed uint32) ([]float64, []float64) {
	n := int(seconds * float64(sampleRate))
	if n < 1 {
		n = 1
	}
	l := make([]float64, n)
	r := make([]float64, n)
	noise.Fill(noise.NewWhite(seed), l)
	noise.Fill(noise.NewWhite(seed^0x5bd1e995), r)
	for i := range l {
		env := math.Pow(1-float64(i)/float64(n), decay)
		l[i] *= env
		r[i] *= env
	}
	normalize(l)
	normalize(r)
	return l, r
}

func normalize(x []float64) {
	var e float64
	for _, v := range x {
		e += v * v
	}
	if e == 0 {
		return
	}
	s := 1 / math.Sqrt(e)
	for i := range x {
		x[i] *= s
	}
}

// NewReverb returns a convolver loaded with a synthetic impulse response.
func NewReverb(sampleRate int, seconds, decay float64, blockSize int, seed uint32) (*Convolver, error) {
	l, r := SyntheticIR(sampleRate, seconds, decay, seed)
	return NewConvolver(l, r, blockSize)
}
