package effects

import (
	"math"
	"sync/atomic"
)

// Compressor is a stereo-linked peak compressor used as gentle glue on the master
// bus. Both channels share one envelope so the stereo image does not wander.
type Compressor struct {
	threshold float32
	slope     float32 // 1/ratio - 1
	attack    float32 // coefficient
	release   float32 // coefficient
	makeup    float32
	env       float32

	reduction atomic.Uint32 // last gain, float32 bits
}

// NewCompressor creates a compressor.
// thresholdDB: threshold in dB (e.g., -12)
// ratio: compression ratio (e.g., 2 for 2:1)
// attackMs, releaseMs: envelope follower times
// makeupDB: makeup gain in dB
func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	sr := float64(sampleRate)
	if ratio < 1 {
		ratio = 1
	}
	c := &Compressor{
		threshold: float32(math.Pow(10, float64(thresholdDB)/20)),
		slope:     1/ratio - 1,
		attack:    float32(1.0 - math.Exp(-1.0/(float64(attackMs)*sr/1000.0))),
		release:   float32(1.0 - math.Exp(-1.0/(float64(releaseMs)*sr/1000.0))),
		makeup:    float32(math.Pow(10, float64(makeupDB)/20)),
	}
	c.reduction.Store(math.Float32bits(1))
	return c
}

func (c *Compressor) Process(l, r float32) (float32, float32) {
	peak := float32(math.Max(math.Abs(float64(l)), math.Abs(float64(r))))
	if peak > c.env {
		c.env += c.attack * (peak - c.env)
	} else {
		c.env += c.release * (peak - c.env)
	}
	g := c.gain(c.env)
	c.reduction.Store(math.Float32bits(g))
	g *= c.makeup
	return l * g, r * g
}

func (c *Compressor) gain(env float32) float32 {
	if env <= c.threshold || c.threshold <= 0 {
		return 1.0
	}
	return float32(math.Pow(float64(env/c.threshold), float64(c.slope)))
}

// GainReduction returns the most recent gain applied before makeup, 1 = none.
// Safe to call from any goroutine.
func (c *Compressor) GainReduction() float32 {
	return math.Float32frombits(c.reduction.Load())
}

func (c *Compressor) Reset() {
	c.env = 0
	c.reduction.Store(math.Float32bits(1))
}
