package noise

import "github.com/cbegin/ambient-go/internal/smooth"

// Bed runs all three colors and crossfades between them, so switching color is
// as click-free as any other parameter change.
type Bed struct {
	white *WhiteNoise
	pink  *PinkNoise
	brown *BrownNoise
	gains [3]*smooth.Param
}

// NewBed creates a noise bed resting on color. tau is the crossfade time constant.
func NewBed(seed uint32, color Color, tau float64, sampleRate int) *Bed {
	b := &Bed{
		white: NewWhite(seed),
		pink:  NewPink(seed*31 + 7),
		brown: NewBrown(seed*131+17, BrownLeak, BrownStep, BrownGain),
	}
	for i := range b.gains {
		g := 0.0
		if Color(i) == color {
			g = 1
		}
		b.gains[i] = smooth.NewParam(g, tau, sampleRate)
	}
	return b
}

// SetColor starts a crossfade toward color. Safe from any goroutine.
func (b *Bed) SetColor(color Color) {
	for i, g := range b.gains {
		if Color(i) == color {
			g.SetTarget(1)
		} else {
			g.SetTarget(0)
		}
	}
}

// Next renders one sample. Colors that are fully faded out are not computed.
func (b *Bed) Next() float64 {
	var out float64
	if g := b.gains[White].Next(); g != 0 {
		out += b.white.Next() * g
	}
	if g := b.gains[Pink].Next(); g != 0 {
		out += b.pink.Next() * g
	}
	if g := b.gains[Brown].Next(); g != 0 {
		out += b.brown.Next() * g
	}
	return out
}
