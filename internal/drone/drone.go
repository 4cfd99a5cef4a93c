// Package drone renders the binaural drone: one sine per ear, detuned by the
// entrainment offset, low-passed and slowly "breathing".
package drone

import (
	"math"

	"github.com/cbegin/ambient-go/internal/lfo"
	"github.com/cbegin/ambient-go/internal/smooth"
)

const twoPi = 2 * math.Pi

type Params struct {
	CutoffHz        float64 // low-pass corner
	BreathPeriodSec float64
	BreathDepth     float64 // ±fraction of amplitude
	SmoothingSec    float64 // time constant of frequency and depth ramps
	Gain            float64
}

func DefaultParams() Params {
	return Params{
		CutoffHz:        200,
		BreathPeriodSec: 30,
		BreathDepth:     0.25,
		SmoothingSec:    0.5,
		Gain:            0.5,
	}
}

// Voice is the drone oscillator pair. Setters may be called from any goroutine;
// RenderFrame belongs to the audio thread.
type Voice struct {
	sampleRate float64
	gain       float64
	alpha      float64

	base   *smooth.Param
	offset *smooth.Param
	depth  *smooth.Param
	volume *smooth.Param

	phaseL, phaseR float64
	lpL, lpR       [2]float64
	breath         lfo.LFO
}

func New(sampleRate int, p Params, baseHz, offsetHz, volume float64) *Voice {
	if p.CutoffHz <= 0 {
		p.CutoffHz = DefaultParams().CutoffHz
	}
	rc := 1.0 / (twoPi * p.CutoffHz)
	dt := 1.0 / float64(sampleRate)
	return &Voice{
		sampleRate: float64(sampleRate),
		gain:       p.Gain,
		alpha:      dt / (rc + dt),
		base:       smooth.NewParam(baseHz, p.SmoothingSec, sampleRate),
		offset:     smooth.NewParam(offsetHz, p.SmoothingSec, sampleRate),
		depth:      smooth.NewParam(p.BreathDepth, p.SmoothingSec, sampleRate),
		volume:     smooth.NewParam(volume, p.SmoothingSec, sampleRate),
		breath:     lfo.New(sampleRate, p.BreathPeriodSec, 1, lfo.WaveSine),
	}
}

func (v *Voice) SetBaseFreq(hz float64) { v.base.SetTarget(hz) }
func (v *Voice) SetOffset(hz float64) { v.offset.SetTarget(hz) }
func (v *Voice) SetVolume(volume float64) { v.volume.SetTarget(volume) }

// RenderFrame returns one stereo frame. detuneHz is an extra, already smooth,
// offset applied to the right oscillator only.
func (v *Voice) RenderFrame(detuneHz float64) (float64, float64) {
	base := v.base.Next()
	fl := base
	fr := base + v.offset.Next() + detuneHz
	if fr < 0 {
		fr = 0
	}
	l := math.Sin(v.phaseL)
	r := math.Sin(v.phaseR)
	v.phaseL += twoPi * fl / v.sampleRate
	if v.phaseL >= twoPi {
		v.phaseL -= twoPi
	}
	v.phaseR += twoPi * fr / v.sampleRate
	if v.phaseR >= twoPi {
		v.phaseR -= twoPi
	}

	// two cascaded one-pole sections
	v.lpL[0] += v.alpha * (l - v.lpL[0])
	v.lpL[1] += v.alpha * (v.lpL[0] - v.lpL[1])
	v.lpR[0] += v.alpha * (r - v.lpR[0])
	v.lpR[1] += v.alpha * (v.lpR[0] - v.lpR[1])

	amp := (1 + v.breath.Next()*v.depth.Next()) * v.volume.Next() * v.gain
	return v.lpL[1] * amp, v.lpR[1] * amp
}
