package lfo

import "math"

// Waveform shapes.
const (
	WaveSine     = 0
	WaveTriangle = 1
	WaveSaw      = 2
	WaveSquare   = 3
)

// LFO is a low-frequency oscillator advanced once per sample. The drone's
// breathing and the slow evolution drifts are built on it.
type LFO struct {
	depth    float64 // output spans [-depth, +depth]
	inc      float64 // phase increment per sample, in cycles
	phase    float64 // [0, 1)
	waveform int
}

// New creates an LFO completing one cycle every periodSec seconds.
func New(sampleRate int, periodSec, depth float64, waveform int) LFO {
	l := LFO{}
	l.Set(sampleRate, periodSec, depth, waveform)
	return l
}

// Set reconfigures the LFO without resetting its phase.
func (l *LFO) Set(sampleRate int, periodSec, depth float64, waveform int) {
	l.depth = depth
	l.inc = 0
	if periodSec > 0 && sampleRate > 0 {
		l.inc = 1 / (periodSec * float64(sampleRate))
	}
	if waveform < WaveSine || waveform > WaveSquare {
		waveform = WaveSine
	}
	l.waveform = waveform
}

// SetPhase moves the oscillator to phase (in cycles).
func (l *LFO) SetPhase(phase float64) {
	l.phase = phase - math.Floor(phase)
}

// Phase returns the current phase in cycles.
func (l *LFO) Phase() float64 { return l.phase }

// Next returns the current value and advances one sample.
func (l *LFO) Next() float64 {
	if l.depth == 0 || l.inc == 0 {
		return 0
	}
	var v float64
	switch l.waveform {
	case WaveTriangle:
		if l.phase < 0.5 {
			v = 4*l.phase - 1
		} else {
			v = 3 - 4*l.phase
		}
	case WaveSaw:
		v = 1 - 2*l.phase
	case WaveSquare:
		if l.phase < 0.5 {
			v = 1
		} else {
			v = -1
		}
	default:
		v = math.Sin(2 * math.Pi * l.phase)
	}
	l.phase += l.inc
	if l.phase >= 1 {
		l.phase -= 1
	}
	return v * l.depth
}

// Active reports whether the LFO produces any modulation.
func (l *LFO) Active() bool {
	return l.depth != 0 && l.inc != 0
}

// Reset zeros the phase.
func (l *LFO) Reset() {
	l.phase = 0
}
