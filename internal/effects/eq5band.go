package effects

import (
	"math"
	"sync/atomic"

	"github.com/cbegin/ambient-go/internal/smooth"
)

// Bands is the number of master EQ bands.
const Bands = 5

// DefaultCrossovers split the master EQ into sub, low, mid, presence and air.
var DefaultCrossovers = [Bands - 1]float64{120, 500, 2500, 8000}

// EQ5Band is a master tone control built from cascaded one-pole crossovers.
// Band gains are kept in dB as float32 bits for readback, and as linear gains
// ramped on the audio thread so any goroutine can adjust them without clicks.
type EQ5Band struct {
	gainsDB [Bands]atomic.Uint32
	gains   [Bands]*smooth.Param
	alphas  [Bands - 1]float32
	lpL     [Bands - 1]float32
	lpR     [Bands - 1]float32
}

// NewEQ5Band creates a flat EQ split at the given crossover frequencies. Gain
// changes approach their target with time constant tau seconds.
func NewEQ5Band(sampleRate int, crossovers [Bands - 1]float64, tau float64) *EQ5Band {
	eq := &EQ5Band{}
	for i := range eq.gains {
		eq.gains[i] = smooth.NewParam(1, tau, sampleRate)
	}
	dt := 1.0 / float64(sampleRate)
	for i, freq := range crossovers {
		rc := 1.0 / (2.0 * math.Pi * freq)
		eq.alphas[i] = float32(dt / (rc + dt))
	}
	return eq
}

// SetGainDB sets the gain of band (0-4), clamped to ±12 dB.
func (eq *EQ5Band) SetGainDB(band int, db float64) {
	if band < 0 || band >= Bands {
		return
	}
	db = math.Max(-12, math.Min(12, db))
	eq.gainsDB[band].Store(math.Float32bits(float32(db)))
	eq.gains[band].SetTarget(math.Pow(10, db/20))
}

// GainDB returns the gain of band (0-4) in dB.
func (eq *EQ5Band) GainDB(band int) float64 {
	if band < 0 || band >= Bands {
		return 0
	}
	return float64(math.Float32frombits(eq.gainsDB[band].Load()))
}

func (eq *EQ5Band) Process(l, r float32) (float32, float32) {
	var outL, outR float32
	remL, remR := l, r
	for i := 0; i < Bands; i++ {
		bl, br := remL, remR
		if i < Bands-1 {
			eq.lpL[i] += eq.alphas[i] * (remL - eq.lpL[i])
			eq.lpR[i] += eq.alphas[i] * (remR - eq.lpR[i])
			bl, br = eq.lpL[i], eq.lpR[i]
			remL -= bl
			remR -= br
		}
		g := float32(eq.gains[i].Next())
		outL += bl * g
		outR += br * g
	}
	return outL, outR
}

// Reset clears the filter state and lands every gain on its target.
func (eq *EQ5Band) Reset() {
	for _, g := range eq.gains {
		g.Snap()
	}
	for i := range eq.lpL {
		eq.lpL[i] = 0
		eq.lpR[i] = 0
	}
}
