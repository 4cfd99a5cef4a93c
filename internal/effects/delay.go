package effects

import (
	"math"

	"github.com/cbegin/ambient-go/internal/smooth"
)

// MaxFeedback keeps the delay loop strictly decaying.
const MaxFeedback = 0.95

// DelayTime converts a tempo and a length in beats to seconds.
func DelayTime(bpm, beats float64) float64 {
	if bpm <= 0 {
		return 0
	}
	return 60 / bpm * beats
}

// TempoDelay is a stereo feedback delay with a smoothed, fractionally read delay
// time and a low-pass filter inside the feedback loop.
type TempoDelay struct {
	sampleRate float64
	bufL, bufR []float64
	pos        int

	time     *smooth.Param // seconds
	feedback *smooth.Param
	cross    float64
	alpha    float64
	lpL, lpR float64
}

// NewTempoDelay creates a delay able to reach maxSec seconds.
// dampHz is the feedback low-pass corner, cross the share of each channel's repeat
// fed to the other side, tau the time constant of time and feedback changes.
func NewTempoDelay(sampleRate int, maxSec, timeSec, feedback, dampHz, cross, tau float64) *TempoDelay {
	sr := float64(sampleRate)
	size := int(math.Ceil(maxSec*sr)) + 2
	if size < 4 {
		size = 4
	}
	rc := 1.0 / (2 * math.Pi * dampHz)
	dt := 1.0 / sr
	d := &TempoDelay{
		sampleRate: sr,
		bufL:       make([]float64, size),
		bufR:       make([]float64, size),
		cross:      math.Max(0, math.Min(1, cross)),
		alpha:      dt / (rc + dt),
	}
	d.time = smooth.NewParam(d.clampTime(timeSec), tau, sampleRate)
	d.feedback = smooth.NewParam(clampFeedback(feedback), tau, sampleRate)
	return d
}

func (d *TempoDelay) clampTime(sec float64) float64 {
	lo := 1 / d.sampleRate
	hi := float64(len(d.bufL)-2) / d.sampleRate
	return math.Max(lo, math.Min(hi, sec))
}

func clampFeedback(v float64) float64 {
	return math.Max(0, math.Min(MaxFeedback, v))
}

// SetTime retargets the delay time. Safe to call from any goroutine.
func (d *TempoDelay) SetTime(sec float64) { d.time.SetTarget(d.clampTime(sec)) }

// SetFeedback retargets the feedback gain, clamped to [0, MaxFeedback].
func (d *TempoDelay) SetFeedback(v float64) { d.feedback.SetTarget(clampFeedback(v)) }

// Time returns the target delay time in seconds.
func (d *TempoDelay) Time() float64 { return d.time.Target() }

// Process writes one input frame and returns the delayed (wet) frame.
// timeScale multiplies the smoothed delay time, letting a slow LFO drift it.
func (d *TempoDelay) Process(l, r, timeScale float64) (float64, float64) {
	size := len(d.bufL)
	delay := d.time.Next() * timeScale * d.sampleRate
	delay = math.Max(1, math.Min(float64(size-2), delay))

	read := float64(d.pos) - delay
	if read < 0 {
		read += float64(size)
	}
	i0 := int(read)
	frac := read - float64(i0)
	i1 := i0 + 1
	if i1 >= size {
		i1 = 0
	}
	outL := d.bufL[i0] + (d.bufL[i1]-d.bufL[i0])*frac
	outR := d.bufR[i0] + (d.bufR[i1]-d.bufR[i0])*frac

	fb := d.feedback.Next()
	d.lpL += d.alpha * (outL - d.lpL)
	d.lpR += d.alpha * (outR - d.lpR)
	fbL := d.lpL*(1-d.cross) + d.lpR*d.cross
	fbR := d.lpR*(1-d.cross) + d.lpL*d.cross
	d.bufL[d.pos] = l + fbL*fb
	d.bufR[d.pos] = r + fbR*fb
	d.pos++
	if d.pos >= size {
		d.pos = 0
	}
	return outL, outR
}

// Reset clears the delay line and filter state.
func (d *TempoDelay) Reset() {
	for i := range d.bufL {
		d.bufL[i] = 0
		d.bufR[i] = 0
	}
	d.lpL, d.lpR = 0, 0
	d.pos = 0
}
