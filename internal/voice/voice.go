// Package voice renders the melodic "piano" notes: a filtered hammer transient
// over an FM string body, panned by pitch. Voices live in a preallocated pool
// and free themselves once their envelopes have decayed.
package voice

import (
	"math"
)

const twoPi = math.Pi * 2

// Levels at which the exponential envelopes are considered finished.
const (
	silentLevel  = 0.001 // -60 dB
	mellowLevel  = 0.01  // modulation index residue
	lifetimeTail = 0.05  // seconds kept after the string decay
)

type Params struct {
	Polyphony       int
	Gain            float64
	HammerAttackSec float64
	HammerDecaySec  float64
	HammerGain      float64
	HammerCutoffMul float64 // hammer low-pass cutoff as a multiple of the note frequency
	StringAttackSec float64
	StringDecaySec  float64 // time to fall 60 dB after the attack
	ModRatio        float64 // modulator frequency / carrier frequency
	ModIndexMul     float64 // initial frequency deviation / carrier frequency
	ModDecaySec     float64 // time for the deviation to fall to 1%
}

func DefaultParams() Params {
	return Params{
		Polyphony:       32,
		Gain:            0.3,
		HammerAttackSec: 0.025,
		HammerDecaySec:  0.1,
		HammerGain:      0.35,
		HammerCutoffMul: 6,
		StringAttackSec: 0.05,
		StringDecaySec:  4,
		ModRatio:        2,
		ModIndexMul:     1.5,
		ModDecaySec:     0.5,
	}
}

// Note is a timestamped trigger handed from the scheduler to the audio thread.
type Note struct {
	Frame       int64   // engine-clock frame at which the note starts
	FrequencyHz float64
	Velocity    float64 // [0,1]
	Pan         float64 // [-1,1]
}

// Pan places a note by pitch: centerHz sits in the middle, lower notes lean left
// and higher notes right, up to ±0.9. jitter is added after the pitch mapping.
func Pan(freq, centerHz, spreadHz, jitter float64) float64 {
	p := 0.0
	if spreadHz > 0 {
		p = clamp((freq-centerHz)/spreadHz, -0.9, 0.9)
	}
	return clamp(p+jitter, -1, 1)
}

type voice struct {
	active   bool
	age      int64
	lifetime int64
	freq     float64
	velocity float64
	gainL    float64
	gainR    float64

	carrierPhase float64
	modPhase     float64
	modEnv       float64
	stringEnv    float64

	hammerEnv   float64
	hammerLP    float64
	hammerAlpha float64
	rng         uint32
}

// Pool is a fixed set of voices. All methods belong to the audio thread.
type Pool struct {
	sampleRate float64
	params     Params
	voices     []voice
	seed       uint32

	hammerAttack int64
	stringAttack int64
	hammerDecay  float64 // per-sample multipliers
	stringDecay  float64
	modDecay     float64
	lifetime     int64
}

func NewPool(sampleRate int, params Params) *Pool {
	if params.Polyphony <= 0 {
		params.Polyphony = DefaultParams().Polyphony
	}
	sr := float64(sampleRate)
	p := &Pool{
		sampleRate:   sr,
		params:       params,
		voices:       make([]voice, params.Polyphony),
		seed:         0x2545F491,
		hammerAttack: frames(params.HammerAttackSec, sr),
		stringAttack: frames(params.StringAttackSec, sr),
		hammerDecay:  decayPerSample(silentLevel, params.HammerDecaySec, sr),
		stringDecay:  decayPerSample(silentLevel, params.StringDecaySec, sr),
		modDecay:     decayPerSample(mellowLevel, params.ModDecaySec, sr),
	}
	p.lifetime = Lifetime(params, sampleRate)
	return p
}

// Lifetime is the number of frames a voice stays allocated.
func Lifetime(p Params, sampleRate int) int64 {
	sr := float64(sampleRate)
	str := p.StringAttackSec + p.StringDecaySec
	ham := p.HammerAttackSec + p.HammerDecaySec
	return frames(math.Max(str, ham)+lifetimeTail, sr)
}

func frames(sec, sr float64) int64 {
	n := int64(math.Round(sec * sr))
	if n < 1 {
		n = 1
	}
	return n
}

// decayPerSample returns k such that k^(sec*sr) == level.
func decayPerSample(level, sec, sr float64) float64 {
	if sec <= 0 {
		return 0
	}
	return math.Exp(math.Log(level) / (sec * sr))
}

// Trigger starts a note immediately, stealing the oldest voice when the pool is full.
func (p *Pool) Trigger(n Note) {
	slot := p.stealVoice()
	cutoff := math.Min(n.FrequencyHz*p.params.HammerCutoffMul, p.sampleRate*0.45)
	alpha := 1.0
	if cutoff > 0 {
		rc := 1.0 / (twoPi * cutoff)
		dt := 1.0 / p.sampleRate
		alpha = dt / (rc + dt)
	}
	// equal-power pan
	angle := (clamp(n.Pan, -1, 1) + 1) / 2 * (math.Pi / 2)
	p.seed = p.seed*1664525 + 1013904223
	rng := p.seed
	if rng == 0 {
		rng = 1
	}
	p.voices[slot] = voice{
		active:      true,
		lifetime:    p.lifetime,
		freq:        n.FrequencyHz,
		velocity:    clamp(n.Velocity, 0, 1),
		gainL:       math.Cos(angle),
		gainR:       math.Sin(angle),
		modEnv:      1,
		hammerAlpha: alpha,
		rng:         rng,
	}
}

func (p *Pool) stealVoice() int {
	oldest := 0
	for i := range p.voices {
		if !p.voices[i].active {
			return i
		}
		if p.voices[i].age > p.voices[oldest].age {
			oldest = i
		}
	}
	// envelopes only decay, so the oldest voice is also the quietest
	return oldest
}

// RenderFrame mixes all active voices into one stereo frame.
func (p *Pool) RenderFrame() (float64, float64) {
	var l, r float64
	for i := range p.voices {
		v := &p.voices[i]
		if !v.active {
			continue
		}
		s := p.renderVoice(v)
		l += s * v.gainL
		r += s * v.gainR
		v.age++
		if v.age >= v.lifetime {
			v.active = false
		}
	}
	return l * p.params.Gain, r * p.params.Gain
}

func (p *Pool) renderVoice(v *voice) float64 {
	// string amplitude: linear attack, then exponential decay
	if v.age < p.stringAttack {
		v.stringEnv = v.velocity * float64(v.age+1) / float64(p.stringAttack)
	} else {
		v.stringEnv *= p.stringDecay
	}
	dev := p.params.ModIndexMul * v.freq * v.modEnv
	v.modEnv *= p.modDecay

	body := math.Sin(v.carrierPhase) * v.stringEnv
	inst := v.freq + dev*math.Sin(v.modPhase)
	v.carrierPhase += twoPi * inst / p.sampleRate
	v.modPhase += twoPi * v.freq * p.params.ModRatio / p.sampleRate
	v.carrierPhase = wrap(v.carrierPhase)
	v.modPhase = wrap(v.modPhase)

	peak := p.params.HammerGain * v.velocity
	if v.age < p.hammerAttack {
		v.hammerEnv = peak * float64(v.age+1) / float64(p.hammerAttack)
	} else {
		v.hammerEnv *= p.hammerDecay
	}
	v.rng ^= v.rng << 13
	v.rng ^= v.rng >> 17
	v.rng ^= v.rng << 5
	white := float64(v.rng)/float64(^uint32(0))*2 - 1
	v.hammerLP += v.hammerAlpha * (white - v.hammerLP)

	return body + v.hammerLP*v.hammerEnv
}

func wrap(phase float64) float64 {
	for phase >= twoPi {
		phase -= twoPi
	}
	for phase < 0 {
		phase += twoPi
	}
	return phase
}

// ReleaseAll frees every voice at once.
func (p *Pool) ReleaseAll() {
	for i := range p.voices {
		p.voices[i].active = false
	}
}

// Active returns the number of sounding voices.
func (p *Pool) Active() int {
	n := 0
	for i := range p.voices {
		if p.voices[i].active {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
