// Package graph is the render path: it owns every audio-thread object and mixes
// noise, drone and melodic voices through the effects bus into the master bus.
//
// Process is called by the output device and never allocates, blocks or locks.
// Everything else on Graph may be called from the control goroutine and reaches
// the audio thread through atomics and the note queue.
package graph

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cbegin/ambient-go/internal/drone"
	"github.com/cbegin/ambient-go/internal/effects"
	"github.com/cbegin/ambient-go/internal/lfo"
	"github.com/cbegin/ambient-go/internal/noise"
	"github.com/cbegin/ambient-go/internal/smooth"
	"github.com/cbegin/ambient-go/internal/voice"
)

type Config struct {
	SampleRate   int
	Seed         uint32
	SmoothingSec float64 // time constant of every parameter ramp
	QueueSize    int

	Drone drone.Params
	Voice voice.Params

	ReverbSeconds float64
	ReverbDecay   float64
	ReverbBlock   int

	DelayMaxSec float64
	DelayDampHz float64
	DelayCross  float64

	// dry-to-bus send ratios
	VoiceReverbSend float64
	VoiceDelaySend  float64
	NoiseReverbSend float64
	DroneReverbSend float64

	DelayDriftPeriodSec  float64
	DelayDriftDepth      float64 // ± fraction of the delay time
	DetuneDriftPeriodSec float64
	DetuneDriftHz        float64 // ± Hz on the right drone oscillator

	CompThresholdDB float32
	CompRatio       float32
}

func DefaultConfig() Config {
	return Config{
		SampleRate:           48000,
		Seed:                 0x9E3779B9,
		SmoothingSec:         0.5,
		QueueSize:            256,
		Drone:                drone.DefaultParams(),
		Voice:                voice.DefaultParams(),
		ReverbSeconds:        5,
		ReverbDecay:          4,
		ReverbBlock:          1024,
		DelayMaxSec:          2.5,
		DelayDampHz:          2500,
		DelayCross:           0.3,
		VoiceReverbSend:      0.35,
		VoiceDelaySend:       0.25,
		NoiseReverbSend:      0.15,
		DroneReverbSend:      0.2,
		DelayDriftPeriodSec:  180,
		DelayDriftDepth:      0.08,
		DetuneDriftPeriodSec: 260,
		DetuneDriftHz:        0.35,
		CompThresholdDB:      -6,
		CompRatio:            2,
	}
}

func (c Config) Validate() error {
	switch {
	case c.SampleRate < 8000:
		return fmt.Errorf("sample rate %d too low", c.SampleRate)
	case c.ReverbSeconds <= 0:
		return errors.New("reverb length must be positive")
	case c.ReverbBlock < 2 || c.ReverbBlock&(c.ReverbBlock-1) != 0:
		return fmt.Errorf("reverb block %d is not a power of two", c.ReverbBlock)
	case c.DelayMaxSec <= 0:
		return errors.New("maximum delay must be positive")
	case c.DelayDampHz <= 0:
		return errors.New("delay damping must be positive")
	case c.QueueSize < 1:
		return errors.New("note queue size must be positive")
	}
	return nil
}

// Params is the full set of live targets the graph ramps toward.
type Params struct {
	MasterVolume  float64
	ToneVolume    float64
	NoiseVolume   float64
	NoiseFilterHz float64
	NoiseColor    noise.Color
	DroneVolume   float64
	DroneBaseHz   float64
	EntrainmentHz float64
	DelayFeedback float64
	DelayTimeSec  float64
	ReverbMix     float64
	DelayMix      float64
}

type Graph struct {
	cfg Config
	sr  float64

	queue *noteQueue
	pool  *voice.Pool
	bed   *noise.Bed
	drone *drone.Voice

	reverb *effects.Convolver
	delay  *effects.TempoDelay
	comp   *effects.Compressor
	eq     *effects.EQ5Band
	master *effects.Chain

	delayDrift  lfo.LFO
	detuneDrift lfo.LFO

	masterVol   *smooth.Param
	toneVol     *smooth.Param
	noiseVol    *smooth.Param
	noiseCutoff *smooth.Param
	reverbMix   *smooth.Param
	delayMix    *smooth.Param
	fade        *smooth.Ramp

	noiseLP [2]float64

	frame   int64 // audio thread
	clock   atomic.Int64
	active  atomic.Int32
	peakL   atomic.Uint64
	peakR   atomic.Uint64
	dropped atomic.Int64

	drainReq atomic.Bool
	drained  atomic.Bool
}

// New builds the complete graph, silent (fade level 0), resting on p.
func New(cfg Config, p Params) (*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sr := cfg.SampleRate
	reverb, err := effects.NewReverb(sr, cfg.ReverbSeconds, cfg.ReverbDecay, cfg.ReverbBlock, cfg.Seed^0xA5A5A5A5)
	if err != nil {
		return nil, fmt.Errorf("reverb: %w", err)
	}
	g := &Graph{
		cfg:    cfg,
		sr:     float64(sr),
		queue:  newNoteQueue(cfg.QueueSize),
		pool:   voice.NewPool(sr, cfg.Voice),
		bed:    noise.NewBed(cfg.Seed, p.NoiseColor, cfg.SmoothingSec, sr),
		drone:  drone.New(sr, cfg.Drone, p.DroneBaseHz, p.EntrainmentHz, p.DroneVolume),
		reverb: reverb,
		delay: effects.NewTempoDelay(sr, cfg.DelayMaxSec, p.DelayTimeSec, p.DelayFeedback,
			cfg.DelayDampHz, cfg.DelayCross, cfg.SmoothingSec),
		comp:        effects.NewCompressor(sr, cfg.CompThresholdDB, cfg.CompRatio, 10, 250, 0),
		eq:          effects.NewEQ5Band(sr, effects.DefaultCrossovers, cfg.SmoothingSec),
		delayDrift:  lfo.New(sr, cfg.DelayDriftPeriodSec, cfg.DelayDriftDepth, lfo.WaveSine),
		detuneDrift: lfo.New(sr, cfg.DetuneDriftPeriodSec, cfg.DetuneDriftHz, lfo.WaveSine),
		masterVol:   smooth.NewParam(p.MasterVolume, cfg.SmoothingSec, sr),
		toneVol:     smooth.NewParam(p.ToneVolume, cfg.SmoothingSec, sr),
		noiseVol:    smooth.NewParam(p.NoiseVolume, cfg.SmoothingSec, sr),
		noiseCutoff: smooth.NewParam(p.NoiseFilterHz, cfg.SmoothingSec, sr),
		reverbMix:   smooth.NewParam(p.ReverbMix, cfg.SmoothingSec, sr),
		delayMix:    smooth.NewParam(p.DelayMix, cfg.SmoothingSec, sr),
		fade:        smooth.NewRamp(0, sr),
	}
	// start the detune drift at a zero crossing heading up, offset from the delay drift
	g.detuneDrift.SetPhase(0.25)
	g.master = effects.NewChain(g.comp, g.eq)
	return g, nil
}

// Apply publishes new targets for every parameter. Safe from any goroutine.
func (g *Graph) Apply(p Params) {
	g.masterVol.SetTarget(p.MasterVolume)
	g.toneVol.SetTarget(p.ToneVolume)
	g.noiseVol.SetTarget(p.NoiseVolume)
	g.noiseCutoff.SetTarget(p.NoiseFilterHz)
	g.bed.SetColor(p.NoiseColor)
	g.drone.SetVolume(p.DroneVolume)
	g.drone.SetBaseFreq(p.DroneBaseHz)
	g.drone.SetOffset(p.EntrainmentHz)
	g.delay.SetFeedback(p.DelayFeedback)
	g.delay.SetTime(p.DelayTimeSec)
	g.reverbMix.SetTarget(p.ReverbMix)
	g.delayMix.SetTarget(p.DelayMix)
}

// Fade starts a linear master fade to level over seconds, replacing any fade in flight.
func (g *Graph) Fade(level, seconds float64) { g.fade.To(level, seconds) }

// FadeLevel is the fade envelope at the end of the last rendered block.
func (g *Graph) FadeLevel() float64 { return g.fade.Level() }

// FadeSettled reports whether the last commanded fade has completed.
func (g *Graph) FadeSettled() bool { return g.fade.Settled() }

// RequestDrain asks the audio thread to release every voice, drop pending notes
// and clear effect tails once the fade has reached silence.
func (g *Graph) RequestDrain() {
	g.drained.Store(false)
	g.drainReq.Store(true)
}

// CancelDrain withdraws a drain that has not happened yet.
func (g *Graph) CancelDrain() {
	g.drainReq.Store(false)
	g.drained.Store(false)
}

// Drained reports that a requested drain has completed.
func (g *Graph) Drained() bool { return g.drained.Load() }

// Enqueue hands a note to the audio thread. It returns false when the queue is full.
func (g *Graph) Enqueue(n voice.Note) bool {
	if !g.queue.push(n) {
		g.dropped.Add(1)
		return false
	}
	return true
}

// Dropped counts notes rejected by a full queue.
func (g *Graph) Dropped() int64 { return g.dropped.Load() }

// Now is the engine clock: frames rendered so far, in seconds.
func (g *Graph) Now() float64 { return float64(g.clock.Load()) / g.sr }

// Frame converts engine-clock seconds to a frame index.
func (g *Graph) Frame(sec float64) int64 { return int64(math.Round(sec * g.sr)) }

func (g *Graph) SampleRate() int { return g.cfg.SampleRate }

// ActiveVoices is the number of sounding melodic voices after the last block.
func (g *Graph) ActiveVoices() int { return int(g.active.Load()) }

// Levels returns the output peak of the last rendered block per channel.
func (g *Graph) Levels() (float64, float64) {
	return math.Float64frombits(g.peakL.Load()), math.Float64frombits(g.peakR.Load())
}

// SetEQBand sets a master EQ band gain in dB.
func (g *Graph) SetEQBand(band int, db float64) { g.eq.SetGainDB(band, db) }

func (g *Graph) EQBand(band int) float64 { return g.eq.GainDB(band) }

// GainReduction is the master compressor's current gain, 1 = none.
func (g *Graph) GainReduction() float64 { return float64(g.comp.GainReduction()) }

// Process renders len(dst)/2 interleaved stereo frames.
func (g *Graph) Process(dst []float32) {
	frames := len(dst) / 2
	g.fade.Begin()
	var peakL, peakR float64
	for i := 0; i < frames; i++ {
		f := g.frame + int64(i)
		for {
			n, ok := g.queue.peek()
			if !ok || n.Frame > f {
				break
			}
			g.queue.pop()
			g.pool.Trigger(n)
		}
		l, r := g.renderFrame()
		gain := g.fade.Next() * g.masterVol.Next()
		ol, or := g.master.Process(float32(l*gain), float32(r*gain))
		ol, or = clip(ol), clip(or)
		dst[2*i], dst[2*i+1] = ol, or
		peakL = math.Max(peakL, math.Abs(float64(ol)))
		peakR = math.Max(peakR, math.Abs(float64(or)))
	}
	g.frame += int64(frames)
	g.fade.End()
	g.maybeDrain()
	g.clock.Store(g.frame)
	g.active.Store(int32(g.pool.Active()))
	g.peakL.Store(math.Float64bits(peakL))
	g.peakR.Store(math.Float64bits(peakR))
}

func (g *Graph) renderFrame() (float64, float64) {
	c := &g.cfg

	// noise bed through a two-pole low-pass
	w := 2 * math.Pi * math.Max(1, g.noiseCutoff.Next()) / g.sr
	a := w / (1 + w)
	g.noiseLP[0] += a * (g.bed.Next()*g.noiseVol.Next() - g.noiseLP[0])
	g.noiseLP[1] += a * (g.noiseLP[0] - g.noiseLP[1])
	nz := g.noiseLP[1]

	dl, dr := g.drone.RenderFrame(g.detuneDrift.Next())

	vl, vr := g.pool.RenderFrame()
	tone := g.toneVol.Next()
	vl *= tone
	vr *= tone

	send := (vl+vr)*0.5*c.VoiceReverbSend + nz*c.NoiseReverbSend + (dl+dr)*0.5*c.DroneReverbSend
	rl, rr := g.reverb.Process(send)
	el, er := g.delay.Process(vl*c.VoiceDelaySend, vr*c.VoiceDelaySend, 1+g.delayDrift.Next())

	rm := g.reverbMix.Next()
	dm := g.delayMix.Next()
	l := vl + dl + nz + rl*rm + el*dm
	r := vr + dr + nz + rr*rm + er*dm
	return l, r
}

// maybeDrain performs a requested drain once the fade has come to rest at silence.
func (g *Graph) maybeDrain() {
	if !g.drainReq.Load() || !g.fade.Idle() || g.fade.Value() != 0 {
		return
	}
	if !g.drainReq.CompareAndSwap(true, false) {
		return
	}
	g.pool.ReleaseAll()
	g.queue.clear()
	g.delay.Reset()
	g.reverb.Reset()
	g.master.Reset()
	g.drained.Store(true)
}

func clip(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
