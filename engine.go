// Package ambient is a procedural ambient-audio engine: a binaural drone, a
// filtered noise bed and a generative FM piano, scheduled by a Markov chord
// walk and mixed through a convolution reverb and a tempo-synced delay.
//
// An Engine owns one audio output and two execution contexts: the render path,
// pulled by the device, and a control loop that ticks every few milliseconds to
// schedule notes ahead of the audio clock.
package ambient

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cbegin/ambient-go/internal/audio"
	"github.com/cbegin/ambient-go/internal/composer"
	"github.com/cbegin/ambient-go/internal/effects"
	"github.com/cbegin/ambient-go/internal/graph"
	"github.com/cbegin/ambient-go/internal/noise"
	"github.com/cbegin/ambient-go/internal/voice"
)

// EQBands is the number of master EQ bands.
const EQBands = effects.Bands

// State is the engine lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateStopped
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// SampleSource renders interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

// Output is an acquired audio device stream.
type Output interface {
	Play()
	Pause()
	Close() error
}

// OutputFactory acquires an Output that pulls audio from src.
type OutputFactory func(sampleRate int, src SampleSource) (Output, error)

// Backend selects the built-in device output.
type Backend string

const (
	BackendEbiten Backend = Backend(audio.BackendEbiten)
	BackendOto    Backend = Backend(audio.BackendOto)
)

type Option func(*engineConfig)

type engineConfig struct {
	cfg        Config
	sampleRate int // overrides cfg.SampleRate when set
	backend    Backend
	bufferSize time.Duration
	factory    OutputFactory
	seed       int64
	logger     *log.Logger
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		cfg:        DefaultConfig(),
		backend:    BackendEbiten,
		bufferSize: audio.DefaultBufferSize,
		seed:       time.Now().UnixNano(),
		logger:     log.New(io.Discard, "", 0),
	}
}

// WithConfig replaces the tuned constants.
func WithConfig(cfg Config) Option {
	return func(c *engineConfig) {
		c.cfg = cfg
	}
}

// WithSampleRate sets the output sample rate.
func WithSampleRate(sampleRate int) Option {
	return func(c *engineConfig) {
		c.sampleRate = sampleRate
	}
}

// WithBackend picks the built-in device output.
func WithBackend(b Backend) Option {
	return func(c *engineConfig) {
		c.backend = b
	}
}

// WithBufferSize sets the device buffer length.
func WithBufferSize(d time.Duration) Option {
	return func(c *engineConfig) {
		c.bufferSize = d
	}
}

// WithOutput installs a custom output, bypassing the built-in backends.
func WithOutput(f OutputFactory) Option {
	return func(c *engineConfig) {
		c.factory = f
	}
}

// WithSeed makes the composition and noise deterministic.
func WithSeed(seed int64) Option {
	return func(c *engineConfig) {
		c.seed = seed
	}
}

// WithLogger receives lifecycle messages. The render path never logs.
func WithLogger(l *log.Logger) Option {
	return func(c *engineConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

type Engine struct {
	mu       sync.Mutex
	conf     engineConfig
	log      *log.Logger
	state    State
	params   AudioParams
	graph    *graph.Graph
	composer *composer.Composer
	out      Output
	stopping bool // fading out, output not yet paused

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New creates an uninitialized engine. Nothing is acquired until Initialize.
// WithSampleRate applies regardless of option order.
func New(opts ...Option) *Engine {
	conf := defaultEngineConfig()
	for _, opt := range opts {
		opt(&conf)
	}
	if conf.sampleRate > 0 {
		conf.cfg.SampleRate = conf.sampleRate
	}
	return &Engine{
		conf:   conf,
		log:    conf.logger,
		params: DefaultAudioParams().Clamped(conf.cfg.SampleRate),
	}
}

// Initialize acquires the output device and builds the whole signal graph, but
// makes no sound. Calling it on an initialized engine does nothing.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateUninitialized {
		return nil
	}
	e.state = StateInitializing
	if err := e.build(); err != nil {
		e.state = StateUninitialized
		e.log.Printf("initialize failed: %v", err)
		return &EngineError{Op: "initialize", Err: err}
	}
	e.state = StateStopped
	if e.conf.cfg.TickMillis > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return e.controlLoop(ctx) })
		e.cancel = cancel
		e.group = g
	}
	e.log.Printf("initialized at %d Hz", e.conf.cfg.SampleRate)
	return nil
}

func (e *Engine) build() error {
	cfg := e.conf.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.params = e.params.Clamped(cfg.SampleRate)
	g, err := graph.New(cfg.graphConfig(uint32(e.conf.seed)|1), e.graphParams())
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	comp, err := composer.New(cfg.composerConfig(), composer.DefaultPalette(), composer.DefaultMatrix(),
		rand.New(rand.NewSource(e.conf.seed)))
	if err != nil {
		return fmt.Errorf("build composer: %w", err)
	}
	factory := e.conf.factory
	if factory == nil {
		af, err := audio.NewFactory(audio.Backend(e.conf.backend), e.conf.bufferSize)
		if err != nil {
			return err
		}
		factory = func(sampleRate int, src SampleSource) (Output, error) {
			return af(sampleRate, src)
		}
	}
	out, err := factory(cfg.SampleRate, g)
	if err != nil {
		return fmt.Errorf("acquire output: %w", err)
	}
	e.graph, e.composer, e.out = g, comp, out
	return nil
}

// graphParams translates the public parameters, deriving the delay time from
// the mood's tempo estimate.
func (e *Engine) graphParams() graph.Params {
	p := e.params
	bpm := composer.Tempo(e.conf.cfg.composerConfig(), p.EntrainmentOffsetHz)
	return graph.Params{
		MasterVolume:  p.MasterVolume,
		ToneVolume:    p.ToneVolume,
		NoiseVolume:   p.NoiseVolume,
		NoiseFilterHz: p.NoiseFilterFreqHz,
		NoiseColor:    noise.Color(p.NoiseColor),
		DroneVolume:   p.DroneVolume,
		DroneBaseHz:   p.DroneBaseFreqHz,
		EntrainmentHz: p.EntrainmentOffsetHz,
		DelayFeedback: p.DelayFeedback,
		DelayTimeSec:  effects.DelayTime(bpm, e.conf.cfg.DelayBeats),
		ReverbMix:     p.ReverbMix,
		DelayMix:      p.DelayMix,
	}
}

func (e *Engine) controlLoop(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(e.conf.cfg.TickMillis) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.tick()
		}
	}
}

// tick is one control-loop step: top up the note schedule while playing, and
// pause the output once a stop has faded out and drained.
func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StatePlaying:
		e.schedule()
	case StateStopped:
		if e.stopping && e.graph.Drained() {
			e.out.Pause()
			e.stopping = false
			e.log.Printf("stopped")
		}
	}
}

func (e *Engine) schedule() {
	now := e.graph.Now()
	_, resynced := e.composer.Schedule(now, e.params.EntrainmentOffsetHz, func(ev composer.Event) {
		n := voice.Note{
			Frame:       e.graph.Frame(ev.Time),
			FrequencyHz: ev.FrequencyHz,
			Velocity:    ev.Velocity,
			Pan:         ev.Pan,
		}
		if !e.graph.Enqueue(n) {
			e.log.Printf("note queue full, dropped %.1f Hz at %.3fs", ev.FrequencyHz, ev.Time)
		}
	})
	if resynced {
		e.log.Printf("scheduler fell behind at %.3fs, skipped backlog", now)
	}
}

// TogglePlay starts playback with a fade-in when stopped and stops with a
// fade-out when playing.
func (e *Engine) TogglePlay() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateStopped:
		e.start()
	case StatePlaying:
		e.stop()
	default:
		return &EngineError{Op: "toggle", Err: ErrNotInitialized}
	}
	return nil
}

// Start begins playback. It does nothing when already playing.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateStopped:
		e.start()
	case StatePlaying:
	default:
		return &EngineError{Op: "start", Err: ErrNotInitialized}
	}
	return nil
}

// Stop fades out and halts the scheduler. The output is paused once the fade
// has completed. It does nothing when already stopped.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StatePlaying:
		e.stop()
	case StateStopped:
	default:
		return &EngineError{Op: "stop", Err: ErrNotInitialized}
	}
	return nil
}

func (e *Engine) start() {
	e.graph.CancelDrain()
	e.stopping = false
	e.composer.Reset(e.graph.Now())
	e.out.Play()
	e.graph.Fade(1, e.conf.cfg.FadeInSec)
	e.state = StatePlaying
	e.log.Printf("playing")
	e.schedule()
}

func (e *Engine) stop() {
	e.state = StateStopped
	e.stopping = true
	e.graph.Fade(0, e.conf.cfg.FadeOutSec)
	e.graph.RequestDrain()
	e.log.Printf("stopping")
}

// UpdateParams merges u into the live parameters. Values are clamped and every
// change is ramped on the audio thread.
func (e *Engine) UpdateParams(u ParamsUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = e.params.Merge(u).Clamped(e.conf.cfg.SampleRate)
	if e.graph != nil {
		e.graph.Apply(e.graphParams())
	}
}

// Params returns a snapshot of the live parameters.
func (e *Engine) Params() AudioParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Tempo is the current tempo estimate in BPM.
func (e *Engine) Tempo() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return composer.Tempo(e.conf.cfg.composerConfig(), e.params.EntrainmentOffsetHz)
}

// withGraph runs f with the graph when initialized.
func (e *Engine) withGraph(f func(g *graph.Graph)) {
	e.mu.Lock()
	g := e.graph
	e.mu.Unlock()
	if g != nil {
		f(g)
	}
}

// ActiveVoices is the number of sounding melodic voices.
func (e *Engine) ActiveVoices() (n int) {
	e.withGraph(func(g *graph.Graph) { n = g.ActiveVoices() })
	return n
}

// Dropped counts notes lost to a full note queue since Initialize.
func (e *Engine) Dropped() (n int64) {
	e.withGraph(func(g *graph.Graph) { n = g.Dropped() })
	return n
}

// Now is the engine clock in seconds of rendered audio.
func (e *Engine) Now() (t float64) {
	e.withGraph(func(g *graph.Graph) { t = g.Now() })
	return t
}

// Levels returns the output peak of the most recent block per channel.
func (e *Engine) Levels() (l, r float64) {
	e.withGraph(func(g *graph.Graph) { l, r = g.Levels() })
	return l, r
}

// FadeLevel is the current lifecycle fade envelope in [0,1].
func (e *Engine) FadeLevel() (v float64) {
	e.withGraph(func(g *graph.Graph) { v = g.FadeLevel() })
	return v
}

// SetEQBand sets a master EQ band (0-4, sub to air) in dB, clamped to ±12.
// It takes effect immediately on the audio thread.
func (e *Engine) SetEQBand(band int, db float64) {
	e.withGraph(func(g *graph.Graph) { g.SetEQBand(band, db) })
}

// EQBand reads back a master EQ band gain in dB.
func (e *Engine) EQBand(band int) (db float64) {
	e.withGraph(func(g *graph.Graph) { db = g.EQBand(band) })
	return db
}

// GainReduction is the master compressor's current gain, 1 = none.
func (e *Engine) GainReduction() (v float64) {
	v = 1
	e.withGraph(func(g *graph.Graph) { v = g.GainReduction() })
	return v
}

// Close releases the output immediately and returns the engine to the
// uninitialized state. Use Shutdown to let a fade-out finish first.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.state == StateUninitialized {
		e.mu.Unlock()
		return nil
	}
	out, cancel, group := e.out, e.cancel, e.group
	e.state = StateUninitialized
	e.stopping = false
	e.graph, e.composer, e.out = nil, nil, nil
	e.cancel, e.group = nil, nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
		if err := group.Wait(); err != nil {
			e.log.Printf("control loop: %v", err)
		}
	}
	var err error
	if out != nil {
		out.Pause()
		if err = out.Close(); err != nil {
			err = &EngineError{Op: "close", Err: err}
		}
	}
	e.log.Printf("closed")
	return err
}

// Shutdown stops playback, waits for the fade-out to complete or ctx to end,
// then closes the engine.
func (e *Engine) Shutdown(ctx context.Context) error {
	if err := e.Stop(); err != nil {
		// never initialized
		return nil
	}
	poll := time.NewTicker(10 * time.Millisecond)
	defer poll.Stop()
	for {
		e.tick()
		e.mu.Lock()
		done := !e.stopping
		e.mu.Unlock()
		if done {
			return e.Close()
		}
		select {
		case <-ctx.Done():
			if err := e.Close(); err != nil {
				return err
			}
			return ctx.Err()
		case <-poll.C:
		}
	}
}
