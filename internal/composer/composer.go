// Package composer decides when and what the melodic voice plays: a lookahead
// scheduler paced by the mood parameter, walking a Markov chain of chords.
//
// A Composer belongs to the control goroutine. It never touches audio state; it
// hands out timestamped events for the render path to trigger.
package composer

import (
	"fmt"
	"math"

	"github.com/cbegin/ambient-go/internal/voice"
)

// Config holds the tuned pacing constants.
type Config struct {
	LookaheadSec     float64 // schedule horizon past now
	ResumeEpsilonSec float64 // first event offset after a reset or stall
	ChordChangeProb  float64

	// base inter-onset delay = BaseDelaySec - ((mood-MoodCenterHz)/MoodRangeHz)*DelaySpanSec
	BaseDelaySec float64
	DelaySpanSec float64
	MoodCenterHz float64
	MoodRangeHz  float64
	HumanizeMin  float64 // delay *= HumanizeMin + rand*HumanizeSpan
	HumanizeSpan float64
	BreathProb   float64 // chance of a long phrase breath
	BreathMul    float64
	MinDelaySec  float64

	VelocityMin  float64 // velocity = VelocityMin + rand*VelocitySpan
	VelocitySpan float64

	TempoBaseBPM float64 // tempo estimate = TempoBaseBPM + mood*TempoPerHz
	TempoPerHz   float64

	PanCenterHz float64
	PanSpreadHz float64
	PanJitter   float64 // ± random offset added to the pitch pan
}

func DefaultConfig() Config {
	return Config{
		LookaheadSec:     0.1,
		ResumeEpsilonSec: 0.05,
		ChordChangeProb:  0.2,
		BaseDelaySec:     4,
		DelaySpanSec:     3,
		MoodCenterHz:     4,
		MoodRangeHz:      16,
		HumanizeMin:      0.8,
		HumanizeSpan:     0.5,
		BreathProb:       0.1,
		BreathMul:        3,
		MinDelaySec:      0.25,
		VelocityMin:      0.2,
		VelocitySpan:     0.3,
		TempoBaseBPM:     60,
		TempoPerHz:       2,
		PanCenterHz:      440,
		PanSpreadHz:      600,
		PanJitter:        0.1,
	}
}

// Validate reports the first constant that would stall or break the scheduler.
func (c Config) Validate() error {
	switch {
	case c.LookaheadSec <= 0:
		return fmt.Errorf("lookahead must be positive, got %v", c.LookaheadSec)
	case c.ResumeEpsilonSec < 0:
		return fmt.Errorf("resume epsilon must not be negative, got %v", c.ResumeEpsilonSec)
	case c.MinDelaySec <= 0:
		return fmt.Errorf("minimum delay must be positive, got %v", c.MinDelaySec)
	case c.MoodRangeHz == 0:
		return fmt.Errorf("mood range must not be zero")
	case c.ChordChangeProb < 0 || c.ChordChangeProb > 1:
		return fmt.Errorf("chord change probability %v outside [0,1]", c.ChordChangeProb)
	case c.BreathProb < 0 || c.BreathProb > 1:
		return fmt.Errorf("breath probability %v outside [0,1]", c.BreathProb)
	case c.TempoBaseBPM <= 0:
		return fmt.Errorf("tempo base must be positive, got %v", c.TempoBaseBPM)
	}
	return nil
}

// Event is one scheduled note, in engine-clock seconds.
type Event struct {
	Time        float64
	FrequencyHz float64
	Velocity    float64
	Pan         float64
	Chord       int
}

type Composer struct {
	cfg     Config
	palette Palette
	chords  *Markov
	rng     Rand

	next float64 // engine-clock time of the next event
	last float64 // time of the last emitted event
}

// New creates a composer starting on the first chord of palette.
func New(cfg Config, palette Palette, m TransitionMatrix, rng Rand) (*Composer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(palette) == 0 {
		return nil, fmt.Errorf("empty chord palette")
	}
	m, err := NewTransitionMatrix(m)
	if err != nil {
		return nil, err
	}
	if len(m) != len(palette) {
		return nil, fmt.Errorf("transition matrix is %dx%d, palette has %d chords", len(m), len(m), len(palette))
	}
	for i, c := range palette {
		if len(c.Notes) == 0 {
			return nil, fmt.Errorf("chord %d (%s) has no notes", i, c.Name)
		}
	}
	return &Composer{
		cfg:     cfg,
		palette: palette,
		chords:  NewMarkov(m, 0),
		rng:     rng,
		last:    math.Inf(-1),
	}, nil
}

// NextEventTime returns the time of the next event to be scheduled.
func (c *Composer) NextEventTime() float64 { return c.next }

// Reset discards any pending schedule so the next event lands just after now.
// Events already emitted stay queued downstream, so the next one also keeps at
// least the minimum gap after the last of them.
func (c *Composer) Reset(now float64) {
	c.next = math.Max(now+c.cfg.ResumeEpsilonSec, c.last+c.cfg.MinDelaySec)
}

// Delay returns the mood-paced inter-onset delay before humanization.
func (c *Composer) Delay(mood float64) float64 {
	return c.cfg.BaseDelaySec - ((mood-c.cfg.MoodCenterHz)/c.cfg.MoodRangeHz)*c.cfg.DelaySpanSec
}

// Tempo returns the tempo estimate in BPM for a mood value.
func Tempo(cfg Config, mood float64) float64 {
	return cfg.TempoBaseBPM + math.Max(0, mood)*cfg.TempoPerHz
}

// Schedule emits every event due before now+lookahead. When the schedule has
// fallen more than a lookahead behind, the backlog is dropped instead of replayed
// and resynced is true.
func (c *Composer) Schedule(now, mood float64, emit func(Event)) (n int, resynced bool) {
	if c.next < now-c.cfg.LookaheadSec {
		c.Reset(now)
		resynced = true
	}
	for c.next < now+c.cfg.LookaheadSec {
		emit(c.step(mood))
		n++
	}
	return n, resynced
}

func (c *Composer) step(mood float64) Event {
	if c.rng.Float64() < c.cfg.ChordChangeProb {
		c.chords.Next(c.rng)
	}
	idx := c.chords.Current()
	notes := c.palette[idx].Notes
	freq := notes[c.rng.Intn(len(notes))]
	jitter := (c.rng.Float64()*2 - 1) * c.cfg.PanJitter
	ev := Event{
		Time:        c.next,
		FrequencyHz: freq,
		Velocity:    c.cfg.VelocityMin + c.rng.Float64()*c.cfg.VelocitySpan,
		Pan:         voice.Pan(freq, c.cfg.PanCenterHz, c.cfg.PanSpreadHz, jitter),
		Chord:       idx,
	}
	c.last = c.next

	delay := c.Delay(mood)
	delay *= c.cfg.HumanizeMin + c.rng.Float64()*c.cfg.HumanizeSpan
	if c.rng.Float64() < c.cfg.BreathProb {
		delay *= c.cfg.BreathMul
	}
	c.next += math.Max(delay, c.cfg.MinDelaySec)
	return ev
}
