package ambient

import (
	"fmt"

	"github.com/cbegin/ambient-go/internal/composer"
	"github.com/cbegin/ambient-go/internal/graph"
)

// Config holds the engine's tuned constants. The defaults reproduce the
// reference sound; every value can be overridden, e.g. from a JSON file.
type Config struct {
	SampleRate int `json:"sampleRate"`
	TickMillis int `json:"tickMillis"` // control loop period; 0 disables the loop

	// scheduler
	LookaheadSec     float64 `json:"lookaheadSec"`
	ResumeEpsilonSec float64 `json:"resumeEpsilonSec"`
	ChordChangeProb  float64 `json:"chordChangeProb"`
	BaseDelaySec     float64 `json:"baseDelaySec"`
	DelaySpanSec     float64 `json:"delaySpanSec"`
	MoodCenterHz     float64 `json:"moodCenterHz"`
	MoodRangeHz      float64 `json:"moodRangeHz"`
	HumanizeMin      float64 `json:"humanizeMin"`
	HumanizeSpan     float64 `json:"humanizeSpan"`
	BreathProb       float64 `json:"breathProb"`
	BreathMul        float64 `json:"breathMul"`
	MinDelaySec      float64 `json:"minDelaySec"`
	VelocityMin      float64 `json:"velocityMin"`
	VelocitySpan     float64 `json:"velocitySpan"`
	PanCenterHz      float64 `json:"panCenterHz"`
	PanSpreadHz      float64 `json:"panSpreadHz"`
	PanJitter        float64 `json:"panJitter"`

	// tempo estimate and the delay derived from it
	TempoBaseBPM float64 `json:"tempoBaseBpm"`
	TempoPerHz   float64 `json:"tempoPerHz"`
	DelayBeats   float64 `json:"delayBeats"`

	// lifecycle and smoothing
	FadeInSec    float64 `json:"fadeInSec"`
	FadeOutSec   float64 `json:"fadeOutSec"`
	SmoothingSec float64 `json:"smoothingSec"`

	// effects
	ReverbSeconds        float64 `json:"reverbSeconds"`
	ReverbDecay          float64 `json:"reverbDecay"`
	ReverbBlockSize      int     `json:"reverbBlockSize"`
	DelayDampHz          float64 `json:"delayDampHz"`
	DelayDriftPeriodSec  float64 `json:"delayDriftPeriodSec"`
	DelayDriftDepth      float64 `json:"delayDriftDepth"`
	DetuneDriftPeriodSec float64 `json:"detuneDriftPeriodSec"`
	DetuneDriftHz        float64 `json:"detuneDriftHz"`

	// drone and voices
	DroneCutoffHz   float64 `json:"droneCutoffHz"`
	BreathPeriodSec float64 `json:"breathPeriodSec"`
	BreathDepth     float64 `json:"breathDepth"`
	Polyphony       int     `json:"polyphony"`
}

func DefaultConfig() Config {
	cc := composer.DefaultConfig()
	gc := graph.DefaultConfig()
	return Config{
		SampleRate:           gc.SampleRate,
		TickMillis:           25,
		LookaheadSec:         cc.LookaheadSec,
		ResumeEpsilonSec:     cc.ResumeEpsilonSec,
		ChordChangeProb:      cc.ChordChangeProb,
		BaseDelaySec:         cc.BaseDelaySec,
		DelaySpanSec:         cc.DelaySpanSec,
		MoodCenterHz:         cc.MoodCenterHz,
		MoodRangeHz:          cc.MoodRangeHz,
		HumanizeMin:          cc.HumanizeMin,
		HumanizeSpan:         cc.HumanizeSpan,
		BreathProb:           cc.BreathProb,
		BreathMul:            cc.BreathMul,
		MinDelaySec:          cc.MinDelaySec,
		VelocityMin:          cc.VelocityMin,
		VelocitySpan:         cc.VelocitySpan,
		PanCenterHz:          cc.PanCenterHz,
		PanSpreadHz:          cc.PanSpreadHz,
		PanJitter:            cc.PanJitter,
		TempoBaseBPM:         cc.TempoBaseBPM,
		TempoPerHz:           cc.TempoPerHz,
		DelayBeats:           1.5,
		FadeInSec:            4,
		FadeOutSec:           2.5,
		SmoothingSec:         gc.SmoothingSec,
		ReverbSeconds:        gc.ReverbSeconds,
		ReverbDecay:          gc.ReverbDecay,
		ReverbBlockSize:      gc.ReverbBlock,
		DelayDampHz:          gc.DelayDampHz,
		DelayDriftPeriodSec:  gc.DelayDriftPeriodSec,
		DelayDriftDepth:      gc.DelayDriftDepth,
		DetuneDriftPeriodSec: gc.DetuneDriftPeriodSec,
		DetuneDriftHz:        gc.DetuneDriftHz,
		DroneCutoffHz:        gc.Drone.CutoffHz,
		BreathPeriodSec:      gc.Drone.BreathPeriodSec,
		BreathDepth:          gc.Drone.BreathDepth,
		Polyphony:            gc.Voice.Polyphony,
	}
}

func (c Config) composerConfig() composer.Config {
	return composer.Config{
		LookaheadSec:     c.LookaheadSec,
		ResumeEpsilonSec: c.ResumeEpsilonSec,
		ChordChangeProb:  c.ChordChangeProb,
		BaseDelaySec:     c.BaseDelaySec,
		DelaySpanSec:     c.DelaySpanSec,
		MoodCenterHz:     c.MoodCenterHz,
		MoodRangeHz:      c.MoodRangeHz,
		HumanizeMin:      c.HumanizeMin,
		HumanizeSpan:     c.HumanizeSpan,
		BreathProb:       c.BreathProb,
		BreathMul:        c.BreathMul,
		MinDelaySec:      c.MinDelaySec,
		VelocityMin:      c.VelocityMin,
		VelocitySpan:     c.VelocitySpan,
		TempoBaseBPM:     c.TempoBaseBPM,
		TempoPerHz:       c.TempoPerHz,
		PanCenterHz:      c.PanCenterHz,
		PanSpreadHz:      c.PanSpreadHz,
		PanJitter:        c.PanJitter,
	}
}

func (c Config) graphConfig(seed uint32) graph.Config {
	gc := graph.DefaultConfig()
	gc.SampleRate = c.SampleRate
	gc.Seed = seed
	gc.SmoothingSec = c.SmoothingSec
	gc.ReverbSeconds = c.ReverbSeconds
	gc.ReverbDecay = c.ReverbDecay
	gc.ReverbBlock = c.ReverbBlockSize
	gc.DelayDampHz = c.DelayDampHz
	gc.DelayMaxSec = c.maxDelaySec()
	gc.DelayDriftPeriodSec = c.DelayDriftPeriodSec
	gc.DelayDriftDepth = c.DelayDriftDepth
	gc.DetuneDriftPeriodSec = c.DetuneDriftPeriodSec
	gc.DetuneDriftHz = c.DetuneDriftHz
	gc.Drone.CutoffHz = c.DroneCutoffHz
	gc.Drone.BreathPeriodSec = c.BreathPeriodSec
	gc.Drone.BreathDepth = c.BreathDepth
	gc.Drone.SmoothingSec = c.SmoothingSec
	gc.Voice.Polyphony = c.Polyphony
	return gc
}

// maxDelaySec is the longest delay the slowest tempo and the drift can ask for.
func (c Config) maxDelaySec() float64 {
	return 60 / c.TempoBaseBPM * c.DelayBeats * (1 + c.DelayDriftDepth) * 1.05
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.TickMillis < 0:
		return fmt.Errorf("%w: negative tick period", ErrInvalidConfig)
	case c.TickMillis > 0 && float64(c.TickMillis)/1000 >= c.LookaheadSec:
		return fmt.Errorf("%w: tick period %dms must be shorter than the lookahead", ErrInvalidConfig, c.TickMillis)
	case c.FadeInSec < 0 || c.FadeOutSec < 0:
		return fmt.Errorf("%w: negative fade time", ErrInvalidConfig)
	case c.DelayBeats <= 0:
		return fmt.Errorf("%w: delay beats must be positive", ErrInvalidConfig)
	case c.DelayDriftDepth < 0 || c.DelayDriftDepth >= 1:
		return fmt.Errorf("%w: delay drift depth %v outside [0,1)", ErrInvalidConfig, c.DelayDriftDepth)
	case c.Polyphony < 1:
		return fmt.Errorf("%w: polyphony must be positive", ErrInvalidConfig)
	case c.DroneCutoffHz <= 0:
		return fmt.Errorf("%w: drone cutoff must be positive", ErrInvalidConfig)
	}
	if err := c.composerConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.graphConfig(1).Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
