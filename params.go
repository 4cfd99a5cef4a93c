package ambient

import (
	"fmt"
	"math"
	"strings"

	"github.com/cbegin/ambient-go/internal/noise"
)

// NoiseColor selects the spectrum of the noise bed.
type NoiseColor int

const (
	White NoiseColor = NoiseColor(noise.White)
	Pink  NoiseColor = NoiseColor(noise.Pink)
	Brown NoiseColor = NoiseColor(noise.Brown)
)

func (c NoiseColor) String() string {
	switch c {
	case White:
		return "white"
	case Pink:
		return "pink"
	case Brown:
		return "brown"
	}
	return fmt.Sprintf("NoiseColor(%d)", int(c))
}

func (c NoiseColor) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *NoiseColor) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "white":
		*c = White
	case "pink":
		*c = Pink
	case "brown":
		*c = Brown
	default:
		return fmt.Errorf("unknown noise color %q", b)
	}
	return nil
}

// MaxEntrainmentHz bounds the binaural offset.
const MaxEntrainmentHz = 40

// AudioParams is the live, user-tunable parameter set. Every change reaches the
// audio thread as a smoothed ramp.
type AudioParams struct {
	MasterVolume        float64    `json:"masterVolume"`
	ToneVolume          float64    `json:"toneVolume"`
	NoiseVolume         float64    `json:"noiseVolume"`
	NoiseFilterFreqHz   float64    `json:"noiseFilterFreqHz"`
	NoiseColor          NoiseColor `json:"noiseColor"`
	DroneVolume         float64    `json:"droneVolume"`
	DroneBaseFreqHz     float64    `json:"droneBaseFreqHz"`
	EntrainmentOffsetHz float64    `json:"entrainmentOffsetHz"` // right-ear detune; also the mood
	DelayFeedback       float64    `json:"delayFeedback"`
	ReverbMix           float64    `json:"reverbMix"`
	DelayMix            float64    `json:"delayMix"`
}

func DefaultAudioParams() AudioParams {
	return AudioParams{
		MasterVolume:        0.8,
		ToneVolume:          0.6,
		NoiseVolume:         0.25,
		NoiseFilterFreqHz:   900,
		NoiseColor:          Pink,
		DroneVolume:         0.4,
		DroneBaseFreqHz:     110,
		EntrainmentOffsetHz: 6,
		DelayFeedback:       0.35,
		ReverbMix:           0.5,
		DelayMix:            0.3,
	}
}

// ParamsUpdate is a partial AudioParams; nil fields are left unchanged.
type ParamsUpdate struct {
	MasterVolume        *float64    `json:"masterVolume,omitempty"`
	ToneVolume          *float64    `json:"toneVolume,omitempty"`
	NoiseVolume         *float64    `json:"noiseVolume,omitempty"`
	NoiseFilterFreqHz   *float64    `json:"noiseFilterFreqHz,omitempty"`
	NoiseColor          *NoiseColor `json:"noiseColor,omitempty"`
	DroneVolume         *float64    `json:"droneVolume,omitempty"`
	DroneBaseFreqHz     *float64    `json:"droneBaseFreqHz,omitempty"`
	EntrainmentOffsetHz *float64    `json:"entrainmentOffsetHz,omitempty"`
	DelayFeedback       *float64    `json:"delayFeedback,omitempty"`
	ReverbMix           *float64    `json:"reverbMix,omitempty"`
	DelayMix            *float64    `json:"delayMix,omitempty"`
}

// Ptr returns a pointer to v, for building ParamsUpdate literals.
func Ptr[T any](v T) *T { return &v }

// Full returns an update that sets every field to p.
func (p AudioParams) Full() ParamsUpdate {
	return ParamsUpdate{
		MasterVolume:        Ptr(p.MasterVolume),
		ToneVolume:          Ptr(p.ToneVolume),
		NoiseVolume:         Ptr(p.NoiseVolume),
		NoiseFilterFreqHz:   Ptr(p.NoiseFilterFreqHz),
		NoiseColor:          Ptr(p.NoiseColor),
		DroneVolume:         Ptr(p.DroneVolume),
		DroneBaseFreqHz:     Ptr(p.DroneBaseFreqHz),
		EntrainmentOffsetHz: Ptr(p.EntrainmentOffsetHz),
		DelayFeedback:       Ptr(p.DelayFeedback),
		ReverbMix:           Ptr(p.ReverbMix),
		DelayMix:            Ptr(p.DelayMix),
	}
}

// Merge applies the non-nil fields of u.
func (p AudioParams) Merge(u ParamsUpdate) AudioParams {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.MasterVolume, u.MasterVolume)
	set(&p.ToneVolume, u.ToneVolume)
	set(&p.NoiseVolume, u.NoiseVolume)
	set(&p.NoiseFilterFreqHz, u.NoiseFilterFreqHz)
	set(&p.DroneVolume, u.DroneVolume)
	set(&p.DroneBaseFreqHz, u.DroneBaseFreqHz)
	set(&p.EntrainmentOffsetHz, u.EntrainmentOffsetHz)
	set(&p.DelayFeedback, u.DelayFeedback)
	set(&p.ReverbMix, u.ReverbMix)
	set(&p.DelayMix, u.DelayMix)
	if u.NoiseColor != nil {
		p.NoiseColor = *u.NoiseColor
	}
	return p
}

// Clamped forces every field into its valid range for sampleRate. Out-of-range
// values are corrected, never rejected.
func (p AudioParams) Clamped(sampleRate int) AudioParams {
	nyquist := float64(sampleRate) / 2 * 0.95
	p.MasterVolume = clamp(p.MasterVolume, 0, 1)
	p.ToneVolume = clamp(p.ToneVolume, 0, 1)
	p.NoiseVolume = clamp(p.NoiseVolume, 0, 1)
	p.DroneVolume = clamp(p.DroneVolume, 0, 1)
	p.ReverbMix = clamp(p.ReverbMix, 0, 1)
	p.DelayMix = clamp(p.DelayMix, 0, 1)
	p.NoiseFilterFreqHz = clamp(p.NoiseFilterFreqHz, 0, nyquist)
	p.DroneBaseFreqHz = clamp(p.DroneBaseFreqHz, 0, nyquist)
	p.EntrainmentOffsetHz = clamp(p.EntrainmentOffsetHz, 0, MaxEntrainmentHz)
	p.DelayFeedback = clamp(p.DelayFeedback, 0, 0.95)
	if p.NoiseColor < White || p.NoiseColor > Brown {
		p.NoiseColor = Pink
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
