package ambient

import (
	"errors"
	"math"
)

// nullOutput stands in for a device; Render pulls the graph itself.
type nullOutput struct{ playing bool }

func (o *nullOutput) Play()        { o.playing = true }
func (o *nullOutput) Pause()       { o.playing = false }
func (o *nullOutput) Close() error { return nil }

// Render plays a private engine for seconds of engine time without a device and
// returns the interleaved stereo output. The control loop is stepped every
// TickMillis of rendered audio, so the result is deterministic for a given seed.
func Render(seconds float64, params AudioParams, opts ...Option) ([]float32, error) {
	opts = append(opts, WithOutput(func(int, SampleSource) (Output, error) {
		return &nullOutput{}, nil
	}))
	e := New(opts...)
	tickMillis := e.conf.cfg.TickMillis
	if tickMillis <= 0 {
		return nil, &EngineError{Op: "render", Err: errors.New("tick period must be positive")}
	}
	// the loop is stepped by hand below
	e.conf.cfg.TickMillis = 0
	e.UpdateParams(params.Full())
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	defer e.Close()
	if err := e.TogglePlay(); err != nil {
		return nil, err
	}

	sr := e.conf.cfg.SampleRate
	frames := int(seconds * float64(sr))
	chunk := sr * tickMillis / 1000
	out := make([]float32, frames*2)
	for pos := 0; pos < frames; pos += chunk {
		end := min(frames, pos+chunk)
		e.graph.Process(out[pos*2 : end*2])
		e.tick()
	}
	return out, nil
}

// Stats summarizes a rendered buffer.
type Stats struct {
	Peak float64
	RMS  float64
}

func Measure(samples []float32) Stats {
	var s Stats
	if len(samples) == 0 {
		return s
	}
	var sum float64
	for _, v := range samples {
		a := math.Abs(float64(v))
		s.Peak = math.Max(s.Peak, a)
		sum += a * a
	}
	s.RMS = math.Sqrt(sum / float64(len(samples)))
	return s
}
