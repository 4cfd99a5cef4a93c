// Package audio connects a sample source to the platform output device.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// SampleSource fills interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

// Output is an acquired device stream.
type Output interface {
	Play()
	Pause()
	Close() error
}

// Factory acquires an output that pulls from src.
type Factory func(sampleRate int, src SampleSource) (Output, error)

// Backend names an output implementation.
type Backend string

const (
	BackendEbiten Backend = "ebiten"
	BackendOto    Backend = "oto"
)

// DefaultBufferSize trades latency for robustness; the engine schedules ahead.
const DefaultBufferSize = 100 * time.Millisecond

// NewFactory returns the factory for a backend.
func NewFactory(b Backend, bufferSize time.Duration) (Factory, error) {
	switch b {
	case BackendEbiten, "":
		return func(sampleRate int, src SampleSource) (Output, error) {
			return NewEbitenOutput(sampleRate, src, bufferSize)
		}, nil
	case BackendOto:
		return func(sampleRate int, src SampleSource) (Output, error) {
			return NewOtoOutput(sampleRate, src, bufferSize)
		}, nil
	}
	return nil, fmt.Errorf("unknown audio backend %q", b)
}

// StreamReader adapts a SampleSource to an io.Reader of little-endian float32
// stereo frames. It is read by a single device goroutine.
type StreamReader struct {
	source SampleSource
	buf    []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i, v := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return frames * 8, nil
}
