package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

type rampSource struct{ calls int }

func (s *rampSource) Process(dst []float32) {
	s.calls++
	for i := range dst {
		dst[i] = float32(i) / 10
	}
}

func TestStreamReaderEncodesFloat32LE(t *testing.T) {
	src := &rampSource{}
	r := NewStreamReader(src)
	p := make([]byte, 8*4+3) // four frames plus a partial one
	n, err := r.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != 32 {
		t.Fatalf("read %d bytes, want 32", n)
	}
	for i := 0; i < 8; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		if got != float32(i)/10 {
			t.Fatalf("sample %d = %f", i, got)
		}
	}
}

func TestStreamReaderShortBuffer(t *testing.T) {
	src := &rampSource{}
	r := NewStreamReader(src)
	n, err := r.Read(make([]byte, 7))
	if n != 0 || err != nil || src.calls != 0 {
		t.Fatalf("n=%d err=%v calls=%d, want no render", n, err, src.calls)
	}
}

func TestNewFactory(t *testing.T) {
	for _, b := range []Backend{BackendEbiten, BackendOto, ""} {
		if f, err := NewFactory(b, DefaultBufferSize); err != nil || f == nil {
			t.Errorf("NewFactory(%q) = %v", b, err)
		}
	}
	if _, err := NewFactory("alsa", 0); err == nil {
		t.Error("expected error for unknown backend")
	}
}
