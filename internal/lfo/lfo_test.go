package lfo

import (
	"math"
	"testing"
)

func TestLFOSineShape(t *testing.T) {
	l := New(100, 1, 1, WaveSine) // 100 samples per cycle
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = l.Next()
	}
	if math.Abs(samples[0]) > 1e-9 {
		t.Errorf("sine at phase 0: got %f, want 0", samples[0])
	}
	if math.Abs(samples[25]-1) > 1e-6 {
		t.Errorf("sine at phase 0.25: got %f, want 1", samples[25])
	}
	if math.Abs(samples[75]+1) > 1e-6 {
		t.Errorf("sine at phase 0.75: got %f, want -1", samples[75])
	}
}

func TestLFOTriangleShape(t *testing.T) {
	l := New(100, 1, 2, WaveTriangle)
	var samples [100]float64
	for i := range samples {
		samples[i] = l.Next()
	}
	if math.Abs(samples[0]+2) > 0.05 {
		t.Errorf("triangle at phase 0: got %f, want -2", samples[0])
	}
	if math.Abs(samples[50]-2) > 0.05 {
		t.Errorf("triangle at phase 0.5: got %f, want 2", samples[50])
	}
}

func TestLFOSlowPeriod(t *testing.T) {
	const sr = 48000
	l := New(sr, 180, 0.08, WaveSine)
	var maxAbs float64
	for i := 0; i < sr*45; i++ {
		if v := math.Abs(l.Next()); v > maxAbs {
			maxAbs = v
		}
	}
	// A quarter of a three-minute cycle reaches the peak.
	if math.Abs(maxAbs-0.08) > 1e-4 {
		t.Fatalf("peak after quarter cycle = %f, want 0.08", maxAbs)
	}
	if math.Abs(l.Phase()-0.25) > 1e-6 {
		t.Fatalf("phase = %f, want 0.25", l.Phase())
	}
}

func TestLFOInactive(t *testing.T) {
	l := New(48000, 0, 1, WaveSine)
	if l.Active() || l.Next() != 0 {
		t.Fatal("zero-period LFO should be inactive")
	}
	l = New(48000, 30, 0, WaveSine)
	if l.Active() || l.Next() != 0 {
		t.Fatal("zero-depth LFO should be inactive")
	}
}

func TestLFOSetPhaseWraps(t *testing.T) {
	l := New(100, 1, 1, WaveSine)
	l.SetPhase(1.25)
	if v := l.Next(); math.Abs(v-1) > 1e-9 {
		t.Fatalf("value at wrapped phase 0.25 = %f, want 1", v)
	}
}
