package smooth

import (
	"math"
	"testing"
)

func TestParamNeverExceedsStepBound(t *testing.T) {
	const sr = 48000
	p := NewParam(0, 0.5, sr)
	targets := []float64{1, 0.2, 0.9, 0, 0.5}
	prev := p.Value()
	for _, target := range targets {
		bound := p.MaxStep(1) + 1e-12
		p.SetTarget(target)
		for i := 0; i < sr/4; i++ {
			v := p.Next()
			if d := math.Abs(v - prev); d > bound {
				t.Fatalf("step %g exceeds bound %g (target %g)", d, bound, target)
			}
			prev = v
		}
	}
}

func TestParamReachesTarget(t *testing.T) {
	const sr = 1000
	p := NewParam(0, 0.1, sr)
	p.SetTarget(1)
	for i := 0; i < sr*3; i++ {
		p.Next()
	}
	if !p.Settled() {
		t.Fatalf("expected settled after 30 tau, value=%g", p.Value())
	}
	if p.Value() != 1 {
		t.Fatalf("value = %g, want 1", p.Value())
	}
}

func TestParamOneTauIsSixtyThreePercent(t *testing.T) {
	const sr = 48000
	p := NewParam(0, 0.5, sr)
	p.SetTarget(1)
	for i := 0; i < sr/2; i++ {
		p.Next()
	}
	if math.Abs(p.Value()-(1-math.Exp(-1))) > 1e-3 {
		t.Fatalf("value after one tau = %g, want ~0.632", p.Value())
	}
}

func TestRampLinearSegment(t *testing.T) {
	r := NewRamp(0, 100)
	r.To(1, 1)
	r.Begin()
	for i := 0; i < 50; i++ {
		r.Next()
	}
	r.End()
	if math.Abs(r.Level()-0.5) > 1e-9 {
		t.Fatalf("level = %g, want 0.5", r.Level())
	}
	if r.Settled() {
		t.Fatalf("ramp should still be running")
	}
	r.Begin()
	for i := 0; i < 60; i++ {
		r.Next()
	}
	r.End()
	if r.Level() != 1 || !r.Settled() {
		t.Fatalf("level = %g settled=%v, want 1 settled", r.Level(), r.Settled())
	}
}

func TestRampRetargetStartsFromCurrentLevel(t *testing.T) {
	r := NewRamp(0, 100)
	r.To(1, 1)
	r.Begin()
	var prev float64
	for i := 0; i < 30; i++ {
		prev = r.Next()
	}
	r.To(0, 0.5)
	r.Begin()
	v := r.Next()
	if v > prev || prev-v > 0.3/50+1e-9 {
		t.Fatalf("retarget jumped: prev=%g next=%g", prev, v)
	}
	for i := 0; i < 100; i++ {
		v = r.Next()
	}
	r.End()
	if v != 0 || !r.Settled() {
		t.Fatalf("expected to land on 0, got %g", v)
	}
}
