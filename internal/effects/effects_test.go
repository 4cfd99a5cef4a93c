package effects

import (
	"math"
	"testing"
)

func TestDelayTime(t *testing.T) {
	if got := DelayTime(60, 1.5); got != 1.5 {
		t.Fatalf("DelayTime(60, 1.5) = %f, want 1.5", got)
	}
	if got := DelayTime(120, 1.5); got != 0.75 {
		t.Fatalf("DelayTime(120, 1.5) = %f, want 0.75", got)
	}
	if got := DelayTime(0, 1.5); got != 0 {
		t.Fatalf("DelayTime(0, 1.5) = %f, want 0", got)
	}
}

func TestTempoDelayEchoArrivesOnTime(t *testing.T) {
	const sr = 1000
	d := NewTempoDelay(sr, 1, 0.1, 0.5, 400, 0, 0.5)
	var out []float64
	for i := 0; i < 400; i++ {
		in := 0.0
		if i == 0 {
			in = 1
		}
		l, _ := d.Process(in, in, 1)
		out = append(out, l)
	}
	for i := 0; i < 100; i++ {
		if out[i] != 0 {
			t.Fatalf("output before delay time at %d: %f", i, out[i])
		}
	}
	if math.Abs(out[100]-1) > 1e-12 {
		t.Fatalf("first echo = %f, want 1", out[100])
	}
	var second float64
	for i := 190; i < 260; i++ {
		second = math.Max(second, math.Abs(out[i]))
	}
	if second == 0 || second >= 0.5 {
		t.Fatalf("second echo peak = %f, want in (0, 0.5)", second)
	}
}

func TestTempoDelayFeedbackDecays(t *testing.T) {
	const sr = 2000
	d := NewTempoDelay(sr, 1, 0.05, 2, 5000, 0.3, 0.01)
	d.Process(1, 1, 1)
	var early, late float64
	for i := 0; i < sr*20; i++ {
		l, r := d.Process(0, 0, 1)
		e := l*l + r*r
		if i < sr {
			early += e
		} else if i >= sr*19 {
			late += e
		}
	}
	if late >= early*1e-3 {
		t.Fatalf("feedback loop did not decay: early=%g late=%g", early, late)
	}
}

func TestTempoDelayReset(t *testing.T) {
	d := NewTempoDelay(1000, 1, 0.01, 0.9, 400, 0, 0.5)
	for i := 0; i < 100; i++ {
		d.Process(1, 1, 1)
	}
	d.Reset()
	for i := 0; i < 1000; i++ {
		if l, r := d.Process(0, 0, 1); l != 0 || r != 0 {
			t.Fatalf("reset delay still echoes at %d", i)
		}
	}
}

func TestTempoDelayClampsTime(t *testing.T) {
	d := NewTempoDelay(1000, 0.5, 0.1, 0.5, 400, 0, 0.5)
	d.SetTime(10)
	if got := d.Time(); got > 0.5 {
		t.Fatalf("delay time = %f, want clamped to buffer", got)
	}
}

func TestEQ5BandFlatIsTransparent(t *testing.T) {
	eq := NewEQ5Band(44100, DefaultCrossovers, 0.05)
	for i := 0; i < 1000; i++ {
		x := float32(math.Sin(float64(i) * 0.05))
		l, r := eq.Process(x, -x)
		if math.Abs(float64(l-x)) > 1e-5 || math.Abs(float64(r+x)) > 1e-5 {
			t.Fatalf("flat EQ changed signal at %d: %f %f", i, l, r)
		}
	}
}

func TestEQ5BandCutsBand(t *testing.T) {
	eq := NewEQ5Band(44100, DefaultCrossovers, 0.05)
	eq.SetGainDB(0, -12)
	if got := eq.GainDB(0); got != -12 {
		t.Fatalf("band 0 gain = %f", got)
	}
	eq.SetGainDB(4, 40)
	if got := eq.GainDB(4); got != 12 {
		t.Fatalf("band 4 gain = %f, want clamped to 12", got)
	}
	eq.SetGainDB(4, 0)
	// DC sits entirely in the lowest band
	var l float32
	for i := 0; i < 44100; i++ {
		l, _ = eq.Process(1, 1)
	}
	if want := float32(math.Pow(10, -12.0/20)); math.Abs(float64(l-want)) > 0.01 {
		t.Fatalf("DC through -12dB band = %f, want %f", l, want)
	}
}

func TestCompressorReducesLoud(t *testing.T) {
	c := NewCompressor(44100, -10, 4, 1, 50, 0)
	var out float32
	for i := 0; i < 1000; i++ {
		out, _ = c.Process(1.0, 1.0)
	}
	if out >= 1.0 {
		t.Errorf("compressor should reduce loud signals, got %f", out)
	}
	if g := c.GainReduction(); g >= 1 {
		t.Errorf("gain reduction = %f, want < 1", g)
	}
	c.Reset()
	if g := c.GainReduction(); g != 1 {
		t.Errorf("gain reduction after reset = %f", g)
	}
}

func TestCompressorLinksChannels(t *testing.T) {
	c := NewCompressor(44100, -10, 4, 1, 50, 0)
	var l, r float32
	for i := 0; i < 1000; i++ {
		l, r = c.Process(1.0, 0.1)
	}
	if ratio := r / l; math.Abs(float64(ratio)-0.1) > 1e-5 {
		t.Errorf("stereo balance changed: l=%f r=%f", l, r)
	}
}

func TestChainAppliesEffectsInOrder(t *testing.T) {
	c := NewChain(NewEQ5Band(44100, DefaultCrossovers, 0.05), NewCompressor(44100, -40, 8, 1, 50, 0))
	for i := 0; i < 3; i++ {
		l, r := c.Process(1, 1)
		if l == 0 || l > 1 || r == 0 || r > 1 {
			t.Fatalf("unexpected chain output %f %f", l, r)
		}
	}
}

func TestEQ5BandGainChangeIsRamped(t *testing.T) {
	eq := NewEQ5Band(44100, DefaultCrossovers, 0.05)
	var prev float32
	for i := 0; i < 44100; i++ {
		prev, _ = eq.Process(1, 1)
	}
	eq.SetGainDB(0, -12)
	// DC sits in the lowest band; one sample may only move a fraction of the cut
	first, _ := eq.Process(1, 1)
	full := 1 - math.Pow(10, -12.0/20)
	if step := math.Abs(float64(prev - first)); step > full*0.01 {
		t.Fatalf("gain stepped by %f in one sample", step)
	}
	last := first
	for i := 0; i < 4410; i++ {
		l, _ := eq.Process(1, 1)
		if math.Abs(float64(l-last)) > full*0.01 {
			t.Fatalf("gain jumped at sample %d: %f -> %f", i, last, l)
		}
		last = l
	}
	if last >= first {
		t.Fatalf("band did not move toward the cut: %f -> %f", first, last)
	}
	eq.Reset()
	var l float32
	for i := 0; i < 44100; i++ {
		l, _ = eq.Process(1, 1)
	}
	if math.Abs(float64(l)-math.Pow(10, -12.0/20)) > 0.01 {
		t.Fatalf("reset did not land the gain on target: %f", l)
	}
}
