package composer

import (
	"math"
	"math/rand"
	"testing"
)

// fixedRand returns the same values on every draw.
type fixedRand struct {
	f float64
	n int
}

func (r fixedRand) Float64() float64 { return r.f }
func (r fixedRand) Intn(int) int     { return r.n }

func TestDefaultMatrixRowsSumToOne(t *testing.T) {
	m := DefaultMatrix()
	if _, err := NewTransitionMatrix(m); err != nil {
		t.Fatal(err)
	}
	for i, row := range m {
		var sum float64
		for _, p := range row {
			sum += p
		}
		if math.Abs(sum-1) > RowTolerance {
			t.Errorf("row %d sums to %v", i, sum)
		}
	}
	if len(m) != len(DefaultPalette()) {
		t.Fatalf("matrix and palette sizes differ")
	}
}

func TestNewTransitionMatrixRejects(t *testing.T) {
	tests := []struct {
		name string
		rows [][]float64
	}{
		{"empty", nil},
		{"not square", [][]float64{{1, 0}}},
		{"negative", [][]float64{{1.5, -0.5}, {0.5, 0.5}}},
		{"bad sum", [][]float64{{0.5, 0.4}, {0.5, 0.5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTransitionMatrix(tt.rows); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNormalizeRows(t *testing.T) {
	m, err := NormalizeRows([][]float64{{1, 3}, {2, 2}})
	if err != nil {
		t.Fatal(err)
	}
	if m[0][0] != 0.25 || m[0][1] != 0.75 || m[1][0] != 0.5 {
		t.Fatalf("unexpected normalization %v", m)
	}
	if _, err := NormalizeRows([][]float64{{0, 0}, {1, 1}}); err == nil {
		t.Fatal("expected error for weightless row")
	}
}

func TestPickRouletteEdges(t *testing.T) {
	m := TransitionMatrix{
		{0, 0.3, 0.7, 0},
		{1, 0, 0, 0},
		{0.25, 0.25, 0.25, 0.25},
		{0, 0, 0, 1},
	}
	tests := []struct {
		row  int
		r    float64
		want int
	}{
		{0, 0, 1},
		{0, 0.29999, 1},
		{0, 0.3, 2},
		{0, math.Nextafter(1, 0), 2}, // residue lands in last non-zero bucket
		{0, 1, 2},
		{1, 0.5, 0},
		{2, 0.74, 2},
		{3, 0, 3},
	}
	for _, tt := range tests {
		if got := m.Pick(tt.row, tt.r); got != tt.want {
			t.Errorf("Pick(%d, %v) = %d, want %d", tt.row, tt.r, got, tt.want)
		}
	}
}

func TestPickRoundingResidue(t *testing.T) {
	third := 1.0 / 3
	m := TransitionMatrix{{third, third, third}}
	if got := m.Pick(0, 0.9999999999999999); got != 2 {
		t.Fatalf("Pick with residue = %d, want 2", got)
	}
}

func TestStationaryIsFixedPoint(t *testing.T) {
	m := DefaultMatrix()
	pi := m.Stationary()
	var sum float64
	for j := range pi {
		sum += pi[j]
		var next float64
		for i := range m {
			next += pi[i] * m[i][j]
		}
		if math.Abs(next-pi[j]) > 1e-9 {
			t.Errorf("pi[%d]=%v is not stationary (piM=%v)", j, pi[j], next)
		}
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("stationary distribution sums to %v", sum)
	}
}

func TestStationaryOfPeriodicChain(t *testing.T) {
	pi := TransitionMatrix{{0, 1}, {1, 0}}.Stationary()
	if math.Abs(pi[0]-0.5) > 1e-9 || math.Abs(pi[1]-0.5) > 1e-9 {
		t.Fatalf("periodic stationary = %v, want [0.5 0.5]", pi)
	}
}

func TestChordVisitationConvergesToStationary(t *testing.T) {
	m := DefaultMatrix()
	walk := NewMarkov(m, 0)
	if walk.Current() != 0 {
		t.Fatalf("walk should start on chord I")
	}
	rng := rand.New(rand.NewSource(42))
	const steps = 200000
	counts := make([]float64, len(m))
	for i := 0; i < steps; i++ {
		counts[walk.Next(rng)]++
	}
	pi := m.Stationary()
	for j := range pi {
		if got := counts[j] / steps; math.Abs(got-pi[j]) > 0.02 {
			t.Errorf("chord %d visited %.4f, stationary %.4f", j, got, pi[j])
		}
	}
}

func newTestComposer(t *testing.T, seed int64) *Composer {
	t.Helper()
	c, err := New(DefaultConfig(), DefaultPalette(), DefaultMatrix(), rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestScheduleIsMonotonic(t *testing.T) {
	c := newTestComposer(t, 7)
	c.Reset(0)
	last := math.Inf(-1)
	total := 0
	for tick := 0; tick < 40000; tick++ {
		now := float64(tick) * 0.025
		mood := float64(tick%4000) / 100 // sweep 0..40 Hz
		if tick%5000 == 4999 {
			c.Reset(now)
		}
		n, _ := c.Schedule(now, mood, func(ev Event) {
			if ev.Time < last {
				t.Fatalf("event at %v scheduled after %v", ev.Time, last)
			}
			if ev.Time >= now+DefaultConfig().LookaheadSec {
				t.Fatalf("event at %v beyond horizon %v", ev.Time, now)
			}
			if ev.Velocity < 0.2 || ev.Velocity > 0.5 {
				t.Fatalf("velocity %v out of range", ev.Velocity)
			}
			if ev.Pan < -1 || ev.Pan > 1 {
				t.Fatalf("pan %v out of range", ev.Pan)
			}
			last = ev.Time
		})
		total += n
	}
	if total < 100 {
		t.Fatalf("only %d events in 1000s", total)
	}
}

func TestRestartNeverRepeatsAnOnset(t *testing.T) {
	c := newTestComposer(t, 3)
	c.Reset(0)
	var onsets []float64
	emit := func(ev Event) { onsets = append(onsets, ev.Time) }
	tick := func(from, to float64) {
		for now := from; now <= to; now += 0.025 {
			c.Schedule(now, 20, emit)
		}
	}
	tick(0, 4)
	if len(onsets) == 0 {
		t.Fatal("nothing scheduled before the restart")
	}
	before := len(onsets)
	// stop and start again within one lookahead window
	c.Reset(4)
	tick(4, 8)
	if len(onsets) == before {
		t.Fatal("nothing scheduled after the restart")
	}
	minGap := DefaultConfig().MinDelaySec
	for i := 1; i < len(onsets); i++ {
		if gap := onsets[i] - onsets[i-1]; gap < minGap-1e-9 {
			t.Fatalf("onsets %d and %d are %.4fs apart (%.4f, %.4f), want >= %.2fs",
				i-1, i, gap, onsets[i-1], onsets[i], minGap)
		}
	}
}

func TestScheduleFillsLookaheadWindow(t *testing.T) {
	c := newTestComposer(t, 1)
	c.Reset(10)
	n, resynced := c.Schedule(10, 4, func(Event) {})
	if n != 1 || resynced {
		t.Fatalf("n=%d resynced=%v, want one event without resync", n, resynced)
	}
	if c.NextEventTime() < 10+DefaultConfig().LookaheadSec {
		t.Fatalf("next event %v still inside the window", c.NextEventTime())
	}
}

func TestScheduleSkipsStaleBacklog(t *testing.T) {
	c := newTestComposer(t, 3)
	c.Reset(0)
	c.Schedule(0, 4, func(Event) {})
	var events []Event
	// control loop stalled for a minute
	n, resynced := c.Schedule(60, 4, func(ev Event) { events = append(events, ev) })
	if !resynced {
		t.Fatal("expected resync after stall")
	}
	if n != 1 {
		t.Fatalf("emitted %d events after stall, want 1", n)
	}
	if events[0].Time < 60 {
		t.Fatalf("stale event at %v replayed", events[0].Time)
	}
}

func TestDelayFollowsMood(t *testing.T) {
	c := newTestComposer(t, 1)
	tests := []struct {
		mood, want float64
	}{
		{4, 4},
		{20, 1},
		{0, 4.75},
	}
	for _, tt := range tests {
		if got := c.Delay(tt.mood); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Delay(%v) = %v, want %v", tt.mood, got, tt.want)
		}
	}
}

func TestDelayClampedToMinimum(t *testing.T) {
	cfg := DefaultConfig()
	c, err := New(cfg, DefaultPalette(), DefaultMatrix(), fixedRand{f: 0, n: 0})
	if err != nil {
		t.Fatal(err)
	}
	c.Reset(0)
	c.Schedule(0, 1000, func(Event) {})
	if got := c.NextEventTime(); math.Abs(got-(cfg.ResumeEpsilonSec+cfg.MinDelaySec)) > 1e-12 {
		t.Fatalf("next = %v, want minimum delay after first event", got)
	}
}

func TestPhraseBreathLengthensDelay(t *testing.T) {
	cfg := DefaultConfig()
	// Float64 always 0: chord changes, breath fires, humanize at its minimum
	c, err := New(cfg, DefaultPalette(), DefaultMatrix(), fixedRand{f: 0, n: 2})
	if err != nil {
		t.Fatal(err)
	}
	c.Reset(0)
	var ev Event
	c.Schedule(0, 4, func(e Event) { ev = e })
	want := cfg.ResumeEpsilonSec + 4*cfg.HumanizeMin*cfg.BreathMul
	if math.Abs(c.NextEventTime()-want) > 1e-12 {
		t.Fatalf("next = %v, want %v", c.NextEventTime(), want)
	}
	// roulette with r=0 from I picks the first non-zero bucket
	if ev.Chord != 0 || ev.FrequencyHz != DefaultPalette()[0].Notes[2] {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestTempo(t *testing.T) {
	cfg := DefaultConfig()
	if got := Tempo(cfg, 0); got != 60 {
		t.Fatalf("Tempo(0) = %v", got)
	}
	if got := Tempo(cfg, 10); got != 80 {
		t.Fatalf("Tempo(10) = %v", got)
	}
}

func TestNewRejectsMismatchedMatrix(t *testing.T) {
	m := TransitionMatrix{{1}}
	if _, err := New(DefaultConfig(), DefaultPalette(), m, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected error")
	}
	// four rows for four chords, but row 0 reaches a fifth chord
	ragged := TransitionMatrix{
		{0.1, 0.1, 0.1, 0.1, 0.6},
		{0.25, 0.25, 0.25, 0.25},
		{0.25, 0.25, 0.25, 0.25},
		{0.25, 0.25, 0.25, 0.25},
	}
	if _, err := New(DefaultConfig(), DefaultPalette(), ragged, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected error for a row wider than the palette")
	}
	unnormalized := DefaultMatrix()
	unnormalized[2] = []float64{1, 1, 1, 1}
	if _, err := New(DefaultConfig(), DefaultPalette(), unnormalized, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected error for a row that does not sum to one")
	}
	cfg := DefaultConfig()
	cfg.MinDelaySec = 0
	if _, err := New(cfg, DefaultPalette(), DefaultMatrix(), rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected error for zero minimum delay")
	}
}

func TestMIDIToHz(t *testing.T) {
	if got := MIDIToHz(69); got != 440 {
		t.Fatalf("A4 = %v", got)
	}
	if got := MIDIToHz(57); math.Abs(got-220) > 1e-9 {
		t.Fatalf("A3 = %v", got)
	}
}
