package ambient

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNoiseColorText(t *testing.T) {
	tests := []struct {
		in   string
		want NoiseColor
	}{
		{"white", White},
		{"Pink", Pink},
		{" BROWN ", Brown},
	}
	for _, tt := range tests {
		var c NoiseColor
		if err := c.UnmarshalText([]byte(tt.in)); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", tt.in, err)
		}
		if c != tt.want {
			t.Errorf("UnmarshalText(%q) = %v, want %v", tt.in, c, tt.want)
		}
	}
	var c NoiseColor
	if err := c.UnmarshalText([]byte("violet")); err == nil {
		t.Error("expected error for unknown color")
	}
	if s := NoiseColor(7).String(); s != "NoiseColor(7)" {
		t.Errorf("String() = %q", s)
	}
}

func TestParamsUpdateFromJSON(t *testing.T) {
	var u ParamsUpdate
	if err := json.Unmarshal([]byte(`{"noiseColor":"brown","droneBaseFreqHz":98.5}`), &u); err != nil {
		t.Fatal(err)
	}
	p := DefaultAudioParams().Merge(u)
	if p.NoiseColor != Brown || p.DroneBaseFreqHz != 98.5 {
		t.Fatalf("merged %+v", p)
	}
	if p.MasterVolume != DefaultAudioParams().MasterVolume {
		t.Fatal("unset field changed")
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var back AudioParams
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back != p {
		t.Fatalf("round trip changed params: %+v", back)
	}
}

func TestFullUpdateReproducesParams(t *testing.T) {
	p := DefaultAudioParams()
	p.NoiseColor = White
	p.DelayMix = 0.9
	if got := (AudioParams{}).Merge(p.Full()); got != p {
		t.Fatalf("Merge(Full()) = %+v, want %+v", got, p)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.TickMillis = 200
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("tick longer than lookahead: %v", err)
	}
	cfg = DefaultConfig()
	cfg.ReverbBlockSize = 1000
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("bad reverb block: %v", err)
	}
}

func TestDefaultParamsDelayFitsBuffer(t *testing.T) {
	cfg := DefaultConfig()
	// slowest tempo, widest drift
	slowest := 60 / cfg.TempoBaseBPM * cfg.DelayBeats * (1 + cfg.DelayDriftDepth)
	if cfg.maxDelaySec() < slowest {
		t.Fatalf("delay buffer %fs shorter than %fs", cfg.maxDelaySec(), slowest)
	}
}
