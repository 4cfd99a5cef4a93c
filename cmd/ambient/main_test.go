package main

import (
	"os"
	"path/filepath"
	"testing"

	ambient "github.com/cbegin/ambient-go"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// renderedRate renders a tenth of a second and infers the sample rate from its length.
func renderedRate(t *testing.T, opts []ambient.Option) int {
	t.Helper()
	samples, err := ambient.Render(0.1, ambient.DefaultAudioParams(), append(opts, ambient.WithSeed(1))...)
	if err != nil {
		t.Fatal(err)
	}
	return len(samples) / 2 * 10
}

func TestConfigSampleRateKeptWithoutFlag(t *testing.T) {
	path := writeConfig(t, `{"sampleRate": 8000, "reverbSeconds": 0.5, "reverbBlockSize": 128}`)
	opts, err := baseOptions(path, 48000, false)
	if err != nil {
		t.Fatal(err)
	}
	if got := renderedRate(t, opts); got != 8000 {
		t.Fatalf("sample rate = %d, want the config file's 8000", got)
	}
}

func TestSampleRateFlagOverridesConfig(t *testing.T) {
	path := writeConfig(t, `{"sampleRate": 8000, "reverbSeconds": 0.5, "reverbBlockSize": 128}`)
	opts, err := baseOptions(path, 16000, true)
	if err != nil {
		t.Fatal(err)
	}
	if got := renderedRate(t, opts); got != 16000 {
		t.Fatalf("sample rate = %d, want the flag's 16000", got)
	}
}

func TestBadConfigFileRejected(t *testing.T) {
	path := writeConfig(t, `{"tickMillis": 500}`)
	if _, err := baseOptions(path, 48000, false); err == nil {
		t.Fatal("expected error for a tick longer than the lookahead")
	}
	if _, err := baseOptions(filepath.Join(t.TempDir(), "missing.json"), 48000, false); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestParseBackend(t *testing.T) {
	if b, err := parseBackend(" OTO "); err != nil || b != ambient.BackendOto {
		t.Fatalf("parseBackend = %v, %v", b, err)
	}
	if _, err := parseBackend("alsa"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
