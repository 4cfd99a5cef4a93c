package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	ambient "github.com/cbegin/ambient-go"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		backend    = flag.String("backend", "ebiten", "audio output: ebiten|oto")
		bufferMs   = flag.Int("buffer-ms", 100, "device buffer length in milliseconds")
		configPath = flag.String("config", "", "JSON file overriding the engine constants")
		paramsPath = flag.String("params", "", "JSON file with a partial parameter set")
		seed       = flag.Int64("seed", 0, "random seed (0 = time based)")
		duration   = flag.Duration("duration", 0, "stop after this long (0 = until interrupted)")
		render     = flag.Float64("render", 0, "render N seconds offline and print levels instead of playing")
		status     = flag.Duration("status", 5*time.Second, "status log interval (0 = quiet)")
		verbose    = flag.Bool("v", false, "log engine lifecycle messages")
	)
	flag.Parse()
	log.SetFlags(log.Lshortfile)

	opts, err := baseOptions(*configPath, *sampleRate, flagPassed("sample-rate"))
	if err != nil {
		log.Fatal(err)
	}
	if *seed != 0 {
		opts = append(opts, ambient.WithSeed(*seed))
	}
	if *verbose {
		opts = append(opts, ambient.WithLogger(log.New(os.Stderr, "engine: ", log.Lmsgprefix)))
	}
	update, err := loadParams(*paramsPath)
	if err != nil {
		log.Fatal(err)
	}

	if *render > 0 {
		samples, err := ambient.Render(*render, ambient.DefaultAudioParams().Merge(update), opts...)
		if err != nil {
			log.Fatal(err)
		}
		st := ambient.Measure(samples)
		fmt.Printf("rendered %.1fs: peak %.3f rms %.3f\n", *render, st.Peak, st.RMS)
		return
	}

	b, err := parseBackend(*backend)
	if err != nil {
		log.Fatal(err)
	}
	opts = append(opts,
		ambient.WithBackend(b),
		ambient.WithBufferSize(time.Duration(*bufferMs)*time.Millisecond),
	)
	if err := play(*duration, *status, update, opts); err != nil {
		log.Fatalf("error: %v", err)
	}
	log.Println("main() ended.")
}

func play(duration, status time.Duration, update ambient.ParamsUpdate, opts []ambient.Option) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	e := ambient.New(opts...)
	e.UpdateParams(update)
	if err := e.Initialize(); err != nil {
		return err
	}
	if err := e.Start(); err != nil {
		e.Close()
		return err
	}
	p := e.Params()
	log.Printf("playing: %s noise, drone %.1fHz, entrainment %.1fHz, tempo %.0f bpm",
		p.NoiseColor, p.DroneBaseFreqHz, p.EntrainmentOffsetHz, e.Tempo())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if status <= 0 {
			<-ctx.Done()
			return nil
		}
		return reportStatus(ctx, e, status)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Println("shutting down...")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(sctx)
	})
	return g.Wait()
}

func reportStatus(ctx context.Context, e *ambient.Engine, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			l, r := e.Levels()
			log.Printf("t=%.1fs voices=%d level L%.3f R%.3f dropped=%d",
				e.Now(), e.ActiveVoices(), l, r, e.Dropped())
		}
	}
}

// baseOptions loads the config file, if any. The sample rate flag overrides the
// file only when it was given explicitly.
func baseOptions(configPath string, sampleRate int, sampleRateSet bool) ([]ambient.Option, error) {
	var opts []ambient.Option
	if configPath != "" {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ambient.WithConfig(cfg))
	}
	if configPath == "" || sampleRateSet {
		opts = append(opts, ambient.WithSampleRate(sampleRate))
	}
	return opts, nil
}

func flagPassed(name string) bool {
	passed := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}

func loadConfig(path string) (ambient.Config, error) {
	cfg := ambient.DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func loadParams(path string) (ambient.ParamsUpdate, error) {
	var u ambient.ParamsUpdate
	if path == "" {
		return u, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return u, err
	}
	if err := json.Unmarshal(data, &u); err != nil {
		return u, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

func parseBackend(name string) (ambient.Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ebiten":
		return ambient.BackendEbiten, nil
	case "oto":
		return ambient.BackendOto, nil
	default:
		return "", errors.New("unknown backend: " + name)
	}
}
