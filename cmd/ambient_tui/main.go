package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	ambient "github.com/cbegin/ambient-go"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		backend    = flag.String("backend", "ebiten", "audio output: ebiten|oto")
		logPath    = flag.String("log", "", "write engine messages to this file")
	)
	flag.Parse()

	opts := []ambient.Option{ambient.WithSampleRate(*sampleRate)}
	switch *backend {
	case "ebiten":
		opts = append(opts, ambient.WithBackend(ambient.BackendEbiten))
	case "oto":
		opts = append(opts, ambient.WithBackend(ambient.BackendOto))
	default:
		log.Fatalf("unknown backend: %s", *backend)
	}
	if *logPath != "" {
		f, err := tea.LogToFile(*logPath, "ambient")
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		opts = append(opts, ambient.WithLogger(log.Default()))
	}

	e := ambient.New(opts...)
	if err := e.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewModel(e), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		e.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
