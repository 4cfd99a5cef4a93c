package audio

import (
	"fmt"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

var (
	ebitenOnce       sync.Once
	ebitenContext    *ebitaudio.Context
	ebitenSampleRate int
)

// ebiten allows one audio context per process.
func sharedEbitenContext(sampleRate int) (*ebitaudio.Context, error) {
	ebitenOnce.Do(func() {
		ebitenSampleRate = sampleRate
		ebitenContext = ebitaudio.NewContext(sampleRate)
	})
	if ebitenSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", ebitenSampleRate, sampleRate)
	}
	return ebitenContext, nil
}

type EbitenOutput struct {
	player *ebitaudio.Player
}

func NewEbitenOutput(sampleRate int, src SampleSource, bufferSize time.Duration) (*EbitenOutput, error) {
	ctx, err := sharedEbitenContext(sampleRate)
	if err != nil {
		return nil, err
	}
	pl, err := ctx.NewPlayerF32(NewStreamReader(src))
	if err != nil {
		return nil, fmt.Errorf("ebiten player: %w", err)
	}
	if bufferSize > 0 {
		pl.SetBufferSize(bufferSize)
	}
	return &EbitenOutput{player: pl}, nil
}

func (o *EbitenOutput) Play()  { o.player.Play() }
func (o *EbitenOutput) Pause() { o.player.Pause() }

func (o *EbitenOutput) Close() error {
	o.player.Pause()
	return o.player.Close()
}
