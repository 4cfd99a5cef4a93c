package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

var (
	otoOnce       sync.Once
	otoContext    *oto.Context
	otoErr        error
	otoSampleRate int
)

func sharedOtoContext(sampleRate int, bufferSize time.Duration) (*oto.Context, error) {
	otoOnce.Do(func() {
		otoSampleRate = sampleRate
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
			BufferSize:   bufferSize,
		})
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoContext = ctx
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoSampleRate != sampleRate {
		return nil, fmt.Errorf("oto context already initialized at %d Hz (requested %d Hz)", otoSampleRate, sampleRate)
	}
	return otoContext, nil
}

type OtoOutput struct {
	player *oto.Player
}

func NewOtoOutput(sampleRate int, src SampleSource, bufferSize time.Duration) (*OtoOutput, error) {
	ctx, err := sharedOtoContext(sampleRate, bufferSize)
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	return &OtoOutput{player: ctx.NewPlayer(NewStreamReader(src))}, nil
}

func (o *OtoOutput) Play()  { o.player.Play() }
func (o *OtoOutput) Pause() { o.player.Pause() }

func (o *OtoOutput) Close() error {
	o.player.Pause()
	return o.player.Close()
}
