package main

import ambient "github.com/cbegin/ambient-go"

// Scene is a named starting point for the parameter set.
type Scene struct {
	Name   string
	Params ambient.AudioParams
}

// Scenes are ordered by entrainment offset, slowest first.
func Scenes() []Scene {
	base := ambient.DefaultAudioParams()

	sleep := base
	sleep.MasterVolume = 0.6
	sleep.ToneVolume = 0.35
	sleep.NoiseColor = ambient.Brown
	sleep.NoiseVolume = 0.35
	sleep.NoiseFilterFreqHz = 400
	sleep.DroneBaseFreqHz = 98
	sleep.EntrainmentOffsetHz = 2
	sleep.ReverbMix = 0.7
	sleep.DelayMix = 0.2

	meditate := base
	meditate.NoiseColor = ambient.Pink
	meditate.DroneBaseFreqHz = 110
	meditate.EntrainmentOffsetHz = 6

	calm := base
	calm.NoiseVolume = 0.2
	calm.DroneBaseFreqHz = 130.8
	calm.EntrainmentOffsetHz = 10
	calm.DelayFeedback = 0.45

	focus := base
	focus.NoiseColor = ambient.White
	focus.NoiseVolume = 0.15
	focus.NoiseFilterFreqHz = 2500
	focus.ToneVolume = 0.5
	focus.DroneBaseFreqHz = 146.8
	focus.EntrainmentOffsetHz = 16
	focus.ReverbMix = 0.35
	focus.DelayMix = 0.35

	return []Scene{
		{Name: "Sleep", Params: sleep},
		{Name: "Meditate", Params: meditate},
		{Name: "Calm", Params: calm},
		{Name: "Focus", Params: focus},
	}
}
