package composer

import "math"

// Chord is one harmonic context: a scale-degree name and the pitches a note may be
// drawn from.
type Chord struct {
	Name  string
	Notes []float64 // Hz
}

// Palette is the ordered chord set indexed by the transition matrix.
type Palette []Chord

// MIDIToHz converts a MIDI note number to frequency (A4 = 69 = 440 Hz).
func MIDIToHz(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

func chord(name string, notes ...int) Chord {
	c := Chord{Name: name, Notes: make([]float64, len(notes))}
	for i, n := range notes {
		c.Notes[i] = MIDIToHz(n)
	}
	return c
}

// DefaultPalette is I, IV, vi and V in C major, voiced open with added tones.
func DefaultPalette() Palette {
	return Palette{
		chord("I", 60, 64, 67, 71, 74),
		chord("IV", 65, 69, 72, 76, 79),
		chord("vi", 57, 60, 64, 67, 71),
		chord("V", 55, 62, 67, 69, 71),
	}
}
