package polysynth

import (
	"fmt"
	"math"
)

type (
	// KeyID identifies a key of the input device. The synth only requires
	// ids to be unique per physical key; it resolves them to frequencies with
	// a Keymap.
	KeyID int

	// Note is a pitch class, C = 0 ... B = 11.
	Note int

	// Key is a note in a given octave, e.g. {A, 4} for A4 = 440 Hz.
	Key struct {
		Note   Note
		Octave int
	}

	// Keymap resolves key ids to frequencies. ok is false for keys that are
	// not mapped to a note; such key events are ignored.
	Keymap interface {
		Frequency(id KeyID) (freq float64, ok bool)
	}

	// Layout is a Keymap backed by a map of keys.
	Layout map[KeyID]Key
)

const (
	C Note = iota
	Db
	D
	Eb
	E
	F
	Gb
	G
	Ab
	A
	Bb
	B
)

const (
	BaseFrequency      = 440.0 // A4
	a4Semitone         = 57
	semitonesPerOctave = 12
	// KeyboardBaseOctave is the octave of the home row of DefaultLayout.
	KeyboardBaseOctave = 4
)

var noteNames = [...]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

func (n Note) String() string {
	return noteNames[mod(int(n), semitonesPerOctave)]
}

// Semitone returns the absolute semitone number of k, C0 = 0.
func (k Key) Semitone() int {
	return k.Octave*semitonesPerOctave + int(k.Note)
}

// Frequency returns the equal temperament frequency of k, A4 = 440 Hz.
func (k Key) Frequency() float64 {
	return BaseFrequency * math.Exp2(float64(k.Semitone()-a4Semitone)/semitonesPerOctave)
}

// Transpose returns k moved by the given number of semitones.
func (k Key) Transpose(semitones int) Key {
	s := k.Semitone() + semitones
	return Key{Note: Note(mod(s, semitonesPerOctave)), Octave: floorDiv(s, semitonesPerOctave)}
}

func (k Key) String() string {
	return fmt.Sprintf("%v%d", k.Note, k.Octave)
}

func (l Layout) Frequency(id KeyID) (float64, bool) {
	k, ok := l[id]
	if !ok {
		return 0, false
	}
	return k.Frequency(), true
}

// Transpose returns a copy of l with every key moved by the given number of
// semitones.
func (l Layout) Transpose(semitones int) Layout {
	ret := make(Layout, len(l))
	for id, k := range l {
		ret[id] = k.Transpose(semitones)
	}
	return ret
}

// DefaultLayout maps the two letter rows of a computer keyboard to a piano
// keyboard: the home row "asdfghjkl;'" plays the white keys from C4 and the
// row above plays the black keys. Key ids are the runes of the keys.
func DefaultLayout() Layout {
	o := KeyboardBaseOctave
	return Layout{
		'a': {C, o}, 'w': {Db, o}, 's': {D, o}, 'e': {Eb, o}, 'd': {E, o},
		'f': {F, o}, 't': {Gb, o}, 'g': {G, o}, 'y': {Ab, o}, 'h': {A, o},
		'u': {Bb, o}, 'j': {B, o}, 'k': {C, o + 1}, 'o': {Db, o + 1},
		'l': {D, o + 1}, 'p': {Eb, o + 1}, ';': {E, o + 1}, '\'': {F, o + 1},
	}
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func floorDiv(a, b int) int {
	return (a - mod(a, b)) / b
}
