package polysynth

// EventKind tells what an input Event asks the synth to do.
type EventKind int

const (
	KeyDown EventKind = iota
	KeyUp
	CycleWaveform
	VolumeUp
	VolumeDown
	ToggleMute
	ReleaseAll // e.g. the input lost focus and key-ups will not arrive
	Quit
)

// Event is one item of the input stream. Key is only meaningful for KeyDown
// and KeyUp.
type Event struct {
	Kind EventKind
	Key  KeyID
}
