package synth

import (
	"fmt"

	"github.com/vsariola/polysynth"
)

type (
	// Voice is one sounding note: a live instantiation of a Patch bound to a
	// key and a frequency. It owns one NodeState per node of the patch chain.
	Voice struct {
		key        polysynth.KeyID
		frequency  float64
		sampleRate float64
		phase      float64 // in [0,1)
		waveform   polysynth.Waveform
		patch      *polysynth.Patch
		states     []polysynth.NodeState
		noise      polysynth.NoiseSource
		state      VoiceState
		seq        uint64 // creation order, used for voice stealing
	}

	// VoiceState is the lifecycle state of a Voice.
	VoiceState int
)

const (
	Active VoiceState = iota
	Releasing
	Dead
)

var voiceStateNames = [...]string{"active", "releasing", "dead"}

func (s VoiceState) String() string {
	if s < 0 || int(s) >= len(voiceStateNames) {
		return fmt.Sprintf("VoiceState(%d)", int(s))
	}
	return voiceStateNames[s]
}

// NewVoice creates an active voice outside of a Pool. Pools reuse their
// preallocated voices instead.
func NewVoice(key polysynth.KeyID, frequency float64, patch *polysynth.Patch, sampleRate float64) *Voice {
	v := &Voice{states: make([]polysynth.NodeState, 0, len(patch.Chain))}
	v.init(key, frequency, patch, patch.Waveform, sampleRate, 0)
	return v
}

func (v *Voice) init(key polysynth.KeyID, frequency float64, patch *polysynth.Patch, waveform polysynth.Waveform, sampleRate float64, seq uint64) {
	v.key = key
	v.frequency = frequency
	v.sampleRate = sampleRate
	v.phase = 0
	v.waveform = waveform
	v.patch = patch
	if cap(v.states) < len(patch.Chain) {
		v.states = make([]polysynth.NodeState, len(patch.Chain))
	}
	v.states = v.states[:len(patch.Chain)]
	for i := range v.states {
		v.states[i].Init(&patch.Chain[i], sampleRate)
	}
	// every voice gets its own noise sequence
	v.noise = polysynth.NewNoiseSource(polysynth.DefaultNoiseSeed ^ (seq+1)*0x9E3779B97F4A7C15)
	v.state = Active
	v.seq = seq
}

// Tick produces the next sample of the voice: the generator output at the
// current phase run through every node of the chain in order. The phase is
// advanced afterwards. Dead voices produce silence and do not advance.
func (v *Voice) Tick() float64 {
	if v.state == Dead {
		return 0
	}
	s := polysynth.Sample(v.waveform, v.phase, &v.noise)
	for i := range v.states {
		s = polysynth.Process(&v.patch.Chain[i], &v.states[i], s)
	}
	v.phase = polysynth.Advance(v.phase, v.frequency, v.sampleRate)
	return s
}

// Release is the key-up transition. There is no release envelope yet, so the
// voice skips Releasing and dies immediately; a release ramp would set
// Releasing here and let Tick move the voice to Dead when it ends.
func (v *Voice) Release() {
	v.state = Dead
}

// SetWaveform changes the generator kind of the voice. The phase and the node
// states are kept, so the waveform continues from where the old one was.
func (v *Voice) SetWaveform(w polysynth.Waveform) {
	v.waveform = w
}

func (v *Voice) Key() polysynth.KeyID         { return v.key }
func (v *Voice) Frequency() float64           { return v.frequency }
func (v *Voice) Phase() float64               { return v.phase }
func (v *Voice) Waveform() polysynth.Waveform { return v.waveform }
func (v *Voice) State() VoiceState            { return v.state }
func (v *Voice) Patch() *polysynth.Patch      { return v.patch }

// NumNodeStates returns the number of node states the voice owns; it always
// equals the length of its patch chain.
func (v *Voice) NumNodeStates() int { return len(v.states) }
