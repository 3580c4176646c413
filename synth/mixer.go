package synth

import (
	"fmt"
	"math"

	"github.com/viterin/vek"
)

type (
	// Mixer sums the samples of all voices into one output sample and applies
	// the master volume. Its output is always in [-1,1].
	Mixer struct {
		mode   MixMode
		volume float64
		muted  bool
	}

	// MixMode decides how the voices are summed.
	MixMode int
)

const (
	// MixNormalize divides the sum by the number of voices. The loudness of a
	// chord stays the same regardless of how many notes it has, so each note
	// gets quieter as more are held.
	MixNormalize MixMode = iota
	// MixClip sums the voices and hard clips the result to [-1,1].
	MixClip
)

const MaxVolume = 2.0

var mixModeNames = [...]string{"normalize", "clip"}

func (m MixMode) String() string {
	if m < 0 || int(m) >= len(mixModeNames) {
		return fmt.Sprintf("MixMode(%d)", int(m))
	}
	return mixModeNames[m]
}

func (m MixMode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(mixModeNames) {
		return nil, fmt.Errorf("invalid mix mode %d", int(m))
	}
	return []byte(mixModeNames[m]), nil
}

func (m *MixMode) UnmarshalText(text []byte) error {
	for i, n := range mixModeNames {
		if n == string(text) {
			*m = MixMode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown mix mode %q", string(text))
}

func NewMixer(mode MixMode) *Mixer {
	return &Mixer{mode: mode, volume: 1}
}

// Mix returns the mixed output sample for one instant, given one sample per
// voice. No voices means silence.
func (m *Mixer) Mix(samples []float64) float64 {
	if m.muted || len(samples) == 0 {
		return 0
	}
	s := vek.Sum(samples)
	if m.mode == MixNormalize {
		s /= float64(len(samples))
	}
	s *= m.volume
	if math.IsNaN(s) {
		return 0
	}
	return max(-1, min(1, s))
}

// SetVolume sets the master volume, clamped to [0, MaxVolume].
func (m *Mixer) SetVolume(v float64) {
	if math.IsNaN(v) {
		v = 0
	}
	m.volume = max(0, min(MaxVolume, v))
}

func (m *Mixer) Volume() float64     { return m.volume }
func (m *Mixer) SetMuted(muted bool) { m.muted = muted }
func (m *Mixer) Muted() bool         { return m.muted }
func (m *Mixer) Mode() MixMode       { return m.mode }
