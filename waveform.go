package polysynth

import (
	"fmt"
	"math"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Waveform is the kind of the generator feeding a voice. The set is closed;
// Next cycles through it in declaration order.
type Waveform int

const (
	Sine Waveform = iota
	Saw
	Square
	Triangle
	Noise
	numWaveforms
)

var waveformNames = [...]string{"sine", "saw", "square", "triangle", "noise"}

// Next returns the waveform following w in the cycle Sine, Saw, Square,
// Triangle, Noise, Sine...
func (w Waveform) Next() Waveform {
	if !w.Valid() {
		return Sine
	}
	return (w + 1) % numWaveforms
}

func (w Waveform) Valid() bool {
	return w >= 0 && w < numWaveforms
}

func (w Waveform) String() string {
	if !w.Valid() {
		return fmt.Sprintf("waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// DisplayName returns the title-cased name of the waveform, e.g. "Triangle".
// It allocates, so it must not be called from the audio callback.
func (w Waveform) DisplayName() string {
	return cases.Title(language.English).String(w.String())
}

func (w Waveform) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("invalid waveform %d", int(w))
	}
	return []byte(waveformNames[w]), nil
}

func (w *Waveform) UnmarshalText(text []byte) error {
	v, err := ParseWaveform(string(text))
	if err != nil {
		return err
	}
	*w = v
	return nil
}

// ParseWaveform returns the waveform with the given lowercase name.
func ParseWaveform(s string) (Waveform, error) {
	for i, n := range waveformNames {
		if n == s {
			return Waveform(i), nil
		}
	}
	return Sine, fmt.Errorf("%w: %q", ErrUnknownWaveform, s)
}

// Sample returns the value of waveform kind at the given phase, which should
// be in [0,1). All kinds except Noise are pure functions of the phase; Noise
// draws the next value from the given source and ignores the phase. A nil
// source makes Noise silent.
func Sample(kind Waveform, phase float64, noise *NoiseSource) float64 {
	switch kind {
	case Sine:
		return math.Sin(2 * math.Pi * phase)
	case Saw:
		return 2 * (phase - math.Floor(phase+0.5))
	case Square:
		s := math.Sin(2 * math.Pi * phase)
		switch {
		case s > 0:
			return 1
		case s < 0:
			return -1
		}
		return 0
	case Triangle:
		return 1 - 4*math.Abs(math.Round(phase)-phase)
	case Noise:
		if noise == nil {
			return 0
		}
		return noise.Next()
	}
	return 0
}

// Advance moves phase forward by one sample of the given frequency and wraps
// the result back to [0,1).
func Advance(phase, frequency, sampleRate float64) float64 {
	phase += frequency / sampleRate
	return phase - math.Floor(phase)
}

// DefaultNoiseSeed is the seed of a freshly reset NoiseSource.
const DefaultNoiseSeed uint64 = 0x123456789ABCDEF0

// NoiseSource is a xorshift64* pseudo-random generator producing values
// uniformly distributed in [-1,1). The zero value is reseeded with
// DefaultNoiseSeed on first use.
type NoiseSource struct {
	state uint64
}

func NewNoiseSource(seed uint64) NoiseSource {
	return NoiseSource{state: seed}
}

func (n *NoiseSource) Next() float64 {
	x := n.state
	if x == 0 {
		x = DefaultNoiseSeed
	}
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	n.state = x
	y := x * 0x2545F4914F6CDD1D
	u := y >> 40 // top 24 bits
	return 2*float64(u)/float64(1<<24) - 1
}
