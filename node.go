package polysynth

import (
	"fmt"
	"math"
)

type (
	// NodeKind tells which transform a NodeConfig describes. The set of kinds
	// is closed: Process dispatches on it with a single switch.
	NodeKind int

	// NodeConfig is one stage of a patch's processing chain. Only the fields
	// of its Kind are meaningful:
	//
	//	Gain:     Factor
	//	LowPass:  Cutoff (Hz)
	//	HighPass: Cutoff (Hz)
	//	Tremolo:  Rate (Hz), Depth (0..1)
	//	Distort:  Drive (0..1, 0.5 = no change)
	//
	// A NodeConfig is immutable once it is part of a Patch.
	NodeConfig struct {
		Kind   NodeKind `yaml:"kind" toml:"kind"`
		Factor float64  `yaml:",omitempty" toml:"factor,omitempty"`
		Cutoff float64  `yaml:",omitempty" toml:"cutoff,omitempty"`
		Rate   float64  `yaml:",omitempty" toml:"rate,omitempty"`
		Depth  float64  `yaml:",omitempty" toml:"depth,omitempty"`
		Drive  float64  `yaml:",omitempty" toml:"drive,omitempty"`
	}

	// NodeState is the per-voice mutable state of one node. A voice owns one
	// NodeState for every NodeConfig in its patch's chain and never shares
	// it. coef is derived from the config once, in Init.
	NodeState struct {
		coef  float64
		x1    float64 // previous input
		y1    float64 // previous output
		phase float64 // LFO phase, independent of the generator phase
		step  float64 // LFO phase increment per sample
	}
)

const (
	GainNode NodeKind = iota
	LowPassNode
	HighPassNode
	TremoloNode
	DistortNode
	numNodeKinds
)

// Parameter ranges. Values outside these are clamped when a NodeConfig is
// constructed, as the audio path has no way to report errors.
const (
	MaxGain        = 4.0
	MinCutoff      = 10.0
	MaxCutoff      = 20000.0
	MaxTremoloRate = 40.0
	MinDrive       = 0.01
	MaxDrive       = 0.99
)

var nodeKindNames = [...]string{"gain", "lowpass", "highpass", "tremolo", "distort"}

func (k NodeKind) Valid() bool {
	return k >= 0 && k < numNodeKinds
}

func (k NodeKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("node(%d)", int(k))
	}
	return nodeKindNames[k]
}

func (k NodeKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, int(k))
	}
	return []byte(nodeKindNames[k]), nil
}

func (k *NodeKind) UnmarshalText(text []byte) error {
	for i, n := range nodeKindNames {
		if n == string(text) {
			*k = NodeKind(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownNode, string(text))
}

func Gain(factor float64) NodeConfig {
	return NodeConfig{Kind: GainNode, Factor: factor}.Clamped()
}

func LowPass(cutoff float64) NodeConfig {
	return NodeConfig{Kind: LowPassNode, Cutoff: cutoff}.Clamped()
}

func HighPass(cutoff float64) NodeConfig {
	return NodeConfig{Kind: HighPassNode, Cutoff: cutoff}.Clamped()
}

func Tremolo(rate, depth float64) NodeConfig {
	return NodeConfig{Kind: TremoloNode, Rate: rate, Depth: depth}.Clamped()
}

func Distort(drive float64) NodeConfig {
	return NodeConfig{Kind: DistortNode, Drive: drive}.Clamped()
}

// Clamped returns a copy of c with every parameter of its kind moved to the
// nearest valid value and the parameters of other kinds zeroed. NaNs become
// the lower bound.
func (c NodeConfig) Clamped() NodeConfig {
	ret := NodeConfig{Kind: c.Kind}
	switch c.Kind {
	case GainNode:
		ret.Factor = clamp(c.Factor, 0, MaxGain)
	case LowPassNode, HighPassNode:
		ret.Cutoff = clamp(c.Cutoff, MinCutoff, MaxCutoff)
	case TremoloNode:
		ret.Rate = clamp(c.Rate, 0, MaxTremoloRate)
		ret.Depth = clamp(c.Depth, 0, 1)
	case DistortNode:
		ret.Drive = clamp(c.Drive, MinDrive, MaxDrive)
	default:
		return c
	}
	return ret
}

// Init resets the state for a new voice and derives the coefficients of cfg
// for the given sample rate. Filter cutoffs above Nyquist are lowered to it.
func (s *NodeState) Init(cfg *NodeConfig, sampleRate float64) {
	*s = NodeState{}
	switch cfg.Kind {
	case LowPassNode:
		fc := math.Min(cfg.Cutoff, sampleRate/2)
		s.coef = 1 - math.Exp(-2*math.Pi*fc/sampleRate)
	case HighPassNode:
		fc := math.Min(cfg.Cutoff, sampleRate/2)
		rc := 1 / (2 * math.Pi * fc)
		dt := 1 / sampleRate
		s.coef = rc / (rc + dt)
	case TremoloNode:
		s.step = cfg.Rate / sampleRate
	}
}

// Process runs one sample through the node described by cfg, updating st.
// Unknown kinds pass the sample through unchanged.
func Process(cfg *NodeConfig, st *NodeState, in float64) float64 {
	switch cfg.Kind {
	case GainNode:
		return in * cfg.Factor
	case LowPassNode:
		st.y1 += st.coef * (in - st.y1)
		return st.y1
	case HighPassNode:
		out := st.coef * (st.y1 + in - st.x1)
		st.x1, st.y1 = in, out
		return out
	case TremoloNode:
		mod := 1 - cfg.Depth*(0.5+0.5*math.Sin(2*math.Pi*st.phase))
		st.phase += st.step
		st.phase -= math.Floor(st.phase)
		return in * mod
	case DistortNode:
		// the shaper is only monotonic on [-1,1]
		x := max(-1, min(1, in))
		d := cfg.Drive
		return x * d / (1 - d + (2*d-1)*math.Abs(x))
	}
	return in
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
