package polysynth

import (
	"errors"
	"fmt"
)

// Patch is the template a voice is instantiated from: one generator kind
// feeding an ordered chain of nodes (generator → node 1 → node 2 → ...).
//
// A Patch is treated as immutable once it has been handed to the synth; many
// voices may point to the same Patch concurrently. Use Copy or WithWaveform
// to derive a new one.
type Patch struct {
	Name     string       `yaml:",omitempty" toml:"name,omitempty"`
	Waveform Waveform     `toml:"waveform"`
	Chain    []NodeConfig `yaml:",omitempty" toml:"chain,omitempty"`
}

var (
	ErrUnknownNode     = errors.New("unknown node kind")
	ErrChainTooLong    = errors.New("node chain too long")
	ErrUnknownWaveform = errors.New("unknown waveform")
	ErrOutOfRange      = errors.New("node parameter out of range")
)

// DefaultAmplitude is the gain of the default patch.
const DefaultAmplitude = 0.2

// DefaultPatch returns a sine patch with a single gain node.
func DefaultPatch() Patch {
	return Patch{Name: "basic", Waveform: Sine, Chain: []NodeConfig{Gain(DefaultAmplitude)}}
}

// Copy makes a deep copy of a Patch.
func (p *Patch) Copy() Patch {
	chain := make([]NodeConfig, len(p.Chain))
	copy(chain, p.Chain)
	return Patch{Name: p.Name, Waveform: p.Waveform, Chain: chain}
}

// WithWaveform returns a deep copy of the patch with the generator kind
// replaced.
func (p *Patch) WithWaveform(w Waveform) Patch {
	ret := p.Copy()
	ret.Waveform = w
	return ret
}

// Clamped returns a deep copy of the patch with every node clamped to its
// valid parameter range.
func (p *Patch) Clamped() Patch {
	ret := p.Copy()
	for i := range ret.Chain {
		ret.Chain[i] = ret.Chain[i].Clamped()
	}
	return ret
}

// InRange reports whether every node of the chain already has the values
// Clamped would give it. NaNs are never in range.
func (p *Patch) InRange() bool {
	for _, n := range p.Chain {
		if n != n.Clamped() {
			return false
		}
	}
	return true
}

// Validate checks that the patch can be instantiated by a synth which has
// room for maxChain node states per voice. maxChain <= 0 means no limit.
func (p *Patch) Validate(maxChain int) error {
	if !p.Waveform.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownWaveform, int(p.Waveform))
	}
	if maxChain > 0 && len(p.Chain) > maxChain {
		return fmt.Errorf("%w: %d nodes, at most %d allowed", ErrChainTooLong, len(p.Chain), maxChain)
	}
	for i, n := range p.Chain {
		if !n.Kind.Valid() {
			return fmt.Errorf("node %d: %w: %d", i, ErrUnknownNode, int(n.Kind))
		}
	}
	return nil
}
