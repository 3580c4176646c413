package synth

import (
	"errors"
	"fmt"
	"math"

	"github.com/vsariola/polysynth"
)

type (
	// Pool owns the voices of all currently held keys, at most one per key.
	// Voices are kept in the order they were started, which is also the
	// order they are ticked in.
	//
	// All voices and their node states are allocated when the pool is
	// created; starting, releasing and ticking voices does not allocate as
	// long as patches stay within MaxChain nodes.
	Pool struct {
		sampleRate float64
		patch      *polysynth.Patch   // template for new voices
		waveform   polysynth.Waveform // current generator kind, overrides patch.Waveform
		voices     []*Voice           // live voices in start order
		free       []*Voice
		maxChain   int
		steal      StealPolicy
		seq        uint64
		faults     uint64
	}

	// PoolOptions configures a Pool.
	PoolOptions struct {
		SampleRate float64
		MaxVoices  int         // maximum number of simultaneous voices
		MaxChain   int         // maximum number of nodes in a patch chain
		Steal      StealPolicy // what to do when MaxVoices is exceeded
		Patch      polysynth.Patch
	}

	// StealPolicy decides what happens on a key-down when all voices are in
	// use.
	StealPolicy int

	// Allocation tells the outcome of Pool.NoteOn.
	Allocation int
)

const (
	// StealOldest releases the voice that was started first and reuses it.
	StealOldest StealPolicy = iota
	// Reject ignores the new key-down.
	Reject
)

const (
	Started       Allocation = iota // a new voice was started
	AlreadyActive                   // the key already had an active voice; nothing changed
	Stolen                          // a new voice was started by stealing the oldest one
	Rejected                        // the pool was full and the key-down was ignored
)

const (
	DefaultMaxVoices = 32
	DefaultMaxChain  = 16
)

var ErrInvalidPool = errors.New("invalid pool options")

var stealPolicyNames = [...]string{"steal-oldest", "reject"}

func (s StealPolicy) String() string {
	if s < 0 || int(s) >= len(stealPolicyNames) {
		return fmt.Sprintf("StealPolicy(%d)", int(s))
	}
	return stealPolicyNames[s]
}

func (s StealPolicy) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stealPolicyNames) {
		return nil, fmt.Errorf("invalid steal policy %d", int(s))
	}
	return []byte(stealPolicyNames[s]), nil
}

func (s *StealPolicy) UnmarshalText(text []byte) error {
	for i, n := range stealPolicyNames {
		if n == string(text) {
			*s = StealPolicy(i)
			return nil
		}
	}
	return fmt.Errorf("unknown steal policy %q", string(text))
}

// NewPool creates a pool with all of its voices preallocated.
func NewPool(opts PoolOptions) (*Pool, error) {
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %v", ErrInvalidPool, opts.SampleRate)
	}
	if opts.MaxVoices <= 0 {
		return nil, fmt.Errorf("%w: max voices %v", ErrInvalidPool, opts.MaxVoices)
	}
	if opts.MaxChain <= 0 {
		opts.MaxChain = DefaultMaxChain
	}
	patch := opts.Patch.Clamped()
	if err := patch.Validate(opts.MaxChain); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPool, err)
	}
	p := &Pool{
		sampleRate: opts.SampleRate,
		patch:      &patch,
		waveform:   patch.Waveform,
		voices:     make([]*Voice, 0, opts.MaxVoices),
		free:       make([]*Voice, opts.MaxVoices),
		maxChain:   opts.MaxChain,
		steal:      opts.Steal,
	}
	for i := range p.free {
		p.free[i] = &Voice{states: make([]polysynth.NodeState, 0, opts.MaxChain), state: Dead}
	}
	return p, nil
}

// NoteOn starts a voice for key using the current patch. Pressing a key that
// already has an active voice does nothing.
func (p *Pool) NoteOn(key polysynth.KeyID, frequency float64) Allocation {
	p.prune()
	for _, v := range p.voices {
		if v.key == key {
			return AlreadyActive
		}
	}
	ret := Started
	if len(p.free) == 0 {
		if p.steal == Reject || len(p.voices) == 0 {
			return Rejected
		}
		oldest := p.voices[0]
		oldest.Release()
		p.prune()
		ret = Stolen
	}
	v := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.seq++
	v.init(key, frequency, p.patch, p.waveform, p.sampleRate, p.seq)
	p.voices = append(p.voices, v)
	return ret
}

// NoteOff releases the voice of key. Unknown keys are ignored. The released
// voice is removed from the pool on the next Tick.
func (p *Pool) NoteOff(key polysynth.KeyID) {
	for _, v := range p.voices {
		if v.key == key && v.state != Dead {
			v.Release()
			return
		}
	}
}

// ReleaseAll releases every voice.
func (p *Pool) ReleaseAll() {
	for _, v := range p.voices {
		v.Release()
	}
}

// SwitchWaveform changes the generator kind of every active voice in place,
// keeping their phases and node states, and makes w the kind of all voices
// started from now on.
func (p *Pool) SwitchWaveform(w polysynth.Waveform) {
	if !w.Valid() {
		return
	}
	p.waveform = w
	for _, v := range p.voices {
		if v.state == Active {
			v.SetWaveform(w)
		}
	}
}

// CycleWaveform switches to the waveform following the current one and
// returns it.
func (p *Pool) CycleWaveform() polysynth.Waveform {
	p.SwitchWaveform(p.waveform.Next())
	return p.waveform
}

// SetPatch makes patch the template of voices started from now on. Voices
// already sounding keep the patch they were started with. The pool keeps a
// reference to patch, so the caller must not modify it afterwards. patch
// must already be clamped; SetPatch runs on the audio thread and does not
// copy it.
func (p *Pool) SetPatch(patch *polysynth.Patch) error {
	if err := patch.Validate(p.maxChain); err != nil {
		return err
	}
	if !patch.InRange() {
		return polysynth.ErrOutOfRange
	}
	p.patch = patch
	p.waveform = patch.Waveform
	return nil
}

// Tick computes one sample of every active voice, in start order, and
// appends them to dst. A voice producing NaN or infinity is released instead
// and counted in Faults. Released voices are then removed from the pool.
func (p *Pool) Tick(dst []float64) []float64 {
	for _, v := range p.voices {
		if v.state == Dead {
			continue
		}
		s := v.Tick()
		if math.IsNaN(s) || math.IsInf(s, 0) {
			v.Release()
			p.faults++
			continue
		}
		dst = append(dst, s)
	}
	p.prune()
	return dst
}

// Faults returns the number of voices released because their output was not
// a finite number.
func (p *Pool) Faults() uint64 { return p.faults }

// prune removes dead voices, keeping the order of the rest, and returns them
// to the free list.
func (p *Pool) prune() {
	j := 0
	for _, v := range p.voices {
		if v.state == Dead {
			v.patch = nil
			p.free = append(p.free, v)
			continue
		}
		p.voices[j] = v
		j++
	}
	clear(p.voices[j:])
	p.voices = p.voices[:j]
}

// Len returns the number of voices in the pool, including released voices
// not yet removed by Tick.
func (p *Pool) Len() int { return len(p.voices) }

// Cap returns the maximum number of simultaneous voices.
func (p *Pool) Cap() int { return cap(p.voices) }

// Voice returns the live voice of key, if any.
func (p *Pool) Voice(key polysynth.KeyID) (*Voice, bool) {
	for _, v := range p.voices {
		if v.key == key && v.state != Dead {
			return v, true
		}
	}
	return nil, false
}

// Keys appends the keys of the live voices to dst, in start order.
func (p *Pool) Keys(dst []polysynth.KeyID) []polysynth.KeyID {
	for _, v := range p.voices {
		if v.state != Dead {
			dst = append(dst, v.key)
		}
	}
	return dst
}

// Waveform returns the generator kind used for new voices.
func (p *Pool) Waveform() polysynth.Waveform { return p.waveform }

// Patch returns a copy of the current template, with the current waveform.
func (p *Pool) Patch() polysynth.Patch { return p.patch.WithWaveform(p.waveform) }
