package synth_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vsariola/polysynth"
	"github.com/vsariola/polysynth/synth"
)

func newPool(t *testing.T, maxVoices int, steal synth.StealPolicy, p polysynth.Patch) *synth.Pool {
	t.Helper()
	pool, err := synth.NewPool(synth.PoolOptions{SampleRate: sampleRate, MaxVoices: maxVoices, Steal: steal, Patch: p})
	require.NoError(t, err)
	return pool
}

func TestNewPoolValidates(t *testing.T) {
	_, err := synth.NewPool(synth.PoolOptions{SampleRate: 0, MaxVoices: 4})
	require.ErrorIs(t, err, synth.ErrInvalidPool)
	_, err = synth.NewPool(synth.PoolOptions{SampleRate: sampleRate, MaxVoices: 0})
	require.ErrorIs(t, err, synth.ErrInvalidPool)
	_, err = synth.NewPool(synth.PoolOptions{SampleRate: sampleRate, MaxVoices: 4, MaxChain: 1, Patch: polysynth.Patch{Chain: make([]polysynth.NodeConfig, 2)}})
	require.ErrorIs(t, err, polysynth.ErrChainTooLong)
}

func TestNoteOnTwiceKeepsOneVoice(t *testing.T) {
	pool := newPool(t, 4, synth.StealOldest, polysynth.DefaultPatch())
	require.Equal(t, synth.Started, pool.NoteOn(1, 440))
	v, _ := pool.Voice(1)
	v.Tick()
	phase := v.Phase()
	require.Equal(t, synth.AlreadyActive, pool.NoteOn(1, 440))
	require.Equal(t, 1, pool.Len())
	v2, _ := pool.Voice(1)
	require.Same(t, v, v2)
	require.Equal(t, phase, v2.Phase(), "a repeated key-down does not restart the voice")
}

func TestNoteOffRemovesVoiceOnNextTick(t *testing.T) {
	pool := newPool(t, 4, synth.StealOldest, polysynth.DefaultPatch())
	pool.NoteOn(1, 440)
	pool.NoteOn(2, 550)
	pool.NoteOff(1)
	pool.NoteOff(99) // unknown keys are ignored
	_, ok := pool.Voice(1)
	require.False(t, ok)
	out := pool.Tick(nil)
	require.Len(t, out, 1)
	require.Equal(t, 1, pool.Len())
	require.Equal(t, []polysynth.KeyID{2}, pool.Keys(nil))
}

func TestNeverTwoVoicesForOneKey(t *testing.T) {
	pool := newPool(t, 8, synth.StealOldest, polysynth.DefaultPatch())
	rnd := rand.New(rand.NewSource(1))
	var keys []polysynth.KeyID
	for range 5000 {
		key := polysynth.KeyID(rnd.Intn(12))
		switch rnd.Intn(3) {
		case 0, 1:
			pool.NoteOn(key, 100+float64(key))
		case 2:
			pool.NoteOff(key)
		}
		if rnd.Intn(4) == 0 {
			pool.Tick(nil)
		}
		keys = pool.Keys(keys[:0])
		seen := map[polysynth.KeyID]bool{}
		for _, k := range keys {
			require.False(t, seen[k], "two voices for key %d", k)
			seen[k] = true
		}
		require.LessOrEqual(t, len(keys), pool.Cap())
	}
}

func TestStealOldest(t *testing.T) {
	pool := newPool(t, 2, synth.StealOldest, polysynth.DefaultPatch())
	require.Equal(t, synth.Started, pool.NoteOn(1, 100))
	require.Equal(t, synth.Started, pool.NoteOn(2, 200))
	require.Equal(t, synth.Stolen, pool.NoteOn(3, 300))
	require.Equal(t, []polysynth.KeyID{2, 3}, pool.Keys(nil))
	// releasing frees a slot without stealing
	pool.NoteOff(2)
	require.Equal(t, synth.Started, pool.NoteOn(4, 400))
	require.Equal(t, []polysynth.KeyID{3, 4}, pool.Keys(nil))
}

func TestRejectWhenFull(t *testing.T) {
	pool := newPool(t, 2, synth.Reject, polysynth.DefaultPatch())
	pool.NoteOn(1, 100)
	pool.NoteOn(2, 200)
	require.Equal(t, synth.Rejected, pool.NoteOn(3, 300))
	require.Equal(t, []polysynth.KeyID{1, 2}, pool.Keys(nil))
}

func TestSwitchWaveformAffectsHeldAndNewVoices(t *testing.T) {
	pool := newPool(t, 4, synth.StealOldest, polysynth.Patch{Waveform: polysynth.Sine})
	pool.NoteOn(1, 440)
	require.Equal(t, polysynth.Saw, pool.CycleWaveform())
	v, _ := pool.Voice(1)
	require.Equal(t, polysynth.Saw, v.Waveform())
	pool.NoteOn(2, 550)
	v2, _ := pool.Voice(2)
	require.Equal(t, polysynth.Saw, v2.Waveform())
	pool.SwitchWaveform(polysynth.Waveform(17)) // invalid kinds are ignored
	require.Equal(t, polysynth.Saw, pool.Waveform())
	require.Equal(t, polysynth.Saw, pool.Patch().Waveform)
}

func TestSetPatchOnlyAffectsNewVoices(t *testing.T) {
	pool := newPool(t, 4, synth.StealOldest, polysynth.DefaultPatch())
	pool.NoteOn(1, 440)
	old, _ := pool.Voice(1)
	loud := polysynth.Patch{Name: "loud", Waveform: polysynth.Square, Chain: []polysynth.NodeConfig{polysynth.Gain(1), polysynth.LowPass(1000)}}
	require.NoError(t, pool.SetPatch(&loud))
	pool.NoteOn(2, 440)
	v, _ := pool.Voice(2)
	require.Equal(t, polysynth.Square, v.Waveform())
	require.Equal(t, 2, v.NumNodeStates())
	require.Equal(t, polysynth.Sine, old.Waveform())
	require.Equal(t, 1, old.NumNodeStates())
	tooLong := polysynth.Patch{Chain: make([]polysynth.NodeConfig, synth.DefaultMaxChain+1)}
	require.ErrorIs(t, pool.SetPatch(&tooLong), polysynth.ErrChainTooLong)
	require.Equal(t, "loud", pool.Patch().Name)
}

func TestReleaseAllEmptiesPoolWithinOneTick(t *testing.T) {
	pool := newPool(t, 8, synth.StealOldest, polysynth.DefaultPatch())
	mixer := synth.NewMixer(synth.MixNormalize)
	for k := range 5 {
		pool.NoteOn(polysynth.KeyID(k), 200+50*float64(k))
	}
	pool.Tick(nil)
	pool.ReleaseAll()
	out := pool.Tick(nil)
	require.Empty(t, out)
	require.Zero(t, pool.Len())
	for range 100 {
		require.Equal(t, 0.0, mixer.Mix(pool.Tick(nil)))
	}
}

func TestScenarioSingleSine(t *testing.T) {
	const f = 261.63
	pool := newPool(t, 4, synth.StealOldest, polysynth.Patch{Waveform: polysynth.Sine})
	mixer := synth.NewMixer(synth.MixNormalize)
	pool.NoteOn(1, f)
	var scratch []float64
	for n := range 100 {
		scratch = pool.Tick(scratch[:0])
		want := math.Sin(2 * math.Pi * f * float64(n) / sampleRate)
		require.InDelta(t, want, mixer.Mix(scratch), 1e-9, "sample %d", n)
	}
}

func TestScenarioTwoSines(t *testing.T) {
	const f1, f2 = 261.63, 329.63
	pool := newPool(t, 4, synth.StealOldest, polysynth.Patch{Waveform: polysynth.Sine})
	mixer := synth.NewMixer(synth.MixNormalize)
	pool.NoteOn(1, f1)
	pool.NoteOn(2, f2)
	var scratch []float64
	for n := range 1000 {
		scratch = pool.Tick(scratch[:0])
		x := float64(n) / sampleRate
		want := (math.Sin(2*math.Pi*f1*x) + math.Sin(2*math.Pi*f2*x)) / 2
		require.InDelta(t, want, mixer.Mix(scratch), 1e-9, "sample %d", n)
	}
}

func TestSteadyStateDoesNotAllocate(t *testing.T) {
	p := polysynth.Patch{Waveform: polysynth.Saw, Chain: []polysynth.NodeConfig{polysynth.LowPass(2000), polysynth.Tremolo(4, 0.3), polysynth.Gain(0.5)}}
	pool := newPool(t, 8, synth.StealOldest, p)
	mixer := synth.NewMixer(synth.MixNormalize)
	scratch := make([]float64, 0, pool.Cap())
	key := polysynth.KeyID(0)
	allocs := testing.AllocsPerRun(100, func() {
		pool.NoteOn(key, 220)
		pool.NoteOn(key+1, 330)
		for range 64 {
			scratch = pool.Tick(scratch[:0])
			mixer.Mix(scratch)
		}
		pool.NoteOff(key)
		pool.CycleWaveform()
		key = (key + 1) % 16
	})
	require.Zero(t, allocs)
}

func TestSetPatchRejectsOutOfRangeNodes(t *testing.T) {
	pool := newPool(t, 4, synth.StealOldest, polysynth.DefaultPatch())
	for _, n := range []polysynth.NodeConfig{
		{Kind: polysynth.LowPassNode, Cutoff: math.NaN()},
		{Kind: polysynth.LowPassNode, Cutoff: -50},
		{Kind: polysynth.GainNode, Factor: 100},
	} {
		p := polysynth.Patch{Name: "raw", Chain: []polysynth.NodeConfig{n}}
		require.ErrorIs(t, pool.SetPatch(&p), polysynth.ErrOutOfRange, "%+v", n)
	}
	require.Equal(t, "basic", pool.Patch().Name)
	clamped := polysynth.Patch{Name: "raw", Chain: []polysynth.NodeConfig{{Kind: polysynth.LowPassNode, Cutoff: -50}}}
	clamped = clamped.Clamped()
	require.NoError(t, pool.SetPatch(&clamped))
}

func TestTickReleasesFaultyVoice(t *testing.T) {
	pool := newPool(t, 4, synth.StealOldest, polysynth.Patch{Waveform: polysynth.Sine})
	pool.NoteOn(1, 440)
	pool.NoteOn(2, math.NaN())
	out := pool.Tick(nil)
	require.Len(t, out, 1, "only the healthy voice contributes")
	require.Equal(t, uint64(1), pool.Faults())
	require.Equal(t, []polysynth.KeyID{1}, pool.Keys(nil))
	out = pool.Tick(out[:0])
	require.InDelta(t, math.Sin(2*math.Pi*440/sampleRate), out[0], 1e-12)
}
