package polysynth_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vsariola/polysynth"
)

func TestDefaultPatch(t *testing.T) {
	p := polysynth.DefaultPatch()
	require.Equal(t, polysynth.Sine, p.Waveform)
	require.Equal(t, []polysynth.NodeConfig{polysynth.Gain(polysynth.DefaultAmplitude)}, p.Chain)
	require.NoError(t, p.Validate(1))
}

func TestPatchCopiesShareNothing(t *testing.T) {
	p := polysynth.Patch{Name: "x", Waveform: polysynth.Saw, Chain: []polysynth.NodeConfig{polysynth.Gain(1), polysynth.LowPass(500)}}
	c := p.Copy()
	c.Chain[0] = polysynth.Gain(2)
	require.Equal(t, 1.0, p.Chain[0].Factor)
	w := p.WithWaveform(polysynth.Noise)
	w.Chain[1] = polysynth.HighPass(100)
	require.Equal(t, polysynth.Saw, p.Waveform)
	require.Equal(t, polysynth.Noise, w.Waveform)
	require.Equal(t, polysynth.LowPassNode, p.Chain[1].Kind)
}

func TestPatchClamped(t *testing.T) {
	p := polysynth.Patch{Chain: []polysynth.NodeConfig{
		{Kind: polysynth.GainNode, Factor: 10},
		{Kind: polysynth.DistortNode, Drive: 5},
	}}
	c := p.Clamped()
	require.Equal(t, polysynth.MaxGain, c.Chain[0].Factor)
	require.Equal(t, polysynth.MaxDrive, c.Chain[1].Drive)
	require.Equal(t, 10.0, p.Chain[0].Factor, "the original is left untouched")
}

func TestPatchValidate(t *testing.T) {
	long := polysynth.Patch{Chain: make([]polysynth.NodeConfig, 5)}
	require.ErrorIs(t, long.Validate(4), polysynth.ErrChainTooLong)
	require.NoError(t, long.Validate(5))
	require.NoError(t, long.Validate(0), "no limit")
	bad := polysynth.Patch{Chain: []polysynth.NodeConfig{{Kind: 42}}}
	require.ErrorIs(t, bad.Validate(0), polysynth.ErrUnknownNode)
	wave := polysynth.Patch{Waveform: 9}
	require.ErrorIs(t, wave.Validate(0), polysynth.ErrUnknownWaveform)
}
