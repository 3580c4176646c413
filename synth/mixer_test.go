package synth_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vsariola/polysynth"
	"github.com/vsariola/polysynth/synth"
)

func TestMixerOutputStaysInRange(t *testing.T) {
	full := polysynth.Patch{Waveform: polysynth.Square, Chain: []polysynth.NodeConfig{polysynth.Gain(polysynth.MaxGain)}}
	for _, mode := range []synth.MixMode{synth.MixNormalize, synth.MixClip} {
		for n := 1; n <= 32; n++ {
			pool := newPool(t, n, synth.StealOldest, full)
			mixer := synth.NewMixer(mode)
			mixer.SetVolume(synth.MaxVolume)
			for k := range n {
				pool.NoteOn(polysynth.KeyID(k), 50+37*float64(k))
			}
			var scratch []float64
			for range 2000 {
				scratch = pool.Tick(scratch[:0])
				out := mixer.Mix(scratch)
				require.LessOrEqual(t, math.Abs(out), 1.0, "%v with %d voices", mode, n)
			}
		}
	}
}

func TestMixModes(t *testing.T) {
	samples := []float64{0.5, 0.3, -0.2}
	require.InDelta(t, 0.2, synth.NewMixer(synth.MixNormalize).Mix(samples), 1e-12)
	require.InDelta(t, 0.6, synth.NewMixer(synth.MixClip).Mix(samples), 1e-12)
	require.Equal(t, 1.0, synth.NewMixer(synth.MixClip).Mix([]float64{0.9, 0.9}))
	require.Equal(t, 0.0, synth.NewMixer(synth.MixNormalize).Mix(nil), "no voices is silence")
	require.Equal(t, 0.0, synth.NewMixer(synth.MixClip).Mix([]float64{math.NaN()}))
}

func TestMixerVolumeAndMute(t *testing.T) {
	m := synth.NewMixer(synth.MixNormalize)
	require.Equal(t, 1.0, m.Volume())
	m.SetVolume(0.5)
	require.InDelta(t, 0.25, m.Mix([]float64{0.5}), 1e-12)
	m.SetVolume(3)
	require.Equal(t, synth.MaxVolume, m.Volume())
	m.SetVolume(-1)
	require.Equal(t, 0.0, m.Volume())
	m.SetVolume(1)
	m.SetMuted(true)
	require.True(t, m.Muted())
	require.Equal(t, 0.0, m.Mix([]float64{0.5}))
}

func TestPolicyText(t *testing.T) {
	var m synth.MixMode
	require.NoError(t, m.UnmarshalText([]byte("clip")))
	require.Equal(t, synth.MixClip, m)
	require.Error(t, m.UnmarshalText([]byte("loud")))
	var s synth.StealPolicy
	require.NoError(t, s.UnmarshalText([]byte("reject")))
	require.Equal(t, synth.Reject, s)
	b, err := synth.StealOldest.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "steal-oldest", string(b))
}
