package player_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vsariola/polysynth"
	"github.com/vsariola/polysynth/player"
)

func TestMonitorKeepsStatusAndLevels(t *testing.T) {
	b := player.NewBroker(player.BrokerOptions{Channels: 2, BufferSize: 4, NumBuffers: 1})
	m := player.NewMonitor(b, time.Hour)
	go m.Run()

	buf, ok := b.GetAudioBuffer()
	require.True(t, ok)
	copy(buf.Frame[0], []float32{0.5, -0.5, 0.5, -0.5})
	copy(buf.Frame[1], []float32{0, 0, 0, -1})
	buf.Len = 4
	b.ToMonitor <- player.MsgToMonitor{
		HasStatus: true,
		Status:    player.Status{Voices: 3, Waveform: polysynth.Saw, PatchName: "basic", Volume: 1},
		Levels:    buf,
	}
	b.ToMonitor <- player.MsgToMonitor{HasAlert: true, Alert: player.Alert{Name: "DeadlineOverrun", Priority: player.Warning, Message: "late"}}
	b.ToMonitor <- player.MsgToMonitor{HasStatus: true, Status: player.Status{Voices: 2, Waveform: polysynth.Square, PatchName: "basic", Volume: 1}}

	player.TrySend(b.CloseMonitor, struct{}{})
	select {
	case <-b.FinishedMonitor:
	case <-time.After(time.Second):
		t.Fatal("monitor did not finish")
	}

	s := m.Status()
	require.Equal(t, 2, s.Voices)
	require.Equal(t, polysynth.Square, s.Waveform)
	require.InDelta(t, 0.5, s.Levels.RMS[0], 1e-6)
	require.InDelta(t, 0.5, s.Levels.Peak[0], 1e-6)
	require.InDelta(t, 0.5, s.Levels.RMS[1], 1e-6)
	require.InDelta(t, 1, s.Levels.Peak[1], 1e-6)

	_, ok = b.GetAudioBuffer()
	require.True(t, ok, "the monitor returns audio buffers")
}
