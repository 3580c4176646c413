package player_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vsariola/polysynth"
	"github.com/vsariola/polysynth/player"
)

func ramp(from, n int) polysynth.Frame {
	f := polysynth.NewFrame(2, n)
	for i := range n {
		f[0][i] = float32(from + i)
		f[1][i] = -float32(from + i)
	}
	return f
}

func TestScopeKeepsLatestWindow(t *testing.T) {
	s := player.NewScope(2, 8)
	w, seq := s.Latest()
	require.Zero(t, seq)
	require.Equal(t, make([]float32, 8), []float32(w[0]))

	s.Write(ramp(1, 4))
	w, seq = s.Latest()
	require.Equal(t, uint64(1), seq)
	require.Equal(t, []float32{0, 0, 0, 0, 1, 2, 3, 4}, []float32(w[0]))
	require.Equal(t, []float32{0, 0, 0, 0, -1, -2, -3, -4}, []float32(w[1]))

	s.Write(ramp(5, 6))
	w, seq = s.Latest()
	require.Equal(t, uint64(2), seq)
	require.Equal(t, []float32{3, 4, 5, 6, 7, 8, 9, 10}, []float32(w[0]))

	s.Write(ramp(11, 12))
	w, _ = s.Latest()
	require.Equal(t, []float32{15, 16, 17, 18, 19, 20, 21, 22}, []float32(w[0]))

	_, again := s.Latest()
	require.Equal(t, uint64(3), again, "no new write, same window")
}

func TestScopeIgnoresExtraChannels(t *testing.T) {
	s := player.NewScope(1, 4)
	s.Write(ramp(1, 4))
	w, _ := s.Latest()
	require.Len(t, w, 1)
	require.Equal(t, []float32{1, 2, 3, 4}, []float32(w[0]))
}

func TestScopeWindowsAreNeverTorn(t *testing.T) {
	const length = 64
	s := player.NewScope(2, length)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f := polysynth.NewFrame(2, length)
		for k := 1; k <= 5000; k++ {
			for _, row := range f {
				for i := range row {
					row[i] = float32(k)
				}
			}
			s.Write(f)
		}
	}()
	var last uint64
	for last < 5000 {
		w, seq := s.Latest()
		require.GreaterOrEqual(t, seq, last)
		last = seq
		for _, row := range w {
			for _, x := range row {
				require.Equal(t, float32(seq), x, "window %d mixes writes", seq)
			}
		}
	}
	wg.Wait()
}
