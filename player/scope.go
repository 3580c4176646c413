package player

import (
	"sync/atomic"

	"github.com/vsariola/polysynth"
)

type (
	// Scope keeps the most recent window of the output for a visualizer. The
	// clock writes every rendered buffer into it and the visualizer reads the
	// latest complete window with Latest. The two sides exchange windows
	// through a triple buffer, so neither ever waits for the other and the
	// reader never sees a half written window.
	//
	// There must be only one writer and one reader.
	Scope struct {
		rings  []RingBuffer[float32]
		frames [3]polysynth.Frame
		seqs   [3]uint64
		middle atomic.Uint32 // index of the middle buffer | freshBit
		back   int           // owned by the writer
		front  int           // owned by the reader
		seq    uint64
	}

	RingBuffer[T any] struct {
		Buffer []T
		Cursor int
	}
)

const freshBit = 4

const DefaultScopeLength = 2048

// NewScope creates a scope holding the last length samples of each of the
// given number of channels. Until the first write, the window is silent.
func NewScope(channels, length int) *Scope {
	channels, length = max(channels, 1), max(length, 1)
	s := &Scope{rings: make([]RingBuffer[float32], channels), back: 0, front: 1}
	for i := range s.rings {
		s.rings[i].Buffer = make([]float32, length)
	}
	for i := range s.frames {
		s.frames[i] = polysynth.NewFrame(channels, length)
	}
	s.middle.Store(2)
	return s
}

// Write appends the samples of buf to the window and publishes it. Channels
// of buf beyond those of the scope are ignored.
func (s *Scope) Write(buf polysynth.Frame) {
	for i := range s.rings {
		if i < len(buf) {
			s.rings[i].WriteWrap(buf[i])
		}
	}
	dst := s.frames[s.back]
	for i := range s.rings {
		s.rings[i].Chronological(dst[i])
	}
	s.seq++
	s.seqs[s.back] = s.seq
	old := s.middle.Swap(uint32(s.back) | freshBit)
	s.back = int(old &^ freshBit)
}

// Latest returns the most recent published window and its sequence number,
// which increases by one for every Write. The returned frame stays valid
// until the next call of Latest.
func (s *Scope) Latest() (polysynth.Frame, uint64) {
	if s.middle.Load()&freshBit != 0 {
		old := s.middle.Swap(uint32(s.front))
		s.front = int(old &^ freshBit)
	}
	return s.frames[s.front], s.seqs[s.front]
}

func (r *RingBuffer[T]) WriteWrap(values []T) {
	r.Cursor = (r.Cursor + len(values)) % len(r.Buffer)
	a := min(len(values), r.Cursor)                 // how many values to copy before the cursor
	b := min(len(values)-a, len(r.Buffer)-r.Cursor) // how many values to copy to the end of the buffer
	copy(r.Buffer[r.Cursor-a:r.Cursor], values[len(values)-a:])
	copy(r.Buffer[len(r.Buffer)-b:], values[len(values)-a-b:])
}

// Chronological copies the contents of the ring into dst, oldest value
// first.
func (r *RingBuffer[T]) Chronological(dst []T) {
	n := copy(dst, r.Buffer[r.Cursor:])
	copy(dst[n:], r.Buffer[:r.Cursor])
}
