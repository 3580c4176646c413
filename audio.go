package polysynth

import "io"

type (
	// Frame is a block of audio, one row per channel and one column per
	// sample. Row 0 is the left (or only) channel, row 1 the right.
	Frame [][]float32

	// AudioCallback fills buf with the next len(buf[0]) samples of every
	// channel. It is called from the audio device thread and must not block.
	AudioCallback func(buf Frame)

	// AudioContext is an opened audio output device.
	AudioContext interface {
		// Play starts calling cb whenever the device needs more audio, until
		// the returned CloserWaiter is closed.
		Play(cb AudioCallback) (CloserWaiter, error)
		Close() error
	}

	CloserWaiter interface {
		io.Closer
		// Wait blocks until the playback has stopped.
		Wait()
	}
)

// NewFrame allocates a frame of the given size. All rows share one backing
// array.
func NewFrame(channels, length int) Frame {
	data := make([]float32, channels*length)
	f := make(Frame, channels)
	for i := range f {
		f[i] = data[i*length : (i+1)*length : (i+1)*length]
	}
	return f
}

// Len returns the number of samples per channel.
func (f Frame) Len() int {
	if len(f) == 0 {
		return 0
	}
	return len(f[0])
}

// Clear sets every sample to zero.
func (f Frame) Clear() {
	for _, row := range f {
		clear(row)
	}
}

// CopyFrom copies as many samples of src into f as fit, channel by channel.
// Channels of f missing from src get a copy of the last channel of src.
func (f Frame) CopyFrom(src Frame) {
	if len(src) == 0 {
		f.Clear()
		return
	}
	for i, row := range f {
		copy(row, src[min(i, len(src)-1)])
	}
}
