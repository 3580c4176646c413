// Package portaudio outputs audio through the PortAudio library. PortAudio
// calls the audio callback from its own real-time thread with one slice per
// channel, which is exactly a polysynth.Frame.
package portaudio

import (
	"fmt"
	"sync"

	pa "github.com/gordonklaus/portaudio"
	"github.com/vsariola/polysynth"
)

type (
	Context struct {
		sampleRate float64
		channels   int
		bufferSize int
	}

	Output struct {
		stream *pa.Stream
		once   sync.Once
		done   chan struct{}
	}
)

// NewContext initializes PortAudio. Close must be called to release it.
func NewContext(sampleRate, channels, bufferSize int) (*Context, error) {
	if sampleRate <= 0 || channels <= 0 || bufferSize <= 0 {
		return nil, fmt.Errorf("cannot create portaudio context: invalid sample rate %d, channels %d or buffer size %d", sampleRate, channels, bufferSize)
	}
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("cannot initialize portaudio: %w", err)
	}
	return &Context{sampleRate: float64(sampleRate), channels: channels, bufferSize: bufferSize}, nil
}

// Play opens the default output device and starts calling callback.
func (c *Context) Play(callback polysynth.AudioCallback) (polysynth.CloserWaiter, error) {
	stream, err := pa.OpenDefaultStream(0, c.channels, c.sampleRate, c.bufferSize, func(out [][]float32) {
		callback(out)
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open portaudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("cannot start portaudio stream: %w", err)
	}
	return &Output{stream: stream, done: make(chan struct{})}, nil
}

func (c *Context) Close() error {
	if err := pa.Terminate(); err != nil {
		return fmt.Errorf("cannot terminate portaudio: %w", err)
	}
	return nil
}

// Close stops the stream after the buffers already queued have played.
func (o *Output) Close() (err error) {
	o.once.Do(func() {
		defer close(o.done)
		if e := o.stream.Stop(); e != nil {
			err = fmt.Errorf("cannot stop portaudio stream: %w", e)
		}
		if e := o.stream.Close(); e != nil && err == nil {
			err = fmt.Errorf("cannot close portaudio stream: %w", e)
		}
	})
	return err
}

func (o *Output) Wait() { <-o.done }
