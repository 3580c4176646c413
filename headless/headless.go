// Package headless drives the audio callback without an audio device: a
// goroutine calls it at the pace a device would and discards the output. It
// is used when no device is available, and to run the synth in tests.
package headless

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/vsariola/polysynth"
)

type (
	Context struct {
		period     time.Duration
		channels   int
		bufferSize int
		sink       func(polysynth.Frame)
	}

	Output struct {
		stop chan struct{}
		done chan struct{}
		once sync.Once
	}
)

// NewContext creates a context calling the callback once per bufferSize
// samples of real time. sink, if not nil, receives every rendered buffer; it
// runs on the audio goroutine and must not keep the frame.
func NewContext(sampleRate, channels, bufferSize int, sink func(polysynth.Frame)) (*Context, error) {
	if sampleRate <= 0 || channels <= 0 || bufferSize <= 0 {
		return nil, fmt.Errorf("cannot create headless context: invalid sample rate %d, channels %d or buffer size %d", sampleRate, channels, bufferSize)
	}
	return &Context{
		period:     time.Duration(bufferSize) * time.Second / time.Duration(sampleRate),
		channels:   channels,
		bufferSize: bufferSize,
		sink:       sink,
	}, nil
}

func (c *Context) Play(callback polysynth.AudioCallback) (polysynth.CloserWaiter, error) {
	o := &Output{stop: make(chan struct{}), done: make(chan struct{})}
	frame := polysynth.NewFrame(c.channels, c.bufferSize)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(o.done)
		ticker := time.NewTicker(c.period)
		defer ticker.Stop()
		for {
			select {
			case <-o.stop:
				return
			case <-ticker.C:
				callback(frame)
				if c.sink != nil {
					c.sink(frame)
				}
			}
		}
	}()
	return o, nil
}

func (c *Context) Close() error { return nil }

// Close stops calling the callback and waits until the last call has
// returned.
func (o *Output) Close() error {
	o.once.Do(func() { close(o.stop) })
	<-o.done
	return nil
}

func (o *Output) Wait() { <-o.done }
