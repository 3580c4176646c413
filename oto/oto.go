package oto

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/vsariola/polysynth"
)

type (
	// OtoContext is an audio output through github.com/ebitengine/oto/v3. Oto
	// pulls audio by reading from an io.Reader; the reader calls the audio
	// callback whenever it runs out of rendered samples.
	OtoContext struct {
		ctx  *oto.Context
		opts Options
	}

	Options struct {
		SampleRate int
		Channels   int
		BufferSize int // samples per channel rendered per callback
		Format     Format
	}

	// Format is the sample format handed to the device.
	Format int

	OtoOutput struct {
		player *oto.Player
		once   sync.Once
		done   chan struct{}
	}

	// stream renders one buffer at a time and hands it to oto in whatever
	// chunk sizes oto asks for.
	stream struct {
		callback polysynth.AudioCallback
		frame    polysynth.Frame
		format   Format
		pending  []byte
		pos      int
	}
)

const (
	Float32 Format = iota
	Int16
)

// oto allows only one context per process
var (
	contextOnce sync.Once
	context     *oto.Context
	contextErr  error
)

// NewContext opens the default audio device. As oto supports only one context
// per process, only the options of the first call take effect.
func NewContext(opts Options) (*OtoContext, error) {
	if opts.SampleRate <= 0 || opts.Channels <= 0 || opts.BufferSize <= 0 {
		return nil, fmt.Errorf("cannot create oto context: invalid options %+v", opts)
	}
	contextOnce.Do(func() {
		format := oto.FormatFloat32LE
		if opts.Format == Int16 {
			format = oto.FormatSignedInt16LE
		}
		var ready chan struct{}
		context, ready, contextErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   opts.SampleRate,
			ChannelCount: opts.Channels,
			Format:       format,
			BufferSize:   time.Duration(opts.BufferSize) * time.Second / time.Duration(opts.SampleRate),
		})
		if contextErr == nil {
			<-ready
		}
	})
	if contextErr != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", contextErr)
	}
	return &OtoContext{ctx: context, opts: opts}, nil
}

// Play starts playing the audio rendered by callback.
func (c *OtoContext) Play(callback polysynth.AudioCallback) (polysynth.CloserWaiter, error) {
	s := &stream{
		callback: callback,
		frame:    polysynth.NewFrame(c.opts.Channels, c.opts.BufferSize),
		format:   c.opts.Format,
		pending:  make([]byte, 0, c.opts.Channels*c.opts.BufferSize*4),
	}
	o := &OtoOutput{player: c.ctx.NewPlayer(s), done: make(chan struct{})}
	o.player.Play()
	if err := c.ctx.Err(); err != nil {
		o.Close()
		return nil, fmt.Errorf("cannot start oto player: %w", err)
	}
	return o, nil
}

// Close suspends the device. The context itself lives until the process
// exits.
func (c *OtoContext) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot close oto context: %w", err)
	}
	return nil
}

// Close stops the playback and disposes of the player.
func (o *OtoOutput) Close() (err error) {
	o.once.Do(func() {
		defer close(o.done)
		if e := o.player.Close(); e != nil {
			err = fmt.Errorf("cannot close oto player: %w", e)
		}
	})
	return err
}

func (o *OtoOutput) Wait() { <-o.done }

func (s *stream) Read(p []byte) (n int, err error) {
	for n < len(p) {
		if s.pos >= len(s.pending) {
			s.callback(s.frame)
			if s.format == Int16 {
				s.pending = polysynth.AppendPCM16(s.pending[:0], s.frame)
			} else {
				s.pending = polysynth.AppendFloat32(s.pending[:0], s.frame)
			}
			s.pos = 0
		}
		c := copy(p[n:], s.pending[s.pos:])
		n += c
		s.pos += c
	}
	return n, nil
}
