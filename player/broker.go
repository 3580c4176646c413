package player

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vsariola/polysynth"
)

type (
	// Broker connects the goroutines of the synth: the input loop, the audio
	// clock and the monitor. Every channel is buffered and every send from
	// the clock is non-blocking, so the audio thread never waits for anyone.
	//
	// Commands flow input → clock through ToClock; when ToClock is full, the
	// overflow policy decides which command is lost. Status messages flow
	// clock → monitor through ToMonitor, and are simply dropped if the
	// monitor falls behind.
	//
	// The broker also owns a fixed set of audio buffers, which the clock
	// borrows to pass copies of its output to the monitor without allocating.
	//
	// For closing goroutines, the broker has the channels CloseMonitor and
	// FinishedMonitor, and FinishedClock. CloseMonitor has a capacity of 1,
	// so an empty message can always be sent to it with TrySend. The Finished
	// channels are never sent to, only closed, so "<-FinishedXXX" waits until
	// the goroutine is done; combine it with TimeoutReceive to avoid hanging
	// on exit.
	Broker struct {
		ToClock   chan Command
		ToMonitor chan MsgToMonitor

		CloseMonitor    chan struct{}
		FinishedMonitor chan struct{}
		FinishedClock   chan struct{}

		overflow OverflowPolicy
		dropped  atomic.Uint64
		shutdown atomic.Bool

		buffers chan *AudioBuffer
	}

	// BrokerOptions configures a Broker.
	BrokerOptions struct {
		QueueSize  int            // capacity of the command queue
		Overflow   OverflowPolicy // which command to lose when the queue is full
		Channels   int            // channels of the borrowed audio buffers
		BufferSize int            // samples per channel of the borrowed audio buffers
		NumBuffers int            // how many audio buffers can be in flight
	}

	// OverflowPolicy decides what a bounded queue does when it is full.
	OverflowPolicy int

	// AudioBuffer is a copy of one rendered buffer on its way to the monitor.
	// Len is the number of valid samples in each row of Frame.
	AudioBuffer struct {
		Frame polysynth.Frame
		Len   int
	}
)

const (
	// DropNewest keeps the queued items and loses the one being sent.
	DropNewest OverflowPolicy = iota
	// DropOldest discards the oldest queued item to make room.
	DropOldest
)

const (
	DefaultQueueSize  = 1024
	DefaultNumBuffers = 8
)

var overflowPolicyNames = [...]string{"drop-newest", "drop-oldest"}

func (p OverflowPolicy) String() string {
	if p < 0 || int(p) >= len(overflowPolicyNames) {
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
	return overflowPolicyNames[p]
}

func (p OverflowPolicy) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= len(overflowPolicyNames) {
		return nil, fmt.Errorf("invalid overflow policy %d", int(p))
	}
	return []byte(overflowPolicyNames[p]), nil
}

func (p *OverflowPolicy) UnmarshalText(text []byte) error {
	for i, n := range overflowPolicyNames {
		if n == string(text) {
			*p = OverflowPolicy(i)
			return nil
		}
	}
	return fmt.Errorf("unknown overflow policy %q", string(text))
}

func NewBroker(opts BrokerOptions) *Broker {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.NumBuffers <= 0 {
		opts.NumBuffers = DefaultNumBuffers
	}
	b := &Broker{
		ToClock:         make(chan Command, opts.QueueSize),
		ToMonitor:       make(chan MsgToMonitor, 1024),
		CloseMonitor:    make(chan struct{}, 1),
		FinishedMonitor: make(chan struct{}),
		FinishedClock:   make(chan struct{}),
		overflow:        opts.Overflow,
		buffers:         make(chan *AudioBuffer, opts.NumBuffers),
	}
	for range opts.NumBuffers {
		b.buffers <- &AudioBuffer{Frame: polysynth.NewFrame(max(opts.Channels, 1), max(opts.BufferSize, 0))}
	}
	return b
}

// Send queues a command for the clock without blocking. When the queue is
// full, the overflow policy decides which command is lost. Returns false if
// c itself was dropped.
func (b *Broker) Send(c Command) bool {
	if TrySend(b.ToClock, c) {
		return true
	}
	if b.overflow == DropOldest {
		select {
		case <-b.ToClock:
			b.dropped.Add(1)
		default:
		}
		if TrySend(b.ToClock, c) {
			return true
		}
	}
	b.dropped.Add(1)
	return false
}

// Dropped returns the number of commands lost to a full queue.
func (b *Broker) Dropped() uint64 { return b.dropped.Load() }

// RequestShutdown asks every goroutine to stop after finishing what it is
// currently doing. It is safe to call many times and from any goroutine.
func (b *Broker) RequestShutdown() { b.shutdown.Store(true) }

func (b *Broker) ShutdownRequested() bool { return b.shutdown.Load() }

// GetAudioBuffer borrows an audio buffer. ok is false if all buffers are in
// flight; it never allocates or blocks. Return the buffer with
// PutAudioBuffer.
func (b *Broker) GetAudioBuffer() (buf *AudioBuffer, ok bool) {
	select {
	case buf = <-b.buffers:
		return buf, true
	default:
		return nil, false
	}
}

// PutAudioBuffer returns a borrowed audio buffer.
func (b *Broker) PutAudioBuffer(buf *AudioBuffer) {
	buf.Len = 0
	TrySend(b.buffers, buf)
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive is a helper function to block until a value is received from a
// channel, or timing out after t. ok will be false if the timeout occurred or
// if the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
