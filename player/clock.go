package player

import (
	"fmt"
	"time"

	"github.com/vsariola/polysynth"
	"github.com/vsariola/polysynth/synth"
)

// Clock is the real-time heart of the synth: the audio device calls Process
// whenever it needs the next buffer. Process drains the command queue, renders
// the voices, mixes them, and publishes the result to the scope and the
// monitor, all without blocking, logging or allocating.
//
// The Clock, and the Pool and Mixer given to it, must only be used from the
// goroutine calling Process; other goroutines talk to it through the broker.
type Clock struct {
	broker     *Broker
	pool       *synth.Pool
	mixer      *synth.Mixer
	scope      *Scope
	sampleRate float64

	scratch  []float64 // one sample per voice
	mono     []float32 // one mixed buffer
	status   Status
	finished bool
}

// NewClock creates a clock rendering pool through mixer. scope may be nil.
// bufferSize is the expected number of samples per Process call; larger
// buffers are handled too but cause an allocation the first time.
func NewClock(broker *Broker, pool *synth.Pool, mixer *synth.Mixer, scope *Scope, sampleRate float64, bufferSize int) *Clock {
	p := pool.Patch()
	return &Clock{
		broker:     broker,
		pool:       pool,
		mixer:      mixer,
		scope:      scope,
		sampleRate: sampleRate,
		scratch:    make([]float64, 0, pool.Cap()),
		mono:       make([]float32, max(bufferSize, 0)),
		status:     Status{PatchName: p.Name},
	}
}

// Process fills out with the next out.Len() samples of every channel. Every
// channel gets the same signal.
func (c *Clock) Process(out polysynth.Frame) {
	if c.broker.ShutdownRequested() {
		out.Clear()
		if !c.finished {
			c.finished = true
			close(c.broker.FinishedClock)
		}
		return
	}
	start := time.Now()
	defer func() {
		if err := recover(); err != nil {
			out.Clear()
			c.pool.ReleaseAll()
			c.SendAlert("ClockCrash", fmt.Sprintf("render: %v", err), Error)
		}
	}()
	c.processCommands()
	c.render(out)
	if c.scope != nil {
		c.scope.Write(out)
	}
	c.measure(out.Len(), time.Since(start))
	c.send(out)
}

func (c *Clock) processCommands() {
	// bounded, so a producer flooding the queue cannot stall the buffer
	for range cap(c.broker.ToClock) {
		select {
		case cmd := <-c.broker.ToClock:
			c.apply(cmd)
		default:
			return
		}
	}
}

func (c *Clock) apply(cmd Command) {
	switch cmd.Kind {
	case NoteOnCmd:
		switch c.pool.NoteOn(cmd.Key, cmd.Frequency) {
		case synth.Stolen:
			c.status.Stolen++
		case synth.Rejected:
			c.status.Rejected++
			c.SendAlert("VoiceRejected", "all voices in use, key-down ignored", Warning)
		}
	case NoteOffCmd:
		c.pool.NoteOff(cmd.Key)
	case SwitchWaveformCmd:
		c.pool.SwitchWaveform(cmd.Waveform)
	case CycleWaveformCmd:
		c.pool.CycleWaveform()
	case SetPatchCmd:
		if cmd.Patch == nil {
			return
		}
		if err := c.pool.SetPatch(cmd.Patch); err != nil {
			c.SendAlert("InvalidPatch", err.Error(), Warning)
			return
		}
		c.status.PatchName = cmd.Patch.Name
	case SetVolumeCmd:
		c.mixer.SetVolume(cmd.Value)
	case ChangeVolumeCmd:
		c.mixer.SetVolume(c.mixer.Volume() + cmd.Value)
	case SetMutedCmd:
		c.mixer.SetMuted(cmd.Flag)
	case ToggleMuteCmd:
		c.mixer.SetMuted(!c.mixer.Muted())
	case ReleaseAllCmd:
		c.pool.ReleaseAll()
	default:
		// ignore unknown commands
	}
}

func (c *Clock) render(out polysynth.Frame) {
	n := out.Len()
	if cap(c.mono) < n {
		c.mono = make([]float32, n)
	}
	mono := c.mono[:n]
	for i := range mono {
		c.scratch = c.pool.Tick(c.scratch[:0])
		mono[i] = float32(c.mixer.Mix(c.scratch))
	}
	for _, row := range out {
		copy(row, mono)
	}
}

// measure compares the time spent in Process against the time it takes the
// device to play the buffer.
func (c *Clock) measure(samples int, elapsed time.Duration) {
	deadline := time.Duration(float64(samples) / c.sampleRate * float64(time.Second))
	if deadline <= 0 {
		return
	}
	c.status.CPULoad = float64(elapsed) / float64(deadline)
	if elapsed > deadline {
		c.status.Overruns++
		c.SendAlert("DeadlineOverrun", "rendering took longer than playing the buffer", Warning)
	}
}

// send reports the status and a copy of the rendered buffer to the monitor.
// If no audio buffer is free or the monitor is behind, the report is lost.
func (c *Clock) send(out polysynth.Frame) {
	c.updateStatus()
	msg := MsgToMonitor{HasStatus: true, Status: c.status}
	if buf, ok := c.broker.GetAudioBuffer(); ok {
		buf.Frame.CopyFrom(out)
		buf.Len = min(out.Len(), buf.Frame.Len())
		msg.Levels = buf
	}
	if !TrySend(c.broker.ToMonitor, msg) && msg.Levels != nil {
		c.broker.PutAudioBuffer(msg.Levels)
	}
}

func (c *Clock) updateStatus() {
	c.status.Voices = c.pool.Len()
	c.status.Waveform = c.pool.Waveform()
	c.status.Volume = c.mixer.Volume()
	c.status.Muted = c.mixer.Muted()
	c.status.Dropped = c.broker.Dropped()
	c.status.Faults = c.pool.Faults()
}

// SendAlert reports a problem to the monitor. It never blocks; the alert is
// lost if the monitor is behind.
func (c *Clock) SendAlert(name, message string, priority AlertPriority) {
	TrySend(c.broker.ToMonitor, MsgToMonitor{
		HasAlert: true,
		Alert:    Alert{Name: name, Priority: priority, Message: message},
	})
}
