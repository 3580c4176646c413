package player

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vsariola/polysynth"
)

// EventSource is where the input loop reads events from, e.g. a terminal or
// a window.
type EventSource interface {
	// Poll waits at most timeout for the next event. ok is false if no
	// event arrived in time. io.EOF means that no more events will come.
	Poll(timeout time.Duration) (ev polysynth.Event, ok bool, err error)
}

// PollInterval is the longest time the input loop goes without checking for
// a shutdown request.
const PollInterval = 50 * time.Millisecond

// RunInput reads events from src and sends the corresponding commands to the
// clock until a Quit event arrives, the source ends, or a shutdown is
// requested elsewhere. On return, a shutdown has always been requested.
func RunInput(src EventSource, keymap polysynth.Keymap, broker *Broker) error {
	defer broker.RequestShutdown()
	for !broker.ShutdownRequested() {
		ev, ok, err := src.Poll(PollInterval)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if !ok {
			continue
		}
		if ev.Kind == polysynth.Quit {
			return nil
		}
		if cmd, ok := Translate(ev, keymap); ok {
			broker.Send(cmd)
		}
	}
	return nil
}

// Translate returns the command for an input event. ok is false for events
// that need no command: keys missing from the keymap, Quit, and unknown
// kinds. Frequencies are resolved here so the clock never looks at the
// keymap.
func Translate(ev polysynth.Event, keymap polysynth.Keymap) (cmd Command, ok bool) {
	switch ev.Kind {
	case polysynth.KeyDown:
		f, ok := keymap.Frequency(ev.Key)
		if !ok {
			return Command{}, false
		}
		return NoteOn(ev.Key, f), true
	case polysynth.KeyUp:
		if _, ok := keymap.Frequency(ev.Key); !ok {
			return Command{}, false
		}
		return NoteOff(ev.Key), true
	case polysynth.CycleWaveform:
		return CycleWaveform(), true
	case polysynth.VolumeUp:
		return ChangeVolume(VolumeStep), true
	case polysynth.VolumeDown:
		return ChangeVolume(-VolumeStep), true
	case polysynth.ToggleMute:
		return ToggleMute(), true
	case polysynth.ReleaseAll:
		return ReleaseAll(), true
	}
	return Command{}, false
}
