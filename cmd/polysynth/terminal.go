package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/vsariola/polysynth"
	"golang.org/x/term"
)

type (
	// terminalSource reads keys from a raw mode terminal. A terminal only
	// reports key presses, never releases, so note keys latch: the first
	// press starts the note and the second one stops it.
	terminalSource struct {
		bytes chan byte
		errs  chan error
		latch latch
	}

	latch struct {
		keymap polysynth.Keymap
		held   map[polysynth.KeyID]bool
	}

	// idleSource is used when there is no terminal; the synth then runs until
	// it is signalled to stop.
	idleSource struct{}
)

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1b
)

// openTerminal puts stdin into raw mode. The returned function restores it.
func openTerminal(keymap polysynth.Keymap) (*terminalSource, func(), error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, nil, errors.New("stdin is not a terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set raw mode: %w", err)
	}
	t := &terminalSource{
		bytes: make(chan byte, 64),
		errs:  make(chan error, 1),
		latch: newLatch(keymap),
	}
	// the reader blocks in Read and is left behind on exit
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				t.bytes <- buf[0]
			}
			if err != nil {
				t.errs <- err
				return
			}
		}
	}()
	return t, func() { _ = term.Restore(fd, oldState) }, nil
}

func (t *terminalSource) Poll(timeout time.Duration) (polysynth.Event, bool, error) {
	select {
	case b := <-t.bytes:
		ev, ok := t.latch.event(b)
		return ev, ok, nil
	case err := <-t.errs:
		return polysynth.Event{}, false, err
	case <-time.After(timeout):
		return polysynth.Event{}, false, nil
	}
}

func newLatch(keymap polysynth.Keymap) latch {
	return latch{keymap: keymap, held: map[polysynth.KeyID]bool{}}
}

// event maps one key press to an input event.
func (l *latch) event(b byte) (polysynth.Event, bool) {
	switch b {
	case keyCtrlC, keyEscape:
		return polysynth.Event{Kind: polysynth.Quit}, true
	case 'b':
		return polysynth.Event{Kind: polysynth.CycleWaveform}, true
	case '+', '=':
		return polysynth.Event{Kind: polysynth.VolumeUp}, true
	case '-':
		return polysynth.Event{Kind: polysynth.VolumeDown}, true
	case 'm':
		return polysynth.Event{Kind: polysynth.ToggleMute}, true
	case ' ':
		clear(l.held)
		return polysynth.Event{Kind: polysynth.ReleaseAll}, true
	}
	key := polysynth.KeyID(b)
	if _, ok := l.keymap.Frequency(key); !ok {
		return polysynth.Event{}, false
	}
	if l.held[key] {
		delete(l.held, key)
		return polysynth.Event{Kind: polysynth.KeyUp, Key: key}, true
	}
	l.held[key] = true
	return polysynth.Event{Kind: polysynth.KeyDown, Key: key}, true
}

func (idleSource) Poll(timeout time.Duration) (polysynth.Event, bool, error) {
	time.Sleep(timeout)
	return polysynth.Event{}, false, nil
}
