// Package player runs the synth in real time. The Clock is called by the
// audio device for every buffer; the input loop and the Monitor run in their
// own goroutines and exchange messages with the clock only through the
// Broker, so the audio thread never blocks on them.
package player
