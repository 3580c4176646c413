/*
Package synth contains the voice engine of polysynth: Voice, the state of one
sounding note; Pool, which owns the voices of all held keys; and Mixer, which
sums the voices into one output sample.

None of the types are safe for concurrent use. They are meant to be owned by
the audio thread (see player.Clock) and mutated only from there. In the
steady state, ticking the pool and mixing do not allocate.
*/
package synth
