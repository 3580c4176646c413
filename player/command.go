package player

import "github.com/vsariola/polysynth"

type (
	// Command is a message from the input loop to the clock. Commands are
	// plain values, not interfaces, so that sending and receiving them does
	// not allocate. Only the fields of Kind are meaningful.
	Command struct {
		Kind      CommandKind
		Key       polysynth.KeyID
		Frequency float64
		Waveform  polysynth.Waveform
		Value     float64
		Flag      bool
		Patch     *polysynth.Patch
	}

	CommandKind int
)

const (
	NoteOnCmd CommandKind = iota
	NoteOffCmd
	SwitchWaveformCmd
	CycleWaveformCmd
	SetPatchCmd
	SetVolumeCmd
	ChangeVolumeCmd
	SetMutedCmd
	ToggleMuteCmd
	ReleaseAllCmd
)

// VolumeStep is how much VolumeUp and VolumeDown change the master volume.
const VolumeStep = 0.1

func NoteOn(key polysynth.KeyID, frequency float64) Command {
	return Command{Kind: NoteOnCmd, Key: key, Frequency: frequency}
}

func NoteOff(key polysynth.KeyID) Command {
	return Command{Kind: NoteOffCmd, Key: key}
}

func SwitchWaveform(w polysynth.Waveform) Command {
	return Command{Kind: SwitchWaveformCmd, Waveform: w}
}

func CycleWaveform() Command { return Command{Kind: CycleWaveformCmd} }

// SetPatch makes a clamped copy of p the template for new voices.
func SetPatch(p *polysynth.Patch) Command {
	c := p.Clamped()
	return Command{Kind: SetPatchCmd, Patch: &c}
}

func SetVolume(v float64) Command    { return Command{Kind: SetVolumeCmd, Value: v} }
func ChangeVolume(d float64) Command { return Command{Kind: ChangeVolumeCmd, Value: d} }
func SetMuted(m bool) Command        { return Command{Kind: SetMutedCmd, Flag: m} }
func ToggleMute() Command            { return Command{Kind: ToggleMuteCmd} }
func ReleaseAll() Command            { return Command{Kind: ReleaseAllCmd} }
