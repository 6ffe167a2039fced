// Package wire implements the FCast frame codec: header framing, the v1/v2/v3
// JSON message schemas, and per-version schema translation for broadcasts.
package wire

// Opcode identifies a frame's payload kind. Values are part of the stable
// wire contract and must never be renumbered.
type Opcode uint8

const (
	OpNone             Opcode = 0
	OpPlay             Opcode = 1
	OpPause            Opcode = 2
	OpResume           Opcode = 3
	OpStop             Opcode = 4
	OpSeek             Opcode = 5
	OpPlaybackUpdate   Opcode = 6
	OpVolumeUpdate     Opcode = 7
	OpSetVolume        Opcode = 8
	OpPlaybackError    Opcode = 9
	OpSetSpeed         Opcode = 10
	OpVersion          Opcode = 11
	OpPing             Opcode = 12
	OpPong             Opcode = 13
	OpInitial          Opcode = 14
	OpPlayUpdate       Opcode = 15
	OpEvent            Opcode = 16
	OpSubscribeEvent   Opcode = 17
	OpUnsubscribeEvent Opcode = 18
	OpSetPlaylistItem  Opcode = 19
)

// noBodyOpcodes carries no JSON payload at all; the frame's body length is
// always zero for these.
var noBodyOpcodes = map[Opcode]bool{
	OpNone:   true,
	OpPause:  true,
	OpResume: true,
	OpStop:   true,
	OpPing:   true,
	OpPong:   true,
}

// HasBody reports whether op is expected to carry a JSON body.
func HasBody(op Opcode) bool { return !noBodyOpcodes[op] }

func (o Opcode) String() string {
	switch o {
	case OpNone:
		return "None"
	case OpPlay:
		return "Play"
	case OpPause:
		return "Pause"
	case OpResume:
		return "Resume"
	case OpStop:
		return "Stop"
	case OpSeek:
		return "Seek"
	case OpPlaybackUpdate:
		return "PlaybackUpdate"
	case OpVolumeUpdate:
		return "VolumeUpdate"
	case OpSetVolume:
		return "SetVolume"
	case OpPlaybackError:
		return "PlaybackError"
	case OpSetSpeed:
		return "SetSpeed"
	case OpVersion:
		return "Version"
	case OpPing:
		return "Ping"
	case OpPong:
		return "Pong"
	case OpInitial:
		return "Initial"
	case OpPlayUpdate:
		return "PlayUpdate"
	case OpEvent:
		return "Event"
	case OpSubscribeEvent:
		return "SubscribeEvent"
	case OpUnsubscribeEvent:
		return "UnsubscribeEvent"
	case OpSetPlaylistItem:
		return "SetPlaylistItem"
	default:
		return "Unknown"
	}
}

// Version is the negotiated protocol version for a session. It is set once
// and never changes afterwards: the peer's Version message selects it, or a
// legacy command sent before any Version message pins it to V1. The receiver
// does not send a Version message of its own.
type Version uint8

const (
	V1 Version = 1
	V2 Version = 2
	V3 Version = 3
)

func (v Version) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	case V3:
		return "v3"
	default:
		return "unknown"
	}
}

// VersionFromInt maps the wire-level integer in a VersionMessage to a
// Version, reporting false for anything outside {1,2,3}.
func VersionFromInt(n uint64) (Version, bool) {
	switch n {
	case 1:
		return V1, true
	case 2:
		return V2, true
	case 3:
		return V3, true
	}
	return 0, false
}
