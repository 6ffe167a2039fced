package wire

import (
	"encoding/json"

	"github.com/alxayo/fcast-core/internal/errors"
)

// DecodedPacket holds the outcome of decoding one inbound frame: at most one
// of the typed fields is populated, selected by Opcode. Opcodes with no body
// (None, Pause, Resume, Stop, Ping, Pong) and the outbound-only opcodes
// (PlaybackUpdate, VolumeUpdate, PlayUpdate, PlaybackError) populate none.
type DecodedPacket struct {
	Opcode Opcode

	Play            *PlayMessage
	Seek            *SeekMessage
	SetSpeed        *SetSpeedMessage
	SetVolume       *SetVolumeMessage
	Version         *VersionMessage
	InitialSender   *InitialSenderMessage
	SetPlaylistItem *SetPlaylistItemMessage
	Subscribe       *SubscribeEventMessage
	Unsubscribe     *UnsubscribeEventMessage
}

// DecodePacket parses body according to op's schema. body may be nil for
// no-body opcodes; for body-bearing opcodes a nil/empty body is a schema
// error (MissingBody).
func DecodePacket(op Opcode, body []byte) (DecodedPacket, error) {
	pkt := DecodedPacket{Opcode: op}
	if !HasBody(op) {
		return pkt, nil
	}
	if len(body) == 0 {
		return pkt, errors.NewSchemaError("decode."+op.String(), nil)
	}

	var err error
	switch op {
	case OpPlay:
		pkt.Play = new(PlayMessage)
		err = json.Unmarshal(body, pkt.Play)
	case OpSeek:
		pkt.Seek = new(SeekMessage)
		err = json.Unmarshal(body, pkt.Seek)
	case OpSetSpeed:
		pkt.SetSpeed = new(SetSpeedMessage)
		err = json.Unmarshal(body, pkt.SetSpeed)
	case OpSetVolume:
		pkt.SetVolume = new(SetVolumeMessage)
		err = json.Unmarshal(body, pkt.SetVolume)
	case OpVersion:
		pkt.Version = new(VersionMessage)
		err = json.Unmarshal(body, pkt.Version)
	case OpInitial:
		pkt.InitialSender = new(InitialSenderMessage)
		err = json.Unmarshal(body, pkt.InitialSender)
	case OpSetPlaylistItem:
		pkt.SetPlaylistItem = new(SetPlaylistItemMessage)
		err = json.Unmarshal(body, pkt.SetPlaylistItem)
	case OpSubscribeEvent:
		pkt.Subscribe = new(SubscribeEventMessage)
		err = json.Unmarshal(body, pkt.Subscribe)
	case OpUnsubscribeEvent:
		pkt.Unsubscribe = new(UnsubscribeEventMessage)
		err = json.Unmarshal(body, pkt.Unsubscribe)
	// PlaybackUpdate, VolumeUpdate, PlayUpdate, PlaybackError: receiver
	// never needs to decode these inbound, they are outbound-only; a peer
	// sending one is ignored per the common-packet handling rule.
	case OpPlaybackUpdate, OpVolumeUpdate, OpPlayUpdate, OpPlaybackError:
		return pkt, nil
	default:
		return pkt, errors.NewProtocolError("decode.unknown_opcode", nil)
	}
	if err != nil {
		return pkt, errors.NewSchemaError("decode."+op.String(), err)
	}
	return pkt, nil
}

// EncodeSimple returns the header-only bytes for a no-body opcode.
func EncodeSimple(op Opcode) []byte {
	h := Header{Size: 0, Opcode: op}
	enc := h.Encode()
	return enc[:]
}

// EncodeJSON marshals v and frames it under op.
func EncodeJSON(op Opcode, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, errors.NewSchemaError("encode."+op.String(), err)
	}
	if len(body) > MaxBodySize {
		return nil, errors.NewConfigBoundsError("encode."+op.String(), nil)
	}
	h := Header{Size: uint32(len(body)), Opcode: op}
	enc := h.Encode()
	out := make([]byte, 0, HeaderSize+len(body))
	out = append(out, enc[:]...)
	out = append(out, body...)
	return out, nil
}
