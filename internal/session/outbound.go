package session

import "github.com/alxayo/fcast-core/internal/wire"

// OutboundKind discriminates the OutboundMessage union: the five shapes a
// broadcast from the application hub can take.
type OutboundKind int

const (
	OutboundTranslatablePlaybackUpdate OutboundKind = iota
	OutboundTranslatableVolumeUpdate
	OutboundPlayUpdate
	OutboundEvent
	OutboundPlaybackError
)

// OutboundMessage is a broadcast produced by the application hub, destined
// for every session's driver to filter and (if it survives filtering)
// forward to the peer.
type OutboundMessage struct {
	Kind           OutboundKind
	PlaybackUpdate *wire.PlaybackUpdateV3
	VolumeUpdate   *wire.VolumeUpdateV3
	PlayUpdate     *wire.PlayUpdateMessage
	Event          *wire.EventMessage
	PlaybackError  *wire.PlaybackErrorMessage
}
