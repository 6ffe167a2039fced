// Package session implements the per-connection session driver: protocol
// version negotiation, heartbeat, subscription filtering, and dispatch of
// decoded operations to the application hub.
package session

import "github.com/alxayo/fcast-core/internal/wire"

// OperationKind discriminates the Operation union.
type OperationKind int

const (
	OpPause OperationKind = iota
	OpResume
	OpStop
	OpPlay
	OpSeek
	OpSetSpeed
	OpSetPlaylistItem
	OpSetVolume
)

// Operation is a decoded user intent ready for dispatch to the application
// hub. At most one payload field is populated, selected by Kind; Pause,
// Resume and Stop carry none.
type Operation struct {
	Kind            OperationKind
	Play            *wire.PlayMessage
	Seek            *wire.SeekMessage
	SetSpeed        *wire.SetSpeedMessage
	SetPlaylistItem *wire.SetPlaylistItemMessage
	SetVolume       *wire.SetVolumeMessage
}
