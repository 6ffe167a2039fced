package session

import "github.com/alxayo/fcast-core/internal/wire"

// MediaItemEvents is a bitmask of subscribed media-item lifecycle events.
type MediaItemEvents uint8

const (
	MediaItemStart MediaItemEvents = 1 << iota
	MediaItemEnd
	MediaItemChanged
)

func (m MediaItemEvents) contains(flag MediaItemEvents) bool { return m&flag == flag }

// KeyEvents is a bitmask over the closed set of subscribable key names.
type KeyEvents uint8

const (
	KeyArrowLeft KeyEvents = 1 << iota
	KeyArrowRight
	KeyArrowUp
	KeyArrowDown
	KeyEnter
)

func (k KeyEvents) contains(flag KeyEvents) bool { return k&flag == flag }

// keyFlagFromName maps a key name to its bit, or 0 if unrecognized.
func keyFlagFromName(name string) KeyEvents {
	switch name {
	case "ArrowLeft":
		return KeyArrowLeft
	case "ArrowRight":
		return KeyArrowRight
	case "ArrowUp":
		return KeyArrowUp
	case "ArrowDown":
		return KeyArrowDown
	case "Enter":
		return KeyEnter
	default:
		return 0
	}
}

func keyFlagsFromNames(names []string) KeyEvents {
	var flags KeyEvents
	for _, n := range names {
		flags |= keyFlagFromName(n)
	}
	return flags
}

func mediaItemFlagFromVariant(v wire.EventType) (MediaItemEvents, bool) {
	switch v {
	case wire.EventMediaItemStart:
		return MediaItemStart, true
	case wire.EventMediaItemEnd:
		return MediaItemEnd, true
	case wire.EventMediaItemChange:
		return MediaItemChanged, true
	default:
		return 0, false
	}
}
