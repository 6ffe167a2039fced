package wire

import "encoding/json"

// VersionMessage negotiates the session's protocol version.
type VersionMessage struct {
	Version uint64 `json:"version"`
}

// PlaybackState is the abstract playback state surfaced to peers, shared
// across all three schema versions.
type PlaybackState string

const (
	StateIdle      PlaybackState = "Idle"
	StateBuffering PlaybackState = "Buffering"
	StatePlaying   PlaybackState = "Playing"
	StatePaused    PlaybackState = "Paused"
)

// MediaItemMetadata carries optional display metadata for a MediaItem.
type MediaItemMetadata struct {
	Title     *string `json:"title,omitempty"`
	Thumbnail *string `json:"thumbnailUrl,omitempty"`
}

// MediaItem is the v3 media item schema.
type MediaItem struct {
	Container    string             `json:"container"`
	URL          *string            `json:"url,omitempty"`
	Content      *string            `json:"content,omitempty"`
	Time         *float64           `json:"time,omitempty"`
	Volume       *float64           `json:"volume,omitempty"`
	Speed        *float64           `json:"speed,omitempty"`
	ShowDuration *float64           `json:"show_duration,omitempty"`
	Headers      map[string]string  `json:"headers,omitempty"`
	Metadata     *MediaItemMetadata `json:"metadata,omitempty"`
}

// PlaylistContainer is the well-known MIME container value signaling that a
// PlayMessage's content is itself a playlist document.
const PlaylistContainer = "application/json"

// PlaylistContent is the body of a playlist document referenced by a
// PlayMessage whose container is PlaylistContainer.
type PlaylistContent struct {
	Variant string      `json:"variant"`
	Items   []MediaItem `json:"items"`
	Offset  *int        `json:"offset,omitempty"`
}

// PlayMessage is the v3 Play payload: a MediaItem plus no additional
// transient fields (MediaItem already carries everything transient).
type PlayMessage = MediaItem

// SeekMessage requests a pipeline seek.
type SeekMessage struct {
	Time float64 `json:"time"`
}

// SetSpeedMessage requests a playback rate change.
type SetSpeedMessage struct {
	Speed float64 `json:"speed"`
}

// SetVolumeMessage requests a volume change.
type SetVolumeMessage struct {
	Volume float64 `json:"volume"`
}

// SetPlaylistItemMessage requests navigation to a specific playlist index.
type SetPlaylistItemMessage struct {
	ItemIndex uint64 `json:"item_index"`
}

// PlaybackErrorMessage reports a fatal playback failure to the peer.
type PlaybackErrorMessage struct {
	Message string `json:"message"`
}

// --- PlaybackUpdate, one struct per version ---

// PlaybackUpdateV3 is the full-fidelity playback update.
type PlaybackUpdateV3 struct {
	GenerationTime uint64        `json:"generation_time"`
	Time           *float64      `json:"time,omitempty"`
	Duration       *float64      `json:"duration,omitempty"`
	State          PlaybackState `json:"state"`
	Speed          *float64      `json:"speed,omitempty"`
	ItemIndex      *uint64       `json:"item_index,omitempty"`
}

// PlaybackUpdateV2 requires time, duration and speed; Buffering collapses to Idle.
type PlaybackUpdateV2 struct {
	GenerationTime uint64        `json:"generation_time"`
	Time           float64       `json:"time"`
	Duration       float64       `json:"duration"`
	Speed          float64       `json:"speed"`
	State          PlaybackState `json:"state"`
}

// PlaybackUpdateV1 is the minimal legacy schema.
type PlaybackUpdateV1 struct {
	Time  float64       `json:"time"`
	State PlaybackState `json:"state"`
}

// --- VolumeUpdate, one struct per version family (v2/v3 share a schema) ---

// VolumeUpdateV3 (identical to v2) carries a generation timestamp.
type VolumeUpdateV3 struct {
	GenerationTime uint64  `json:"generation_time"`
	Volume         float64 `json:"volume"`
}

// VolumeUpdateV1 strips the generation timestamp.
type VolumeUpdateV1 struct {
	Volume float64 `json:"volume"`
}

// --- Initial handshake (v3 only) ---

type LivestreamCapabilities struct {
	WHEP *bool `json:"whep,omitempty"`
}

type AVCapabilities struct {
	Livestream *LivestreamCapabilities `json:"livestream,omitempty"`
}

type ReceiverCapabilities struct {
	AV *AVCapabilities `json:"av,omitempty"`
}

type InitialReceiverMessage struct {
	DisplayName              *string               `json:"display_name,omitempty"`
	AppName                  *string               `json:"app_name,omitempty"`
	AppVersion               *string               `json:"app_version,omitempty"`
	PlayData                 *PlayMessage          `json:"play_data,omitempty"`
	ExperimentalCapabilities *ReceiverCapabilities `json:"experimental_capabilities,omitempty"`
}

type InitialSenderMessage struct {
	DisplayName *string `json:"display_name,omitempty"`
	AppName     *string `json:"app_name,omitempty"`
	AppVersion  *string `json:"app_version,omitempty"`
}

// PlayUpdateMessage is forwarded verbatim to v3 sessions only.
type PlayUpdateMessage struct {
	GenerationTime *uint64      `json:"generation_time,omitempty"`
	PlayData       *PlayMessage `json:"play_data,omitempty"`
}

// --- Event / Subscribe (v3 only) ---

// EventType names a lifecycle or input event.
type EventType string

const (
	EventMediaItemStart  EventType = "MediaItemStart"
	EventMediaItemEnd    EventType = "MediaItemEnd"
	EventMediaItemChange EventType = "MediaItemChange"
	EventKeyDown         EventType = "KeyDown"
	EventKeyUp           EventType = "KeyUp"
)

// EventObject is the tagged union carried by an EventMessage: either a
// media-item lifecycle notice or a key event. Exactly one of the two
// payload shapes is populated, selected by Variant.
type EventObject struct {
	Variant EventType  `json:"variant"`
	Item    *MediaItem `json:"item,omitempty"`
	Key     *string    `json:"key,omitempty"`
	Repeat  *bool      `json:"repeat,omitempty"`
	Handled *bool      `json:"handled,omitempty"`
}

type EventMessage struct {
	GenerationTime uint64      `json:"generation_time"`
	Event          EventObject `json:"event"`
}

// SubscribeEventMessage / UnsubscribeEventMessage carry a discriminated
// event selector: a bare variant name for media-item events, or a variant
// plus a key list for KeyDown/KeyUp.
type SubscribeEventMessage struct {
	Event EventType `json:"-"`
	Keys  []string  `json:"-"`
}

type subscribeEventWire struct {
	Event EventType `json:"event"`
	Keys  []string  `json:"keys,omitempty"`
}

func (m SubscribeEventMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(subscribeEventWire{Event: m.Event, Keys: m.Keys})
}

func (m *SubscribeEventMessage) UnmarshalJSON(b []byte) error {
	var w subscribeEventWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	m.Event = w.Event
	m.Keys = w.Keys
	return nil
}

// UnsubscribeEventMessage has the identical wire shape as SubscribeEventMessage.
type UnsubscribeEventMessage = SubscribeEventMessage

// SubscribeMediaItemChanged is the subscribe-message spelling of the
// media-item-changed variant; the broadcast EventMessage instead uses
// EventMediaItemChange. The two protocol surfaces genuinely use different
// wire strings for the same lifecycle moment.
const SubscribeMediaItemChanged EventType = "MediaItemChanged"
