package wire

import "encoding/json"

// stateDowngrade maps the v3 abstract state onto the v2 PlaybackUpdate
// schema, where Buffering has no representation and collapses to Idle.
func stateDowngrade(s PlaybackState) PlaybackState {
	if s == StateBuffering {
		return StateIdle
	}
	return s
}

// TranslatePlaybackUpdate serializes a v3 PlaybackUpdate for delivery to a
// session at the given version, applying the required-field and
// state-collapse rules. ok is false when the translation must be dropped
// (a required field is absent for the target version) — the caller MUST
// skip delivery entirely rather than send a partial frame.
func TranslatePlaybackUpdate(msg PlaybackUpdateV3, target Version) (body []byte, ok bool) {
	switch target {
	case V1:
		if msg.Time == nil {
			return nil, false
		}
		b, err := json.Marshal(PlaybackUpdateV1{
			Time:  *msg.Time,
			State: stateDowngrade(msg.State),
		})
		if err != nil {
			return nil, false
		}
		return b, true
	case V2:
		if msg.Time == nil || msg.Duration == nil || msg.Speed == nil {
			return nil, false
		}
		b, err := json.Marshal(PlaybackUpdateV2{
			GenerationTime: msg.GenerationTime,
			Time:           *msg.Time,
			Duration:       *msg.Duration,
			Speed:          *msg.Speed,
			State:          stateDowngrade(msg.State),
		})
		if err != nil {
			return nil, false
		}
		return b, true
	case V3:
		b, err := json.Marshal(msg)
		if err != nil {
			return nil, false
		}
		return b, true
	default:
		return nil, false
	}
}

// TranslateVolumeUpdate serializes a v3/v2-shaped VolumeUpdate for delivery
// to a session at the given version. v2 and v3 share an identical schema;
// only v1 strips the generation timestamp.
func TranslateVolumeUpdate(msg VolumeUpdateV3, target Version) (body []byte, ok bool) {
	switch target {
	case V1:
		b, err := json.Marshal(VolumeUpdateV1{Volume: msg.Volume})
		if err != nil {
			return nil, false
		}
		return b, true
	case V2, V3:
		b, err := json.Marshal(msg)
		if err != nil {
			return nil, false
		}
		return b, true
	default:
		return nil, false
	}
}
