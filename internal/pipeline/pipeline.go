// Package pipeline declares the boundary between the session/coordinator
// core and the media backend that actually decodes and renders content. The
// core never assumes a particular media framework; it only consumes the
// EventKind vocabulary and issues Commands against the Pipeline interface.
package pipeline

import "context"

// EventKind enumerates the asynchronous notifications a running pipeline can
// raise. The coordinator's state machine reacts to these independent of
// which concrete backend produced them.
type EventKind int

const (
	EventEndOfStream EventKind = iota
	EventDurationChanged
	EventVolumeChanged
	EventStreamCollection
	EventAboutToFinish
	EventBuffering
	EventIsLive
	EventStateChanged
	EventURISet
	EventURILoaded
	EventStreamsSelected
	EventRateChanged
	EventError
	EventWarning
)

// PlaybackState mirrors the pipeline's own notion of playing/paused/idle,
// independent of the wire-level PlaybackState used to describe it to peers.
type PlaybackState int

const (
	StateIdle PlaybackState = iota
	StatePlaying
	StatePaused
	StateBuffering
)

// Event is one notification from a running Pipeline, delivered over the
// channel returned by Pipeline.Events. Only the fields relevant to Kind are
// populated.
type Event struct {
	Kind EventKind

	BufferingPercent int
	Duration         *float64
	Volume           *float64
	IsLive           bool
	OldState         PlaybackState
	NewState         PlaybackState
	Err              error
}

// Pipeline is the narrow surface the coordinator needs from a media
// backend: set a source, drive transport state, seek, and adjust volume or
// rate, while asynchronously reporting Events on its own goroutine.
type Pipeline interface {
	// SetURI loads a new source. Playback does not begin until a
	// subsequent SetState(StatePlaying); EventURILoaded marks readiness.
	SetURI(ctx context.Context, uri string, headers map[string]string) error

	SetState(ctx context.Context, state PlaybackState) error

	Seek(ctx context.Context, seconds float64) error

	SetVolume(ctx context.Context, volume float64) error

	SetRate(ctx context.Context, rate float64) error

	// Position and Duration report the pipeline's current clock, in
	// seconds, or false if not yet known.
	Position(ctx context.Context) (float64, bool)
	Duration(ctx context.Context) (float64, bool)

	// Events delivers asynchronous notifications until the pipeline is
	// closed. The channel is closed exactly once, after Close returns.
	Events() <-chan Event

	Close(ctx context.Context) error
}
