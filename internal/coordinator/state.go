// Package coordinator implements the playback state machine that sits
// between session operations (Play/Pause/Resume/Stop/Seek/SetSpeed) and the
// media pipeline, coalescing seeks and buffering into a small set of
// states so the hub always has one source of truth for the current
// PlaybackUpdate.
package coordinator

import "github.com/alxayo/fcast-core/internal/pipeline"

// Kind discriminates the Coordinator's state union.
type Kind int

const (
	KindStopped Kind = iota
	KindChanging
	KindBuffering
	KindSeekAsync
	KindSeeking
	KindRunning
)

func (k Kind) String() string {
	switch k {
	case KindStopped:
		return "Stopped"
	case KindChanging:
		return "Changing"
	case KindBuffering:
		return "Buffering"
	case KindSeekAsync:
		return "SeekAsync"
	case KindSeeking:
		return "Seeking"
	case KindRunning:
		return "Running"
	default:
		return "Unknown"
	}
}

// SeekRequest is a coalesced pending seek or rate change: either field may
// be nil, mirroring the wire Seek record's optional position/rate pair. A
// later request merges into an existing one in place rather than queuing,
// so at most one is ever outstanding per coordinator.
type SeekRequest struct {
	Position *float64
	Rate     *float64
}

// State is the coordinator's state at a point in time. Only the fields
// relevant to Kind are meaningful:
//
//	Stopped:    none
//	Changing:   Target, PendingSeek — either a URI was just set (waiting for
//	            URILoaded before the target play/pause state is applied) or
//	            a target state change was requested from Running (waiting
//	            for the pipeline's StateChanged confirmation)
//	Buffering:  Percent, Target, PendingSeek — pipeline reported buffering;
//	            Target is restored once Percent reaches 100
//	SeekAsync:  PendingSeek, Target — a seek arrived before the pipeline
//	            finished loading; it is replayed once URILoaded fires
//	Seeking:    Target, PendingSeek — a seek was issued to a running
//	            pipeline; PendingSeek holds anything that coalesced in
//	            while it was in flight, replayed once it completes; Target
//	            is the play/pause state to restore once it completes
//	Running:    Target — steady state, Target is Playing or Paused
type State struct {
	Kind        Kind
	Target      pipeline.PlaybackState
	Percent     int
	PendingSeek *SeekRequest
}

func Stopped() State { return State{Kind: KindStopped} }
