package coordinator

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/alxayo/fcast-core/internal/errors"
	"github.com/alxayo/fcast-core/internal/pipeline"
)

// Coordinator owns one Pipeline and the state machine that decides what
// command to issue next in response to either a session Operation or an
// asynchronous pipeline Event. It is safe for concurrent use; callers
// typically drive it from a single hub goroutine but the mutex makes that
// an implementation choice, not a requirement.
type Coordinator struct {
	mu       sync.Mutex
	pipeline pipeline.Pipeline
	state    State
	log      zerolog.Logger

	currentURI string
	volume     float64
	speed      float64
	isLive     bool

	// postLoad holds commands deferred from Play until the pipeline reports
	// the source is loaded: a MediaItem's own volume/speed apply once, right
	// after the first transition to Running, rather than racing the load.
	postLoad postLoadCommands
}

type postLoadCommands struct {
	volume *float64
	speed  *float64
}

func New(p pipeline.Pipeline, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		pipeline: p,
		state:    Stopped(),
		log:      log,
		volume:   1,
		speed:    1,
	}
}

// State returns a snapshot of the current state, safe to read without
// holding the coordinator's lock further.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Volume and Speed report the last value accepted via SetVolume/SetSpeed.
func (c *Coordinator) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

func (c *Coordinator) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// CurrentURI returns the source currently loaded, or "" when Stopped.
func (c *Coordinator) CurrentURI() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentURI
}

// Position and Duration delegate to the underlying pipeline.
func (c *Coordinator) Position(ctx context.Context) (float64, bool) {
	return c.pipeline.Position(ctx)
}

func (c *Coordinator) Duration(ctx context.Context) (float64, bool) {
	return c.pipeline.Duration(ctx)
}

// Events exposes the underlying pipeline's event channel so a caller (the
// hub) can drive HandlePipelineEvent from its own run loop.
func (c *Coordinator) Events() <-chan pipeline.Event {
	return c.pipeline.Events()
}

// Play loads uri and arranges for playback to begin once it is ready. A
// Play received in any state discards whatever was previously in flight.
func (c *Coordinator) Play(ctx context.Context, uri string, headers map[string]string) error {
	return c.PlayWithDeferred(ctx, uri, headers, nil, nil)
}

// PlayWithDeferred behaves like Play, additionally queuing a per-item volume
// and/or speed to be applied once the source reports loaded rather than
// racing the pipeline's own load sequence.
func (c *Coordinator) PlayWithDeferred(ctx context.Context, uri string, headers map[string]string, volume, speed *float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentURI = uri
	c.isLive = false
	// Target is left zero (unset) rather than Playing: onURILoaded treats
	// zero as "nothing explicit requested yet" and defaults to Paused. A
	// Pause/Resume received before the load completes overwrites this via
	// setTarget's transient-state branch.
	c.state = State{Kind: KindChanging}
	c.postLoad = postLoadCommands{volume: volume, speed: speed}
	return c.pipeline.SetURI(ctx, uri, headers)
}

// applyPostLoad issues any volume/speed deferred by PlayWithDeferred, once,
// after the pipeline transitions to Running for the first time since Play.
func (c *Coordinator) applyPostLoad(ctx context.Context) error {
	cmds := c.postLoad
	c.postLoad = postLoadCommands{}
	if cmds.volume != nil {
		c.volume = *cmds.volume
		if err := c.pipeline.SetVolume(ctx, *cmds.volume); err != nil {
			return err
		}
	}
	if cmds.speed != nil {
		c.speed = *cmds.speed
		if err := c.pipeline.SetRate(ctx, *cmds.speed); err != nil {
			return err
		}
	}
	return nil
}

// Pause requests the paused state, either immediately (Running) or by
// updating the target state of whatever transition is in flight.
func (c *Coordinator) Pause(ctx context.Context) error {
	return c.setTarget(ctx, pipeline.StatePaused)
}

// Resume requests the playing state, symmetric to Pause.
func (c *Coordinator) Resume(ctx context.Context) error {
	return c.setTarget(ctx, pipeline.StatePlaying)
}

func (c *Coordinator) setTarget(ctx context.Context, target pipeline.PlaybackState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state.Kind {
	case KindStopped:
		return errors.NewProtocolError("coordinator.set_target.no_media", nil)
	case KindRunning:
		// From Running, transition through Changing{target} rather than
		// mutating Target in place and assuming the pipeline command
		// completes synchronously; onStateChanged reconciles back to
		// Running once the pipeline actually confirms it.
		c.state = State{Kind: KindChanging, Target: target}
		return c.pipeline.SetState(ctx, target)
	default:
		// Changing, Buffering, SeekAsync, Seeking: record the desired
		// target state and apply it once the in-flight transition
		// completes.
		c.state.Target = target
		return nil
	}
}

// Stop tears the pipeline down to idle and returns the coordinator to
// Stopped regardless of what was previously in flight.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentURI = ""
	c.isLive = false
	c.state = Stopped()
	return c.pipeline.SetState(ctx, pipeline.StateIdle)
}

// Seek requests a new position, coalescing with any seek already pending
// for the current state so that a burst of Seek operations only ever
// issues the most recent target position to the pipeline. Rejected with a
// logged warning while the pipeline reports a live stream.
func (c *Coordinator) Seek(ctx context.Context, seconds float64) error {
	return c.seekInternal(ctx, &seconds, nil)
}

// SetSpeed adjusts playback rate. It is routed through the same
// coalescing seek/state machine as a position seek rather than applied
// directly, matching the original player's seek_internal: a rate change
// is a Seek record with position absent, subject to the same is_live
// rejection and pending-seek coalescing as a position seek.
func (c *Coordinator) SetSpeed(ctx context.Context, speed float64) error {
	return c.seekInternal(ctx, nil, &speed)
}

// seekInternal implements the shared position/rate seek path. Exactly one
// of position/rate may be nil (a rate-only or position-only request); both
// may be set together. At most one request is ever in flight: while a
// previous one is still outstanding, a new one merges into the pending
// record (latest position and rate win) instead of issuing a second
// pipeline call.
func (c *Coordinator) seekInternal(ctx context.Context, position, rate *float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isLive {
		c.log.Warn().Msg("rejecting seek/rate change: stream is live")
		return nil
	}
	if rate != nil {
		c.speed = *rate
	}

	switch c.state.Kind {
	case KindStopped:
		if position == nil && rate != nil {
			// A bare rate change with nothing loaded has no seek to
			// coalesce against; apply it directly.
			return c.pipeline.SetRate(ctx, *rate)
		}
		return errors.NewProtocolError("coordinator.seek.no_media", nil)
	case KindRunning:
		target := c.state.Target
		c.state = State{Kind: KindSeeking, Target: target}
		return c.issueSeek(ctx, position, rate)
	case KindSeeking, KindBuffering, KindSeekAsync:
		c.state.PendingSeek = mergeSeek(c.state.PendingSeek, position, rate)
		return nil
	case KindChanging:
		c.state = State{Kind: KindSeekAsync, Target: c.state.Target, PendingSeek: mergeSeek(nil, position, rate)}
		return nil
	default:
		return nil
	}
}

// issueSeek applies a position and/or rate directly to the pipeline, rate
// first. Per the seek-coalescing invariant a rate-only request's position
// is simply omitted from the pipeline call rather than synthesized from
// the pipeline's last known position.
func (c *Coordinator) issueSeek(ctx context.Context, position, rate *float64) error {
	if rate != nil {
		if err := c.pipeline.SetRate(ctx, *rate); err != nil {
			return err
		}
	}
	if position != nil {
		return c.pipeline.Seek(ctx, *position)
	}
	return nil
}

// mergeSeek folds position/rate into existing (which may be nil), keeping
// whichever fields existing already had unless overridden.
func mergeSeek(existing *SeekRequest, position, rate *float64) *SeekRequest {
	req := &SeekRequest{}
	if existing != nil {
		*req = *existing
	}
	if position != nil {
		req.Position = position
	}
	if rate != nil {
		req.Rate = rate
	}
	return req
}

// applySeekRequest issues a coalesced pending seek once the state it was
// waiting on resolves, rate first then position, mirroring issueSeek.
func (c *Coordinator) applySeekRequest(ctx context.Context, req *SeekRequest) error {
	if req == nil {
		return nil
	}
	return c.issueSeek(ctx, req.Position, req.Rate)
}

// SetVolume adjusts output volume directly, whatever the current Kind.
func (c *Coordinator) SetVolume(ctx context.Context, volume float64) error {
	c.mu.Lock()
	c.volume = volume
	c.mu.Unlock()
	return c.pipeline.SetVolume(ctx, volume)
}

// HandlePipelineEvent folds an asynchronous pipeline notification into the
// state machine, issuing whatever follow-up pipeline command the new state
// implies.
func (c *Coordinator) HandlePipelineEvent(ctx context.Context, ev pipeline.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Kind {
	case pipeline.EventURILoaded:
		return c.onURILoaded(ctx)
	case pipeline.EventBuffering:
		return c.onBuffering(ctx, ev.BufferingPercent)
	case pipeline.EventStateChanged:
		return c.onStateChanged(ctx, ev)
	case pipeline.EventIsLive:
		c.isLive = ev.IsLive
		return nil
	case pipeline.EventEndOfStream:
		c.currentURI = ""
		c.isLive = false
		c.state = Stopped()
		return nil
	default:
		return nil
	}
}

// onURILoaded resolves the target state requested by spec for a freshly
// loaded source: the pipeline comes up paused so the receiver can report
// duration/metadata before committing to playback, rather than always
// auto-playing.
func (c *Coordinator) onURILoaded(ctx context.Context) error {
	switch c.state.Kind {
	case KindChanging:
		target := c.state.Target
		if target == 0 {
			target = pipeline.StatePaused
		}
		c.state = State{Kind: KindRunning, Target: target}
		if err := c.applyPostLoad(ctx); err != nil {
			return err
		}
		return c.pipeline.SetState(ctx, target)
	case KindSeekAsync:
		seek := c.state.PendingSeek
		target := c.state.Target
		if target == 0 {
			target = pipeline.StatePaused
		}
		c.state = State{Kind: KindRunning, Target: target}
		if err := c.applyPostLoad(ctx); err != nil {
			return err
		}
		if seek != nil && seek.Rate != nil {
			c.speed = *seek.Rate
		}
		if err := c.applySeekRequest(ctx, seek); err != nil {
			return err
		}
		return c.pipeline.SetState(ctx, target)
	default:
		return nil
	}
}

func (c *Coordinator) onBuffering(ctx context.Context, percent int) error {
	switch c.state.Kind {
	case KindRunning:
		c.state = State{Kind: KindBuffering, Percent: percent, Target: c.state.Target}
		return nil
	case KindBuffering:
		c.state.Percent = percent
		if percent < 100 {
			return nil
		}
		target := c.state.Target
		seek := c.state.PendingSeek
		c.state = State{Kind: KindRunning, Target: target}
		if err := c.applySeekRequest(ctx, seek); err != nil {
			return err
		}
		return c.pipeline.SetState(ctx, target)
	default:
		return nil
	}
}

// onStateChanged reconciles the state machine against the pipeline's own
// reported transition (EventStateChanged), rather than assuming every
// pipeline command the coordinator issues completes synchronously.
func (c *Coordinator) onStateChanged(ctx context.Context, ev pipeline.Event) error {
	switch c.state.Kind {
	case KindStopped:
		// A StateChanged arriving with nothing loaded (e.g. a stray event
		// racing a just-issued Stop) settles directly into Running rather
		// than being dropped, matching the Stopped-arm of the transition
		// table for new=Paused/new=Playing.
		if ev.NewState == pipeline.StatePlaying || ev.NewState == pipeline.StatePaused {
			c.state = State{Kind: KindRunning, Target: ev.NewState}
		}
		return nil
	case KindChanging:
		if ev.NewState != c.state.Target {
			// Pipeline hasn't caught up to the requested target yet;
			// request it again rather than declaring the transition done.
			return c.pipeline.SetState(ctx, c.state.Target)
		}
		if c.state.PendingSeek != nil {
			seek := c.state.PendingSeek
			target := c.state.Target
			c.state = State{Kind: KindSeeking, Target: target}
			return c.applySeekRequest(ctx, seek)
		}
		c.state = State{Kind: KindRunning, Target: c.state.Target}
		return nil
	case KindSeekAsync:
		seek := c.state.PendingSeek
		target := c.state.Target
		c.state = State{Kind: KindSeeking, Target: target}
		return c.applySeekRequest(ctx, seek)
	case KindSeeking:
		if c.state.PendingSeek != nil {
			seek := c.state.PendingSeek
			c.state.PendingSeek = nil
			return c.applySeekRequest(ctx, seek)
		}
		target := c.state.Target
		if ev.NewState != target {
			c.state = State{Kind: KindChanging, Target: target}
			return c.pipeline.SetState(ctx, target)
		}
		c.state = State{Kind: KindRunning, Target: target}
		return nil
	case KindRunning:
		switch ev.NewState {
		case pipeline.StateIdle:
			c.currentURI = ""
			c.isLive = false
			c.state = Stopped()
		default:
			c.state = State{Kind: KindRunning, Target: ev.NewState}
		}
		return nil
	default: // KindBuffering: folded by onBuffering, not EventStateChanged.
		return nil
	}
}
