// Package hub implements the application hub: the single owner of playback
// state shared across every connected session. It dispatches decoded
// Operations to the coordinator, folds pipeline events into broadcasts, and
// fans PlaybackUpdate/VolumeUpdate/Event messages out to every session's
// driver for per-session filtering and version translation.
package hub

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/alxayo/fcast-core/internal/coordinator"
	"github.com/alxayo/fcast-core/internal/pipeline"
	"github.com/alxayo/fcast-core/internal/session"
	"github.com/alxayo/fcast-core/internal/wire"
)

// playbackUpdateDebounce bounds how often an unforced PlaybackUpdate is
// broadcast; a Seek, Play, or state transition always sets force=true and
// bypasses it.
const playbackUpdateDebounce = 700 * time.Millisecond

// Hub owns the registry of connected sessions and the single Coordinator
// backing them. Exactly one Hub exists per receiver process.
type Hub struct {
	reg   *registry
	coord *coordinator.Coordinator
	pl    *playlist
	log   zerolog.Logger

	currentMediaItemID  uint64 // monotone, bumped on every item loaded
	firstItemOfSequence bool   // true until the first item of the current Play has fired its event
	updateGate          rate.Sometimes
	drops               atomic.Uint64
	showDurationTimer   *time.Timer
}

func New(coord *coordinator.Coordinator, log zerolog.Logger) *Hub {
	return &Hub{
		reg:        newRegistry(),
		coord:      coord,
		pl:         newPlaylist(),
		log:        log,
		updateGate: rate.Sometimes{Interval: playbackUpdateDebounce},
	}
}

// Register enrolls a new session and returns its id plus the channel its
// driver should forward outbound broadcasts from.
func (h *Hub) Register() (SessionID, <-chan session.OutboundMessage) {
	id, ch := h.reg.register()
	h.log.Debug().Uint64("session_id", uint64(id)).Int("sessions", h.reg.count()).Msg("session registered")
	return id, ch
}

func (h *Hub) Unregister(id SessionID) {
	h.reg.unregister(id)
	h.log.Debug().Uint64("session_id", uint64(id)).Int("sessions", h.reg.count()).Msg("session unregistered")
}

// DroppedBroadcasts reports the cumulative count of broadcasts dropped
// because a session's outbound channel was full.
func (h *Hub) DroppedBroadcasts() uint64 { return h.drops.Load() }

// broadcast fans msg out to every registered session. A session whose
// outbound channel is full is skipped rather than blocking every other
// session on one slow peer, mirroring the registry's snapshot-then-send
// broadcast pattern.
func (h *Hub) broadcast(msg session.OutboundMessage) {
	for _, entry := range h.reg.snapshot() {
		select {
		case entry.outbound <- msg:
		default:
			h.drops.Add(1)
			h.log.Debug().Uint64("session_id", uint64(entry.id)).Msg("dropped broadcast, slow subscriber")
		}
	}
}

// Dispatch applies a decoded Operation to the coordinator and playlist,
// then emits whatever follow-up broadcasts the operation requires.
func (h *Hub) Dispatch(ctx context.Context, op session.Operation) error {
	switch op.Kind {
	case session.OpPlay:
		return h.dispatchPlay(ctx, *op.Play)
	case session.OpPause:
		if err := h.coord.Pause(ctx); err != nil {
			return err
		}
		h.publishPlaybackUpdate(ctx, true)
		return nil
	case session.OpResume:
		if err := h.coord.Resume(ctx); err != nil {
			return err
		}
		h.publishPlaybackUpdate(ctx, true)
		return nil
	case session.OpStop:
		if err := h.coord.Stop(ctx); err != nil {
			return err
		}
		h.emitMediaItemEnd()
		h.publishPlaybackUpdate(ctx, true)
		return nil
	case session.OpSeek:
		if err := h.coord.Seek(ctx, op.Seek.Time); err != nil {
			return err
		}
		h.publishPlaybackUpdate(ctx, true)
		return nil
	case session.OpSetSpeed:
		if err := h.coord.SetSpeed(ctx, op.SetSpeed.Speed); err != nil {
			return err
		}
		h.publishPlaybackUpdate(ctx, true)
		return nil
	case session.OpSetVolume:
		if err := h.coord.SetVolume(ctx, op.SetVolume.Volume); err != nil {
			return err
		}
		h.publishVolumeUpdate(op.SetVolume.Volume)
		return nil
	case session.OpSetPlaylistItem:
		item, ok, changed := h.pl.selectIndex(int(op.SetPlaylistItem.ItemIndex))
		if !ok {
			h.log.Warn().Uint64("item_index", op.SetPlaylistItem.ItemIndex).Msg("ignoring SetPlaylistItem: index out of range")
			return nil
		}
		if !changed {
			return nil
		}
		return h.playItem(ctx, item)
	default:
		return nil
	}
}

func (h *Hub) dispatchPlay(ctx context.Context, item wire.MediaItem) error {
	h.firstItemOfSequence = true
	if item.Container == wire.PlaylistContainer && item.Content != nil {
		content, ok := decodePlaylistContent(*item.Content)
		if ok {
			offset := 0
			if content.Offset != nil {
				offset = *content.Offset
			}
			h.pl.setItems(content.Items, offset)
			first, ok := h.pl.current()
			if !ok {
				return nil
			}
			return h.playItem(ctx, first)
		}
	}
	h.pl.setSingle(item)
	return h.playItem(ctx, item)
}

func (h *Hub) playItem(ctx context.Context, item wire.MediaItem) error {
	url := ""
	if item.URL != nil {
		url = *item.URL
	}
	if err := h.coord.PlayWithDeferred(ctx, url, item.Headers, item.Volume, item.Speed); err != nil {
		return err
	}
	if item.Time != nil && *item.Time > 0 {
		// Queued as a pending seek; the coordinator issues it once the
		// source reports loaded.
		if err := h.coord.Seek(ctx, *item.Time); err != nil {
			return err
		}
	}
	id := atomic.AddUint64(&h.currentMediaItemID, 1)
	first := h.firstItemOfSequence
	h.firstItemOfSequence = false
	if first {
		h.emitMediaItemStart(item, id)
	} else {
		h.emitMediaItemChange(item, id)
	}
	h.armShowDurationTimer(item, id)
	h.publishPlaybackUpdate(ctx, true)
	return nil
}

// Advance moves the playlist cursor forward and plays the next item, if
// any; used when the pipeline reports end-of-stream on a multi-item queue.
func (h *Hub) Advance(ctx context.Context) error {
	item, ok := h.pl.advance()
	if !ok {
		h.log.Info().Msg("playlist ended")
		if err := h.coord.Stop(ctx); err != nil {
			return err
		}
		h.emitMediaItemEnd()
		return nil
	}
	return h.playItem(ctx, item)
}

// HandlePipelineEvent folds a pipeline notification into the coordinator
// and, for the events that change what peers should see, broadcasts the
// result.
func (h *Hub) HandlePipelineEvent(ctx context.Context, ev pipeline.Event) error {
	if err := h.coord.HandlePipelineEvent(ctx, ev); err != nil {
		return err
	}
	switch ev.Kind {
	case pipeline.EventEndOfStream:
		return h.Advance(ctx)
	case pipeline.EventStateChanged:
		h.publishPlaybackUpdate(ctx, true)
		return nil
	case pipeline.EventDurationChanged, pipeline.EventBuffering:
		h.publishPlaybackUpdate(ctx, false)
		return nil
	case pipeline.EventVolumeChanged:
		if ev.Volume != nil {
			h.publishVolumeUpdate(*ev.Volume)
		}
		return nil
	case pipeline.EventError:
		return h.onPlaybackError(ctx, ev.Err)
	default:
		return nil
	}
}

// onPlaybackError implements the pipeline-error policy: an Error against
// the currently loaded URI stops the coordinator and tells every peer,
// rather than leaving sessions watching a stalled player with no
// explanation. A stray error with nothing loaded is logged only.
func (h *Hub) onPlaybackError(ctx context.Context, cause error) error {
	h.log.Warn().Err(cause).Msg("pipeline reported error")
	if h.coord.CurrentURI() == "" {
		return nil
	}
	message := "playback error"
	if cause != nil {
		message = cause.Error()
	}
	if err := h.coord.Stop(ctx); err != nil {
		return err
	}
	h.broadcastPlaybackError(message)
	h.publishPlaybackUpdate(ctx, true)
	return nil
}

func (h *Hub) broadcastPlaybackError(message string) {
	h.broadcast(session.OutboundMessage{Kind: session.OutboundPlaybackError, PlaybackError: &wire.PlaybackErrorMessage{Message: message}})
}

func (h *Hub) publishPlaybackUpdate(ctx context.Context, force bool) {
	update := h.buildPlaybackUpdate(ctx)
	if force {
		h.broadcastPlaybackUpdate(update)
		return
	}
	h.updateGate.Do(func() { h.broadcastPlaybackUpdate(update) })
}

func (h *Hub) buildPlaybackUpdate(ctx context.Context) wire.PlaybackUpdateV3 {
	st := h.coord.State()
	position, _ := h.coord.Position(ctx)
	duration, _ := h.coord.Duration(ctx)
	speed := h.coord.Speed()

	update := wire.PlaybackUpdateV3{
		GenerationTime: uint64(time.Now().UnixMilli()),
		Time:           &position,
		Duration:       &duration,
		Speed:          &speed,
		State:          playbackStateForWire(st),
	}
	if h.pl.cursor >= 0 {
		idx := uint64(h.pl.cursor)
		update.ItemIndex = &idx
	}
	return update
}

func playbackStateForWire(st coordinator.State) wire.PlaybackState {
	switch st.Kind {
	case coordinator.KindStopped:
		return wire.StateIdle
	case coordinator.KindBuffering:
		return wire.StateBuffering
	case coordinator.KindRunning:
		if st.Target == pipeline.StatePlaying {
			return wire.StatePlaying
		}
		return wire.StatePaused
	default:
		return wire.StateBuffering
	}
}

func (h *Hub) broadcastPlaybackUpdate(update wire.PlaybackUpdateV3) {
	u := update
	h.broadcast(session.OutboundMessage{Kind: session.OutboundTranslatablePlaybackUpdate, PlaybackUpdate: &u})
}

func (h *Hub) publishVolumeUpdate(volume float64) {
	update := wire.VolumeUpdateV3{GenerationTime: uint64(time.Now().UnixMilli()), Volume: volume}
	h.broadcast(session.OutboundMessage{Kind: session.OutboundTranslatableVolumeUpdate, VolumeUpdate: &update})
}

func (h *Hub) emitMediaItemStart(item wire.MediaItem, generation uint64) {
	h.broadcast(session.OutboundMessage{Kind: session.OutboundEvent, Event: &wire.EventMessage{
		GenerationTime: generation,
		Event:          wire.EventObject{Variant: wire.EventMediaItemStart, Item: &item},
	}})
}

func (h *Hub) emitMediaItemChange(item wire.MediaItem, generation uint64) {
	h.broadcast(session.OutboundMessage{Kind: session.OutboundEvent, Event: &wire.EventMessage{
		GenerationTime: generation,
		Event:          wire.EventObject{Variant: wire.EventMediaItemChange, Item: &item},
	}})
}

// armShowDurationTimer starts item.ShowDuration (if set) counting down
// end-of-item exactly like an end-of-stream pipeline notification. id
// guards against a since-superseded item's timer firing late: if the
// current item has moved on by the time the timer fires, it is a no-op.
func (h *Hub) armShowDurationTimer(item wire.MediaItem, id uint64) {
	if h.showDurationTimer != nil {
		h.showDurationTimer.Stop()
		h.showDurationTimer = nil
	}
	if item.ShowDuration == nil || *item.ShowDuration <= 0 {
		return
	}
	d := time.Duration(*item.ShowDuration * float64(time.Second))
	h.showDurationTimer = time.AfterFunc(d, func() {
		if atomic.LoadUint64(&h.currentMediaItemID) != id {
			return
		}
		if err := h.Advance(context.Background()); err != nil {
			h.log.Warn().Err(err).Msg("show_duration advance failed")
		}
	})
}

func (h *Hub) emitMediaItemEnd() {
	h.broadcast(session.OutboundMessage{Kind: session.OutboundEvent, Event: &wire.EventMessage{
		GenerationTime: atomic.LoadUint64(&h.currentMediaItemID),
		Event:          wire.EventObject{Variant: wire.EventMediaItemEnd},
	}})
}

func decodePlaylistContent(raw string) (wire.PlaylistContent, bool) {
	var content wire.PlaylistContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return wire.PlaylistContent{}, false
	}
	return content, true
}
