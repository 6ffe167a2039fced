package hub

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/alxayo/fcast-core/internal/coordinator"
	"github.com/alxayo/fcast-core/internal/pipeline"
	"github.com/alxayo/fcast-core/internal/session"
	"github.com/alxayo/fcast-core/internal/wire"
)

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func newTestHub() (*Hub, *pipeline.Noop) {
	p := pipeline.NewNoop()
	c := coordinator.New(p, zerolog.Nop())
	return New(c, zerolog.Nop()), p
}

func drain(t *testing.T, ch <-chan session.OutboundMessage, n int) []session.OutboundMessage {
	t.Helper()
	out := make([]session.OutboundMessage, 0, n)
	for i := 0; i < n; i++ {
		select {
		case m := <-ch:
			out = append(out, m)
		default:
			t.Fatalf("expected %d messages, got %d", n, i)
		}
	}
	return out
}

func TestRegisterAssignsDistinctMonotoneIDs(t *testing.T) {
	h, _ := newTestHub()
	id1, _ := h.Register()
	id2, _ := h.Register()
	require.NotEqual(t, id1, id2)
	require.Equal(t, 2, h.reg.count())
}

func TestUnregisterClosesOutboundChannel(t *testing.T) {
	h, _ := newTestHub()
	id, ch := h.Register()
	h.Unregister(id)
	_, open := <-ch
	require.False(t, open)
}

func TestDispatchPlayEmitsMediaItemStartAndForcedUpdate(t *testing.T) {
	h, _ := newTestHub()
	_, ch := h.Register()

	url := "http://example/a.mp4"
	op := session.Operation{Kind: session.OpPlay, Play: &wire.MediaItem{Container: "video/mp4", URL: &url}}
	require.NoError(t, h.Dispatch(context.Background(), op))

	msgs := drain(t, ch, 2)
	require.Equal(t, session.OutboundEvent, msgs[0].Kind)
	require.Equal(t, wire.EventMediaItemStart, msgs[0].Event.Event.Variant)
	require.Equal(t, session.OutboundTranslatablePlaybackUpdate, msgs[1].Kind)
}

func TestBroadcastDropsWhenSubscriberChannelIsFull(t *testing.T) {
	h, _ := newTestHub()
	id, _ := h.Register()
	entry := h.reg.entries[id]
	for i := 0; i < cap(entry.outbound); i++ {
		entry.outbound <- session.OutboundMessage{}
	}

	h.broadcast(session.OutboundMessage{Kind: session.OutboundEvent})
	require.Equal(t, uint64(1), h.DroppedBroadcasts())
}

func TestSetVolumeBroadcastsVolumeUpdate(t *testing.T) {
	h, _ := newTestHub()
	_, ch := h.Register()

	op := session.Operation{Kind: session.OpSetVolume, SetVolume: &wire.SetVolumeMessage{Volume: 0.3}}
	require.NoError(t, h.Dispatch(context.Background(), op))

	msgs := drain(t, ch, 1)
	require.Equal(t, session.OutboundTranslatableVolumeUpdate, msgs[0].Kind)
	require.InDelta(t, 0.3, msgs[0].VolumeUpdate.Volume, 0.0001)
}

func TestPlaylistContentExpandsAndPlaysOffset(t *testing.T) {
	h, _ := newTestHub()
	_, ch := h.Register()

	urlA, urlB := "http://example/a.mp4", "http://example/b.mp4"
	raw, err := toJSON(wire.PlaylistContent{
		Variant: "list",
		Items: []wire.MediaItem{
			{Container: "video/mp4", URL: &urlA},
			{Container: "video/mp4", URL: &urlB},
		},
		Offset: intPtr(1),
	})
	require.NoError(t, err)

	op := session.Operation{Kind: session.OpPlay, Play: &wire.MediaItem{Container: wire.PlaylistContainer, Content: &raw}}
	require.NoError(t, h.Dispatch(context.Background(), op))

	require.Equal(t, 1, h.pl.cursor)
	msgs := drain(t, ch, 2)
	require.Equal(t, &urlB, msgs[0].Event.Event.Item.URL)
}

func intPtr(v int) *int { return &v }

func TestSetPlaylistItemEmitsChangeNotStart(t *testing.T) {
	h, _ := newTestHub()
	_, ch := h.Register()

	urlA, urlB := "http://example/a.mp4", "http://example/b.mp4"
	raw, err := toJSON(wire.PlaylistContent{
		Variant: "list",
		Items: []wire.MediaItem{
			{Container: "video/mp4", URL: &urlA},
			{Container: "video/mp4", URL: &urlB},
		},
	})
	require.NoError(t, err)

	playOp := session.Operation{Kind: session.OpPlay, Play: &wire.MediaItem{Container: wire.PlaylistContainer, Content: &raw}}
	require.NoError(t, h.Dispatch(context.Background(), playOp))
	drain(t, ch, 2) // MediaItemStart + forced update for item 0

	selectOp := session.Operation{Kind: session.OpSetPlaylistItem, SetPlaylistItem: &wire.SetPlaylistItemMessage{ItemIndex: 1}}
	require.NoError(t, h.Dispatch(context.Background(), selectOp))

	msgs := drain(t, ch, 2)
	require.Equal(t, session.OutboundEvent, msgs[0].Kind)
	require.Equal(t, wire.EventMediaItemChange, msgs[0].Event.Event.Variant)
	require.Equal(t, &urlB, msgs[0].Event.Event.Item.URL)
}
