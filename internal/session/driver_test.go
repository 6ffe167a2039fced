package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alxayo/fcast-core/internal/errors"
	"github.com/alxayo/fcast-core/internal/wire"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestDriverTimeoutSequence(t *testing.T) {
	d := NewDriver()

	for i := 0; i < 2; i++ {
		action, err := d.Advance(DriverEvent{Kind: EventTick})
		require.NoError(t, err)
		require.Equal(t, ActionNone, action.Kind)
	}

	action, err := d.Advance(DriverEvent{Kind: EventTick})
	require.NoError(t, err)
	require.Equal(t, ActionPing, action.Kind, "ping fires at the third tick without traffic")

	for i := 0; i < 2; i++ {
		action, err := d.Advance(DriverEvent{Kind: EventTick})
		require.NoError(t, err)
		require.Equal(t, ActionNone, action.Kind)
	}

	action, err = d.Advance(DriverEvent{Kind: EventTick})
	require.NoError(t, err)
	require.Equal(t, ActionEndSession, action.Kind, "session ends after twice the ping threshold without a reply")
}

func TestDriverUninitToActive(t *testing.T) {
	d := NewDriver()

	body := mustJSON(t, wire.VersionMessage{Version: 2})
	action, err := d.Advance(DriverEvent{Kind: EventPacket, Opcode: wire.OpVersion, Body: body})
	require.NoError(t, err)
	require.Equal(t, ActionNone, action.Kind)

	version, active := d.Version()
	require.True(t, active)
	require.Equal(t, wire.V2, version)
}

func TestDriverUninitToActiveV3SendsInitial(t *testing.T) {
	d := NewDriver()

	body := mustJSON(t, wire.VersionMessage{Version: 3})
	action, err := d.Advance(DriverEvent{Kind: EventPacket, Opcode: wire.OpVersion, Body: body})
	require.NoError(t, err)
	require.Equal(t, ActionSendInitial, action.Kind)

	version, active := d.Version()
	require.True(t, active)
	require.Equal(t, wire.V3, version)
}

func TestDriverUninitLegacyOpcodeActivatesV1(t *testing.T) {
	d := NewDriver()

	action, err := d.Advance(DriverEvent{Kind: EventPacket, Opcode: wire.OpPause})
	require.NoError(t, err)
	require.Equal(t, ActionOp, action.Kind)
	require.Equal(t, OpPause, action.Op.Kind)

	version, active := d.Version()
	require.True(t, active)
	require.Equal(t, wire.V1, version)
}

func TestDriverInvalidJSONIsSchemaError(t *testing.T) {
	d := NewDriver()

	_, err := d.Advance(DriverEvent{Kind: EventPacket, Opcode: wire.OpPlay, Body: []byte("not json")})
	require.Error(t, err)
	var se *errors.SchemaError
	require.ErrorAs(t, err, &se)
}

func TestDriverIllegalOpcodeForVersion(t *testing.T) {
	d := NewDriver()
	body := mustJSON(t, wire.VersionMessage{Version: 1})
	_, err := d.Advance(DriverEvent{Kind: EventPacket, Opcode: wire.OpVersion, Body: body})
	require.NoError(t, err)

	_, err = d.Advance(DriverEvent{Kind: EventPacket, Opcode: wire.OpSetPlaylistItem, Body: mustJSON(t, wire.SetPlaylistItemMessage{ItemIndex: 1})})
	require.Error(t, err)
	var pe *errors.ProtocolError
	require.ErrorAs(t, err, &pe)
}

func TestDriverIllegalOpcodeInUninit(t *testing.T) {
	d := NewDriver()
	_, err := d.Advance(DriverEvent{Kind: EventPacket, Opcode: wire.OpSetPlaylistItem, Body: mustJSON(t, wire.SetPlaylistItemMessage{ItemIndex: 1})})
	require.Error(t, err)
	var pe *errors.ProtocolError
	require.ErrorAs(t, err, &pe)
}

func TestDriverKeySubscriptionFiltersByUpDownIndependently(t *testing.T) {
	d := NewDriver()
	body := mustJSON(t, wire.VersionMessage{Version: 3})
	_, err := d.Advance(DriverEvent{Kind: EventPacket, Opcode: wire.OpVersion, Body: body})
	require.NoError(t, err)

	sub := mustJSON(t, wire.SubscribeEventMessage{Event: wire.EventKeyDown, Keys: []string{"ArrowLeft"}})
	_, err = d.Advance(DriverEvent{Kind: EventPacket, Opcode: wire.OpSubscribeEvent, Body: sub})
	require.NoError(t, err)

	key := "ArrowLeft"
	keyUp := &OutboundMessage{Kind: OutboundEvent, Event: &wire.EventMessage{
		Event: wire.EventObject{Variant: wire.EventKeyUp, Key: &key},
	}}
	action, err := d.Advance(DriverEvent{Kind: EventToSender, ToSender: keyUp})
	require.NoError(t, err)
	require.Equal(t, ActionNone, action.Kind, "KeyUp must not forward when only KeyDown is subscribed")

	keyDown := &OutboundMessage{Kind: OutboundEvent, Event: &wire.EventMessage{
		Event: wire.EventObject{Variant: wire.EventKeyDown, Key: &key},
	}}
	action, err = d.Advance(DriverEvent{Kind: EventToSender, ToSender: keyDown})
	require.NoError(t, err)
	require.Equal(t, ActionForward, action.Kind, "KeyDown must forward once subscribed")
}

func TestDriverMediaItemEventRequiresSubscription(t *testing.T) {
	d := NewDriver()
	body := mustJSON(t, wire.VersionMessage{Version: 3})
	_, err := d.Advance(DriverEvent{Kind: EventPacket, Opcode: wire.OpVersion, Body: body})
	require.NoError(t, err)

	msg := &OutboundMessage{Kind: OutboundEvent, Event: &wire.EventMessage{
		Event: wire.EventObject{Variant: wire.EventMediaItemStart},
	}}
	action, err := d.Advance(DriverEvent{Kind: EventToSender, ToSender: msg})
	require.NoError(t, err)
	require.Equal(t, ActionNone, action.Kind)

	sub := mustJSON(t, wire.SubscribeEventMessage{Event: wire.EventMediaItemStart})
	_, err = d.Advance(DriverEvent{Kind: EventPacket, Opcode: wire.OpSubscribeEvent, Body: sub})
	require.NoError(t, err)

	action, err = d.Advance(DriverEvent{Kind: EventToSender, ToSender: msg})
	require.NoError(t, err)
	require.Equal(t, ActionForward, action.Kind)
}

func TestDriverTranslatablePlaybackUpdateIgnoredBeforeActivation(t *testing.T) {
	d := NewDriver()
	msg := &OutboundMessage{Kind: OutboundTranslatablePlaybackUpdate, PlaybackUpdate: &wire.PlaybackUpdateV3{State: wire.StatePlaying}}
	action, err := d.Advance(DriverEvent{Kind: EventToSender, ToSender: msg})
	require.NoError(t, err)
	require.Equal(t, ActionNone, action.Kind)
}
