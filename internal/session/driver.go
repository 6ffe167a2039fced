package session

import (
	"github.com/alxayo/fcast-core/internal/errors"
	"github.com/alxayo/fcast-core/internal/wire"
)

// ticksBeforePing is the heartbeat granularity in 1-second ticks: after this
// many ticks without an inbound packet, a Ping is sent; after twice this
// many ticks total, the session is ended.
const ticksBeforePing = 3

// ActionKind discriminates the Action union returned by Driver.Advance.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionPing
	ActionPong
	ActionEndSession
	ActionOp
	ActionSendInitial
	ActionForward
)

// Action tells the caller what to do in response to a DriverEvent: write a
// control frame, dispatch an Operation to the hub, or forward a filtered
// broadcast to the peer.
type Action struct {
	Kind           ActionKind
	Op             Operation
	SessionVersion *wire.Version // populated for ActionForward of a translatable message
	Msg            *OutboundMessage
}

// DriverEventKind discriminates the DriverEvent union.
type DriverEventKind int

const (
	EventTick DriverEventKind = iota
	EventPacket
	EventToSender
)

// DriverEvent is one input to the session driver's state machine.
type DriverEvent struct {
	Kind     DriverEventKind
	Opcode   wire.Opcode
	Body     []byte
	ToSender *OutboundMessage
}

type stateVariantKind int

const (
	variantWaitingForVersion stateVariantKind = iota
	variantActive
)

// Driver is the per-session state machine described by spec.md §4.2. It is
// pure and synchronous: all suspension happens in the caller (socket I/O,
// channel receives), never inside Advance.
type Driver struct {
	time               uint32
	lastPacketReceived uint32
	waitingForPong     bool
	variantKind        stateVariantKind
	version            wire.Version
	mediaItemEvents    MediaItemEvents
	keyEventsDown      KeyEvents
	keyEventsUp        KeyEvents
}

// NewDriver returns a fresh driver in WaitingForVersion.
func NewDriver() *Driver {
	return &Driver{variantKind: variantWaitingForVersion}
}

// Version returns the negotiated version and whether negotiation has
// completed.
func (d *Driver) Version() (wire.Version, bool) {
	if d.variantKind == variantActive {
		return d.version, true
	}
	return 0, false
}

// Advance processes one event and returns the resulting Action.
func (d *Driver) Advance(ev DriverEvent) (Action, error) {
	switch ev.Kind {
	case EventTick:
		return d.advanceTick(), nil
	case EventPacket:
		d.lastPacketReceived = d.time
		d.waitingForPong = false
		if d.variantKind == variantWaitingForVersion {
			return d.handlePacketUninit(ev.Opcode, ev.Body)
		}
		switch d.version {
		case wire.V1:
			return d.handlePacketV1(ev.Opcode, ev.Body)
		case wire.V2:
			return d.handlePacketV2(ev.Opcode, ev.Body)
		case wire.V3:
			return d.handlePacketV3(ev.Opcode, ev.Body)
		}
		return Action{}, errors.NewProtocolError("advance.unknown_version", nil)
	case EventToSender:
		return d.advanceToSender(ev.ToSender), nil
	}
	return Action{}, errors.NewProtocolError("advance.unknown_event", nil)
}

func (d *Driver) advanceTick() Action {
	d.time++
	diff := d.time - d.lastPacketReceived
	if diff < ticksBeforePing {
		return Action{Kind: ActionNone}
	}
	if d.waitingForPong && diff >= ticksBeforePing*2 {
		return Action{Kind: ActionEndSession}
	}
	if !d.waitingForPong {
		d.waitingForPong = true
		return Action{Kind: ActionPing}
	}
	return Action{Kind: ActionNone}
}

func (d *Driver) handlePacketUninit(op wire.Opcode, body []byte) (Action, error) {
	switch op {
	case wire.OpNone, wire.OpPlay, wire.OpPause, wire.OpResume, wire.OpStop, wire.OpSeek, wire.OpSetVolume:
		d.variantKind = variantActive
		d.version = wire.V1
		return d.handlePacketV1(op, body)
	case wire.OpVersion:
		pkt, err := wire.DecodePacket(op, body)
		if err != nil {
			return Action{}, err
		}
		version, ok := wire.VersionFromInt(pkt.Version.Version)
		if !ok {
			return Action{}, errors.NewProtocolError("handle_packet_uninit.illegal_version", nil)
		}
		d.variantKind = variantActive
		d.version = version
		if version == wire.V3 {
			return Action{Kind: ActionSendInitial}, nil
		}
		return Action{Kind: ActionNone}, nil
	default:
		return Action{}, errors.NewProtocolError("handle_packet_uninit.illegal_opcode", nil)
	}
}

// handlePacketCommon handles opcodes valid at every version. ok is false
// when op isn't one of the common opcodes, signaling the caller to fall
// through to version-specific handling.
func (d *Driver) handlePacketCommon(op wire.Opcode, body []byte) (Action, error, bool) {
	switch op {
	case wire.OpPlay:
		pkt, err := wire.DecodePacket(op, body)
		if err != nil {
			return Action{}, err, true
		}
		return Action{Kind: ActionOp, Op: Operation{Kind: OpPlay, Play: pkt.Play}}, nil, true
	case wire.OpPause:
		return Action{Kind: ActionOp, Op: Operation{Kind: OpPause}}, nil, true
	case wire.OpResume:
		return Action{Kind: ActionOp, Op: Operation{Kind: OpResume}}, nil, true
	case wire.OpStop:
		return Action{Kind: ActionOp, Op: Operation{Kind: OpStop}}, nil, true
	case wire.OpSeek:
		pkt, err := wire.DecodePacket(op, body)
		if err != nil {
			return Action{}, err, true
		}
		return Action{Kind: ActionOp, Op: Operation{Kind: OpSeek, Seek: pkt.Seek}}, nil, true
	case wire.OpSetVolume:
		pkt, err := wire.DecodePacket(op, body)
		if err != nil {
			return Action{}, err, true
		}
		return Action{Kind: ActionOp, Op: Operation{Kind: OpSetVolume, SetVolume: pkt.SetVolume}}, nil, true
	case wire.OpPlaybackUpdate, wire.OpVolumeUpdate, wire.OpPlayUpdate, wire.OpPlaybackError:
		// A peer echoing a broadcast-only opcode back at us is ignored.
		return Action{Kind: ActionNone}, nil, true
	default:
		return Action{}, nil, false
	}
}

func (d *Driver) handlePacketV1(op wire.Opcode, body []byte) (Action, error) {
	if action, err, handled := d.handlePacketCommon(op, body); handled {
		return action, err
	}
	return Action{}, errors.NewProtocolError("handle_packet_v1.illegal_opcode", nil)
}

func (d *Driver) handlePacketV2(op wire.Opcode, body []byte) (Action, error) {
	if action, err, handled := d.handlePacketCommon(op, body); handled {
		return action, err
	}
	switch op {
	case wire.OpPing:
		return Action{Kind: ActionPong}, nil
	case wire.OpPong:
		return Action{Kind: ActionNone}, nil
	case wire.OpSetSpeed:
		pkt, err := wire.DecodePacket(op, body)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: ActionOp, Op: Operation{Kind: OpSetSpeed, SetSpeed: pkt.SetSpeed}}, nil
	default:
		return Action{}, errors.NewProtocolError("handle_packet_v2.illegal_opcode", nil)
	}
}

func (d *Driver) handlePacketV3(op wire.Opcode, body []byte) (Action, error) {
	if action, err, handled := d.handlePacketCommon(op, body); handled {
		return action, err
	}
	switch op {
	case wire.OpPing:
		return Action{Kind: ActionPong}, nil
	case wire.OpPong:
		return Action{Kind: ActionNone}, nil
	case wire.OpSetSpeed:
		pkt, err := wire.DecodePacket(op, body)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: ActionOp, Op: Operation{Kind: OpSetSpeed, SetSpeed: pkt.SetSpeed}}, nil
	case wire.OpInitial:
		if _, err := wire.DecodePacket(op, body); err != nil {
			return Action{}, err
		}
		return Action{Kind: ActionNone}, nil
	case wire.OpSetPlaylistItem:
		pkt, err := wire.DecodePacket(op, body)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: ActionOp, Op: Operation{Kind: OpSetPlaylistItem, SetPlaylistItem: pkt.SetPlaylistItem}}, nil
	case wire.OpSubscribeEvent:
		pkt, err := wire.DecodePacket(op, body)
		if err != nil {
			return Action{}, err
		}
		d.applySubscription(*pkt.Subscribe, true)
		return Action{Kind: ActionNone}, nil
	case wire.OpUnsubscribeEvent:
		pkt, err := wire.DecodePacket(op, body)
		if err != nil {
			return Action{}, err
		}
		d.applySubscription(*pkt.Unsubscribe, false)
		return Action{Kind: ActionNone}, nil
	default:
		return Action{}, errors.NewProtocolError("handle_packet_v3.illegal_opcode", nil)
	}
}

func (d *Driver) applySubscription(msg wire.SubscribeEventMessage, subscribe bool) {
	switch msg.Event {
	case wire.EventMediaItemStart:
		d.setMediaItemFlag(MediaItemStart, subscribe)
	case wire.EventMediaItemEnd:
		d.setMediaItemFlag(MediaItemEnd, subscribe)
	case wire.SubscribeMediaItemChanged:
		d.setMediaItemFlag(MediaItemChanged, subscribe)
	case wire.EventKeyDown:
		flags := keyFlagsFromNames(msg.Keys)
		if subscribe {
			d.keyEventsDown |= flags
		} else {
			d.keyEventsDown &^= flags
		}
	case wire.EventKeyUp:
		flags := keyFlagsFromNames(msg.Keys)
		if subscribe {
			d.keyEventsUp |= flags
		} else {
			d.keyEventsUp &^= flags
		}
	}
}

func (d *Driver) setMediaItemFlag(flag MediaItemEvents, subscribe bool) {
	if subscribe {
		d.mediaItemEvents |= flag
	} else {
		d.mediaItemEvents &^= flag
	}
}

func (d *Driver) advanceToSender(msg *OutboundMessage) Action {
	version, active := d.Version()

	switch msg.Kind {
	case OutboundTranslatablePlaybackUpdate, OutboundTranslatableVolumeUpdate:
		if !active {
			return Action{Kind: ActionNone}
		}
		v := version
		return Action{Kind: ActionForward, SessionVersion: &v, Msg: msg}
	case OutboundEvent:
		return d.filterEvent(msg, version, active)
	case OutboundPlayUpdate:
		if active && version == wire.V3 {
			return Action{Kind: ActionForward, Msg: msg}
		}
		return Action{Kind: ActionNone}
	case OutboundPlaybackError:
		// PlaybackError is valid at every negotiated version, unlike
		// PlayUpdate/Event which are v3-only.
		if !active {
			return Action{Kind: ActionNone}
		}
		return Action{Kind: ActionForward, Msg: msg}
	default:
		return Action{Kind: ActionNone}
	}
}

func (d *Driver) filterEvent(msg *OutboundMessage, version wire.Version, active bool) Action {
	if msg.Event == nil {
		return Action{Kind: ActionNone}
	}
	obj := msg.Event.Event
	switch obj.Variant {
	case wire.EventMediaItemStart, wire.EventMediaItemEnd, wire.EventMediaItemChange:
		flag, ok := mediaItemFlagFromVariant(obj.Variant)
		if !ok || !d.mediaItemEvents.contains(flag) {
			return Action{Kind: ActionNone}
		}
		var v *wire.Version
		if active {
			vv := version
			v = &vv
		}
		return Action{Kind: ActionForward, SessionVersion: v, Msg: msg}
	case wire.EventKeyDown, wire.EventKeyUp:
		if obj.Key == nil {
			return Action{Kind: ActionNone}
		}
		flag := keyFlagFromName(*obj.Key)
		if flag == 0 {
			return Action{Kind: ActionNone}
		}
		// Fixed: the KeyUp branch consults the up bitset, not the down
		// bitset.
		var subscribed bool
		if obj.Variant == wire.EventKeyDown {
			subscribed = d.keyEventsDown.contains(flag)
		} else {
			subscribed = d.keyEventsUp.contains(flag)
		}
		if !subscribed {
			return Action{Kind: ActionNone}
		}
		var v *wire.Version
		if active {
			vv := version
			v = &vv
		}
		return Action{Kind: ActionForward, SessionVersion: v, Msg: msg}
	default:
		return Action{Kind: ActionNone}
	}
}
