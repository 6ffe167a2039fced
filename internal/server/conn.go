package server

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alxayo/fcast-core/internal/bufpool"
	"github.com/alxayo/fcast-core/internal/errors"
	"github.com/alxayo/fcast-core/internal/hub"
	"github.com/alxayo/fcast-core/internal/metrics"
	"github.com/alxayo/fcast-core/internal/session"
	"github.com/alxayo/fcast-core/internal/wire"
)

const tickInterval = time.Second

// inboundFrame is one decoded frame handed from the reader goroutine to the
// connection's main loop, or a terminal read error.
type inboundFrame struct {
	opcode wire.Opcode
	body   []byte
	err    error
}

// conn owns one TCP connection end to end: reading frames, driving the
// session state machine, dispatching operations to the hub, and writing
// whatever the driver's Action tells it to.
type conn struct {
	nc      net.Conn
	driver  *session.Driver
	hub     *hub.Hub
	id      hub.SessionID
	outbox  <-chan session.OutboundMessage
	log     zerolog.Logger
	appInfo InitialInfo
}

// InitialInfo names the receiver in the v3 Initial handshake.
type InitialInfo struct {
	DisplayName string
	AppName     string
	AppVersion  string
}

func serveConn(ctx context.Context, nc net.Conn, h *hub.Hub, info InitialInfo, log zerolog.Logger) {
	id, outbox := h.Register()
	connID := uuid.New().String()
	c := &conn{
		nc:      nc,
		driver:  session.NewDriver(),
		hub:     h,
		id:      id,
		outbox:  outbox,
		log:     log.With().Str("remote", nc.RemoteAddr().String()).Uint64("session_id", uint64(id)).Str("conn_id", connID).Logger(),
		appInfo: info,
	}
	defer func() {
		h.Unregister(id)
		_ = nc.Close()
	}()
	c.run(ctx)
}

func (c *conn) run(ctx context.Context) {
	frames := make(chan inboundFrame, 8)
	go c.readLoop(frames)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.advance(session.DriverEvent{Kind: session.EventTick}) {
				return
			}
		case f, ok := <-frames:
			if !ok {
				return
			}
			if f.err != nil {
				c.log.Debug().Err(f.err).Msg("connection read error")
				return
			}
			if !c.advance(session.DriverEvent{Kind: session.EventPacket, Opcode: f.opcode, Body: f.body}) {
				return
			}
		case msg, ok := <-c.outbox:
			if !ok {
				return
			}
			if !c.advance(session.DriverEvent{Kind: session.EventToSender, ToSender: &msg}) {
				return
			}
		}
	}
}

func (c *conn) readLoop(out chan<- inboundFrame) {
	defer close(out)
	for {
		header, body, err := wire.ReadFrame(c.nc)
		if err != nil {
			out <- inboundFrame{err: err}
			return
		}
		out <- inboundFrame{opcode: header.Opcode, body: body}
	}
}

// advance feeds one event through the driver and carries out its Action.
// It returns false when the connection should close.
func (c *conn) advance(ev session.DriverEvent) bool {
	action, err := c.driver.Advance(ev)
	if ev.Kind == session.EventPacket && ev.Body != nil {
		bufpool.Put(ev.Body)
	}
	if err != nil {
		if errors.IsSessionFatal(err) {
			c.log.Debug().Err(err).Msg("session-fatal error, closing connection")
			kind := "protocol"
			var fe *errors.FramingError
			var se *errors.SchemaError
			if stdErrors.As(err, &fe) {
				kind = "framing"
			} else if stdErrors.As(err, &se) {
				kind = "schema"
			}
			metrics.SessionErrorsTotal.WithLabelValues(kind).Inc()
			return false
		}
		c.log.Warn().Err(err).Msg("unexpected driver error")
		return false
	}
	return c.perform(action)
}

func (c *conn) perform(action session.Action) bool {
	switch action.Kind {
	case session.ActionNone:
		return true
	case session.ActionPing:
		return c.write(wire.OpPing, nil)
	case session.ActionPong:
		return c.write(wire.OpPong, nil)
	case session.ActionEndSession:
		metrics.HeartbeatTimeoutsTotal.Inc()
		return false
	case session.ActionSendInitial:
		return c.sendInitial()
	case session.ActionOp:
		metrics.OperationsTotal.WithLabelValues(opKindLabel(action.Op)).Inc()
		if err := c.hub.Dispatch(context.Background(), action.Op); err != nil {
			c.log.Warn().Err(err).Msg("operation dispatch failed")
		}
		return true
	case session.ActionForward:
		return c.forward(action)
	default:
		return true
	}
}

func (c *conn) sendInitial() bool {
	whep := false
	msg := wire.InitialReceiverMessage{
		DisplayName: &c.appInfo.DisplayName,
		AppName:     &c.appInfo.AppName,
		AppVersion:  &c.appInfo.AppVersion,
		ExperimentalCapabilities: &wire.ReceiverCapabilities{
			AV: &wire.AVCapabilities{
				Livestream: &wire.LivestreamCapabilities{WHEP: &whep},
			},
		},
	}
	body, err := json.Marshal(msg)
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to encode initial message")
		return false
	}
	return c.write(wire.OpInitial, body)
}

func (c *conn) forward(action session.Action) bool {
	msg := action.Msg
	if msg == nil {
		return true
	}
	switch msg.Kind {
	case session.OutboundTranslatablePlaybackUpdate:
		if action.SessionVersion == nil || msg.PlaybackUpdate == nil {
			return true
		}
		body, ok := wire.TranslatePlaybackUpdate(*msg.PlaybackUpdate, *action.SessionVersion)
		if !ok {
			return true
		}
		return c.write(wire.OpPlaybackUpdate, body)
	case session.OutboundTranslatableVolumeUpdate:
		if action.SessionVersion == nil || msg.VolumeUpdate == nil {
			return true
		}
		body, ok := wire.TranslateVolumeUpdate(*msg.VolumeUpdate, *action.SessionVersion)
		if !ok {
			return true
		}
		return c.write(wire.OpVolumeUpdate, body)
	case session.OutboundPlayUpdate:
		if msg.PlayUpdate == nil {
			return true
		}
		body, err := json.Marshal(msg.PlayUpdate)
		if err != nil {
			return true
		}
		return c.write(wire.OpPlayUpdate, body)
	case session.OutboundEvent:
		if msg.Event == nil {
			return true
		}
		body, err := json.Marshal(msg.Event)
		if err != nil {
			return true
		}
		return c.write(wire.OpEvent, body)
	case session.OutboundPlaybackError:
		if msg.PlaybackError == nil {
			return true
		}
		body, err := json.Marshal(msg.PlaybackError)
		if err != nil {
			return true
		}
		return c.write(wire.OpPlaybackError, body)
	default:
		return true
	}
}

func (c *conn) write(op wire.Opcode, body []byte) bool {
	_ = c.nc.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := wire.WriteFrame(c.nc, op, body); err != nil {
		c.log.Debug().Err(err).Msg("write failed")
		return false
	}
	return true
}

func opKindLabel(op session.Operation) string {
	switch op.Kind {
	case session.OpPause:
		return "pause"
	case session.OpResume:
		return "resume"
	case session.OpStop:
		return "stop"
	case session.OpPlay:
		return "play"
	case session.OpSeek:
		return "seek"
	case session.OpSetSpeed:
		return "set_speed"
	case session.OpSetPlaylistItem:
		return "set_playlist_item"
	case session.OpSetVolume:
		return "set_volume"
	default:
		return "unknown"
	}
}
