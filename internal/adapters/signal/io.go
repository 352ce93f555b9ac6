package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/consiliumhq/signaling/internal/app"
	"github.com/consiliumhq/signaling/internal/core"
)

// writePump is the sole writer on the websocket. It owns the socket's
// lifetime: Close only closes the send channel, and the pump keeps writing
// until the channel is drained, so frames enqueued right before a teardown
// still reach the client. It also emits keepalive pings.
func (ctl *Controller) writePump(c *WsSignalConn) {
	period := ctl.PingPeriod
	if period <= 0 {
		period = defaultPingPeriod
	}
	ticker := time.NewTicker(period)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				log.Info().Str("module", "signal").Msg("writePump drained, closing socket")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Info().Err(err).Str("module", "signal").Msg("writePump ping failed")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, id core.ConnID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(id)).Msg("readPump closing")
		ctl.Coord.Disconnect(id)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", string(id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("readPump read error")
				return
			}
			ctl.handleEvent(ctx, id, c, data)
		}
	}
}

func (ctl *Controller) handleEvent(ctx context.Context, id core.ConnID, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "join-room":
		ctl.handleJoin(ctx, id, c, data)
	case "sending-offer":
		ctl.handleOffer(id, c, data)
	case "sending-answer":
		ctl.handleAnswer(id, c, data)
	case "sending-ice-candidate":
		ctl.handleCandidate(id, c, data)
	case "media-status-change":
		ctl.handleMediaStatus(id, c, data)
	case "send-chat-message":
		ctl.handleChat(ctx, id, c, data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (ctl *Controller) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(core.Frame(b))
}

func (ctl *Controller) sendError(c *WsSignalConn, reason, message string) {
	ctl.sendJSON(c, app.ErrorEvent{Type: app.EventError, Reason: reason, Message: message})
}
