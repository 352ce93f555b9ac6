package signal

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/consiliumhq/signaling/internal/app"
	"github.com/consiliumhq/signaling/internal/core"
	"github.com/consiliumhq/signaling/internal/domain"
)

func (ctl *Controller) handleChat(ctx context.Context, id core.ConnID, conn *WsSignalConn, data []byte) {
	p, err := decode[chatPayload](data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad chat payload")
		ctl.sendError(conn, app.ReasonBadPayload, "invalid send-chat-message payload")
		return
	}
	ctl.Coord.SendChat(ctx, id, domain.RoomID(p.RoomID), p.MeetingID, p.Content)
}
