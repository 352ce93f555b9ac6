package signal

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/consiliumhq/signaling/internal/app"
	"github.com/consiliumhq/signaling/internal/core"
	"github.com/consiliumhq/signaling/internal/domain"
)

func (ctl *Controller) handleJoin(ctx context.Context, id core.ConnID, conn *WsSignalConn, data []byte) {
	p, err := decode[joinPayload](data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, app.ReasonBadPayload, "invalid join-room payload")
		return
	}

	if ctl.Limiter != nil {
		if peer, ok := ctl.Coord.Peers.Get(id); ok && !ctl.Limiter.Allow(peer.Identity.ID) {
			ctl.sendError(conn, app.ReasonRateLimited, "too many join attempts")
			return
		}
	}

	log.Info().Str("module", "signal").Str("conn", string(id)).Str("room", p.RoomID).Msg("join")
	ctl.Coord.Join(ctx, id, app.JoinRequest{
		Room: domain.RoomID(p.RoomID),
		Media: domain.MediaStatus{
			MicEnabled:   p.MicEnabled,
			VideoEnabled: p.VideoEnabled,
		},
	})
}
