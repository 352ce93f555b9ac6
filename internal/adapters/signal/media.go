package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/consiliumhq/signaling/internal/app"
	"github.com/consiliumhq/signaling/internal/core"
	"github.com/consiliumhq/signaling/internal/domain"
)

func (ctl *Controller) handleMediaStatus(id core.ConnID, conn *WsSignalConn, data []byte) {
	p, err := decode[mediaStatusPayload](data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad media payload")
		ctl.sendError(conn, app.ReasonBadPayload, "invalid media-status-change payload")
		return
	}
	ctl.Coord.UpdateMedia(id, domain.MediaStatus{
		MicEnabled:   p.MicEnabled,
		VideoEnabled: p.VideoEnabled,
	})
}
