package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/consiliumhq/signaling/internal/app"
	"github.com/consiliumhq/signaling/internal/core"
)

// The relay handlers never interpret the negotiation payloads; they only
// require a well-formed envelope with a target connection id.

func (ctl *Controller) handleOffer(id core.ConnID, conn *WsSignalConn, data []byte) {
	p, err := decode[offerPayload](data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad offer payload")
		ctl.sendError(conn, app.ReasonBadPayload, "invalid sending-offer payload")
		return
	}
	ctl.Coord.RelayOffer(id, core.ConnID(p.Target), p.Description)
}

func (ctl *Controller) handleAnswer(id core.ConnID, conn *WsSignalConn, data []byte) {
	p, err := decode[offerPayload](data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad answer payload")
		ctl.sendError(conn, app.ReasonBadPayload, "invalid sending-answer payload")
		return
	}
	ctl.Coord.RelayAnswer(id, core.ConnID(p.Target), p.Description)
}

func (ctl *Controller) handleCandidate(id core.ConnID, conn *WsSignalConn, data []byte) {
	p, err := decode[candidatePayload](data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		ctl.sendError(conn, app.ReasonBadPayload, "invalid sending-ice-candidate payload")
		return
	}
	ctl.Coord.RelayCandidate(id, core.ConnID(p.Target), p.Candidate)
}
