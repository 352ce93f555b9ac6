package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/consiliumhq/signaling/internal/core"
	"github.com/consiliumhq/signaling/internal/domain"
)

// Peer binds an authenticated identity to its transport endpoint. The
// identity is resolved once on handshake and immutable afterwards.
type Peer struct {
	ID       core.ConnID
	Identity domain.Identity
	Conn     core.SignalConnection
	cancel   context.CancelFunc
}

func NewPeer(id core.ConnID, identity domain.Identity, conn core.SignalConnection, cancel context.CancelFunc) *Peer {
	return &Peer{ID: id, Identity: identity, Conn: conn, cancel: cancel}
}

// Shutdown tears the transport down and cancels the connection's pumps.
func (p *Peer) Shutdown() {
	if p.cancel != nil {
		p.cancel()
	}
	p.Conn.Close()
}

// PeerTable tracks every live authenticated connection, joined or not.
type PeerTable struct {
	mu    sync.RWMutex
	peers map[core.ConnID]*Peer
}

func NewPeerTable() *PeerTable {
	return &PeerTable{peers: make(map[core.ConnID]*Peer)}
}

func (t *PeerTable) Bind(p *Peer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peers[p.ID] = p
	log.Info().Str("module", "app.peers").Str("conn", string(p.ID)).
		Str("participant", string(p.Identity.ID)).Msg("bound peer")
}

func (t *PeerTable) Get(id core.ConnID) (*Peer, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.peers[id]
	return p, ok
}

func (t *PeerTable) Unbind(id core.ConnID) (*Peer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.peers[id]
	if !ok {
		return nil, false
	}
	delete(t.peers, id)
	log.Info().Str("module", "app.peers").Str("conn", string(id)).Msg("unbound peer")
	return p, true
}
