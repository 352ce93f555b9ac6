package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/consiliumhq/signaling/internal/domain"
)

// occupantKey is the dedup key: one live connection per (room, participant).
// Keying by participant rather than connection is what detects the same
// person rejoining over a distinct physical connection.
type occupantKey struct {
	Room        domain.RoomID
	Participant domain.ParticipantID
}

// RoomInfo is a read-only view of one registry room for APIs.
type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"memberCount"`
}

// Registry is the in-memory room membership state. All mutations are atomic
// under a single mutex; callers must never hold external I/O while inside.
//
// Invariants it maintains:
//   - a connection belongs to at most one room;
//   - at most one connection per (room, participant);
//   - a room entry exists iff its member set is non-empty;
//   - media status exists only for registered connections.
type Registry struct {
	mu        sync.RWMutex
	conns     map[ConnID]occupantKey
	rooms     map[domain.RoomID]map[ConnID]struct{}
	occupants map[occupantKey]ConnID
	media     map[ConnID]domain.MediaStatus
}

func NewRegistry() *Registry {
	return &Registry{
		conns:     make(map[ConnID]occupantKey),
		rooms:     make(map[domain.RoomID]map[ConnID]struct{}),
		occupants: make(map[occupantKey]ConnID),
		media:     make(map[ConnID]domain.MediaStatus),
	}
}

// Add registers the connection as a member of the room. If another connection
// already holds the same (room, participant) slot, that connection is removed
// from the registry in the same atomic step and returned so the caller can
// notify and close it. A connection already registered elsewhere is detached
// from its previous room first.
func (r *Registry) Add(id ConnID, room domain.RoomID, pid domain.ParticipantID, media domain.MediaStatus) (evicted ConnID, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, registered := r.conns[id]; registered {
		r.detachLocked(id, prev)
	}

	key := occupantKey{Room: room, Participant: pid}
	if holder, taken := r.occupants[key]; taken && holder != id {
		r.detachLocked(holder, key)
		evicted, ok = holder, true
	}

	members, exists := r.rooms[room]
	if !exists {
		members = make(map[ConnID]struct{})
		r.rooms[room] = members
	}
	members[id] = struct{}{}
	r.conns[id] = key
	r.occupants[key] = id
	r.media[id] = media

	log.Debug().Str("module", "core.registry").Str("conn", string(id)).
		Str("room", string(room)).Str("participant", string(pid)).
		Bool("evicted_prior", ok).Msg("member added")
	return evicted, ok
}

// Remove deletes the connection's membership and media status. The room entry
// is pruned in the same step when its member set becomes empty. Safe to call
// for unknown connections; duplicate disconnect signals are a no-op.
func (r *Registry) Remove(id ConnID) (room domain.RoomID, pid domain.ParticipantID, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, registered := r.conns[id]
	if !registered {
		return "", "", false
	}
	r.detachLocked(id, key)
	log.Debug().Str("module", "core.registry").Str("conn", string(id)).
		Str("room", string(key.Room)).Msg("member removed")
	return key.Room, key.Participant, true
}

// detachLocked removes every trace of the connection. Caller holds r.mu.
func (r *Registry) detachLocked(id ConnID, key occupantKey) {
	delete(r.conns, id)
	delete(r.media, id)
	if r.occupants[key] == id {
		delete(r.occupants, key)
	}
	if members, exists := r.rooms[key.Room]; exists {
		delete(members, id)
		if len(members) == 0 {
			delete(r.rooms, key.Room)
		}
	}
}

// MembersOf returns the current member connections of a room. An unknown room
// yields an empty slice, not an error.
func (r *Registry) MembersOf(room domain.RoomID) []ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.rooms[room]
	out := make([]ConnID, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

func (r *Registry) RoomOf(id ConnID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.conns[id]
	return key.Room, ok
}

func (r *Registry) ParticipantOf(id ConnID) (domain.ParticipantID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.conns[id]
	return key.Participant, ok
}

// SetMedia records a status change. It refuses connections that are not
// currently registered in a room, keeping the media map in lockstep with
// membership.
func (r *Registry) SetMedia(id ConnID, media domain.MediaStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, registered := r.conns[id]; !registered {
		return false
	}
	r.media[id] = media
	return true
}

func (r *Registry) MediaOf(id ConnID) (domain.MediaStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	media, ok := r.media[id]
	return media, ok
}

// Rooms lists all live rooms with their member counts.
func (r *Registry) Rooms() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for room, members := range r.rooms {
		out = append(out, RoomInfo{ID: room, MemberCount: len(members)})
	}
	return out
}
