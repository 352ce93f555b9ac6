package app

import (
	"context"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/consiliumhq/signaling/internal/core"
	"github.com/consiliumhq/signaling/internal/domain"
)

// Coordinator orchestrates the connection lifecycle: join validation and
// admission, dedup eviction, presence broadcast, signaling relay, media
// status and chat fan-out. Registry mutations are in-memory and atomic;
// external collaborator calls never run under a registry lock.
type Coordinator struct {
	Peers    *PeerTable
	Rooms    *core.Registry
	Meetings MeetingDirectory
	Catalog  RoomCatalog
	Chat     MessageStore
}

func NewCoordinator(meetings MeetingDirectory, catalog RoomCatalog, chat MessageStore) *Coordinator {
	return &Coordinator{
		Peers:    NewPeerTable(),
		Rooms:    core.NewRegistry(),
		Meetings: meetings,
		Catalog:  catalog,
		Chat:     chat,
	}
}

// JoinRequest carries the join-room payload after boundary validation.
type JoinRequest struct {
	Room  domain.RoomID
	Media domain.MediaStatus
}

// Connect binds an authenticated peer and confirms its identity back to it.
func (c *Coordinator) Connect(p *Peer) {
	c.Peers.Bind(p)
	c.send(p, selfInfoEvent{
		Type:         EventSelfInfo,
		ConnectionID: p.ID,
		Identity:     p.Identity,
	})
}

// Join runs the admission pipeline. Each step short-circuits on failure; the
// connection stays usable after a rejection. Registry admission happens
// before any broadcast, so a concurrent joiner can never see a "user-joined"
// for a member that a membership query would miss.
func (c *Coordinator) Join(ctx context.Context, id core.ConnID, req JoinRequest) {
	p, ok := c.Peers.Get(id)
	if !ok {
		return
	}
	if p.Identity.ID == "" {
		c.sendError(p, ReasonNotAuthenticated, "identity not resolved")
		return
	}
	if req.Room == "" {
		c.sendError(p, ReasonRoomRequired, "room id is required")
		return
	}

	displayName := string(req.Room)
	meeting, err := c.Meetings.MeetingExists(ctx, req.Room)
	switch {
	case err != nil:
		log.Error().Err(err).Str("module", "app.coordinator").
			Str("room", string(req.Room)).Msg("meeting lookup failed")
		c.sendError(p, ReasonRoomUnavailable, "meeting store unavailable")
		return
	case meeting == nil:
		// Room not registered upstream yet. Legacy rooms are admitted
		// without a participant check.
		log.Warn().Str("module", "app.coordinator").Str("room", string(req.Room)).
			Str("participant", string(p.Identity.ID)).Msg("joining unregistered room")
	default:
		displayName = meeting.Title
		member, err := c.Meetings.IsParticipant(ctx, req.Room, p.Identity.ID)
		if err != nil {
			log.Error().Err(err).Str("module", "app.coordinator").
				Str("room", string(req.Room)).Msg("participant lookup failed")
			c.sendError(p, ReasonRoomUnavailable, "meeting store unavailable")
			return
		}
		if !member {
			c.sendError(p, ReasonNotParticipant, "not a participant of this meeting")
			return
		}
	}

	// Admission and eviction are one atomic registry step: by the time the
	// displaced connection is notified it is already gone from every index.
	prevRoom, hadRoom := c.Rooms.RoomOf(id)
	evicted, hadPrior := c.Rooms.Add(id, req.Room, p.Identity.ID, req.Media)
	if hadRoom && prevRoom != req.Room {
		// The registry detached the connection from its previous room; that
		// room's members need the matching leave notification.
		c.broadcastExcept(prevRoom, id, userLeftEvent{
			Type:         EventUserLeft,
			Room:         prevRoom,
			ConnectionID: id,
		})
		log.Info().Str("module", "app.coordinator").Str("conn", string(id)).
			Str("from", string(prevRoom)).Str("to", string(req.Room)).Msg("moved rooms")
	}
	if hadPrior {
		if old, ok := c.Peers.Get(evicted); ok {
			c.send(old, connectionDuplicateEvent{Type: EventConnectionDuplicate, Room: req.Room})
			old.Shutdown()
		}
		log.Info().Str("module", "app.coordinator").Str("conn", string(evicted)).
			Str("room", string(req.Room)).Msg("evicted duplicate connection")
		c.broadcastExcept(req.Room, id, userLeftEvent{
			Type:         EventUserLeft,
			Room:         req.Room,
			ConnectionID: evicted,
		})
	}

	if err := c.Catalog.EnsureRoom(ctx, req.Room, displayName); err != nil {
		log.Warn().Err(err).Str("module", "app.coordinator").
			Str("room", string(req.Room)).Msg("room catalog upsert failed")
	}

	c.send(p, existingUsersEvent{
		Type:    EventExistingUsers,
		Room:    req.Room,
		Members: c.roomSnapshot(ctx, req.Room, id),
	})

	if history, err := c.Chat.HistoryFor(ctx, req.Room); err != nil {
		log.Warn().Err(err).Str("module", "app.coordinator").
			Str("room", string(req.Room)).Msg("chat history fetch failed")
	} else {
		c.send(p, messageHistoryEvent{Type: EventMessageHistory, Room: req.Room, Messages: history})
	}

	c.broadcastExcept(req.Room, id, userJoinedEvent{
		Type:   EventUserJoined,
		Room:   req.Room,
		Member: c.memberView(ctx, id),
	})
	log.Info().Str("module", "app.coordinator").Str("conn", string(id)).
		Str("room", string(req.Room)).Str("participant", string(p.Identity.ID)).Msg("joined room")
}

// Disconnect runs the leave path. Duplicate disconnect signals are no-ops:
// the registry removal reports whether this call was the one that detached
// the connection.
func (c *Coordinator) Disconnect(id core.ConnID) {
	room, _, wasMember := c.Rooms.Remove(id)
	if wasMember {
		c.broadcastExcept(room, id, userLeftEvent{
			Type:         EventUserLeft,
			Room:         room,
			ConnectionID: id,
		})
	}
	if p, ok := c.Peers.Unbind(id); ok {
		p.Shutdown()
		log.Info().Str("module", "app.coordinator").Str("conn", string(id)).Msg("disconnected")
	}
}

// RelayOffer, RelayAnswer and RelayCandidate forward negotiation payloads
// verbatim to one target connection. A missing target is the normal
// asynchronous-disconnect case and is dropped silently; so is a target in a
// different room, which would otherwise leak negotiation across rooms.
func (c *Coordinator) RelayOffer(from, target core.ConnID, desc webrtc.SessionDescription) {
	c.relay(from, target, relayEvent{Type: EventReceivingOffer, From: from, Description: &desc})
}

func (c *Coordinator) RelayAnswer(from, target core.ConnID, desc webrtc.SessionDescription) {
	c.relay(from, target, relayEvent{Type: EventReceivingAnswer, From: from, Description: &desc})
}

func (c *Coordinator) RelayCandidate(from, target core.ConnID, cand webrtc.ICECandidateInit) {
	c.relay(from, target, relayEvent{Type: EventReceivingICECandidate, From: from, Candidate: &cand})
}

func (c *Coordinator) relay(from, target core.ConnID, ev relayEvent) {
	fromRoom, ok := c.Rooms.RoomOf(from)
	if !ok {
		return
	}
	targetRoom, ok := c.Rooms.RoomOf(target)
	if !ok || targetRoom != fromRoom {
		log.Debug().Str("module", "app.coordinator").Str("from", string(from)).
			Str("target", string(target)).Str("kind", ev.Type).Msg("relay target gone, dropping")
		return
	}
	if p, ok := c.Peers.Get(target); ok {
		c.send(p, ev)
	}
}

// UpdateMedia records a connection's own media flags and broadcasts the
// change to the whole room, sender included, so every UI converges.
func (c *Coordinator) UpdateMedia(id core.ConnID, media domain.MediaStatus) {
	p, ok := c.Peers.Get(id)
	if !ok {
		return
	}
	room, inRoom := c.Rooms.RoomOf(id)
	if !inRoom || !c.Rooms.SetMedia(id, media) {
		c.sendError(p, ReasonNotInRoom, "join a room before changing media status")
		return
	}
	c.broadcastMedia(room, id, p.Identity.ID, media)
}

// SendChat persists under the authenticated identity and broadcasts the
// stored message. Client-supplied sender fields never reach this path.
func (c *Coordinator) SendChat(ctx context.Context, id core.ConnID, room domain.RoomID, meetingID, content string) {
	p, ok := c.Peers.Get(id)
	if !ok {
		return
	}
	current, inRoom := c.Rooms.RoomOf(id)
	if room == "" {
		room = current
	}
	if !inRoom || current != room {
		c.sendError(p, ReasonNotInRoom, "join the room before sending messages")
		return
	}
	if meetingID == "" {
		resolved, err := c.Meetings.MeetingForRoom(ctx, room)
		if err != nil {
			log.Warn().Err(err).Str("module", "app.coordinator").
				Str("room", string(room)).Msg("meeting id lookup failed")
		}
		meetingID = resolved
	}
	if meetingID == "" {
		meetingID = string(room)
	}

	msg, err := c.Chat.SaveMessage(ctx, meetingID, room, p.Identity.ID, content)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").
			Str("room", string(room)).Msg("chat persistence failed")
		c.sendError(p, ReasonChatFailed, "message could not be stored")
		return
	}
	c.broadcastAll(room, chatMessageEvent{Type: EventReceiveChatMessage, Message: msg})
}
