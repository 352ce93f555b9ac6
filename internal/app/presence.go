package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/consiliumhq/signaling/internal/core"
	"github.com/consiliumhq/signaling/internal/domain"
)

// broadcastAll fans an event out to every current room member.
func (c *Coordinator) broadcastAll(room domain.RoomID, v any) {
	for _, id := range c.Rooms.MembersOf(room) {
		if p, ok := c.Peers.Get(id); ok {
			c.send(p, v)
		}
	}
}

// broadcastExcept fans an event out to every room member but one, typically
// the connection the event is about.
func (c *Coordinator) broadcastExcept(room domain.RoomID, except core.ConnID, v any) {
	for _, id := range c.Rooms.MembersOf(room) {
		if id == except {
			continue
		}
		if p, ok := c.Peers.Get(id); ok {
			c.send(p, v)
		}
	}
}

func (c *Coordinator) broadcastMedia(room domain.RoomID, id core.ConnID, pid domain.ParticipantID, media domain.MediaStatus) {
	at := time.Now().UTC()
	for _, name := range []string{EventMediaStatusChanged, EventParticipantMediaUpdate} {
		c.broadcastAll(room, mediaStatusEvent{
			Type:          name,
			ConnectionID:  id,
			ParticipantID: pid,
			MicEnabled:    media.MicEnabled,
			VideoEnabled:  media.VideoEnabled,
			At:            at,
		})
	}
}

// roomSnapshot assembles the enriched membership view sent to a new joiner,
// excluding the joiner itself.
func (c *Coordinator) roomSnapshot(ctx context.Context, room domain.RoomID, except core.ConnID) []MemberView {
	others := lo.Filter(c.Rooms.MembersOf(room), func(id core.ConnID, _ int) bool {
		return id != except
	})
	return lo.Map(others, func(id core.ConnID, _ int) MemberView {
		return c.memberView(ctx, id)
	})
}

// memberView enriches one connection with its participant profile. Profile
// lookup failures degrade to the cached identity rather than blocking
// presence.
func (c *Coordinator) memberView(ctx context.Context, id core.ConnID) MemberView {
	view := MemberView{ConnectionID: id}
	if p, ok := c.Peers.Get(id); ok {
		view.ParticipantID = p.Identity.ID
		view.DisplayName = p.Identity.DisplayName
	}
	if media, ok := c.Rooms.MediaOf(id); ok {
		view.Media = media
	}
	if view.ParticipantID == "" {
		return view
	}
	profile, err := c.Meetings.ParticipantProfile(ctx, view.ParticipantID)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.coordinator").
			Str("participant", string(view.ParticipantID)).Msg("profile lookup failed")
		return view
	}
	view.FirstName = profile.FirstName
	view.LastName = profile.LastName
	view.Role = profile.Role
	view.Specialty = profile.Specialty
	view.AvatarURL = profile.AvatarURL
	return view
}

// RoomMembers is the REST projection of a room's membership.
func (c *Coordinator) RoomMembers(ctx context.Context, room domain.RoomID) []MemberView {
	return lo.Map(c.Rooms.MembersOf(room), func(id core.ConnID, _ int) MemberView {
		return c.memberView(ctx, id)
	})
}
