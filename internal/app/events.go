package app

import (
	"encoding/json"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/consiliumhq/signaling/internal/core"
	"github.com/consiliumhq/signaling/internal/domain"
)

// Outbound event names. These are the wire contract with the dashboard.
const (
	EventSelfInfo               = "self-info"
	EventExistingUsers          = "get-existing-users"
	EventUserJoined             = "user-joined"
	EventUserLeft               = "user-left"
	EventReceivingOffer         = "receiving-offer"
	EventReceivingAnswer        = "receiving-answer"
	EventReceivingICECandidate  = "receiving-ice-candidate"
	EventMediaStatusChanged     = "media-status-changed"
	EventParticipantMediaUpdate = "participant-media-update"
	EventReceiveChatMessage     = "receive-chat-message"
	EventMessageHistory         = "message-history"
	EventConnectionDuplicate    = "connection-duplicate"
	EventError                  = "error"
)

// Rejection reasons carried on error events, distinguishable so the client
// can react differently to "not invited" vs "try again".
const (
	ReasonNotAuthenticated = "not_authenticated"
	ReasonRoomRequired     = "room_required"
	ReasonNotParticipant   = "not_participant"
	ReasonRoomUnavailable  = "room_unavailable"
	ReasonNotInRoom        = "not_in_room"
	ReasonChatFailed       = "chat_failed"
	ReasonBadPayload       = "bad_payload"
	ReasonRateLimited      = "rate_limited"
)

// MemberView is the enriched per-connection projection broadcast in presence
// events and membership snapshots.
type MemberView struct {
	ConnectionID  core.ConnID          `json:"connectionId"`
	ParticipantID domain.ParticipantID `json:"participantId"`
	DisplayName   string               `json:"displayName"`
	FirstName     string               `json:"firstName,omitempty"`
	LastName      string               `json:"lastName,omitempty"`
	Role          domain.Role          `json:"role,omitempty"`
	Specialty     string               `json:"specialty,omitempty"`
	AvatarURL     string               `json:"avatarUrl,omitempty"`
	Media         domain.MediaStatus   `json:"media"`
}

type selfInfoEvent struct {
	Type         string          `json:"type"`
	ConnectionID core.ConnID     `json:"connectionId"`
	Identity     domain.Identity `json:"identity"`
}

type existingUsersEvent struct {
	Type    string        `json:"type"`
	Room    domain.RoomID `json:"roomId"`
	Members []MemberView  `json:"members"`
}

type userJoinedEvent struct {
	Type   string        `json:"type"`
	Room   domain.RoomID `json:"roomId"`
	Member MemberView    `json:"member"`
}

type userLeftEvent struct {
	Type         string        `json:"type"`
	Room         domain.RoomID `json:"roomId"`
	ConnectionID core.ConnID   `json:"connectionId"`
}

type connectionDuplicateEvent struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"roomId"`
}

// relayEvent forwards a negotiation payload verbatim, tagged with the sender
// connection id so the recipient can route its reply.
type relayEvent struct {
	Type        string                     `json:"type"`
	From        core.ConnID                `json:"from"`
	Description *webrtc.SessionDescription `json:"description,omitempty"`
	Candidate   *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}

type mediaStatusEvent struct {
	Type          string               `json:"type"`
	ConnectionID  core.ConnID          `json:"connectionId"`
	ParticipantID domain.ParticipantID `json:"participantId"`
	MicEnabled    bool                 `json:"micEnabled"`
	VideoEnabled  bool                 `json:"videoEnabled"`
	At            time.Time            `json:"at"`
}

type chatMessageEvent struct {
	Type    string             `json:"type"`
	Message domain.ChatMessage `json:"message"`
}

type messageHistoryEvent struct {
	Type     string               `json:"type"`
	Room     domain.RoomID        `json:"roomId"`
	Messages []domain.ChatMessage `json:"messages"`
}

// ErrorEvent is the single wire shape for rejections, shared with the
// transport boundary so both layers emit identical error frames.
type ErrorEvent struct {
	Type    string `json:"type"`
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

// send marshals and pushes one event to a single peer. Backpressure drops
// are logged, never fatal to the sender's own flow.
func (c *Coordinator) send(p *Peer, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("event marshal")
		return
	}
	if err := p.Conn.TrySend(core.Frame(b)); err != nil {
		log.Warn().Err(err).Str("module", "app.coordinator").
			Str("conn", string(p.ID)).Msg("dropped outbound event")
	}
}

func (c *Coordinator) sendError(p *Peer, reason, message string) {
	c.send(p, ErrorEvent{Type: EventError, Reason: reason, Message: message})
}
