package app

import (
	"context"

	"github.com/consiliumhq/signaling/internal/domain"
)

// IdentityVerifier resolves a bearer credential to a participant identity.
// Called once per connection at handshake time; side-effect free.
type IdentityVerifier interface {
	Verify(credential string) (domain.Identity, error)
}

// MeetingDirectory is the external relational store of meetings and their
// participants. The signaling layer only reads through it.
type MeetingDirectory interface {
	// MeetingExists returns nil with no error when the room is unknown
	// upstream; the caller decides how to degrade.
	MeetingExists(ctx context.Context, room domain.RoomID) (*domain.Meeting, error)
	IsParticipant(ctx context.Context, room domain.RoomID, pid domain.ParticipantID) (bool, error)
	ParticipantProfile(ctx context.Context, pid domain.ParticipantID) (domain.Profile, error)
	// MeetingForRoom resolves the owning meeting id, "" when unknown.
	MeetingForRoom(ctx context.Context, room domain.RoomID) (string, error)
}

// RoomCatalog is the external room-naming store. EnsureRoom is an idempotent
// upsert keyed by room id.
type RoomCatalog interface {
	EnsureRoom(ctx context.Context, room domain.RoomID, displayName string) error
}

// MessageStore is the external chat persistence. SaveMessage assigns the
// message id and timestamp server-side.
type MessageStore interface {
	SaveMessage(ctx context.Context, meetingID string, room domain.RoomID, sender domain.ParticipantID, content string) (domain.ChatMessage, error)
	HistoryFor(ctx context.Context, room domain.RoomID) ([]domain.ChatMessage, error)
}
