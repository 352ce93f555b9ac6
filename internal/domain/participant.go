// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxDisplayNameLen = 72

var (
	ErrDisplayNameEmpty   = errors.New("display name empty")
	ErrDisplayNameTooLong = errors.New("display name too long")
)

type ParticipantID string

// Identity is what the external identity service resolves a credential to.
// It is set once per connection and never mutated afterwards.
type Identity struct {
	ID          ParticipantID `json:"id"`
	Email       string        `json:"email"`
	DisplayName string        `json:"displayName"`
}

func NewIdentity(id ParticipantID, email, displayName string) (Identity, error) {
	if len(displayName) == 0 {
		return Identity{}, ErrDisplayNameEmpty
	}
	if len(displayName) > MaxDisplayNameLen {
		return Identity{}, ErrDisplayNameTooLong
	}
	return Identity{ID: id, Email: email, DisplayName: displayName}, nil
}

// Role is the participant's function within a meeting, sourced from the
// external meeting store.
type Role string

const (
	RoleOrganizer   Role = "organizer"
	RoleCoAdmin     Role = "co-admin"
	RoleParticipant Role = "participant"
)

// Profile is the read-through view of a clinical-staff member. The signaling
// layer caches it per event, it owns no participant record.
type Profile struct {
	ID        ParticipantID `json:"id"`
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	Role      Role          `json:"role"`
	Specialty string        `json:"specialty"`
	AvatarURL string        `json:"avatarUrl,omitempty"`
}
