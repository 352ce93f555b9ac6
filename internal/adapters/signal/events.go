package signal

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/pion/webrtc/v4"
)

// Inbound payloads form a small closed set of tagged variants, validated here
// at the boundary before anything reaches the coordinator.

var validate = validator.New()

type joinPayload struct {
	Type         string `json:"type"`
	RoomID       string `json:"roomId" validate:"required,max=128"`
	MicEnabled   bool   `json:"micEnabled"`
	VideoEnabled bool   `json:"videoEnabled"`
}

type offerPayload struct {
	Type        string                    `json:"type"`
	Target      string                    `json:"target" validate:"required"`
	Description webrtc.SessionDescription `json:"description"`
}

type candidatePayload struct {
	Type      string                  `json:"type"`
	Target    string                  `json:"target" validate:"required"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

type mediaStatusPayload struct {
	Type         string `json:"type"`
	RoomID       string `json:"roomId"`
	MicEnabled   bool   `json:"micEnabled"`
	VideoEnabled bool   `json:"videoEnabled"`
}

// chatPayload deliberately has no sender field: the authenticated identity of
// the connection is the sender, whatever the client claims.
type chatPayload struct {
	Type      string `json:"type"`
	Content   string `json:"content" validate:"required,max=4096"`
	RoomID    string `json:"roomId"`
	MeetingID string `json:"meetingId"`
}

func decode[T any](data []byte) (T, error) {
	var p T
	if err := json.Unmarshal(data, &p); err != nil {
		return p, err
	}
	if err := validate.Struct(&p); err != nil {
		return p, err
	}
	return p, nil
}
