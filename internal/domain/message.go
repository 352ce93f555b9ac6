package domain

import "time"

// ChatMessage is a persisted room message. ID and CreatedAt are assigned by
// the message store, never by the client.
type ChatMessage struct {
	ID        string        `json:"id"`
	MeetingID string        `json:"meetingId"`
	RoomID    RoomID        `json:"roomId"`
	SenderID  ParticipantID `json:"senderId"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"createdAt"`
}
