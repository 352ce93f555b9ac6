package domain

// RoomID is the externally-defined meeting room identifier. The signaling
// layer validates it against the meeting store but does not own it.
type RoomID string

// Meeting is the slice of the external meeting record the signaling layer
// cares about.
type Meeting struct {
	ID     string
	Title  string
	Status string
}
