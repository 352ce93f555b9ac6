package core

// Frame is a raw outbound payload, already encoded for the wire.
type Frame []byte

// ConnID identifies one physical client connection. It is generated by the
// transport layer and is unique per connection, not per participant.
type ConnID string

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
