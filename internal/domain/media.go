package domain

// MediaStatus is per-connection transient state, mutated only by the owning
// connection's own status-change messages. Last write wins at receivers.
type MediaStatus struct {
	MicEnabled   bool `json:"micEnabled"`
	VideoEnabled bool `json:"videoEnabled"`
}
