package event

// VaultChangedDestination receives one message per push or import that
// changed an owner's entries.
const VaultChangedDestination string = "vault.changed"

type VaultChangedMessage struct {
	UserID   int64  `json:"user_id"`
	DeviceID string `json:"device_id,omitempty"`
	Source   string `json:"source"`
	Changed  int    `json:"changed"`
	// At is RFC 3339 with nanoseconds.
	At string `json:"at"`
}
