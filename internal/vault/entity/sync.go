package entity

import "time"

// SyncType is the direction of a sync call.
type SyncType string

const (
	SyncTypePull SyncType = "pull"
	SyncTypePush SyncType = "push"
)

// SyncLog is one append-only audit row.
type SyncLog struct {
	ID       int64
	UserID   int64
	DeviceID string
	Type     SyncType
	SyncedAt time.Time
}

// Owner is the minimal user record the vault keeps for foreign keys.
type Owner struct {
	ID        int64
	Email     string
	CreatedAt time.Time
}

// Backup is one archived snapshot in object storage.
type Backup struct {
	Key       string
	Size      int64
	CreatedAt time.Time
	URL       string
}
